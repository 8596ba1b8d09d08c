package dto

import (
	"errors"
	"net/http"

	"github.com/invoicing/backend/internal/domain/shared"
)

// Error codes returned to clients. Format: ERR_<DESCRIPTION>
const (
	ErrCodeInternal = "ERR_INTERNAL"

	ErrCodeValidation  = "ERR_VALIDATION"
	ErrCodeBadRequest  = "ERR_BAD_REQUEST"
	ErrCodeTooLarge    = "ERR_REQUEST_TOO_LARGE"
	ErrCodeRateLimited = "ERR_RATE_LIMITED"

	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenRevoked = "ERR_TOKEN_REVOKED"
	ErrCodeForbidden    = "ERR_FORBIDDEN"

	ErrCodeNotFound      = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	ErrCodeUnsupported   = "ERR_UNSUPPORTED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeValidation:  http.StatusUnprocessableEntity,
	ErrCodeBadRequest:  http.StatusBadRequest,
	ErrCodeTooLarge:    http.StatusRequestEntityTooLarge,
	ErrCodeRateLimited: http.StatusTooManyRequests,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenRevoked: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,

	ErrCodeNotFound:      http.StatusNotFound,
	ErrCodeAlreadyExists: http.StatusConflict,
	ErrCodeUnsupported:   http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status for an error code, 500 when unknown
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodes maps domain error codes to client error codes
var DomainErrorCodes = map[string]string{
	shared.CodeNotFound:           ErrCodeNotFound,
	shared.CodeAlreadyExists:      ErrCodeAlreadyExists,
	shared.CodePermissionDenied:   ErrCodeForbidden,
	shared.CodeValidation:         ErrCodeValidation,
	shared.CodeUnsupportedMessage: ErrCodeUnsupported,
	shared.CodeStorage:            ErrCodeInternal,
	shared.CodeMultipleMatches:    ErrCodeInternal,
	shared.CodeService:            ErrCodeInternal,
}

// NormalizeErrorCode converts a domain error code to the client format.
// Unknown codes become ERR_INTERNAL.
func NormalizeErrorCode(code string) string {
	if c, ok := DomainErrorCodes[code]; ok {
		return c
	}
	return ErrCodeInternal
}

// FromError turns any error returned by the core into a status and an
// error body. Server-side failures get a generic message; their detail
// belongs in the logs only.
func FromError(err error) (int, ErrorInfo) {
	code := NormalizeErrorCode(shared.CodeOf(err))
	status := GetHTTPStatus(code)
	if status >= http.StatusInternalServerError {
		return status, ErrorInfo{Code: code, Message: "An internal error occurred"}
	}

	message := http.StatusText(status)
	var de *shared.DomainError
	if errors.As(err, &de) && de.Message != "" {
		message = de.Message
	}
	return status, ErrorInfo{Code: code, Message: message}
}
