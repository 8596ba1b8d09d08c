package shared

import "errors"

// Error codes shared by every bounded context.
const (
	CodeNotFound           = "NOT_FOUND"
	CodeAlreadyExists      = "ALREADY_EXISTS"
	CodePermissionDenied   = "PERMISSION_DENIED"
	CodeValidation         = "VALIDATION_ERROR"
	CodeUnsupportedMessage = "UNSUPPORTED_MESSAGE"
	CodeStorage            = "STORAGE_ERROR"
	CodeMultipleMatches    = "MULTIPLE_MATCHES"
	CodeService            = "SERVICE_ERROR"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap exposes the underlying cause, if any
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a DomainError with the same code, so that
// errors.Is(err, shared.ErrNotFound) matches any not-found error.
func (e *DomainError) Is(target error) bool {
	var de *DomainError
	if !errors.As(target, &de) {
		return false
	}
	return de.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WrapDomainError creates a domain error carrying the underlying cause
func WrapDomainError(code, message string, cause error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Common domain errors
var (
	ErrNotFound           = NewDomainError(CodeNotFound, "Resource not found")
	ErrAlreadyExists      = NewDomainError(CodeAlreadyExists, "Resource already exists")
	ErrPermissionDenied   = NewDomainError(CodePermissionDenied, "Permission denied")
	ErrValidation         = NewDomainError(CodeValidation, "Validation failed")
	ErrUnsupportedMessage = NewDomainError(CodeUnsupportedMessage, "Unsupported message")
	ErrStorage            = NewDomainError(CodeStorage, "Storage failure")
	ErrMultipleMatches    = NewDomainError(CodeMultipleMatches, "More than one record matches")
	ErrService            = NewDomainError(CodeService, "Internal service error")
)

// NotFound returns a not-found error for the named resource
func NotFound(resource string) *DomainError {
	return NewDomainError(CodeNotFound, resource+" not found")
}

// AlreadyExists returns a conflict error with the given message
func AlreadyExists(message string) *DomainError {
	return NewDomainError(CodeAlreadyExists, message)
}

// PermissionDenied returns a permission error with the given message
func PermissionDenied(message string) *DomainError {
	return NewDomainError(CodePermissionDenied, message)
}

// Validation returns a business-rule violation error
func Validation(message string) *DomainError {
	return NewDomainError(CodeValidation, message)
}

// StorageFailure wraps an engine fault. The message stays generic; the
// cause is kept for logs.
func StorageFailure(op string, cause error) *DomainError {
	return WrapDomainError(CodeStorage, "storage failure during "+op, cause)
}

// ServiceFailure signals a caller-contract violation inside the core
func ServiceFailure(message string) *DomainError {
	return NewDomainError(CodeService, message)
}

// CodeOf returns the domain error code carried by err, or "" if none
func CodeOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}
