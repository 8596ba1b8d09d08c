package dto

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/invoicing/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrCodeValidation, http.StatusUnprocessableEntity},
		{ErrCodeBadRequest, http.StatusBadRequest},
		{ErrCodeTooLarge, http.StatusRequestEntityTooLarge},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		{ErrCodeUnauthorized, http.StatusUnauthorized},
		{ErrCodeTokenExpired, http.StatusUnauthorized},
		{ErrCodeForbidden, http.StatusForbidden},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeAlreadyExists, http.StatusConflict},
		{"SOMETHING_ELSE", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestFromError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{"not found", shared.NotFound("invoice"), http.StatusNotFound, ErrCodeNotFound, ""},
		{"conflict", shared.AlreadyExists("company name taken"), http.StatusConflict, ErrCodeAlreadyExists, "company name taken"},
		{"permission", shared.PermissionDenied("not a member"), http.StatusForbidden, ErrCodeForbidden, "not a member"},
		{"validation", shared.Validation("amount is negative"), http.StatusUnprocessableEntity, ErrCodeValidation, "amount is negative"},
		{"wrapped validation", fmt.Errorf("create: %w", shared.Validation("bad")), http.StatusUnprocessableEntity, ErrCodeValidation, "bad"},
		{"unsupported", shared.NewDomainError(shared.CodeUnsupportedMessage, "unsupported command x"), http.StatusInternalServerError, ErrCodeUnsupported, "An internal error occurred"},
		{"storage", shared.StorageFailure("invoices.add", errors.New("connection reset")), http.StatusInternalServerError, ErrCodeInternal, "An internal error occurred"},
		{"multiple", shared.NewDomainError(shared.CodeMultipleMatches, "2 rows"), http.StatusInternalServerError, ErrCodeInternal, "An internal error occurred"},
		{"service", shared.ServiceFailure("no uow"), http.StatusInternalServerError, ErrCodeInternal, "An internal error occurred"},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, ErrCodeInternal, "An internal error occurred"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, info := FromError(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, info.Code)
			if tt.message != "" {
				assert.Equal(t, tt.message, info.Message)
			}
			assert.NotContains(t, info.Message, "connection reset")
		})
	}
}

func TestNewPageResponse(t *testing.T) {
	resp := NewPageResponse([]string{"a", "b"}, 7, 2, 2)

	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"data":["a","b"],"meta":{"total":7,"offset":2,"limit":2}}`, string(raw))
}

func TestNewErrorResponse_OmitsEmptyFields(t *testing.T) {
	raw, err := json.Marshal(NewErrorResponse(ErrCodeNotFound, "Not Found", ""))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":false,"error":{"code":"ERR_NOT_FOUND","message":"Not Found"}}`, string(raw))

	raw, err = json.Marshal(NewValidationErrorResponse("Request validation failed", "req-1",
		[]ValidationDetail{{Field: "email", Message: "Invalid email format"}}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":false,"error":{"code":"ERR_VALIDATION","message":"Request validation failed",
		"request_id":"req-1","details":[{"field":"email","message":"Invalid email format"}]}}`, string(raw))
}
