package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/invoicing/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type accountForm struct {
	Title    string `json:"title" binding:"required,max=5"`
	Type     string `json:"type" binding:"required,account_type"`
	Currency string `json:"currency" binding:"required,currency"`
	Country  string `json:"country" binding:"required,country"`
}

func TestRegisterValidations(t *testing.T) {
	v := validator.New()
	v.SetTagName("binding")
	RegisterValidations(v)

	tests := []struct {
		name  string
		form  accountForm
		field string
	}{
		{"valid", accountForm{"main", "business", "EUR", "GB"}, ""},
		{"alpha-3 country", accountForm{"main", "PERSONAL", "rub", "RUS"}, ""},
		{"unknown currency", accountForm{"main", "PERSONAL", "XYZ", "US"}, "currency"},
		{"unknown country", accountForm{"main", "PERSONAL", "USD", "ZZ"}, "country"},
		{"unknown type", accountForm{"main", "SAVINGS", "USD", "US"}, "type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.form)
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			details := FormatValidationErrors(err)
			require.Len(t, details, 1)
			assert.Equal(t, tt.field, details[0].Field)
		})
	}
}

func TestFormatValidationErrors_NotValidation(t *testing.T) {
	assert.Nil(t, FormatValidationErrors(assert.AnError))
}

func TestHandleBindError(t *testing.T) {
	SetupValidator()

	r := gin.New()
	r.Use(RequestID())
	r.POST("/", func(c *gin.Context) {
		var req accountForm
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleBindError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})
	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		return serve(r, req)
	}

	t.Run("valid", func(t *testing.T) {
		w := post(`{"title":"main","type":"personal","currency":"usd","country":"us"}`)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("field details", func(t *testing.T) {
		w := post(`{"title":"too long","type":"personal","currency":"usd"}`)
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, dto.ErrCodeValidation, errorCode(t, w))
		assert.Contains(t, w.Body.String(), `"field":"title"`)
		assert.Contains(t, w.Body.String(), "Must be at most 5 characters")
		assert.Contains(t, w.Body.String(), `"field":"country"`)
		assert.Contains(t, w.Body.String(), "This field is required")
	})

	t.Run("malformed json", func(t *testing.T) {
		w := post(`{"title":`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeBadRequest, errorCode(t, w))
	})
}
