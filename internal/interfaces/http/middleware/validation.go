package middleware

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/invoicing/backend/internal/domain/banking"
	"github.com/invoicing/backend/internal/interfaces/http/dto"
)

var setupOnce sync.Once

// SetupValidator configures gin's validator: errors name fields by their
// json tag, and the currency, country and account_type tags check
// ISO 4217 codes, ISO 3166 codes and bank account types.
func SetupValidator() {
	setupOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		RegisterValidations(v)
	})
}

// RegisterValidations installs the custom tags on v
func RegisterValidations(v *validator.Validate) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		return name
	})
	_ = v.RegisterValidation("currency", func(fl validator.FieldLevel) bool {
		_, err := banking.ParseCurrency(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("country", func(fl validator.FieldLevel) bool {
		_, err := banking.ParseCountry(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("account_type", func(fl validator.FieldLevel) bool {
		_, err := banking.ParseAccountType(fl.Field().String())
		return err == nil
	})
}

// FormatValidationErrors turns validator errors into field details
func FormatValidationErrors(err error) []dto.ValidationDetail {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	details := make([]dto.ValidationDetail, 0, len(verrs))
	for _, e := range verrs {
		details = append(details, dto.ValidationDetail{
			Field:   e.Field(),
			Message: validationMessage(e),
		})
	}
	return details
}

// HandleBindError answers a failed ShouldBind: 422 with details for
// rejected fields, 413 for oversized bodies and 400 for anything else
func HandleBindError(c *gin.Context, err error) {
	requestID := c.GetString(RequestIDKey)

	if details := FormatValidationErrors(err); details != nil {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity,
			dto.NewValidationErrorResponse("Request validation failed", requestID, details))
		return
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge,
			dto.NewErrorResponse(dto.ErrCodeTooLarge, "Request body exceeds maximum allowed size", requestID))
		return
	}
	c.AbortWithStatusJSON(http.StatusBadRequest,
		dto.NewErrorResponse(dto.ErrCodeBadRequest, "Malformed request", requestID))
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "uuid":
		return "Invalid UUID format"
	case "min":
		if e.Kind() == reflect.String {
			return "Must be at least " + e.Param() + " characters"
		}
		return "Must be at least " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return "Must be at most " + e.Param() + " characters"
		}
		return "Must be at most " + e.Param()
	case "gte":
		return "Must be greater than or equal to " + e.Param()
	case "lte":
		return "Must be less than or equal to " + e.Param()
	case "oneof":
		return "Must be one of: " + e.Param()
	case "currency":
		return "Must be an ISO 4217 currency code"
	case "country":
		return "Must be an ISO 3166 country code"
	case "account_type":
		return "Must be BUSINESS or PERSONAL"
	default:
		return "Invalid value"
	}
}
