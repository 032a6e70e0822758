package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/tbourn/go-notify-backend/internal/domain"
	"github.com/tbourn/go-notify-backend/internal/http/middleware"
)

func init() {
	// Report JSON field names in validation messages.
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(jsonFieldName)
	}
}

func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return f.Name
	}
	return name
}

// failValidation answers 422 with a message describing the first problem of
// a binding or domain validation error.
func failValidation(c *gin.Context, err error) {
	msg := validationMessage(err)
	middleware.LoggerFrom(c).Warn().Str("event", "validation_failed").Str("reason", msg).Msg("validation_failed")
	fail(c, http.StatusUnprocessableEntity, ErrCodeValidation, msg)
}

func validationMessage(err error) string {
	var (
		fieldErrs validator.ValidationErrors
		domainErr *domain.ValidationError
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
		timeErr   *time.ParseError
	)
	switch {
	case errors.As(err, &fieldErrs) && len(fieldErrs) > 0:
		return fieldMessage(fieldErrs[0])
	case errors.As(err, &domainErr):
		return domainErr.Error()
	case errors.As(err, &syntaxErr):
		return "request body is not valid JSON"
	case errors.As(err, &typeErr):
		if typeErr.Field != "" {
			return fmt.Sprintf("%s must be of type %s", typeErr.Field, typeErr.Type)
		}
		return "request body has the wrong shape"
	case errors.As(err, &timeErr):
		return "timestamps must be RFC 3339"
	case errors.Is(err, io.ErrUnexpectedEOF):
		return "request body is not valid JSON"
	}
	return "request body is invalid"
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must have at most %s entries", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param())
	}
	return field + " is invalid"
}
