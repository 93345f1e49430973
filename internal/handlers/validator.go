package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"taskflow/internal/common"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// RequestValidator plugs validator/v10 into echo so that handlers can call c.Validate.
type RequestValidator struct {
	validate *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &RequestValidator{validate: v}
}

// Validate reports the first failing field as a validation error.
func (v *RequestValidator) Validate(i interface{}) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return common.NewValidationError("invalid request body")
	}

	fe := fieldErrs[0]
	switch fe.Tag() {
	case "required":
		return common.NewValidationError(fmt.Sprintf("%s is required", fe.Field()))
	case "email":
		return common.NewValidationError(fmt.Sprintf("%s must be a valid email address", fe.Field()))
	case "min":
		return common.NewValidationError(fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param()))
	case "max":
		return common.NewValidationError(fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param()))
	case "oneof":
		return common.NewValidationError(fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param()))
	default:
		return common.NewValidationError(fmt.Sprintf("%s is invalid", fe.Field()))
	}
}

// bindAndValidate decodes the request body into req and runs the struct validator.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return common.NewValidationError("invalid request body")
	}
	if c.Echo().Validator == nil {
		return nil
	}
	return c.Validate(req)
}
