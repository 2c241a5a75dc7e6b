package serrors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// BaseError is a sentinel error carrying a stable machine-readable code.
type BaseError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	LocaleKey string `json:"locale_key,omitempty"`
}

func NewError(code, message, localeKey string) *BaseError {
	return &BaseError{
		Code:      code,
		Message:   message,
		LocaleKey: localeKey,
	}
}

func (e *BaseError) Error() string {
	return e.Message
}

// Is matches any BaseError with the same code, so wrapped copies compare equal.
func (e *BaseError) Is(target error) bool {
	var t *BaseError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// CodeOf returns the code of the first BaseError in the chain.
func CodeOf(err error) (string, bool) {
	var be *BaseError
	if errors.As(err, &be) {
		return be.Code, true
	}
	return "", false
}

// ValidationErrors maps an input field name to a human readable problem.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for field, msg := range v {
		parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
	}
	return strings.Join(parts, "; ")
}

// First returns a deterministic message for the given field order.
func (v ValidationErrors) First(order ...string) string {
	for _, f := range order {
		if msg, ok := v[f]; ok {
			return msg
		}
	}
	for _, msg := range v {
		return msg
	}
	return ""
}

func ProcessValidatorErrors(errs validator.ValidationErrors, fieldName func(string) string) ValidationErrors {
	out := make(ValidationErrors, len(errs))
	for _, fe := range errs {
		name := fe.Field()
		if fieldName != nil {
			if mapped := fieldName(name); mapped != "" {
				name = mapped
			}
		}
		out[name] = describe(name, fe)
	}
	return out
}

func describe(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "datetime":
		return fmt.Sprintf("%s must match format %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
	}
}
