package serrors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// BaseError is an expected, user-actionable error with a stable code.
type BaseError struct {
	Code         string            `json:"code"`
	Message      string            `json:"message"`
	LocaleKey    string            `json:"locale_key,omitempty"`
	TemplateData map[string]string `json:"template_data,omitempty"`
	Details      map[string]any    `json:"details,omitempty"`
	cause        error
}

func NewError(code, message, localeKey string) *BaseError {
	return &BaseError{
		Code:      code,
		Message:   message,
		LocaleKey: localeKey,
	}
}

func (e *BaseError) Error() string {
	if e.cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.cause)
}

func (e *BaseError) Unwrap() error { return e.cause }

// Is matches any BaseError carrying the same code, so derived errors built
// with WithTemplateData/WithDetails still satisfy errors.Is(err, Sentinel).
func (e *BaseError) Is(target error) bool {
	var other *BaseError
	if !errors.As(target, &other) {
		return false
	}
	return other.Code == e.Code
}

func (e *BaseError) clone() *BaseError {
	c := *e
	if e.TemplateData != nil {
		c.TemplateData = make(map[string]string, len(e.TemplateData))
		for k, v := range e.TemplateData {
			c.TemplateData[k] = v
		}
	}
	if e.Details != nil {
		c.Details = make(map[string]any, len(e.Details))
		for k, v := range e.Details {
			c.Details[k] = v
		}
	}
	return &c
}

func (e *BaseError) WithTemplateData(data map[string]string) *BaseError {
	c := e.clone()
	if c.TemplateData == nil {
		c.TemplateData = map[string]string{}
	}
	for k, v := range data {
		c.TemplateData[k] = v
	}
	return c
}

func (e *BaseError) WithDetails(details map[string]any) *BaseError {
	c := e.clone()
	if c.Details == nil {
		c.Details = map[string]any{}
	}
	for k, v := range details {
		c.Details[k] = v
	}
	return c
}

func (e *BaseError) WithMessage(format string, args ...any) *BaseError {
	c := e.clone()
	c.Message = fmt.Sprintf(format, args...)
	return c
}

func (e *BaseError) Wrap(cause error) *BaseError {
	c := e.clone()
	c.cause = cause
	return c
}

// Code returns the stable code of the first BaseError in the chain.
func Code(err error) (string, bool) {
	var be *BaseError
	if errors.As(err, &be) {
		return be.Code, true
	}
	return "", false
}

// ValidationErrors maps a field name to its message.
type ValidationErrors map[string]string

var (
	ErrValidation = NewError("VALIDATION_FAILED", "validation failed", "Errors.ValidationFailed")
	ErrNotFound   = NewError("NOT_FOUND", "not found", "Errors.NotFound")
	ErrConflict   = NewError("CONFLICT", "conflicting concurrent update", "Errors.Conflict")
)

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for field, msg := range v {
		parts = append(parts, field+": "+msg)
	}
	return strings.Join(parts, "; ")
}

// AsError converts non-empty validation errors into a VALIDATION_FAILED BaseError.
func (v ValidationErrors) AsError() error {
	if len(v) == 0 {
		return nil
	}
	details := make(map[string]any, len(v))
	for field, msg := range v {
		details[field] = msg
	}
	return ErrValidation.WithDetails(details).WithMessage("validation failed: %s", v.Error())
}

// ProcessValidatorErrors turns validator output into field messages.
func ProcessValidatorErrors(errs validator.ValidationErrors) ValidationErrors {
	out := make(ValidationErrors, len(errs))
	for _, fe := range errs {
		switch fe.Tag() {
		case "required":
			out[fe.Field()] = "is required"
		case "gt", "gte", "min":
			out[fe.Field()] = fmt.Sprintf("must be at least %s", fe.Param())
		case "max", "lte", "lt":
			out[fe.Field()] = fmt.Sprintf("must be at most %s", fe.Param())
		case "oneof":
			out[fe.Field()] = fmt.Sprintf("must be one of [%s]", fe.Param())
		default:
			out[fe.Field()] = fmt.Sprintf("failed on %q", fe.Tag())
		}
	}
	return out
}
