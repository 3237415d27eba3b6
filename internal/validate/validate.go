// Package validate performs boundary validation of inbound values. Anything
// out of range is rejected with a ValidationError before it can reach the
// mastery model or the store; nothing is silently clamped.
package validate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is shared; validator.Validate caches struct metadata internally.
var validate = validator.New(validator.WithRequiredStructEnabled())

// FieldError describes a single rejected field.
type FieldError struct {
	Field string
	Rule  string
	Value any
}

// ValidationError reports one or more rejected fields on a boundary value.
type ValidationError struct {
	Subject string
	Fields  []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("%s: validation failed", e.Subject)
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s (rule %s, got %v)", f.Field, f.Rule, f.Value))
	}
	return fmt.Sprintf("%s: invalid fields: %s", e.Subject, strings.Join(parts, "; "))
}

// Struct validates v against its `validate` tags and converts failures into a
// *ValidationError named after subject.
func Struct(subject string, v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		// InvalidValidationError: v was not a struct. Caller bug.
		return fmt.Errorf("%s: %w", subject, err)
	}

	ve := &ValidationError{Subject: subject}
	for _, fe := range fieldErrs {
		ve.Fields = append(ve.Fields, FieldError{
			Field: fe.Field(),
			Rule:  fe.Tag(),
			Value: fe.Value(),
		})
	}
	return ve
}

// Field rejects a single named value failing a unit-interval check. Used where
// a bare float crosses a boundary without a surrounding struct.
func Field(subject, field string, value float64) error {
	if value >= 0 && value <= 1 {
		return nil
	}
	return &ValidationError{
		Subject: subject,
		Fields:  []FieldError{{Field: field, Rule: "unit_interval", Value: value}},
	}
}

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
