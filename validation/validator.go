package validation

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/kbukum/fluxmux/errors"
)

// FieldError is one failed check, reported under the config key it belongs
// to.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) String() string { return e.Field + ": " + e.Message }

// Validator accumulates field errors across a chain of checks. The zero
// value is ready to use.
type Validator struct {
	fields []FieldError
}

// New starts a check chain.
func New() *Validator { return &Validator{} }

func (v *Validator) fail(field, format string, args ...any) *Validator {
	v.fields = append(v.fields, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
	return v
}

// Required fails on an empty or blank value.
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		return v.fail(field, "is required")
	}
	return v
}

// Min fails when value is below minVal.
func (v *Validator) Min(field string, value, minVal int) *Validator {
	if value < minVal {
		return v.fail(field, "must be at least %d", minVal)
	}
	return v
}

// OneOf fails when a non-empty value is not in allowed.
func (v *Validator) OneOf(field, value string, allowed []string) *Validator {
	if value != "" && !slices.Contains(allowed, value) {
		return v.fail(field, "must be one of: %s", strings.Join(allowed, ", "))
	}
	return v
}

// Duration fails when value does not parse with time.ParseDuration. Config
// sections keep durations as strings ("5s") so they read naturally in YAML.
func (v *Validator) Duration(field, value string) *Validator {
	if _, err := time.ParseDuration(value); err != nil {
		return v.fail(field, "invalid duration %q", value)
	}
	return v
}

// Custom fails with message unless condition holds.
func (v *Validator) Custom(condition bool, field, message string) *Validator {
	if !condition {
		return v.fail(field, "%s", message)
	}
	return v
}

// Include merges the field errors of a nested section's validation under
// prefix; an empty prefix merges them as they are. Errors that did not come
// from this package are kept whole.
func (v *Validator) Include(prefix string, err error) *Validator {
	if err == nil {
		return v
	}
	nested := fieldsOf(err)
	if nested == nil {
		return v.fail(prefix, "%s", err.Error())
	}
	for _, f := range nested {
		if prefix != "" {
			f.Field = prefix + "." + f.Field
		}
		v.fields = append(v.fields, f)
	}
	return v
}

// Fields returns the failures collected so far.
func (v *Validator) Fields() []FieldError { return v.fields }

// Err returns an INVALID_INPUT AppError listing every failure, or nil.
func (v *Validator) Err() error {
	if len(v.fields) == 0 {
		return nil
	}
	return newError(v.fields)
}

func newError(fields []FieldError) *errors.AppError {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f.String()
	}
	appErr := errors.Validation(strings.Join(parts, "; "))
	appErr.Details = map[string]any{"fields": fields}
	return appErr
}

func fieldsOf(err error) []FieldError {
	appErr, ok := errors.AsAppError(err)
	if !ok {
		return nil
	}
	fields, _ := appErr.Details["fields"].([]FieldError)
	return fields
}
