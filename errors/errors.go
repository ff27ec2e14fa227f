package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// AppError is the error type returned across package boundaries. Loops
// that retry consult Retryable; everything else only reads Code.
type AppError struct {
	Code      ErrorCode      `json:"code"`
	Message   string         `json:"message"`
	Retryable bool           `json:"retryable"`
	Details   map[string]any `json:"details,omitempty"`
	Cause     error          `json:"-"`
}

// Error renders "CODE: message (cause: ...)".
func (e *AppError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Cause != nil {
		b.WriteString(" (cause: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}
	return b.String()
}

func (e *AppError) Unwrap() error { return e.Cause }

// WithCause records the underlying error and returns e.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets one detail and returns e.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any, 1)
	}
	e.Details[key] = value
	return e
}

// New returns an error whose retry flag follows code.
func New(code ErrorCode, format string, args ...any) *AppError {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	return &AppError{Code: code, Message: msg, Retryable: code.Retryable()}
}

// AsAppError finds the first AppError in err's chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func IsAppError(err error) bool {
	_, ok := AsAppError(err)
	return ok
}

// IsPermanent reports whether err carries an AppError that was marked
// non-retryable. Plain errors are not permanent: without a verdict the
// caller's retry policy decides.
func IsPermanent(err error) bool {
	appErr, ok := AsAppError(err)
	return ok && !appErr.Retryable
}

func ConnectionFailed(service string) *AppError {
	return New(ErrCodeConnectionFailed, "unable to connect to %s", service).WithDetail("service", service)
}

func Timeout(operation string) *AppError {
	return New(ErrCodeTimeout, "%s timed out", operation).WithDetail("operation", operation)
}

// InvalidInput names the offending field when field is not empty.
func InvalidInput(field, reason string) *AppError {
	e := New(ErrCodeInvalidInput, "invalid input: %s", reason)
	if field != "" {
		e.WithDetail("field", field)
	}
	return e
}

// Validation carries a prebuilt message, typically a list of field failures.
func Validation(message string) *AppError {
	return &AppError{Code: ErrCodeInvalidInput, Message: message}
}

func InvalidEndpoint(endpoint, reason string) *AppError {
	return New(ErrCodeInvalidEndpoint, "invalid endpoint %q: %s", endpoint, reason).WithDetail("endpoint", endpoint)
}

func UnsupportedFormat(format string) *AppError {
	return New(ErrCodeUnsupportedFormat, "unsupported format: %s", format).WithDetail("format", format)
}

// DecodeFailed reports a payload that is malformed for its format; what
// locates it, e.g. "line 3".
func DecodeFailed(what string, cause error) *AppError {
	return New(ErrCodeDecodeFailed, "failed to decode %s", what).WithCause(cause)
}

func SchemaInvalid(reason string) *AppError {
	return &AppError{Code: ErrCodeSchemaInvalid, Message: reason}
}

// DeliveryFailed reports a send rejected by sink. It stays retryable unless
// the cause is a permanent AppError.
func DeliveryFailed(sink string, cause error) *AppError {
	e := New(ErrCodeDeliveryFailed, "delivery to %s failed", sink).WithDetail("sink", sink).WithCause(cause)
	if IsPermanent(cause) {
		e.Retryable = false
	}
	return e
}

func Internal(cause error) *AppError {
	return New(ErrCodeInternal, "an unexpected error occurred").WithCause(cause)
}

func DatabaseError(cause error) *AppError {
	return New(ErrCodeDatabaseError, "a database error occurred").WithCause(cause)
}

func ExternalServiceError(service string, cause error) *AppError {
	return New(ErrCodeExternalService, "the %s service returned an error", service).
		WithDetail("service", service).
		WithCause(cause)
}
