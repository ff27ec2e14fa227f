package errors

// ErrorCode is the machine-readable kind of an AppError.
type ErrorCode string

// The endpoint could not be reached or did not answer in time.
const (
	ErrCodeConnectionFailed   ErrorCode = "CONNECTION_FAILED"
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	ErrCodeTimeout            ErrorCode = "TIMEOUT"
)

// The caller supplied something unusable. Retrying cannot help.
const (
	ErrCodeInvalidInput      ErrorCode = "INVALID_INPUT"
	ErrCodeInvalidEndpoint   ErrorCode = "INVALID_ENDPOINT"
	ErrCodeUnsupportedFormat ErrorCode = "UNSUPPORTED_FORMAT"
	ErrCodeDecodeFailed      ErrorCode = "DECODE_FAILED"
	ErrCodeSchemaInvalid     ErrorCode = "SCHEMA_INVALID"
)

// A sink or backing service failed while moving records.
const (
	ErrCodeDeliveryFailed  ErrorCode = "DELIVERY_FAILED"
	ErrCodeDatabaseError   ErrorCode = "DATABASE_ERROR"
	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
	ErrCodeInternal        ErrorCode = "INTERNAL_ERROR"
)

// Retryable reports the default retry flag of errors with this code.
// Constructors start from it; callers may override AppError.Retryable
// once they know more about the cause.
func (c ErrorCode) Retryable() bool {
	switch c {
	case ErrCodeConnectionFailed, ErrCodeServiceUnavailable, ErrCodeTimeout,
		ErrCodeDeliveryFailed, ErrCodeDatabaseError, ErrCodeExternalService:
		return true
	}
	return false
}
