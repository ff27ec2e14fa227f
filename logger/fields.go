package logger

import "time"

// Field keys shared by every component so that log queries can rely on them.
const (
	FieldComponent = "component"
	FieldService   = "service"
	FieldRunID     = "run_id"
	FieldOperation = "operation"
	FieldStage     = "stage"
	FieldSink      = "sink"
	FieldEndpoint  = "endpoint"
	FieldAttempt   = "attempt"
	FieldError     = "error"
	FieldDuration  = "duration_ms"
)

// Fields pairs up alternating keys and values:
//
//	log.Info("delivered", logger.Fields(logger.FieldSink, name, "count", n))
//
// Pairs whose key is not a string are skipped, as is a trailing key.
func Fields(kv ...any) map[string]any {
	out := make(map[string]any, len(kv)/2)
	for i := 1; i < len(kv); i += 2 {
		if k, ok := kv[i-1].(string); ok {
			out[k] = kv[i]
		}
	}
	return out
}

// ErrorFields describes a failed operation.
func ErrorFields(op string, err error) map[string]any {
	f := map[string]any{FieldOperation: op}
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// DurationFields describes a finished operation and how long it took.
func DurationFields(op string, d time.Duration) map[string]any {
	return map[string]any{FieldOperation: op, FieldDuration: d.Milliseconds()}
}
