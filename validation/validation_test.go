package validation

import (
	"fmt"
	"strings"
	"testing"

	"github.com/kbukum/fluxmux/errors"
)

type sampleConfig struct {
	BatchSize *int    `mapstructure:"batch_size" validate:"omitempty,gt=0"`
	Rate      float64 `mapstructure:"throttle_per_sec" validate:"gte=0"`
	Mode      string  `mapstructure:"mode" validate:"required,oneof=bridge pipe"`
	RetryMax  int     `validate:"gte=0"`
}

func intPtr(v int) *int { return &v }

func fieldNames(t *testing.T, err error) []string {
	t.Helper()
	appErr, ok := errors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %T (%v)", err, err)
	}
	if appErr.Code != errors.ErrCodeInvalidInput {
		t.Errorf("expected INVALID_INPUT, got %s", appErr.Code)
	}
	fields, _ := appErr.Details["fields"].([]FieldError)
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Field
	}
	return names
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		cfg       sampleConfig
		wantField string
		wantMsg   string
	}{
		{"valid", sampleConfig{BatchSize: intPtr(3), Mode: "bridge"}, "", ""},
		{"nil pointer skipped", sampleConfig{Mode: "pipe"}, "", ""},
		{"zero batch", sampleConfig{BatchSize: intPtr(0), Mode: "bridge"}, "batch_size", "must be greater than 0"},
		{"negative rate", sampleConfig{Rate: -1, Mode: "bridge"}, "throttle_per_sec", "greater than or equal to 0"},
		{"missing mode", sampleConfig{}, "mode", "is required"},
		{"bad mode", sampleConfig{Mode: "copy"}, "mode", "must be one of: bridge pipe"},
		{"untagged name", sampleConfig{Mode: "pipe", RetryMax: -1}, "retry_max", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.cfg)
			if tc.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			names := fieldNames(t, err)
			if len(names) != 1 || names[0] != tc.wantField {
				t.Errorf("fields = %v, want [%s]", names, tc.wantField)
			}
			if !strings.Contains(err.Error(), tc.wantMsg) {
				t.Errorf("message %q does not contain %q", err.Error(), tc.wantMsg)
			}
		})
	}
}

func TestValidator_Chain(t *testing.T) {
	err := New().
		Required("topic", " ").
		OneOf("format", "xml", []string{"json", "yaml"}).
		Min("count", 0, 1).
		Duration("dial_timeout", "soon").
		Custom(false, "brokers", "at least one broker is required").
		Err()

	want := []string{"topic", "format", "count", "dial_timeout", "brokers"}
	if got := fieldNames(t, err); fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("fields = %v, want %v", got, want)
	}
	if !strings.Contains(err.Error(), `invalid duration "soon"`) {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestValidator_Passes(t *testing.T) {
	v := New().
		Required("topic", "events").
		OneOf("format", "", []string{"json"}).
		Min("count", 1, 1).
		Duration("dial_timeout", "250ms").
		Include("tls", nil)
	if len(v.Fields()) != 0 {
		t.Fatalf("unexpected failures: %v", v.Fields())
	}
	if v.Err() != nil {
		t.Error("expected nil error")
	}
}

func TestValidator_Include(t *testing.T) {
	nested := New().Required("ca_file", "").Err()
	err := New().
		Include("tls", nested).
		Include("", New().Min("db", -1, 0).Err()).
		Include("sasl", fmt.Errorf("mechanism unknown")).
		Err()

	want := []string{"tls.ca_file", "db", "sasl"}
	if got := fieldNames(t, err); fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("fields = %v, want %v", got, want)
	}
}

func TestSnakeCase(t *testing.T) {
	tests := map[string]string{
		"RetryMax":       "retry_max",
		"Addr":           "addr",
		"BatchTimeoutMS": "batch_timeout_m_s",
	}
	for in, want := range tests {
		if got := snakeCase(in); got != want {
			t.Errorf("snakeCase(%q) = %q, want %q", in, got, want)
		}
	}
}
