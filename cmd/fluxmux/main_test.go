package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kbukum/fluxmux/errors"
)

func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := Run(context.Background(), append([]string{"fluxmux"}, args...), strings.NewReader(stdin), &out, &errOut)
	return out.String(), errOut.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, _, err := run(t, "", "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, "version:") || !strings.Contains(out, "platform:") {
		t.Errorf("output = %q", out)
	}
}

func TestPipeCommand(t *testing.T) {
	out, _, err := run(t, `[{"n":1},{"n":2},{"n":3}]`, "-q", "pipe", "-", "filter", "n>=2", "limit", "1")
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	if out != "{\"n\":2}\n" {
		t.Errorf("stdout = %q", out)
	}
}

func TestBridgeCommand(t *testing.T) {
	in := filepath.Join(t.TempDir(), "in.ndjson")
	if err := os.WriteFile(in, []byte("{\"a\":1}\n\n{\"a\":2}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	out, summary, err := run(t, "", "bridge", "--source", "file:"+in, "--sink", "-", "--channel-capacity", "4")
	if err != nil {
		t.Fatalf("bridge: %v", err)
	}
	if out != "{\"a\":1}\n{\"a\":2}\n" {
		t.Errorf("stdout = %q", out)
	}
	if !strings.Contains(summary, "bridge finished") {
		t.Errorf("summary = %q", summary)
	}
}

func TestBridgeCommand_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code errors.ErrorCode
	}{
		{"file to file", []string{"bridge", "--source", "file:a.json", "--sink", "file:b.json"}, errors.ErrCodeInvalidEndpoint},
		{"unknown sink", []string{"bridge", "--source", "-", "--sink", "s3://bucket"}, errors.ErrCodeInvalidEndpoint},
		{"bad batch size", []string{"bridge", "--source", "-", "--sink", "-", "--batch-size", "0"}, errors.ErrCodeInvalidInput},
		{"bad log level", []string{"--log-level", "loud", "bridge", "--source", "-", "--sink", "-"}, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := run(t, "", tc.args...)
			if err == nil {
				t.Fatal("expected error")
			}
			if tc.code == "" {
				return
			}
			appErr, ok := errors.AsAppError(err)
			if !ok || appErr.Code != tc.code {
				t.Errorf("expected %s, got %v", tc.code, err)
			}
		})
	}
}

func TestBridgeCommand_MissingFlags(t *testing.T) {
	if _, _, err := run(t, "", "bridge", "--source", "-"); err == nil {
		t.Error("expected missing --sink error")
	}
}

func TestConvertCommand(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "rows.csv")
	out := filepath.Join(dir, "rows.json")
	if err := os.WriteFile(in, []byte("name,city\nada,london\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := run(t, "", "convert", in, out); err != nil {
		t.Fatalf("convert: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"city"`) || !strings.Contains(string(data), `"london"`) {
		t.Errorf("json = %s", data)
	}

	if _, _, err := run(t, "", "convert", in); err == nil {
		t.Error("expected error for a missing output path")
	}
}

func TestKafkaCommand_NeedsMode(t *testing.T) {
	_, _, err := run(t, "", "kafka", "--topic", "orders")
	appErr, ok := errors.AsAppError(err)
	if !ok || appErr.Code != errors.ErrCodeInvalidInput {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
}
