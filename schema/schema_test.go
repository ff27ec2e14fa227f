package schema

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/kbukum/fluxmux/errors"
)

const userSchema = `{
  "type": "object",
  "required": ["id", "name"],
  "properties": {
    "name": {"type": "string"},
    "id": {"type": "integer"},
    "email": {"type": "string"}
  }
}`

func writeSchema(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schema.json")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write schema: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	doc, err := Load(writeSchema(t, userSchema))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(doc.Required, []string{"id", "name"}) {
		t.Errorf("unexpected required %v", doc.Required)
	}
	if !slices.Equal(doc.Properties, []string{"name", "id", "email"}) {
		t.Errorf("properties must keep document order, got %v", doc.Properties)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{"missing file", func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.json") }},
		{"not json", func(t *testing.T) string { return writeSchema(t, "required: [a]") }},
		{"properties not object", func(t *testing.T) string { return writeSchema(t, `{"properties": [1]}`) }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(tc.path(t))
			if err == nil {
				t.Fatal("expected error")
			}
			appErr, ok := errors.AsAppError(err)
			if !ok || appErr.Code != errors.ErrCodeSchemaInvalid {
				t.Errorf("expected SCHEMA_INVALID, got %v", err)
			}
		})
	}
}

func TestMissing(t *testing.T) {
	doc, err := Parse([]byte(userSchema))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tests := []struct {
		name      string
		value     any
		wantField string
		wantBad   bool
	}{
		{"complete", map[string]any{"id": 1.0, "name": "a"}, "", false},
		{"missing name", map[string]any{"id": 1.0}, "name", true},
		{"missing both reports first", map[string]any{}, "id", true},
		{"array passes", []any{1.0}, "", false},
		{"scalar passes", "x", "", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			field, bad := doc.Missing(tc.value)
			if field != tc.wantField || bad != tc.wantBad {
				t.Errorf("Missing() = %q,%v want %q,%v", field, bad, tc.wantField, tc.wantBad)
			}
		})
	}
}

func TestMissing_NilDocument(t *testing.T) {
	var doc *Document
	if _, bad := doc.Missing(map[string]any{}); bad {
		t.Error("nil document must accept everything")
	}
}

func TestStrict(t *testing.T) {
	doc, err := Parse([]byte(userSchema))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	strict, err := doc.Compile()
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	violations, err := strict.Violations(map[string]any{"id": 1, "name": "a"})
	if err != nil || violations != nil {
		t.Fatalf("expected valid document, got %v (%v)", violations, err)
	}

	violations, err = strict.Violations(map[string]any{"id": "one", "name": "a"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(violations) == 0 {
		t.Fatal("expected a type violation for id")
	}
	if Summary(violations) == "" {
		t.Error("expected a summary")
	}
}
