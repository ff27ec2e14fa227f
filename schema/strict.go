package schema

import (
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/kbukum/fluxmux/errors"
)

// Strict validates whole documents against a compiled JSON Schema.
type Strict struct {
	schema *gojsonschema.Schema
}

// Compile builds a strict validator from the document.
func (d *Document) Compile() (*Strict, error) {
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(d.raw))
	if err != nil {
		return nil, errors.SchemaInvalid("schema does not compile").WithCause(err)
	}
	return &Strict{schema: s}, nil
}

// Violations returns every violation of value, or nil when value is valid.
func (s *Strict) Violations(value any) ([]string, error) {
	result, err := s.schema.Validate(gojsonschema.NewGoLoader(value))
	if err != nil {
		return nil, err
	}
	if result.Valid() {
		return nil, nil
	}
	out := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		out = append(out, e.String())
	}
	return out, nil
}

// Summary joins violations into one log-friendly line.
func Summary(violations []string) string {
	return strings.Join(violations, "; ")
}
