// Package schema loads the JSON-Schema-like documents used by the schema
// gate, the validate action and the normalize action.
//
// Only two keywords drive those stages: "required" (a list of top-level
// field names) and "properties" (whose key order is kept). Strict compiles
// the whole document with gojsonschema for full validation.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/kbukum/fluxmux/errors"
)

// Document is a loaded schema.
type Document struct {
	// Required lists field names every object must carry.
	Required []string
	// Properties lists the declared property names in document order.
	Properties []string

	raw []byte
}

// Load reads and parses the schema file at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.SchemaInvalid(fmt.Sprintf("cannot read schema %s", path)).WithCause(err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Parse parses a schema document from memory.
func Parse(data []byte) (*Document, error) {
	var top struct {
		Required   []string        `json:"required"`
		Properties json.RawMessage `json:"properties"`
	}
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, errors.SchemaInvalid("schema is not a JSON object").WithCause(err)
	}

	doc := &Document{Required: top.Required, raw: data}
	if len(top.Properties) > 0 && !bytes.Equal(top.Properties, []byte("null")) {
		keys, err := objectKeys(top.Properties)
		if err != nil {
			return nil, errors.SchemaInvalid("schema properties must be an object").WithCause(err)
		}
		doc.Properties = keys
	}
	return doc, nil
}

// Missing returns the first required field absent from value. Values that
// are not objects have nothing to check and report no missing field.
func (d *Document) Missing(value any) (string, bool) {
	if d == nil {
		return "", false
	}
	obj, ok := value.(map[string]any)
	if !ok {
		return "", false
	}
	for _, name := range d.Required {
		if _, present := obj[name]; !present {
			return name, true
		}
	}
	return "", false
}

// Raw returns the document bytes as loaded.
func (d *Document) Raw() []byte {
	return d.raw
}

// objectKeys returns the keys of a JSON object in document order.
func objectKeys(data []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}

	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		keys = append(keys, key)

		// Skip the property definition.
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}
	}
	return keys, nil
}
