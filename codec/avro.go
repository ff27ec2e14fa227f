package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"

	"github.com/linkedin/goavro/v2"

	"github.com/kbukum/fluxmux/errors"
)

var avroName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// avroCodec reads and writes Avro object container files. Records are
// written with a generated schema of string fields.
type avroCodec struct{}

func (avroCodec) Decode(data []byte) (any, error) {
	r, err := goavro.NewOCFReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	rows := []any{}
	for r.Scan() {
		datum, err := r.Read()
		if err != nil {
			return nil, err
		}
		rows = append(rows, datum)
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}

type avroField struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type avroSchema struct {
	Type   string      `json:"type"`
	Name   string      `json:"name"`
	Fields []avroField `json:"fields"`
}

func (avroCodec) Encode(value any) ([]byte, error) {
	items, ok := value.([]any)
	if !ok {
		items = []any{value}
	}
	if len(items) == 0 {
		return nil, errors.InvalidInput("avro", "no rows to write")
	}
	first, ok := items[0].(map[string]any)
	if !ok {
		return nil, errors.InvalidInput("avro", "rows must be objects")
	}

	names := make([]string, 0, len(first))
	for k := range first {
		if !avroName.MatchString(k) {
			return nil, errors.InvalidInput("avro", fmt.Sprintf("%q is not a valid avro field name", k))
		}
		names = append(names, k)
	}
	sort.Strings(names)

	s := avroSchema{Type: "record", Name: "row", Fields: make([]avroField, len(names))}
	for i, n := range names {
		s.Fields[i] = avroField{Name: n, Type: "string"}
	}
	schemaJSON, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}

	records := make([]any, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, errors.InvalidInput("avro", fmt.Sprintf("row %d is not an object", i+1))
		}
		rec := make(map[string]any, len(names))
		for _, n := range names {
			cell, err := cellText(obj[n])
			if err != nil {
				return nil, err
			}
			rec[n] = cell
		}
		records[i] = rec
	}

	var buf bytes.Buffer
	w, err := goavro.NewOCFWriter(goavro.OCFConfig{W: &buf, Schema: string(schemaJSON)})
	if err != nil {
		return nil, err
	}
	if err := w.Append(records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
