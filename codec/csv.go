package codec

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/kbukum/fluxmux/errors"
)

// csvCodec maps a header row plus data rows to an array of string-valued
// objects.
type csvCodec struct{}

func (csvCodec) Decode(data []byte) (any, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	rows := []any{}
	if len(records) == 0 {
		return rows, nil
	}
	header := records[0]
	for _, rec := range records[1:] {
		row := make(map[string]any, len(header))
		for i, name := range header {
			if i < len(rec) {
				row[name] = rec[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Encode writes an array of objects. Columns are the sorted keys of the
// first object; strings are written as-is and other values as JSON text.
func (csvCodec) Encode(value any) ([]byte, error) {
	items, ok := value.([]any)
	if !ok {
		items = []any{value}
	}
	if len(items) == 0 {
		return nil, errors.InvalidInput("csv", "no rows to write")
	}
	first, ok := items[0].(map[string]any)
	if !ok {
		return nil, errors.InvalidInput("csv", "rows must be objects")
	}
	header := make([]string, 0, len(first))
	for k := range first {
		header = append(header, k)
	}
	sort.Strings(header)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, errors.InvalidInput("csv", fmt.Sprintf("row %d is not an object", i+1))
		}
		record := make([]string, len(header))
		for j, k := range header {
			cell, err := cellText(obj[k])
			if err != nil {
				return nil, err
			}
			record[j] = cell
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// cellText renders a value as flat text: strings as-is, nil as empty and
// anything else as JSON.
func cellText(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
