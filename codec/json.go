package codec

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
)

type jsonCodec struct{}

func (jsonCodec) Decode(data []byte) (any, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func (jsonCodec) Encode(value any) ([]byte, error) {
	out, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

// ndjsonCodec reads one JSON value per line into an array. Blank lines are
// skipped.
type ndjsonCodec struct{}

func (ndjsonCodec) Decode(data []byte) (any, error) {
	values, err := DecodeLines(data)
	if err != nil {
		return nil, err
	}
	if values == nil {
		values = []any{}
	}
	return values, nil
}

// Encode writes each array element on its own line. A non-array value is
// written as a single line.
func (ndjsonCodec) Encode(value any) ([]byte, error) {
	items, ok := value.([]any)
	if !ok {
		items = []any{value}
	}
	var buf bytes.Buffer
	for _, item := range items {
		line, err := json.Marshal(item)
		if err != nil {
			return nil, err
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// DecodeLines parses newline-delimited JSON, skipping blank lines. The error
// names the 1-based line that failed.
func DecodeLines(data []byte) ([]any, error) {
	var values []any
	err := EachLine(data, func(_ int, line []byte) error {
		var v any
		if err := json.Unmarshal(line, &v); err != nil {
			return err
		}
		values = append(values, v)
		return nil
	})
	return values, err
}

// EachLine calls fn with every non-blank line of data, trimmed. An error from
// fn stops the scan and is returned with the line number.
func EachLine(data []byte, fn func(lineNo int, line []byte) error) error {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if err := fn(lineNo, line); err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	return scanner.Err()
}
