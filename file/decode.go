// Package file reads and writes records in local files.
//
// A source reads the whole file up front. Files with a codec extension other
// than JSON (.csv, .yaml, .toml, .msgpack, .cbor, .avro) are decoded with
// that codec; everything else is read as a JSON document, falling back to
// newline-delimited JSON. A sink appends one payload per line.
package file

import (
	"bytes"
	"encoding/json"

	"github.com/kbukum/fluxmux/codec"
	"github.com/kbukum/fluxmux/errors"
	"github.com/kbukum/fluxmux/message"
)

// HeaderSource names the medium a message was read from.
const HeaderSource = "source"

// Decode turns a whole medium into messages and passes each to emit in
// order. format may be empty, meaning JSON or NDJSON. Messages emitted
// before a decode error stay valid.
func Decode(data []byte, format codec.Format, origin string, emit func(message.Message) error) error {
	send := func(m message.Message) error {
		m.Headers = map[string]string{HeaderSource: origin}
		return emit(m)
	}

	if format != "" && format != codec.JSON && format != codec.NDJSON {
		v, err := codec.Decode(format, data)
		if err != nil {
			return err
		}
		return emitValues(v, send)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil
	}

	if json.Valid(trimmed) {
		if trimmed[0] == '[' {
			var items []json.RawMessage
			if err := json.Unmarshal(trimmed, &items); err != nil {
				return errors.DecodeFailed(origin, err)
			}
			for _, raw := range items {
				m, err := message.FromJSON(raw)
				if err != nil {
					return errors.DecodeFailed(origin, err)
				}
				if err := send(m); err != nil {
					return err
				}
			}
			return nil
		}
		m, err := message.FromJSON(trimmed)
		if err != nil {
			return errors.DecodeFailed(origin, err)
		}
		return send(m)
	}

	var sendErr error
	err := codec.EachLine(data, func(_ int, line []byte) error {
		m, err := message.FromJSON(bytes.Clone(line))
		if err != nil {
			return err
		}
		if err := send(m); err != nil {
			sendErr = err
			return err
		}
		return nil
	})
	if sendErr != nil {
		return sendErr
	}
	if err != nil {
		return errors.DecodeFailed(origin, err)
	}
	return nil
}

func emitValues(v any, send func(message.Message) error) error {
	items, ok := v.([]any)
	if !ok {
		items = []any{v}
	}
	for _, item := range items {
		m, err := message.FromValue(item)
		if err != nil {
			return errors.Internal(err)
		}
		if err := send(m); err != nil {
			return err
		}
	}
	return nil
}
