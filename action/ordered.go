package action

import (
	"bytes"
	"encoding/json"

	"github.com/kbukum/fluxmux/message"
)

// encodeOrdered writes obj as a JSON object with its keys in the given
// order. Keys not present in obj are skipped.
func encodeOrdered(keys []string, obj map[string]any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	n := 0
	for _, k := range keys {
		v, ok := obj[k]
		if !ok {
			continue
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		if n > 0 {
			buf.WriteByte(',')
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
		n++
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// orderedMessage returns msg carrying obj, with the payload keys in order.
func orderedMessage(msg message.Message, keys []string, obj map[string]any) (message.Message, error) {
	payload, err := encodeOrdered(keys, obj)
	if err != nil {
		return message.Message{}, err
	}
	return msg.WithEncodedValue(obj, payload), nil
}
