// Package message defines the envelope that flows through fluxmux
// pipelines.
//
// A Message is a value. Stages never mutate maps they received from an
// upstream stage; they copy with Clone, WithMeta or WithValue and pass the
// copy on.
package message

import (
	"bytes"
	"encoding/json"
	"maps"
	"time"
)

// Message is the unit of data moved from a source to its sinks.
type Message struct {
	// ID is a caller-assigned correlation id. Empty means absent.
	ID string
	// Key is used for deduplication and keyed delivery. Nil means absent.
	Key []byte
	// Payload is the canonical wire form of the record.
	Payload []byte
	// Format declares how Payload is encoded. Zero means unknown.
	Format Format
	// Timestamp is set by the producing source at ingestion.
	Timestamp time.Time
	// Headers carry transport metadata.
	Headers map[string]string
	// Meta is engine-internal and never written to an endpoint.
	Meta map[string]string

	parsed    any
	hasParsed bool
}

// New creates a message around a raw payload.
func New(payload []byte, format Format) Message {
	return Message{
		Payload:   payload,
		Format:    format,
		Timestamp: time.Now(),
	}
}

// FromJSON decodes payload as JSON and caches the decoded value.
func FromJSON(payload []byte) (Message, error) {
	var v any
	if err := json.Unmarshal(payload, &v); err != nil {
		return Message{}, err
	}
	m := New(payload, FormatJSON)
	m.parsed = v
	m.hasParsed = true
	return m, nil
}

// FromValue encodes v as JSON and caches v as the decoded value.
func FromValue(v any) (Message, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return Message{}, err
	}
	m := New(payload, FormatJSON)
	m.parsed = v
	m.hasParsed = true
	return m, nil
}

// Parsed returns the cached decoded value and whether one is present.
// A present value may be nil when the payload is JSON null.
func (m Message) Parsed() (any, bool) {
	return m.parsed, m.hasParsed
}

// Object returns the decoded value as a JSON object.
func (m Message) Object() (map[string]any, bool) {
	if !m.hasParsed {
		return nil, false
	}
	obj, ok := m.parsed.(map[string]any)
	return obj, ok
}

// Decoded returns a copy with the decoded value populated from a JSON
// payload. Messages that already carry a decoded value, or whose format is
// known and not JSON, are returned unchanged.
func (m Message) Decoded() (Message, error) {
	if m.hasParsed {
		return m, nil
	}
	if m.Format != FormatUnknown && m.Format != FormatJSON {
		return m, nil
	}
	var v any
	if err := json.Unmarshal(m.Payload, &v); err != nil {
		return m, err
	}
	out := m
	out.parsed = v
	out.hasParsed = true
	out.Format = FormatJSON
	return out, nil
}

// WithValue returns a copy whose decoded value is v and whose payload is the
// JSON encoding of v.
func (m Message) WithValue(v any) (Message, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return Message{}, err
	}
	return m.WithEncodedValue(v, payload), nil
}

// WithEncodedValue returns a copy carrying v and a payload the caller has
// already encoded from v.
func (m Message) WithEncodedValue(v any, payload []byte) Message {
	out := m.Clone()
	out.Payload = payload
	out.Format = FormatJSON
	out.parsed = v
	out.hasParsed = true
	return out
}

// WithMeta returns a copy with key set in Meta.
func (m Message) WithMeta(key, value string) Message {
	out := m.Clone()
	if out.Meta == nil {
		out.Meta = make(map[string]string, 1)
	}
	out.Meta[key] = value
	return out
}

// Clone returns a copy that shares no maps or slices with m. The decoded
// value is shared; stages replace it instead of editing it.
func (m Message) Clone() Message {
	out := m
	out.Key = bytes.Clone(m.Key)
	out.Payload = bytes.Clone(m.Payload)
	out.Headers = maps.Clone(m.Headers)
	out.Meta = maps.Clone(m.Meta)
	return out
}

// HasKey reports whether the message carries a key.
func (m Message) HasKey() bool {
	return m.Key != nil
}
