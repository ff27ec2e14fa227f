package testutil

import (
	"testing"

	"github.com/kbukum/fluxmux/message"
)

// MustJSON builds a decoded JSON message or fails the test.
func MustJSON(t testing.TB, payload string) message.Message {
	t.Helper()
	m, err := message.FromJSON([]byte(payload))
	if err != nil {
		t.Fatalf("invalid test payload %q: %v", payload, err)
	}
	return m
}

// MustJSONAll builds one decoded message per payload.
func MustJSONAll(t testing.TB, payloads ...string) []message.Message {
	t.Helper()
	out := make([]message.Message, len(payloads))
	for i, p := range payloads {
		out[i] = MustJSON(t, p)
	}
	return out
}

// Keyed returns a copy of m carrying key.
func Keyed(m message.Message, key string) message.Message {
	out := m.Clone()
	out.Key = []byte(key)
	return out
}

// Payloads returns each message payload as a string.
func Payloads(msgs []message.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = string(m.Payload)
	}
	return out
}
