package kafka

import (
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/kbukum/fluxmux/message"
)

func TestFromKafkaMessage_JSON(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	msg := FromKafkaMessage(kafkago.Message{
		Topic:     "orders",
		Partition: 2,
		Offset:    42,
		Key:       []byte("k1"),
		Value:     []byte(`{"id":1}`),
		Time:      ts,
		Headers:   []kafkago.Header{{Key: "trace", Value: []byte("abc")}},
	})

	if msg.Format != message.FormatJSON {
		t.Errorf("Format = %v, want json", msg.Format)
	}
	obj, ok := msg.Object()
	if !ok || obj["id"] != float64(1) {
		t.Errorf("decoded value = %v", obj)
	}
	if string(msg.Key) != "k1" {
		t.Errorf("Key = %q", msg.Key)
	}
	if !msg.Timestamp.Equal(ts) {
		t.Errorf("Timestamp = %v", msg.Timestamp)
	}
	if msg.Headers["trace"] != "abc" {
		t.Errorf("Headers = %v", msg.Headers)
	}
	want := map[string]string{MetaTopic: "orders", MetaPartition: "2", MetaOffset: "42"}
	for k, v := range want {
		if msg.Meta[k] != v {
			t.Errorf("Meta[%s] = %q, want %q", k, msg.Meta[k], v)
		}
	}
}

func TestFromKafkaMessage_Binary(t *testing.T) {
	tests := []struct {
		name  string
		value []byte
	}{
		{"not json", []byte("plain text")},
		{"empty", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := FromKafkaMessage(kafkago.Message{Value: tt.value})
			if msg.Format != message.FormatBinary {
				t.Errorf("Format = %v, want binary", msg.Format)
			}
			if _, ok := msg.Parsed(); ok {
				t.Error("binary messages carry no decoded value")
			}
			if msg.HasKey() {
				t.Error("absent key must stay absent")
			}
			if msg.Timestamp.IsZero() {
				t.Error("timestamp must default to ingestion time")
			}
		})
	}
}

func TestToKafkaMessage(t *testing.T) {
	msg := message.New([]byte(`{"a":1}`), message.FormatJSON)
	msg.Key = []byte("k")
	msg.Headers = map[string]string{"h": "v"}
	msg = msg.WithMeta(message.MetaMaxRetries, "3")

	km := ToKafkaMessage(msg)
	if string(km.Key) != "k" || string(km.Value) != `{"a":1}` {
		t.Errorf("unexpected record %q=%q", km.Key, km.Value)
	}
	if len(km.Headers) != 1 || km.Headers[0].Key != "h" || string(km.Headers[0].Value) != "v" {
		t.Errorf("Headers = %v", km.Headers)
	}
	if km.Topic != "" {
		t.Error("topic is set by the writer")
	}
}
