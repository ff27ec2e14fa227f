package kafka

import (
	"encoding/json"
	"strconv"

	"github.com/segmentio/kafka-go"

	"github.com/kbukum/fluxmux/message"
)

// Meta keys set on messages read from Kafka.
const (
	MetaTopic     = "kafka.topic"
	MetaPartition = "kafka.partition"
	MetaOffset    = "kafka.offset"
)

// FromKafkaMessage converts a kafka-go record into a message. Values that
// parse as JSON carry their decoded form; anything else is Binary.
func FromKafkaMessage(km kafka.Message) message.Message {
	var msg message.Message
	if len(km.Value) > 0 && json.Valid(km.Value) {
		if m, err := message.FromJSON(km.Value); err == nil {
			msg = m
		}
	}
	if msg.Format == message.FormatUnknown {
		msg = message.New(km.Value, message.FormatBinary)
	}

	if km.Key != nil {
		msg.Key = km.Key
	}
	if len(km.Headers) > 0 {
		msg.Headers = make(map[string]string, len(km.Headers))
		for _, h := range km.Headers {
			msg.Headers[h.Key] = string(h.Value)
		}
	}
	if !km.Time.IsZero() {
		msg.Timestamp = km.Time
	}
	msg.Meta = map[string]string{
		MetaTopic:     km.Topic,
		MetaPartition: strconv.Itoa(km.Partition),
		MetaOffset:    strconv.FormatInt(km.Offset, 10),
	}
	return msg
}

// ToKafkaMessage converts a message into a kafka-go record. Meta stays
// inside the engine.
func ToKafkaMessage(msg message.Message) kafka.Message {
	km := kafka.Message{
		Key:   msg.Key,
		Value: msg.Payload,
	}
	if len(msg.Headers) > 0 {
		km.Headers = make([]kafka.Header, 0, len(msg.Headers))
		for k, v := range msg.Headers {
			km.Headers = append(km.Headers, kafka.Header{Key: k, Value: []byte(v)})
		}
	}
	return km
}
