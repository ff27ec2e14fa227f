// Package kafka holds the shared Kafka client settings used by the Kafka
// endpoints.
//
// It wraps segmentio/kafka-go with fluxmux conventions: Config with
// ApplyDefaults()/Validate(), TLS and SASL dialers and transports, error
// classification, and conversion between kafka-go records and messages.
//
// # Architecture
//
//   - kafka/consumer: Source reading a topic through a consumer group, plus
//     the Head and Tail inspectors
//   - kafka/producer: Sink writing batches to a topic
//
// # Configuration
//
//	kafka:
//	  brokers: ["localhost:9092"]
//	  group_id: "fluxmux-default"
//	  compression: "snappy"
//	  batch_size: 100
package kafka
