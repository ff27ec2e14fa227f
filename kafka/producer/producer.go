// Package producer writes messages to a Kafka topic.
package producer

import (
	"context"
	"fmt"
	"sync"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/kbukum/fluxmux/errors"
	"github.com/kbukum/fluxmux/kafka"
	"github.com/kbukum/fluxmux/logger"
	"github.com/kbukum/fluxmux/message"
)

// recordWriter is the part of *kafkago.Writer the sink uses.
type recordWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Sink buffers messages and writes them to one topic in batches of
// BatchSize. Keyed messages are partitioned by key hash.
type Sink struct {
	topic     string
	batchSize int
	log       *logger.Logger

	mu      sync.Mutex
	writer  recordWriter
	pending []kafkago.Message
	closed  bool
}

// NewSink validates cfg, checks that a broker is reachable and returns a
// sink for topic.
func NewSink(ctx context.Context, cfg kafka.Config, topic string, log *logger.Logger) (*Sink, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	transport, err := kafka.NewTransport(&cfg)
	if err != nil {
		return nil, err
	}
	if err := kafka.Ping(ctx, &cfg); err != nil {
		return nil, err
	}

	if log == nil {
		log = logger.NewNop()
	}
	plog := log.WithComponent("kafka-sink")

	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.Brokers...),
		Topic:        topic,
		Transport:    transport,
		Balancer:     &kafkago.Hash{},
		MaxAttempts:  cfg.Retries,
		BatchSize:    cfg.BatchSize,
		BatchTimeout: kafka.ParseDuration(cfg.BatchTimeout),
		RequiredAcks: kafkago.RequiredAcks(cfg.RequiredAcks),
		Compression:  kafka.ResolveCompression(cfg.Compression),
		WriteTimeout: kafka.ParseDuration(cfg.WriteTimeout),
		ErrorLogger: kafkago.LoggerFunc(func(msg string, args ...interface{}) {
			plog.Error("writer: "+fmt.Sprintf(msg, args...), logger.Fields("topic", topic))
		}),
	}

	plog.Info("kafka sink initialized", logger.Fields(
		"topic", topic,
		"brokers", cfg.Brokers,
		"compression", cfg.Compression,
		"batch_size", cfg.BatchSize,
	))

	return newSink(w, topic, cfg.BatchSize, plog), nil
}

func newSink(w recordWriter, topic string, batchSize int, log *logger.Logger) *Sink {
	return &Sink{
		topic:     topic,
		batchSize: batchSize,
		log:       log,
		writer:    w,
		pending:   make([]kafkago.Message, 0, batchSize),
	}
}

func (s *Sink) Name() string { return "kafka:" + s.topic }

// Send buffers msg and writes the batch once BatchSize messages are
// pending. On failure msg leaves the buffer again so a retried Send does
// not produce it twice.
func (s *Sink) Send(ctx context.Context, msg message.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errors.DeliveryFailed(s.Name(), fmt.Errorf("sink is closed"))
	}

	s.pending = append(s.pending, kafka.ToKafkaMessage(msg.Clone()))
	if len(s.pending) < s.batchSize {
		return nil
	}
	if err := s.writeLocked(ctx); err != nil {
		s.pending = s.pending[:len(s.pending)-1]
		return err
	}
	return nil
}

// Flush writes everything pending.
func (s *Sink) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) == 0 {
		return nil
	}
	return s.writeLocked(ctx)
}

// Close releases the writer. Pending messages are not written; call Flush
// first.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.log.Info("kafka sink closing", logger.Fields("topic", s.topic))
	return s.writer.Close()
}

func (s *Sink) writeLocked(ctx context.Context) error {
	if err := s.writer.WriteMessages(ctx, s.pending...); err != nil {
		return errors.DeliveryFailed(s.Name(), kafka.Classify(s.Name(), err))
	}
	s.log.Debug("batch written", logger.Fields("topic", s.topic, "count", len(s.pending)))
	s.pending = s.pending[:0]
	return nil
}
