// Package consumer reads Kafka topics: Source feeds a pipeline through a
// consumer group, Head and Tail render a topic on a terminal.
package consumer

import (
	"context"
	"fmt"
	"io"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/kbukum/fluxmux/kafka"
	"github.com/kbukum/fluxmux/logger"
	"github.com/kbukum/fluxmux/message"
	"github.com/kbukum/fluxmux/resilience"
)

// readBackoff spaces reads after transient errors: one more second per
// consecutive failure, at most 30s.
var readBackoff = resilience.Linear(time.Second, 30*time.Second)

// recordReader is the part of *kafkago.Reader the consumers use.
type recordReader interface {
	ReadMessage(ctx context.Context) (kafkago.Message, error)
	Close() error
}

// Source reads one topic through a consumer group. A group with no
// committed offsets starts at the earliest record.
type Source struct {
	topic   string
	groupID string
	limit   int
	backoff resilience.Backoff
	log     *logger.Logger

	newReader func() recordReader
}

// Option configures a Source.
type Option func(*Source)

// WithLimit stops the source after n records. Zero means unbounded.
func WithLimit(n int) Option {
	return func(s *Source) { s.limit = n }
}

// NewSource creates a source for topic. The reader connects on Start.
func NewSource(cfg kafka.Config, topic string, log *logger.Logger, opts ...Option) (*Source, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dialer, err := kafka.NewDialer(&cfg)
	if err != nil {
		return nil, err
	}

	if log == nil {
		log = logger.NewNop()
	}
	clog := log.WithComponent("kafka-source")

	s := &Source{
		topic:   topic,
		groupID: cfg.GroupID,
		backoff: readBackoff,
		log:     clog,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.newReader = func() recordReader {
		return kafkago.NewReader(kafkago.ReaderConfig{
			Brokers:           cfg.Brokers,
			Topic:             topic,
			GroupID:           cfg.GroupID,
			Dialer:            dialer,
			StartOffset:       kafkago.FirstOffset,
			MinBytes:          1,
			MaxBytes:          10e6,
			ReadBatchTimeout:  kafka.ParseDuration(cfg.ReadTimeout),
			SessionTimeout:    kafka.ParseDuration(cfg.SessionTimeout),
			HeartbeatInterval: kafka.ParseDuration(cfg.HeartbeatInterval),
			ErrorLogger: kafkago.LoggerFunc(func(msg string, args ...interface{}) {
				clog.Error("reader: "+fmt.Sprintf(msg, args...), logger.Fields(
					"topic", topic,
					"group_id", cfg.GroupID,
				))
			}),
		})
	}

	clog.Info("kafka source initialized", logger.Fields(
		"topic", topic,
		"group_id", cfg.GroupID,
		"brokers", cfg.Brokers,
	))
	return s, nil
}

func (s *Source) Name() string { return "kafka:" + s.topic }

// Start reads records until ctx is done or the limit is reached. Transient
// read errors back off and retry; other read errors end the run.
func (s *Source) Start(ctx context.Context, out chan<- message.Message) error {
	r := s.newReader()
	defer func() {
		if err := r.Close(); err != nil {
			s.log.Warn("reader close failed", logger.ErrorFields("close", err))
		}
	}()

	sent := 0
	failures := 0
	for s.limit == 0 || sent < s.limit {
		km, err := r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || err == io.EOF {
				return nil
			}
			if kafka.IsNonRetryableError(err) {
				return kafka.Classify(s.Name(), err)
			}
			failures++
			if !s.wait(ctx, failures, err) {
				return nil
			}
			continue
		}
		failures = 0

		select {
		case out <- kafka.FromKafkaMessage(km):
			sent++
		case <-ctx.Done():
			return nil
		}
	}

	s.log.Info("read limit reached", logger.Fields("topic", s.topic, "messages", sent))
	return nil
}

// wait logs the read error and sleeps for a backoff growing linearly with
// failures. It reports false when ctx ended first.
func (s *Source) wait(ctx context.Context, failures int, err error) bool {
	if failures <= 3 {
		s.log.Error("kafka read error", logger.Fields(
			logger.FieldError, err.Error(),
			"failures", failures,
			"topic", s.topic,
			"group_id", s.groupID,
		))
	}
	return resilience.Sleep(ctx, s.backoff(failures))
}
