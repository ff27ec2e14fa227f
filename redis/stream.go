package redis

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kbukum/fluxmux/errors"
	"github.com/kbukum/fluxmux/logger"
	"github.com/kbukum/fluxmux/message"
)

// Stream entry field layout.
const (
	FieldPayload      = "payload"
	FieldKey          = "key"
	FieldHeaderPrefix = "h:"
)

// Meta keys set on messages read from a stream.
const (
	MetaStream = "redis.stream"
	MetaID     = "redis.id"
)

const (
	readBlock = time.Second
	readCount = 100
)

// StreamSource reads a stream from its first entry.
type StreamSource struct {
	client *Client
	stream string
	limit  int
	block  time.Duration
	log    *logger.Logger
}

// SourceOption configures a StreamSource.
type SourceOption func(*StreamSource)

// WithLimit stops the source after n entries. Zero means unbounded.
func WithLimit(n int) SourceOption {
	return func(s *StreamSource) { s.limit = n }
}

// NewStreamSource returns a source over stream.
func NewStreamSource(client *Client, stream string, log *logger.Logger, opts ...SourceOption) *StreamSource {
	if log == nil {
		log = logger.NewNop()
	}
	s := &StreamSource{
		client: client,
		stream: stream,
		block:  readBlock,
		log:    log.WithComponent("redis-source"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *StreamSource) Name() string { return "redis:" + s.stream }

// Close closes the client.
func (s *StreamSource) Close() error { return s.client.Close() }

// Start reads entries until ctx is done or the limit is reached.
func (s *StreamSource) Start(ctx context.Context, out chan<- message.Message) error {
	lastID := "0"
	sent := 0
	for s.limit == 0 || sent < s.limit {
		res, err := s.client.rdb.XRead(ctx, &goredis.XReadArgs{
			Streams: []string{s.stream, lastID},
			Count:   readCount,
			Block:   s.block,
		}).Result()
		if ctx.Err() != nil {
			return nil
		}
		if stderrors.Is(err, goredis.Nil) {
			continue
		}
		if err != nil {
			return Classify(s.Name(), err)
		}

		for _, st := range res {
			for _, entry := range st.Messages {
				lastID = entry.ID
				select {
				case out <- fromEntry(s.stream, entry):
					sent++
				case <-ctx.Done():
					return nil
				}
				if s.limit > 0 && sent >= s.limit {
					break
				}
			}
		}
	}
	s.log.Info("read limit reached", logger.Fields("stream", s.stream, "messages", sent))
	return nil
}

func fromEntry(stream string, entry goredis.XMessage) message.Message {
	payload := []byte(fieldString(entry.Values[FieldPayload]))

	var msg message.Message
	if len(payload) > 0 && json.Valid(payload) {
		if m, err := message.FromJSON(payload); err == nil {
			msg = m
		}
	}
	if msg.Format == message.FormatUnknown {
		msg = message.New(payload, message.FormatBinary)
	}

	if k, ok := entry.Values[FieldKey]; ok {
		msg.Key = []byte(fieldString(k))
	}
	for field, v := range entry.Values {
		if name, ok := strings.CutPrefix(field, FieldHeaderPrefix); ok {
			if msg.Headers == nil {
				msg.Headers = make(map[string]string)
			}
			msg.Headers[name] = fieldString(v)
		}
	}
	msg.Meta = map[string]string{MetaStream: stream, MetaID: entry.ID}
	return msg
}

func fieldString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	}
	return ""
}

// StreamSink appends one entry per message.
type StreamSink struct {
	client *Client
	stream string
	maxLen int64
	log    *logger.Logger
}

// NewStreamSink returns a sink appending to stream. A positive maxLen trims
// the stream approximately to that length.
func NewStreamSink(client *Client, stream string, maxLen int64, log *logger.Logger) *StreamSink {
	if log == nil {
		log = logger.NewNop()
	}
	return &StreamSink{
		client: client,
		stream: stream,
		maxLen: maxLen,
		log:    log.WithComponent("redis-sink"),
	}
}

func (s *StreamSink) Name() string { return "redis:" + s.stream }

func (s *StreamSink) Send(ctx context.Context, msg message.Message) error {
	values := make(map[string]interface{}, 2+len(msg.Headers))
	values[FieldPayload] = string(msg.Payload)
	if msg.HasKey() {
		values[FieldKey] = string(msg.Key)
	}
	for k, v := range msg.Headers {
		values[FieldHeaderPrefix+k] = v
	}

	args := &goredis.XAddArgs{Stream: s.stream, Values: values}
	if s.maxLen > 0 {
		args.MaxLen = s.maxLen
		args.Approx = true
	}
	if err := s.client.rdb.XAdd(ctx, args).Err(); err != nil {
		return errors.DeliveryFailed(s.Name(), Classify(s.Name(), err))
	}
	return nil
}

// Flush is a no-op; every Send appends its entry.
func (s *StreamSink) Flush(context.Context) error { return nil }

// Close closes the client.
func (s *StreamSink) Close() error { return s.client.Close() }
