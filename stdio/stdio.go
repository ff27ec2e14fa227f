// Package stdio reads records from standard input and writes payloads to
// standard output.
package stdio

import (
	"bufio"
	"context"
	"io"
	"os"
	"sync"

	"github.com/kbukum/fluxmux/errors"
	"github.com/kbukum/fluxmux/file"
	"github.com/kbukum/fluxmux/logger"
	"github.com/kbukum/fluxmux/message"
)

// Origin is the source header value of messages read from standard input.
const Origin = "stdin"

// Source reads a JSON document or NDJSON stream from r.
type Source struct {
	r   io.Reader
	log *logger.Logger
}

// NewSource returns a source over r; nil means os.Stdin.
func NewSource(r io.Reader, log *logger.Logger) *Source {
	if r == nil {
		r = os.Stdin
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Source{r: r, log: log.WithComponent("stdin-source")}
}

// Start reads r to the end and sends its records in order.
func (s *Source) Start(ctx context.Context, out chan<- message.Message) error {
	data, err := io.ReadAll(s.r)
	if err != nil {
		return errors.InvalidEndpoint(Origin, "cannot read input").WithCause(err)
	}
	sent := 0
	err = file.Decode(data, "", Origin, func(m message.Message) error {
		select {
		case out <- m:
			sent++
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	s.log.Debug("input read", logger.Fields("messages", sent))
	return err
}

// Sink writes each payload plus a newline through a buffered writer.
type Sink struct {
	mu        sync.Mutex
	w         *bufio.Writer
	lineFlush bool
}

// Option configures a Sink.
type Option func(*Sink)

// WithLineFlush flushes after every payload, for long-running sources whose
// output is watched live.
func WithLineFlush() Option {
	return func(s *Sink) { s.lineFlush = true }
}

// NewSink returns a sink writing to w; nil means os.Stdout.
func NewSink(w io.Writer, opts ...Option) *Sink {
	if w == nil {
		w = os.Stdout
	}
	s := &Sink{w: bufio.NewWriter(w)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Sink) Name() string { return "stdout" }

func (s *Sink) Send(_ context.Context, msg message.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.w.Write(msg.Payload); err != nil {
		return errors.DeliveryFailed(s.Name(), err)
	}
	if err := s.w.WriteByte('\n'); err != nil {
		return errors.DeliveryFailed(s.Name(), err)
	}
	if s.lineFlush {
		if err := s.w.Flush(); err != nil {
			return errors.DeliveryFailed(s.Name(), err)
		}
	}
	return nil
}

func (s *Sink) Flush(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.w.Flush(); err != nil {
		return errors.DeliveryFailed(s.Name(), err)
	}
	return nil
}
