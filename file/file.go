package file

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"sync"

	"github.com/kbukum/fluxmux/codec"
	"github.com/kbukum/fluxmux/errors"
	"github.com/kbukum/fluxmux/logger"
	"github.com/kbukum/fluxmux/message"
	"github.com/kbukum/fluxmux/validation"
)

// DefaultBufferSize is the number of payloads a sink holds before writing.
const DefaultBufferSize = 100

// Config holds file endpoint settings.
type Config struct {
	// BufferSize is the number of payloads a sink holds before it writes.
	BufferSize int `yaml:"buffer_size" mapstructure:"buffer_size" validate:"gte=1"`
}

// ApplyDefaults fills in zero-valued fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.BufferSize == 0 {
		c.BufferSize = DefaultBufferSize
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	return validation.Validate(c)
}

// Source reads every record of a file.
type Source struct {
	path   string
	format codec.Format
	log    *logger.Logger
}

// NewSource returns a source for path. The codec is chosen by extension.
func NewSource(path string, log *logger.Logger) *Source {
	if log == nil {
		log = logger.NewNop()
	}
	format, _ := codec.FormatFromPath(path)
	return &Source{path: path, format: format, log: log.WithComponent("file-source")}
}

// Start reads the file and sends its records in order.
func (s *Source) Start(ctx context.Context, out chan<- message.Message) error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return errors.InvalidEndpoint("file:"+s.path, "cannot read file").WithCause(err)
	}

	sent := 0
	err = Decode(data, s.format, "file:"+s.path, func(m message.Message) error {
		select {
		case out <- m:
			sent++
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	s.log.Debug("file read", logger.Fields(logger.FieldEndpoint, s.path, "messages", sent))
	return err
}

// Sink appends payloads to a file, one per line. Payloads are held until
// BufferSize of them are pending or Flush is called.
type Sink struct {
	path       string
	bufferSize int
	log        *logger.Logger

	mu      sync.Mutex
	pending [][]byte
}

// NewSink returns a sink for path.
func NewSink(path string, cfg Config, log *logger.Logger) *Sink {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.NewNop()
	}
	return &Sink{
		path:       path,
		bufferSize: cfg.BufferSize,
		log:        log.WithComponent("file-sink"),
		pending:    make([][]byte, 0, cfg.BufferSize),
	}
}

func (s *Sink) Name() string { return "file:" + s.path }

// Send buffers msg and writes the buffer once it is full. When that write
// fails only msg is dropped from the buffer, so a retried Send does not
// write it twice.
func (s *Sink) Send(_ context.Context, msg message.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending = append(s.pending, bytes.Clone(msg.Payload))
	if len(s.pending) < s.bufferSize {
		return nil
	}
	if err := s.writeLocked(); err != nil {
		s.pending = s.pending[:len(s.pending)-1]
		return errors.DeliveryFailed(s.Name(), err)
	}
	return nil
}

// Flush writes everything pending.
func (s *Sink) Flush(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) == 0 {
		return nil
	}
	if err := s.writeLocked(); err != nil {
		return errors.DeliveryFailed(s.Name(), err)
	}
	return nil
}

func (s *Sink) writeLocked() error {
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	for _, p := range s.pending {
		if _, err := w.Write(p); err != nil {
			f.Close()
			return err
		}
		if err := w.WriteByte('\n'); err != nil {
			f.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	s.log.Debug("payloads written", logger.Fields(logger.FieldEndpoint, s.path, "count", len(s.pending)))
	s.pending = s.pending[:0]
	return nil
}
