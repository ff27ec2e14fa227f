package app

import (
	"io"
	"time"

	"github.com/kbukum/fluxmux/logger"
)

// Option configures the App during creation.
type Option func(*appOptions)

type appOptions struct {
	logger          *logger.Logger
	stdin           io.Reader
	stdout          io.Writer
	summary         io.Writer
	summarySet      bool
	gracefulTimeout *time.Duration
}

func resolveOptions(opts []Option) *appOptions {
	o := &appOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets a custom logger. If not set, the logger is built from the
// config's logging section.
func WithLogger(l *logger.Logger) Option {
	return func(o *appOptions) {
		o.logger = l
	}
}

// WithStdio replaces the process standard input and output used by the
// stdin source, the stdout sink and the kafka inspector.
func WithStdio(in io.Reader, out io.Writer) Option {
	return func(o *appOptions) {
		o.stdin = in
		o.stdout = out
	}
}

// WithSummary sets where run summaries are written. Nil disables them.
func WithSummary(w io.Writer) Option {
	return func(o *appOptions) {
		o.summary = w
		o.summarySet = true
	}
}

// WithGracefulTimeout bounds the time stop hooks may take.
func WithGracefulTimeout(d time.Duration) Option {
	return func(o *appOptions) {
		o.gracefulTimeout = &d
	}
}
