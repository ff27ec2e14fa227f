package pipeline

import (
	"github.com/kbukum/fluxmux/logger"
	"github.com/kbukum/fluxmux/observability"
)

// DefaultChannelCapacity is the size of the channel between source and chain.
const DefaultChannelCapacity = 1024

type options struct {
	capacity     int
	log          *logger.Logger
	metrics      *observability.PipelineMetrics
	drainOnClose bool
}

func defaultOptions() options {
	return options{
		capacity: DefaultChannelCapacity,
		log:      logger.NewNop(),
	}
}

// Option configures an orchestrator.
type Option func(*options)

// WithChannelCapacity sets the bounded channel size. Values below 1 are ignored.
func WithChannelCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.capacity = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log *logger.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

// WithMetrics records pipeline metrics. Nil disables recording.
func WithMetrics(m *observability.PipelineMetrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithDrainOnClose makes the bridge emit messages still held by the chain
// when the source is exhausted. Without it they are discarded with a warning.
func WithDrainOnClose(enabled bool) Option {
	return func(o *options) {
		o.drainOnClose = enabled
	}
}
