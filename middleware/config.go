package middleware

import (
	"time"

	"github.com/kbukum/fluxmux/logger"
	"github.com/kbukum/fluxmux/schema"
	"github.com/kbukum/fluxmux/util"
	"github.com/kbukum/fluxmux/validation"
)

const (
	// DefaultBatchTimeoutMS applies when batching is on and no timeout is set.
	DefaultBatchTimeoutMS int64 = 5000
	// DefaultRetryDelayMS applies when retry tagging is on and no delay is set.
	DefaultRetryDelayMS int64 = 1000
)

// Config selects the bridge-mode stages. A nil option leaves its stage out
// of the chain.
type Config struct {
	BatchSize        *int     `yaml:"batch_size" mapstructure:"batch_size" validate:"omitempty,gt=0"`
	BatchTimeoutMS   *int64   `yaml:"batch_timeout_ms" mapstructure:"batch_timeout_ms" validate:"omitempty,gte=0"`
	Deduplicate      *bool    `yaml:"deduplicate" mapstructure:"deduplicate"`
	ThrottlePerSec   *float64 `yaml:"throttle_per_sec" mapstructure:"throttle_per_sec" validate:"omitempty,gt=0"`
	RetryMaxAttempts *int     `yaml:"retry_max_attempts" mapstructure:"retry_max_attempts" validate:"omitempty,gte=0"`
	RetryDelayMS     *int64   `yaml:"retry_delay_ms" mapstructure:"retry_delay_ms" validate:"omitempty,gte=0"`
	SchemaPath       string   `yaml:"schema_path" mapstructure:"schema_path"`

	// SchemaStrict enforces the whole schema document, not just "required".
	SchemaStrict bool `yaml:"schema_strict" mapstructure:"schema_strict"`
	// BatchFlushOnClose emits a held partial batch at end of stream.
	BatchFlushOnClose bool `yaml:"batch_flush_on_close" mapstructure:"batch_flush_on_close"`
}

// Validate validates the middleware options.
func (c *Config) Validate() error {
	return validation.Validate(c)
}

// Build assembles the chain in its fixed order:
// schema validator, deduplicator, retry handler, batcher, throttler.
func Build(cfg Config, log *logger.Logger) (*Chain, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NewNop()
	}
	log = log.WithComponent("middleware")
	chain := NewChain(log)

	if cfg.SchemaPath != "" {
		doc, err := schema.Load(cfg.SchemaPath)
		if err != nil {
			return nil, err
		}
		sv, err := NewSchemaValidator(doc, cfg.SchemaStrict, log)
		if err != nil {
			return nil, err
		}
		chain.Add(sv)
	}

	if util.Deref(cfg.Deduplicate) {
		chain.Add(NewDeduplicator(log))
	}

	if cfg.RetryMaxAttempts != nil {
		delay := DefaultRetryDelayMS
		if cfg.RetryDelayMS != nil {
			delay = *cfg.RetryDelayMS
		}
		chain.Add(NewRetryHandler(*cfg.RetryMaxAttempts, time.Duration(delay)*time.Millisecond))
	}

	if cfg.BatchSize != nil {
		timeout := DefaultBatchTimeoutMS
		if cfg.BatchTimeoutMS != nil {
			timeout = *cfg.BatchTimeoutMS
		}
		chain.Add(NewBatcher(*cfg.BatchSize, time.Duration(timeout)*time.Millisecond, log))
	}

	if cfg.ThrottlePerSec != nil {
		chain.Add(NewThrottler(*cfg.ThrottlePerSec, log))
	}

	log.Debug("middleware chain built", logger.Fields("stages", chain.Names()))
	return chain, nil
}
