package app

import (
	"github.com/kbukum/fluxmux/config"
	"github.com/kbukum/fluxmux/database"
	"github.com/kbukum/fluxmux/errors"
	"github.com/kbukum/fluxmux/file"
	"github.com/kbukum/fluxmux/kafka"
	"github.com/kbukum/fluxmux/middleware"
	"github.com/kbukum/fluxmux/observability"
	"github.com/kbukum/fluxmux/pipeline"
	"github.com/kbukum/fluxmux/redis"
	"github.com/kbukum/fluxmux/validation"
	"github.com/kbukum/fluxmux/version"
)

// ServiceName names the configuration files and the logger service tag.
const ServiceName = "fluxmux"

// PipelineConfig tunes the orchestrators.
type PipelineConfig struct {
	// ChannelCapacity bounds the channel between source and chain.
	ChannelCapacity int `yaml:"channel_capacity" mapstructure:"channel_capacity" validate:"gte=0"`
}

// Config is the complete fluxmux configuration. Command-line flags are
// applied on top of it by the CLI.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Pipeline   PipelineConfig            `yaml:"pipeline" mapstructure:"pipeline"`
	Middleware middleware.Config         `yaml:"middleware" mapstructure:"middleware"`
	Kafka      kafka.Config              `yaml:"kafka" mapstructure:"kafka"`
	Database   database.Config           `yaml:"database" mapstructure:"database"`
	Redis      redis.Config              `yaml:"redis" mapstructure:"redis"`
	Metrics    observability.MeterConfig `yaml:"metrics" mapstructure:"metrics"`
	File       file.Config               `yaml:"file" mapstructure:"file"`
}

// Load reads the configuration file at path, or the discovered one when path
// is empty, with environment overrides applied.
func Load(path string) (*Config, error) {
	var opts []config.Option
	if path != "" {
		opts = append(opts, config.WithConfigFile(path))
	}
	cfg := &Config{}
	if err := config.Load(ServiceName, cfg, opts...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyDefaults fills in every section.
func (c *Config) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	if c.Version == "" {
		c.Version = version.Short()
	}
	if c.Pipeline.ChannelCapacity == 0 {
		c.Pipeline.ChannelCapacity = pipeline.DefaultChannelCapacity
	}
	c.Kafka.ApplyDefaults()
	c.Database.ApplyDefaults()
	c.Redis.ApplyDefaults()
	c.File.ApplyDefaults()
	c.Metrics.ApplyDefaults()
}

// Validate checks every section and tags the error with the section name.
func (c *Config) Validate() error {
	sections := []struct {
		name  string
		check func() error
	}{
		{"service", c.ServiceConfig.Validate},
		{"pipeline", func() error { return validation.Validate(&c.Pipeline) }},
		{"middleware", c.Middleware.Validate},
		{"kafka", c.Kafka.Validate},
		{"database", c.Database.Validate},
		{"redis", c.Redis.Validate},
		{"file", c.File.Validate},
		{"metrics", c.Metrics.Validate},
	}
	for _, s := range sections {
		if err := s.check(); err != nil {
			if appErr, ok := errors.AsAppError(err); ok {
				return appErr.WithDetail("section", s.name)
			}
			return errors.InvalidInput(s.name, err.Error()).WithCause(err)
		}
	}
	return nil
}
