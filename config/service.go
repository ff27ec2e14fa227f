package config

import (
	"github.com/kbukum/fluxmux/logger"
	"github.com/kbukum/fluxmux/validation"
)

// Environments accepted by ServiceConfig.
var Environments = []string{"development", "staging", "production"}

// ServiceConfig contains the fields every fluxmux process needs. Command
// configs embed it.
//
//	type Config struct {
//	    config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
//	    Kafka kafka.Config   `yaml:"kafka" mapstructure:"kafka"`
//	}
type ServiceConfig struct {
	Name        string        `yaml:"name" mapstructure:"name"`
	Environment string        `yaml:"environment" mapstructure:"environment"`
	Version     string        `yaml:"version" mapstructure:"version"`
	Debug       bool          `yaml:"debug" mapstructure:"debug"`
	Logging     logger.Config `yaml:"logging" mapstructure:"logging"`
}

// ApplyDefaults fills in zero-valued fields. Debug turns on debug logging
// unless a level was set explicitly.
func (c *ServiceConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "fluxmux"
	}
	if c.Environment == "" {
		c.Environment = "production"
	}
	if c.Debug && c.Logging.Level == "" {
		c.Logging.Level = "debug"
	}
	c.Logging.ApplyDefaults()
}

// Validate checks the service fields and the logging configuration.
func (c *ServiceConfig) Validate() error {
	return validation.New().
		Required("name", c.Name).
		OneOf("environment", c.Environment, Environments).
		Include("logging", c.Logging.Validate()).
		Err()
}
