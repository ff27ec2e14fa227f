package database

import "github.com/kbukum/fluxmux/validation"

// Drivers accepted by Open.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds database connection configuration. A postgres endpoint URI
// supplies the DSN; everything else comes from the config file.
type Config struct {
	// DSN is the connection string. For sqlite it is a file path or
	// "file::memory:".
	DSN string `yaml:"dsn" mapstructure:"dsn"`

	// Driver selects the gorm dialector: postgres or sqlite.
	Driver string `yaml:"driver" mapstructure:"driver"`

	// MaxOpenConns sets the maximum number of open connections to the database.
	MaxOpenConns int `yaml:"max_open_conns" mapstructure:"max_open_conns"`

	// MaxIdleConns sets the maximum number of idle connections in the pool.
	MaxIdleConns int `yaml:"max_idle_conns" mapstructure:"max_idle_conns"`

	// ConnMaxLifetime is the maximum time a connection may be reused (e.g. "1h", "30m").
	ConnMaxLifetime string `yaml:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`

	// ConnMaxIdleTime is the maximum time a connection may sit idle (e.g. "5m").
	ConnMaxIdleTime string `yaml:"conn_max_idle_time" mapstructure:"conn_max_idle_time"`

	// ConnectRetries is the number of connection attempts before giving up.
	ConnectRetries int `yaml:"connect_retries" mapstructure:"connect_retries"`

	// RetryDelay is the wait before the second connection attempt; later
	// waits double.
	RetryDelay string `yaml:"retry_delay" mapstructure:"retry_delay"`

	// SlowQueryThreshold is the duration above which queries are logged as slow (e.g. "200ms").
	SlowQueryThreshold string `yaml:"slow_query_threshold" mapstructure:"slow_query_threshold"`

	// LogLevel is the gorm log level: silent, error, warn or info.
	LogLevel string `yaml:"log_level" mapstructure:"log_level"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Driver == "" {
		c.Driver = DriverPostgres
	}
	if c.MaxOpenConns <= 0 {
		c.MaxOpenConns = 10
	}
	if c.MaxIdleConns <= 0 {
		c.MaxIdleConns = 2
	}
	if c.ConnMaxLifetime == "" {
		c.ConnMaxLifetime = "1h"
	}
	if c.ConnMaxIdleTime == "" {
		c.ConnMaxIdleTime = "5m"
	}
	if c.ConnectRetries <= 0 {
		c.ConnectRetries = 3
	}
	if c.RetryDelay == "" {
		c.RetryDelay = "1s"
	}
	if c.SlowQueryThreshold == "" {
		c.SlowQueryThreshold = "200ms"
	}
	if c.LogLevel == "" {
		c.LogLevel = "warn"
	}
}

// Validate checks that fields are consistent and parseable. The DSN is
// checked by Open since endpoints supply it late.
func (c *Config) Validate() error {
	return validation.New().
		OneOf("driver", c.Driver, []string{DriverPostgres, DriverSQLite}).
		OneOf("log_level", c.LogLevel, []string{"silent", "error", "warn", "info"}).
		Min("max_open_conns", c.MaxOpenConns, 1).
		Min("max_idle_conns", c.MaxIdleConns, 1).
		Custom(c.MaxIdleConns <= c.MaxOpenConns, "max_idle_conns", "must be <= max_open_conns").
		Min("connect_retries", c.ConnectRetries, 1).
		Duration("conn_max_lifetime", c.ConnMaxLifetime).
		Duration("conn_max_idle_time", c.ConnMaxIdleTime).
		Duration("retry_delay", c.RetryDelay).
		Duration("slow_query_threshold", c.SlowQueryThreshold).
		Err()
}
