package redis

import (
	"crypto/tls"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kbukum/fluxmux/security"
	"github.com/kbukum/fluxmux/util"
	"github.com/kbukum/fluxmux/validation"
)

// Config describes the server behind redis:// endpoints. The endpoint URI
// overrides Addr and DB. Durations are strings such as "3s".
type Config struct {
	Addr     string `yaml:"addr" mapstructure:"addr"`
	Password string `yaml:"password" mapstructure:"password"`
	DB       int    `yaml:"db" mapstructure:"db" validate:"gte=0"`

	PoolSize     int `yaml:"pool_size" mapstructure:"pool_size"`
	MinIdleConns int `yaml:"min_idle_conns" mapstructure:"min_idle_conns" validate:"gte=0"`

	// MaxRetries is go-redis' own per-command retry count; -1 disables it.
	MaxRetries      int    `yaml:"max_retries" mapstructure:"max_retries"`
	MinRetryBackoff string `yaml:"min_retry_backoff" mapstructure:"min_retry_backoff"`
	MaxRetryBackoff string `yaml:"max_retry_backoff" mapstructure:"max_retry_backoff"`

	DialTimeout  string `yaml:"dial_timeout" mapstructure:"dial_timeout"`
	ReadTimeout  string `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout string `yaml:"write_timeout" mapstructure:"write_timeout"`

	// MaxLen caps streams written by sinks at roughly this many entries;
	// zero leaves them unbounded.
	MaxLen int64 `yaml:"max_len" mapstructure:"max_len" validate:"gte=0"`

	TLS security.TLSConfig `yaml:"tls" mapstructure:"tls"`
}

func (c *Config) ApplyDefaults() {
	util.Default(&c.Addr, "localhost:6379")
	util.Default(&c.PoolSize, 10)
	util.Default(&c.MinIdleConns, 1)
	util.Default(&c.MaxRetries, 3)
	util.Default(&c.MinRetryBackoff, "8ms")
	util.Default(&c.MaxRetryBackoff, "512ms")
	util.Default(&c.DialTimeout, "5s")
	util.Default(&c.ReadTimeout, "3s")
	util.Default(&c.WriteTimeout, "3s")
}

func (c *Config) Validate() error {
	return validation.New().
		Include("", validation.Validate(c)).
		Required("addr", c.Addr).
		Min("pool_size", c.PoolSize, 1).
		Min("max_retries", c.MaxRetries, -1).
		Duration("min_retry_backoff", c.MinRetryBackoff).
		Duration("max_retry_backoff", c.MaxRetryBackoff).
		Duration("dial_timeout", c.DialTimeout).
		Duration("read_timeout", c.ReadTimeout).
		Duration("write_timeout", c.WriteTimeout).
		Include("tls", c.TLS.Validate()).
		Err()
}

func (c *Config) options(tlsConfig *tls.Config) *goredis.Options {
	return &goredis.Options{
		Addr:            c.Addr,
		Password:        c.Password,
		DB:              c.DB,
		PoolSize:        c.PoolSize,
		MinIdleConns:    c.MinIdleConns,
		MaxRetries:      c.MaxRetries,
		MinRetryBackoff: duration(c.MinRetryBackoff),
		MaxRetryBackoff: duration(c.MaxRetryBackoff),
		DialTimeout:     duration(c.DialTimeout),
		ReadTimeout:     duration(c.ReadTimeout),
		WriteTimeout:    duration(c.WriteTimeout),
		TLSConfig:       tlsConfig,
	}
}

// duration reads a field Validate has already checked.
func duration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}
