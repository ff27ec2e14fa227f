package kafka

import (
	"time"

	"github.com/kbukum/fluxmux/security"
	"github.com/kbukum/fluxmux/util"
	"github.com/kbukum/fluxmux/validation"
)

// DefaultGroupID is the consumer group used when an endpoint names none.
const DefaultGroupID = "fluxmux-default"

// Config holds Kafka connection and client settings shared by sources,
// sinks and the inspector. Endpoint URIs override Brokers and GroupID.
type Config struct {
	// Brokers is the list of Kafka broker addresses.
	Brokers []string `yaml:"brokers" mapstructure:"brokers"`

	// GroupID is the consumer group identifier.
	GroupID string `yaml:"group_id" mapstructure:"group_id"`

	// ClientID identifies fluxmux to the brokers.
	ClientID string `yaml:"client_id" mapstructure:"client_id"`

	TLS security.TLSConfig `yaml:"tls" mapstructure:"tls"`

	// SASL
	EnableSASL    bool   `yaml:"enable_sasl" mapstructure:"enable_sasl"`
	SASLMechanism string `yaml:"sasl_mechanism" mapstructure:"sasl_mechanism"` // PLAIN, SCRAM-SHA-256, SCRAM-SHA-512
	Username      string `yaml:"username" mapstructure:"username"`
	Password      string `yaml:"password" mapstructure:"password"`

	// Sink settings
	Compression  string `yaml:"compression" mapstructure:"compression"` // none, gzip, snappy, lz4, zstd
	Retries      int    `yaml:"retries" mapstructure:"retries"`
	BatchSize    int    `yaml:"batch_size" mapstructure:"batch_size"`
	BatchTimeout string `yaml:"batch_timeout" mapstructure:"batch_timeout"`
	WriteTimeout string `yaml:"write_timeout" mapstructure:"write_timeout"`
	RequiredAcks int    `yaml:"required_acks" mapstructure:"required_acks"`

	// Source settings
	ReadTimeout       string `yaml:"read_timeout" mapstructure:"read_timeout"`
	SessionTimeout    string `yaml:"session_timeout" mapstructure:"session_timeout"`
	HeartbeatInterval string `yaml:"heartbeat_interval" mapstructure:"heartbeat_interval"`

	// Connection settings
	DialTimeout string `yaml:"dial_timeout" mapstructure:"dial_timeout"`
	IdleTimeout string `yaml:"idle_timeout" mapstructure:"idle_timeout"`
	MetadataTTL string `yaml:"metadata_ttl" mapstructure:"metadata_ttl"`
}

// ApplyDefaults fills zero-valued fields. Durations are strings so that
// they survive yaml, toml and env loading alike.
func (c *Config) ApplyDefaults() {
	if len(c.Brokers) == 0 {
		c.Brokers = []string{"localhost:9092"}
	}
	util.Default(&c.GroupID, DefaultGroupID)
	util.Default(&c.ClientID, "fluxmux")
	util.Default(&c.Compression, "snappy")
	util.Default(&c.Retries, 3)
	util.Default(&c.BatchSize, 100)
	util.Default(&c.RequiredAcks, -1) // every in-sync replica

	util.Default(&c.BatchTimeout, "1s")
	util.Default(&c.WriteTimeout, "10s")
	util.Default(&c.ReadTimeout, "10s")
	util.Default(&c.SessionTimeout, "30s")
	util.Default(&c.HeartbeatInterval, "3s")
	util.Default(&c.DialTimeout, "10s")
	util.Default(&c.IdleTimeout, "30s")
	util.Default(&c.MetadataTTL, "6s")

	if c.EnableSASL {
		util.Default(&c.SASLMechanism, "PLAIN")
	}
}

// Validate checks that required fields are present and parseable.
func (c *Config) Validate() error {
	v := validation.New().
		Custom(len(c.Brokers) > 0, "brokers", "at least one broker is required").
		Min("retries", c.Retries, 1).
		Min("batch_size", c.BatchSize, 1).
		Custom(c.RequiredAcks >= -1 && c.RequiredAcks <= 1, "required_acks", "must be -1, 0 or 1").
		OneOf("compression", c.Compression, []string{"none", "gzip", "snappy", "lz4", "zstd"}).
		Duration("batch_timeout", c.BatchTimeout).
		Duration("write_timeout", c.WriteTimeout).
		Duration("read_timeout", c.ReadTimeout).
		Duration("session_timeout", c.SessionTimeout).
		Duration("heartbeat_interval", c.HeartbeatInterval).
		Duration("dial_timeout", c.DialTimeout).
		Duration("idle_timeout", c.IdleTimeout).
		Duration("metadata_ttl", c.MetadataTTL).
		Include("tls", c.TLS.Validate())

	if c.EnableSASL {
		v.OneOf("sasl_mechanism", c.SASLMechanism, []string{"PLAIN", "SCRAM-SHA-256", "SCRAM-SHA-512"}).
			Required("username", c.Username)
	}
	return v.Err()
}

// ParseDuration converts a validated duration field. Empty or malformed
// input yields zero, which the kafka-go clients treat as their default.
func ParseDuration(s string) time.Duration {
	if s == "" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}
