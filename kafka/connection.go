package kafka

import (
	"context"
	"crypto/tls"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/plain"
	"github.com/segmentio/kafka-go/sasl/scram"

	"github.com/kbukum/fluxmux/errors"
)

var compressions = map[string]kafka.Compression{
	"none":   0,
	"gzip":   kafka.Gzip,
	"snappy": kafka.Snappy,
	"lz4":    kafka.Lz4,
	"zstd":   kafka.Zstd,
}

// ResolveCompression maps a codec name to its kafka-go value. Unknown names
// fall back to snappy.
func ResolveCompression(name string) kafka.Compression {
	if c, ok := compressions[name]; ok {
		return c
	}
	return kafka.Snappy
}

// NewTransport returns the transport sinks write through.
func NewTransport(cfg *Config) (*kafka.Transport, error) {
	tlsConfig, mechanism, err := credentials(cfg)
	if err != nil {
		return nil, err
	}
	return &kafka.Transport{
		ClientID:    cfg.ClientID,
		DialTimeout: ParseDuration(cfg.DialTimeout),
		IdleTimeout: ParseDuration(cfg.IdleTimeout),
		MetadataTTL: ParseDuration(cfg.MetadataTTL),
		TLS:         tlsConfig,
		SASL:        mechanism,
	}, nil
}

// NewDialer returns the dialer used by sources and the inspector.
func NewDialer(cfg *Config) (*kafka.Dialer, error) {
	tlsConfig, mechanism, err := credentials(cfg)
	if err != nil {
		return nil, err
	}
	return &kafka.Dialer{
		ClientID:      cfg.ClientID,
		Timeout:       ParseDuration(cfg.DialTimeout),
		DualStack:     true,
		TLS:           tlsConfig,
		SASLMechanism: mechanism,
	}, nil
}

// Ping succeeds as soon as one broker accepts a connection. Sinks call it
// on open so a dead cluster fails the run before the source is read.
func Ping(ctx context.Context, cfg *Config) error {
	dialer, err := NewDialer(cfg)
	if err != nil {
		return err
	}
	var lastErr error
	for _, broker := range cfg.Brokers {
		conn, err := dialer.DialContext(ctx, "tcp", broker)
		if err == nil {
			return conn.Close()
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return errors.ConnectionFailed("kafka").WithCause(lastErr).WithDetail("brokers", cfg.Brokers)
}

func credentials(cfg *Config) (*tls.Config, sasl.Mechanism, error) {
	tlsConfig, err := cfg.TLS.Build()
	if err != nil {
		return nil, nil, err
	}
	if !cfg.EnableSASL {
		return tlsConfig, nil, nil
	}
	mechanism, err := saslMechanism(cfg.SASLMechanism, cfg.Username, cfg.Password)
	if err != nil {
		return nil, nil, err
	}
	return tlsConfig, mechanism, nil
}

func saslMechanism(name, user, password string) (sasl.Mechanism, error) {
	var (
		m   sasl.Mechanism
		err error
	)
	switch name {
	case "PLAIN":
		m = plain.Mechanism{Username: user, Password: password}
	case "SCRAM-SHA-256":
		m, err = scram.Mechanism(scram.SHA256, user, password)
	case "SCRAM-SHA-512":
		m, err = scram.Mechanism(scram.SHA512, user, password)
	default:
		return nil, errors.InvalidInput("sasl_mechanism", "unsupported mechanism "+name)
	}
	if err != nil {
		return nil, errors.InvalidInput("sasl_mechanism", err.Error()).WithCause(err)
	}
	return m, nil
}
