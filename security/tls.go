package security

import (
	"crypto/tls"
	"crypto/x509"
	"os"

	"github.com/kbukum/fluxmux/errors"
	"github.com/kbukum/fluxmux/validation"
)

var minVersions = map[string]uint16{
	"":    tls.VersionTLS12,
	"1.2": tls.VersionTLS12,
	"1.3": tls.VersionTLS13,
}

// TLSConfig is the client side of a TLS connection to a broker or server.
// Nothing is read from disk until Build.
type TLSConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// SkipVerify accepts any server certificate. Test clusters only.
	SkipVerify bool `yaml:"skip_verify" mapstructure:"skip_verify"`
	// CAFile replaces the system pool when set.
	CAFile string `yaml:"ca_file" mapstructure:"ca_file"`
	// CertFile and KeyFile present a client certificate for mutual TLS.
	CertFile   string `yaml:"cert_file" mapstructure:"cert_file"`
	KeyFile    string `yaml:"key_file" mapstructure:"key_file"`
	ServerName string `yaml:"server_name" mapstructure:"server_name"`
	// MinVersion is "1.2" (default) or "1.3".
	MinVersion string `yaml:"min_version" mapstructure:"min_version"`
}

func (c *TLSConfig) Validate() error {
	if c == nil || !c.Enabled {
		return nil
	}
	return validation.New().
		Custom((c.CertFile != "") == (c.KeyFile != ""), "cert_file", "cert_file and key_file must be set together").
		OneOf("min_version", c.MinVersion, []string{"", "1.2", "1.3"}).
		Err()
}

// Build loads the configured files into a *tls.Config. It returns nil
// without error when TLS is disabled; unreadable files are INVALID_INPUT.
func (c *TLSConfig) Build() (*tls.Config, error) {
	if c == nil || !c.Enabled {
		return nil, nil
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	out := &tls.Config{
		MinVersion:         minVersions[c.MinVersion],
		ServerName:         c.ServerName,
		InsecureSkipVerify: c.SkipVerify, //nolint:gosec // explicit opt-in
	}
	if c.CAFile != "" {
		pool, err := loadPool(c.CAFile)
		if err != nil {
			return nil, err
		}
		out.RootCAs = pool
	}
	if c.CertFile != "" {
		pair, err := tls.LoadX509KeyPair(c.CertFile, c.KeyFile)
		if err != nil {
			return nil, errors.InvalidInput("tls.cert_file", "cannot load client certificate").WithCause(err)
		}
		out.Certificates = []tls.Certificate{pair}
	}
	return out, nil
}

func loadPool(path string) (*x509.CertPool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.InvalidInput("tls.ca_file", "cannot read CA file").WithCause(err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(data) {
		return nil, errors.InvalidInput("tls.ca_file", "no PEM certificate in "+path)
	}
	return pool, nil
}
