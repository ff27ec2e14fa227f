package security

import (
	"crypto/tls"
	"os"
	"path/filepath"
	"testing"

	"github.com/kbukum/fluxmux/errors"
	"github.com/kbukum/fluxmux/security/tlstest"
)

func TestTLSConfig_Disabled(t *testing.T) {
	var nilCfg *TLSConfig
	for name, cfg := range map[string]*TLSConfig{
		"nil":      nilCfg,
		"zero":     {},
		"settings": {CAFile: "/does/not/matter"},
	} {
		t.Run(name, func(t *testing.T) {
			tc, err := cfg.Build()
			if err != nil {
				t.Fatalf("Build() error: %v", err)
			}
			if tc != nil {
				t.Error("expected nil tls.Config when disabled")
			}
		})
	}
}

func TestTLSConfig_Build(t *testing.T) {
	certs := tlstest.Generate(t)
	cfg := &TLSConfig{
		Enabled:    true,
		CAFile:     certs.CAFile,
		CertFile:   certs.CertFile,
		KeyFile:    certs.KeyFile,
		ServerName: "localhost",
	}
	tc, err := cfg.Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if tc.RootCAs == nil {
		t.Error("expected RootCAs from ca_file")
	}
	if len(tc.Certificates) != 1 {
		t.Errorf("Certificates = %d, want 1", len(tc.Certificates))
	}
	if tc.ServerName != "localhost" || tc.InsecureSkipVerify {
		t.Errorf("unexpected config: server=%q skip=%v", tc.ServerName, tc.InsecureSkipVerify)
	}
	if tc.MinVersion != tls.VersionTLS12 {
		t.Errorf("MinVersion = %x, want TLS 1.2", tc.MinVersion)
	}

	cfg.MinVersion = "1.3"
	if tc, err = cfg.Build(); err != nil || tc.MinVersion != tls.VersionTLS13 {
		t.Errorf("min_version 1.3: %v, %v", tc, err)
	}
}

func TestTLSConfig_Errors(t *testing.T) {
	certs := tlstest.Generate(t)
	garbage := filepath.Join(t.TempDir(), "garbage.pem")
	if err := os.WriteFile(garbage, []byte("not a certificate"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		cfg  TLSConfig
	}{
		{"missing CA", TLSConfig{Enabled: true, CAFile: filepath.Join(t.TempDir(), "missing.pem")}},
		{"invalid CA", TLSConfig{Enabled: true, CAFile: garbage}},
		{"cert without key", TLSConfig{Enabled: true, CertFile: certs.CertFile}},
		{"key mismatch", TLSConfig{Enabled: true, CertFile: certs.CertFile, KeyFile: garbage}},
		{"unknown min version", TLSConfig{Enabled: true, MinVersion: "1.0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.cfg.Build()
			appErr, ok := errors.AsAppError(err)
			if !ok || appErr.Code != errors.ErrCodeInvalidInput {
				t.Errorf("expected INVALID_INPUT, got %v", err)
			}
		})
	}
}
