package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"

	"github.com/kbukum/fluxmux/errors"
	"github.com/kbukum/fluxmux/logger"
	"github.com/kbukum/fluxmux/validation"
)

// DefaultExportInterval applies when MeterConfig.Interval is unset.
const DefaultExportInterval = 15 * time.Second

// MeterConfig configures the OTLP/HTTP metric push. Metrics are exported
// only when Endpoint is set; otherwise instruments record into the global
// no-op provider.
type MeterConfig struct {
	// Endpoint is the collector host:port, e.g. "localhost:4318".
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`
	// URLPath overrides the default "/v1/metrics".
	URLPath  string `yaml:"url_path" mapstructure:"url_path"`
	Insecure bool   `yaml:"insecure" mapstructure:"insecure"`
	// Headers are sent with every export, typically for collector auth.
	Headers  map[string]string `yaml:"headers" mapstructure:"headers"`
	Interval time.Duration     `yaml:"interval" mapstructure:"interval" validate:"gte=0"`
}

// Enabled reports whether an exporter endpoint is configured.
func (c *MeterConfig) Enabled() bool { return c.Endpoint != "" }

func (c *MeterConfig) ApplyDefaults() {
	if c.Interval == 0 {
		c.Interval = DefaultExportInterval
	}
}

func (c *MeterConfig) Validate() error {
	return validation.Validate(c)
}

// Resource identifies the process in exported metrics.
type Resource struct {
	Name        string
	Version     string
	Environment string
}

func (r Resource) build() (*resource.Resource, error) {
	return resource.Merge(resource.Default(), resource.NewSchemaless(
		attribute.String("service.name", r.Name),
		attribute.String("service.version", r.Version),
		attribute.String("deployment.environment", r.Environment),
	))
}

// InitMeter installs a global meter provider that pushes to cfg.Endpoint
// every cfg.Interval. The caller shuts the provider down at exit so the
// last interval is flushed.
func InitMeter(ctx context.Context, cfg *MeterConfig, res Resource, log *logger.Logger) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	if cfg.URLPath != "" {
		opts = append(opts, otlpmetrichttp.WithURLPath(cfg.URLPath))
	}
	if len(cfg.Headers) > 0 {
		opts = append(opts, otlpmetrichttp.WithHeaders(cfg.Headers))
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, errors.ConnectionFailed("otlp").WithCause(err)
	}
	r, err := res.build()
	if err != nil {
		return nil, errors.Internal(err)
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultExportInterval
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval))),
		sdkmetric.WithResource(r),
	)
	otel.SetMeterProvider(mp)

	if log != nil {
		log.Info("metrics export enabled", logger.Fields(
			"endpoint", cfg.Endpoint,
			"interval", interval.String(),
		))
	}
	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}
