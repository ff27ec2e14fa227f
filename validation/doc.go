// Package validation checks fluxmux configuration sections.
//
// Struct tags cover static rules:
//
//	type Config struct {
//	    BatchSize *int `mapstructure:"batch_size" validate:"omitempty,gt=0"`
//	}
//	err := validation.Validate(cfg)
//
// A Validator chain covers rules that depend on several fields:
//
//	err := validation.New().
//	    Required("addr", c.Addr).
//	    Duration("dial_timeout", c.DialTimeout).
//	    Include("tls", c.TLS.Validate()).
//	    Err()
//
// Both report an INVALID_INPUT AppError whose "fields" detail lists every
// failure.
package validation
