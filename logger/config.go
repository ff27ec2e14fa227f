package logger

import (
	"github.com/kbukum/fluxmux/util"
	"github.com/kbukum/fluxmux/validation"
)

const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

var (
	levels  = []string{"trace", "debug", "info", "warn", "error"}
	formats = []string{FormatJSON, FormatConsole}
	outputs = []string{"stdout", "stderr"}
)

// Config selects the level, encoding and stream of the process logger.
type Config struct {
	Level   string `yaml:"level" mapstructure:"level"`
	Format  string `yaml:"format" mapstructure:"format"`
	Output  string `yaml:"output" mapstructure:"output"`
	NoColor bool   `yaml:"no_color" mapstructure:"no_color"`
	Caller  bool   `yaml:"caller" mapstructure:"caller"`
}

// ApplyDefaults logs at info, in console format, to stderr. Stdout is left
// to the stdout sink.
func (c *Config) ApplyDefaults() {
	util.Default(&c.Level, "info")
	util.Default(&c.Format, FormatConsole)
	util.Default(&c.Output, "stderr")
}

func (c *Config) Validate() error {
	return validation.New().
		OneOf("level", c.Level, levels).
		OneOf("format", c.Format, formats).
		OneOf("output", c.Output, outputs).
		Err()
}
