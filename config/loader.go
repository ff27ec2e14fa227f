package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/kbukum/fluxmux/errors"
)

// EnvPrefix prefixes environment variables that override config values:
// FLUXMUX_KAFKA_BATCH_SIZE sets kafka.batch_size.
const EnvPrefix = "FLUXMUX_"

// configExts are tried in order when discovering a config file.
var configExts = []string{"yml", "yaml", "toml", "json"}

// FS is the slice of the filesystem the loader touches.
type FS interface {
	Exists(path string) bool
	LoadEnv(path string) error
	HomeDir() (string, error)
}

type osFS struct{}

func (osFS) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (osFS) LoadEnv(path string) error { return godotenv.Load(path) }

func (osFS) HomeDir() (string, error) { return os.UserHomeDir() }

type options struct {
	fs         FS
	configFile string
	envFile    string
	defaults   map[string]any
}

// Option customizes Load.
type Option func(*options)

// WithFS replaces the operating system filesystem.
func WithFS(fs FS) Option {
	return func(o *options) { o.fs = fs }
}

// WithConfigFile names the config file instead of discovering one. The file
// must exist.
func WithConfigFile(path string) Option {
	return func(o *options) { o.configFile = path }
}

// WithEnvFile names the .env file instead of discovering one.
func WithEnvFile(path string) Option {
	return func(o *options) { o.envFile = path }
}

// WithDefault sets a value used when neither the file nor the environment
// provides key. Keys are dotted paths such as "pipeline.channel_capacity".
func WithDefault(key string, value any) Option {
	return func(o *options) {
		if o.defaults == nil {
			o.defaults = map[string]any{}
		}
		o.defaults[key] = value
	}
}

// Load fills cfg from, lowest precedence first: defaults, the config file,
// the .env file and FLUXMUX_ environment variables. ApplyDefaults and
// Validate run afterwards when cfg has them.
func Load(name string, cfg any, opts ...Option) error {
	o := options{fs: osFS{}}
	for _, opt := range opts {
		opt(&o)
	}
	if o.configFile != "" && !o.fs.Exists(o.configFile) {
		return errors.InvalidInput("config", "config file "+o.configFile+" not found")
	}
	configFile, envFile := locate(o.fs, name, o.configFile, o.envFile)

	v := viper.New()
	for key, value := range o.defaults {
		v.SetDefault(key, value)
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return errors.InvalidInput("config", "cannot read "+configFile).WithCause(err)
		}
	}
	if envFile != "" {
		if err := o.fs.LoadEnv(envFile); err != nil {
			return errors.InvalidInput("config", "cannot load "+envFile).WithCause(err)
		}
	}
	bindEnv(v, os.Environ())
	if err := v.Unmarshal(cfg); err != nil {
		return errors.InvalidInput("config", "cannot decode configuration").WithCause(err)
	}

	if d, ok := cfg.(interface{ ApplyDefaults() }); ok {
		d.ApplyDefaults()
	}
	if c, ok := cfg.(interface{ Validate() error }); ok {
		return c.Validate()
	}
	return nil
}

// locate keeps explicit paths and discovers the rest. Config files are
// searched in the working directory, then ./config, then
// ~/.config/<name>/; env files are ./.env.<name> then ./.env.
func locate(fs FS, name, configFile, envFile string) (string, string) {
	if configFile == "" {
		var candidates []string
		for _, dir := range []string{".", "./config"} {
			for _, ext := range configExts {
				candidates = append(candidates, dir+"/"+name+"."+ext)
			}
		}
		if home, err := fs.HomeDir(); err == nil && home != "" {
			dir := filepath.Join(home, ".config", name)
			candidates = append(candidates, filepath.Join(dir, "config.yml"), filepath.Join(dir, "config.yaml"))
		}
		configFile = firstExisting(fs, candidates)
	}
	if envFile == "" {
		envFile = firstExisting(fs, []string{"./.env." + name, "./.env"})
	} else if !fs.Exists(envFile) {
		envFile = ""
	}
	return configFile, envFile
}

func firstExisting(fs FS, paths []string) string {
	for _, p := range paths {
		if fs.Exists(p) {
			return p
		}
	}
	return ""
}

// bindEnv sets every FLUXMUX_ variable under each nested key it could name,
// so FLUXMUX_KAFKA_BATCH_SIZE reaches kafka.batch_size without viper knowing
// the key in advance.
func bindEnv(v *viper.Viper, environ []string) {
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		name, ok := strings.CutPrefix(key, EnvPrefix)
		if !ok || name == "" {
			continue
		}
		for _, k := range envKeys(name) {
			v.Set(k, value)
		}
	}
}

// envKeys lists the keys an underscore-separated name may refer to, with
// every underscore read either as a separator or as part of a key.
//
//	KAFKA_BATCH_SIZE -> kafka_batch_size, kafka.batch.size, kafka.batch_size, kafka_batch.size
func envKeys(name string) []string {
	lower := strings.ToLower(name)
	parts := strings.Split(lower, "_")
	keys := []string{lower}
	seen := map[string]bool{lower: true}
	add := func(k string) {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	add(strings.Join(parts, "."))
	for i := 1; i < len(parts); i++ {
		head, tail := parts[:i], parts[i:]
		add(strings.Join(head, ".") + "." + strings.Join(tail, "_"))
		add(strings.Join(head, "_") + "." + strings.Join(tail, "."))
	}
	return keys
}
