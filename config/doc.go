// Package config loads fluxmux configuration.
//
// Load reads a YAML, TOML or JSON file through viper, then applies a
// .env file (godotenv) and FLUXMUX_ environment variables on top. The file
// is either given explicitly or discovered as ./fluxmux.yml,
// ./config/fluxmux.yml or ~/.config/fluxmux/config.yml.
//
//	var cfg app.Config
//	err := config.Load("fluxmux", &cfg, config.WithConfigFile(path))
//
// Environment variables map underscores to nesting, so
// FLUXMUX_KAFKA_BATCH_SIZE=500 sets kafka.batch_size.
package config
