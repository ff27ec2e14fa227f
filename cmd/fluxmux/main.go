package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/kbukum/fluxmux/app"
	"github.com/kbukum/fluxmux/version"
)

func Run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cliApp := &cli.App{
		Name:                 "fluxmux",
		Usage:                "Move records between files, stdio, Kafka, Postgres and Redis",
		Version:              version.Short(),
		Reader:               stdin,
		Writer:               stdout,
		ErrWriter:            stderr,
		EnableBashCompletion: true,
		Flags: []cli.Flag{
			&cli.PathFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "configuration file (yaml, toml or json)",
				EnvVars: []string{"FLUXMUX_CONFIG"},
			},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error"},
			&cli.StringFlag{Name: "log-format", Usage: "console or json"},
			&cli.StringFlag{Name: "otlp-endpoint", Usage: "OTLP/HTTP metrics endpoint host:port"},
			&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "do not print the run summary"},
		},
		Commands: []*cli.Command{
			bridgeCommand(stdin, stdout, stderr),
			pipeCommand(stdin, stdout, stderr),
			convertCommand(stdin, stdout, stderr),
			kafkaCommand(stdin, stdout, stderr),
			{
				Name:  "version",
				Usage: "Print build information",
				Action: func(c *cli.Context) error {
					version.Get().Write(stdout)
					return nil
				},
			},
		},
	}
	return cliApp.RunContext(ctx, args)
}

func main() {
	if err := Run(context.Background(), os.Args, os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}

// newApp loads the configuration and applies the global flags on top.
func newApp(c *cli.Context, stdin io.Reader, stdout, stderr io.Writer) (*app.App, error) {
	cfg, err := app.Load(c.Path("config"))
	if err != nil {
		return nil, err
	}
	if c.IsSet("log-level") {
		cfg.Logging.Level = c.String("log-level")
	}
	if c.IsSet("log-format") {
		cfg.Logging.Format = c.String("log-format")
	}
	if c.IsSet("otlp-endpoint") {
		cfg.Metrics.Endpoint = c.String("otlp-endpoint")
	}
	if c.IsSet("channel-capacity") {
		cfg.Pipeline.ChannelCapacity = c.Int("channel-capacity")
	}

	summary := stderr
	if c.Bool("quiet") {
		summary = nil
	}
	return app.New(cfg, app.WithStdio(stdin, stdout), app.WithSummary(summary))
}

func channelCapacityFlag() cli.Flag {
	return &cli.IntFlag{
		Name:  "channel-capacity",
		Usage: "bounded channel size between source and chain",
	}
}
