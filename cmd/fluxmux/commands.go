package main

import (
	"io"

	"github.com/urfave/cli/v2"

	"github.com/kbukum/fluxmux/app"
	"github.com/kbukum/fluxmux/errors"
	"github.com/kbukum/fluxmux/middleware"
	"github.com/kbukum/fluxmux/util"
)

func bridgeCommand(stdin io.Reader, stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "bridge",
		Usage: "Move records from one source to one sink through the middleware chain",
		Description: "Stages run in a fixed order: schema validation, deduplication, retry\n" +
			"tagging, batching, throttling. Each stage is enabled by its flag.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "source", Aliases: []string{"s"}, Required: true, Usage: "source URI"},
			&cli.StringFlag{Name: "sink", Aliases: []string{"k"}, Required: true, Usage: "sink URI"},
			&cli.IntFlag{Name: "batch-size", Usage: "group records into JSON arrays of this size"},
			&cli.Int64Flag{Name: "batch-timeout-ms", Usage: "emit a partial batch after this long (0 disables)"},
			&cli.BoolFlag{Name: "batch-flush-on-close", Usage: "emit a held partial batch at end of stream"},
			&cli.BoolFlag{Name: "deduplicate", Usage: "drop records whose key was already seen"},
			&cli.Float64Flag{Name: "throttle-per-sec", Usage: "maximum records per second"},
			&cli.IntFlag{Name: "retry-max-attempts", Usage: "delivery retries per record"},
			&cli.Int64Flag{Name: "retry-delay-ms", Usage: "delay between delivery retries"},
			&cli.PathFlag{Name: "schema-path", Usage: "JSON schema whose required fields records must carry"},
			&cli.BoolFlag{Name: "schema-strict", Usage: "enforce the whole schema, not just required fields"},
			channelCapacityFlag(),
		},
		Action: func(c *cli.Context) error {
			a, err := newApp(c, stdin, stdout, stderr)
			if err != nil {
				return err
			}
			applyMiddlewareFlags(c, &a.Cfg.Middleware)
			return a.RunBridge(c.Context, c.String("source"), c.String("sink"))
		},
	}
}

// applyMiddlewareFlags overrides the configured stages with the flags given
// on the command line.
func applyMiddlewareFlags(c *cli.Context, m *middleware.Config) {
	if c.IsSet("batch-size") {
		m.BatchSize = util.Ptr(c.Int("batch-size"))
	}
	if c.IsSet("batch-timeout-ms") {
		m.BatchTimeoutMS = util.Ptr(c.Int64("batch-timeout-ms"))
	}
	if c.IsSet("batch-flush-on-close") {
		m.BatchFlushOnClose = c.Bool("batch-flush-on-close")
	}
	if c.IsSet("deduplicate") {
		m.Deduplicate = util.Ptr(c.Bool("deduplicate"))
	}
	if c.IsSet("throttle-per-sec") {
		m.ThrottlePerSec = util.Ptr(c.Float64("throttle-per-sec"))
	}
	if c.IsSet("retry-max-attempts") {
		m.RetryMaxAttempts = util.Ptr(c.Int("retry-max-attempts"))
	}
	if c.IsSet("retry-delay-ms") {
		m.RetryDelayMS = util.Ptr(c.Int64("retry-delay-ms"))
	}
	if c.IsSet("schema-path") {
		m.SchemaPath = c.Path("schema-path")
	}
	if c.IsSet("schema-strict") {
		m.SchemaStrict = c.Bool("schema-strict")
	}
}

func pipeCommand(stdin io.Reader, stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "pipe",
		Usage:     "Run records through a chain of actions and fan them out to sinks",
		ArgsUsage: "<source> [action [param]]... [tee <sink>...]",
		Description: "Actions: filter <expr>, transform <assignments>, aggregate <spec>,\n" +
			"limit <n>, sample <n>, normalize [schema], validate [schema].\n" +
			"Without tee the records are written to stdout.",
		SkipFlagParsing: true,
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return cli.ShowSubcommandHelp(c)
			}
			a, err := newApp(c, stdin, stdout, stderr)
			if err != nil {
				return err
			}
			return a.RunPipe(c.Context, c.Args().Slice())
		},
	}
}

func convertCommand(stdin io.Reader, stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "convert",
		Usage:     "Convert a file between formats",
		ArgsUsage: "<input> <output>",
		Description: "Formats: json, ndjson, csv, yaml, toml, msgpack, cbor, avro.\n" +
			"Omitted formats are inferred from the file extensions.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "from", Usage: "input format"},
			&cli.StringFlag{Name: "to", Usage: "output format"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return errors.InvalidInput("args", "convert needs an input and an output path")
			}
			a, err := newApp(c, stdin, stdout, stderr)
			if err != nil {
				return err
			}
			return a.Convert(c.Args().Get(0), c.Args().Get(1), c.String("from"), c.String("to"))
		},
	}
}

func kafkaCommand(stdin io.Reader, stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "kafka",
		Usage: "Inspect a topic: show its first records or follow new ones",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "broker", Aliases: []string{"b"}, Usage: "broker address, repeatable"},
			&cli.StringFlag{Name: "topic", Aliases: []string{"t"}, Required: true},
			&cli.IntFlag{Name: "head", Usage: "show the first N records and exit"},
			&cli.IntFlag{Name: "tail", Usage: "follow new records in a window of N"},
		},
		Action: func(c *cli.Context) error {
			a, err := newApp(c, stdin, stdout, stderr)
			if err != nil {
				return err
			}
			return a.Inspect(c.Context, app.InspectRequest{
				Brokers: c.StringSlice("broker"),
				Topic:   c.String("topic"),
				Head:    c.Int("head"),
				Tail:    c.Int("tail"),
			})
		},
	}
}
