package endpoint

import (
	"context"
	"io"

	"github.com/kbukum/fluxmux/database"
	"github.com/kbukum/fluxmux/errors"
	"github.com/kbukum/fluxmux/file"
	"github.com/kbukum/fluxmux/kafka"
	"github.com/kbukum/fluxmux/kafka/consumer"
	"github.com/kbukum/fluxmux/kafka/producer"
	"github.com/kbukum/fluxmux/logger"
	"github.com/kbukum/fluxmux/pipeline"
	"github.com/kbukum/fluxmux/redis"
	"github.com/kbukum/fluxmux/stdio"
)

// Deps carries the base configuration endpoints are opened with. Values in
// the endpoint URI override the matching fields.
type Deps struct {
	Kafka    kafka.Config
	Database database.Config
	Redis    redis.Config
	File     file.Config
	Log      *logger.Logger

	// Stdin and Stdout replace the process streams when set.
	Stdin  io.Reader
	Stdout io.Writer

	// LineFlush makes the stdout sink flush after every payload.
	LineFlush bool
}

func (d Deps) logger() *logger.Logger {
	if d.Log == nil {
		return logger.NewNop()
	}
	return d.Log
}

type sourceFactory func(ctx context.Context, spec Spec, deps Deps) (pipeline.Source, error)

type sinkFactory func(ctx context.Context, spec Spec, deps Deps) (pipeline.Sink, error)

var sourceFactories = map[Kind]sourceFactory{
	KindStdin: func(_ context.Context, _ Spec, deps Deps) (pipeline.Source, error) {
		return stdio.NewSource(deps.Stdin, deps.logger()), nil
	},
	KindFile: func(_ context.Context, spec Spec, deps Deps) (pipeline.Source, error) {
		return file.NewSource(spec.Path, deps.logger()), nil
	},
	KindKafka: func(_ context.Context, spec Spec, deps Deps) (pipeline.Source, error) {
		cfg := deps.Kafka
		cfg.Brokers = spec.Brokers
		cfg.GroupID = spec.Group
		return consumer.NewSource(cfg, spec.Topic, deps.logger())
	},
	KindRedis: func(ctx context.Context, spec Spec, deps Deps) (pipeline.Source, error) {
		client, err := redis.New(ctx, redisConfig(spec, deps), deps.logger())
		if err != nil {
			return nil, err
		}
		return redis.NewStreamSource(client, spec.Stream, deps.logger()), nil
	},
}

var sinkFactories = map[Kind]sinkFactory{
	KindStdout: func(_ context.Context, _ Spec, deps Deps) (pipeline.Sink, error) {
		var opts []stdio.Option
		if deps.LineFlush {
			opts = append(opts, stdio.WithLineFlush())
		}
		return stdio.NewSink(deps.Stdout, opts...), nil
	},
	KindFile: func(_ context.Context, spec Spec, deps Deps) (pipeline.Sink, error) {
		cfg := deps.File
		cfg.ApplyDefaults()
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return file.NewSink(spec.Path, cfg, deps.logger()), nil
	},
	KindKafka: func(ctx context.Context, spec Spec, deps Deps) (pipeline.Sink, error) {
		cfg := deps.Kafka
		cfg.Brokers = spec.Brokers
		return producer.NewSink(ctx, cfg, spec.Topic, deps.logger())
	},
	KindPostgres: openTable(database.DriverPostgres),
	KindSQLite:   openTable(database.DriverSQLite),
	KindRedis: func(ctx context.Context, spec Spec, deps Deps) (pipeline.Sink, error) {
		cfg := redisConfig(spec, deps)
		client, err := redis.New(ctx, cfg, deps.logger())
		if err != nil {
			return nil, err
		}
		return redis.NewStreamSink(client, spec.Stream, cfg.MaxLen, deps.logger()), nil
	},
}

// OpenSource builds the source spec describes. Network sources that need a
// connection up front, such as redis, connect here.
func OpenSource(ctx context.Context, spec Spec, deps Deps) (pipeline.Source, error) {
	open, ok := sourceFactories[spec.Kind]
	if !ok {
		return nil, errors.InvalidEndpoint(spec.String(), "not usable as a source")
	}
	return open(ctx, spec, deps)
}

// OpenSink builds the sink spec describes and connects it, so that an
// unreachable broker or database fails before any record is read.
func OpenSink(ctx context.Context, spec Spec, deps Deps) (pipeline.Sink, error) {
	open, ok := sinkFactories[spec.Kind]
	if !ok {
		return nil, errors.InvalidEndpoint(spec.String(), "not usable as a sink")
	}
	sink, err := open(ctx, spec, deps)
	if err != nil {
		return nil, err
	}
	deps.logger().Debug("sink opened", logger.Fields(logger.FieldSink, spec.String()))
	return sink, nil
}

func openTable(driver string) sinkFactory {
	return func(ctx context.Context, spec Spec, deps Deps) (pipeline.Sink, error) {
		cfg := deps.Database
		cfg.Driver = driver
		cfg.DSN = spec.DSN
		db, err := database.Open(ctx, cfg, deps.logger())
		if err != nil {
			return nil, err
		}
		sink, err := database.NewTableSink(db, spec.Table, spec.Columns, deps.logger())
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		return sink, nil
	}
}

func redisConfig(spec Spec, deps Deps) redis.Config {
	cfg := deps.Redis
	cfg.Addr = spec.Addr
	cfg.DB = spec.DB
	if spec.Password != "" {
		cfg.Password = spec.Password
	}
	return cfg
}

// Close closes endpoint if it holds a connection. Endpoints without one are
// left alone.
func Close(endpoint any, log *logger.Logger) {
	c, ok := endpoint.(io.Closer)
	if !ok {
		return
	}
	if err := c.Close(); err != nil && log != nil {
		log.Warn("endpoint close failed", logger.ErrorFields("close", err))
	}
}
