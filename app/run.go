package app

import (
	"context"
	"time"

	"github.com/kbukum/fluxmux/action"
	"github.com/kbukum/fluxmux/codec"
	"github.com/kbukum/fluxmux/endpoint"
	"github.com/kbukum/fluxmux/errors"
	"github.com/kbukum/fluxmux/kafka/consumer"
	"github.com/kbukum/fluxmux/logger"
	"github.com/kbukum/fluxmux/middleware"
	"github.com/kbukum/fluxmux/pipeline"
)

// RunBridge moves records from source through the configured middleware
// into sink until the source is exhausted or ctx is cancelled.
func (a *App) RunBridge(ctx context.Context, source, sink string) error {
	srcSpec, err := endpoint.ParseSource(source)
	if err != nil {
		return err
	}
	sinkSpec, err := endpoint.ParseSink(sink)
	if err != nil {
		return err
	}
	if err := endpoint.ValidateBridge(srcSpec, sinkSpec); err != nil {
		return err
	}
	chain, err := middleware.Build(a.Cfg.Middleware, a.Logger)
	if err != nil {
		return err
	}

	return a.RunTask(ctx, "bridge", func(ctx context.Context) error {
		a.Summary.TrackStages(chain.Names())
		sinks, err := a.openSinks(ctx, []endpoint.Spec{sinkSpec}, srcSpec.Streaming())
		if err != nil {
			return err
		}
		src, err := a.openSource(ctx, srcSpec)
		if err != nil {
			return err
		}
		bridge := pipeline.NewBridge(src, chain, sinks[0], a.pipelineOptions()...)
		return bridge.Run(ctx)
	})
}

// RunPipe runs "source [action [param]]... [tee sink...]". Without a tee
// list the records go to standard output.
func (a *App) RunPipe(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.InvalidInput("source", "a source is required")
	}
	srcSpec, err := endpoint.ParseSource(args[0])
	if err != nil {
		return err
	}
	steps, sinkURIs, err := action.Parse(args[1:])
	if err != nil {
		return err
	}
	if len(sinkURIs) == 0 {
		sinkURIs = []string{"-"}
	}
	sinkSpecs := make([]endpoint.Spec, 0, len(sinkURIs))
	for _, raw := range sinkURIs {
		spec, err := endpoint.ParseSink(raw)
		if err != nil {
			return err
		}
		sinkSpecs = append(sinkSpecs, spec)
	}
	if err := endpoint.ValidatePipe(srcSpec, sinkSpecs); err != nil {
		return err
	}
	chain, err := action.Build(steps, a.Logger)
	if err != nil {
		return err
	}

	return a.RunTask(ctx, "pipe", func(ctx context.Context) error {
		a.Summary.TrackStages(chain.Names())
		sinks, err := a.openSinks(ctx, sinkSpecs, srcSpec.Streaming())
		if err != nil {
			return err
		}
		src, err := a.openSource(ctx, srcSpec)
		if err != nil {
			return err
		}
		pipe := pipeline.NewPipe(src, chain, sinks, a.pipelineOptions()...)
		return pipe.Run(ctx)
	})
}

// Convert rewrites the file in as out, converting between codecs. Empty
// formats are inferred from the file extensions.
func (a *App) Convert(in, out, from, to string) error {
	start := time.Now()
	if err := codec.Convert(in, out, codec.Format(from), codec.Format(to)); err != nil {
		return err
	}
	a.Logger.Info("converted", logger.Fields(
		"input", in,
		"output", out,
		logger.FieldDuration, time.Since(start).Milliseconds(),
	))
	return nil
}

// InspectRequest selects what the kafka inspector shows. Exactly one of
// Head and Tail must be positive.
type InspectRequest struct {
	Brokers []string
	Topic   string
	Head    int
	Tail    int
}

// Inspect renders the first Head records of a topic, or follows it keeping
// the last Tail records in view until ctx is cancelled.
func (a *App) Inspect(ctx context.Context, req InspectRequest) error {
	if req.Topic == "" {
		return errors.InvalidInput("topic", "a topic is required")
	}
	if (req.Head > 0) == (req.Tail > 0) {
		return errors.InvalidInput("head", "exactly one of head and tail must be set")
	}
	cfg := a.Cfg.Kafka
	if len(req.Brokers) > 0 {
		cfg.Brokers = req.Brokers
	}

	return a.RunTask(ctx, "inspect", func(ctx context.Context) error {
		a.Summary.TrackSource("kafka:"+req.Topic, string(endpoint.KindKafka), "open")
		if req.Head > 0 {
			return consumer.Head(ctx, cfg, req.Topic, req.Head, a.stdout)
		}
		return consumer.Tail(ctx, cfg, req.Topic, req.Tail, a.stdout)
	})
}

func (a *App) deps(lineFlush bool) endpoint.Deps {
	return endpoint.Deps{
		Kafka:     a.Cfg.Kafka,
		Database:  a.Cfg.Database,
		Redis:     a.Cfg.Redis,
		File:      a.Cfg.File,
		Log:       a.Logger,
		Stdin:     a.stdin,
		Stdout:    a.stdout,
		LineFlush: lineFlush,
	}
}

// openSinks connects every sink before the source starts. Each opened sink
// is closed by a stop hook.
func (a *App) openSinks(ctx context.Context, specs []endpoint.Spec, streaming bool) ([]pipeline.Sink, error) {
	deps := a.deps(streaming)
	sinks := make([]pipeline.Sink, 0, len(specs))
	for _, spec := range specs {
		sink, err := endpoint.OpenSink(ctx, spec, deps)
		if err != nil {
			a.Summary.TrackSink(spec.String(), string(spec.Kind), "failed")
			return nil, err
		}
		a.closeOnStop(sink)
		a.Summary.TrackSink(pipeline.SinkName(sink, len(sinks)), string(spec.Kind), "connected")
		sinks = append(sinks, sink)
	}
	return sinks, nil
}

func (a *App) openSource(ctx context.Context, spec endpoint.Spec) (pipeline.Source, error) {
	src, err := endpoint.OpenSource(ctx, spec, a.deps(false))
	if err != nil {
		a.Summary.TrackSource(spec.String(), string(spec.Kind), "failed")
		return nil, err
	}
	a.closeOnStop(src)
	a.Summary.TrackSource(spec.String(), string(spec.Kind), "open")
	return src, nil
}

func (a *App) closeOnStop(e any) {
	a.OnStop(func(context.Context) error {
		endpoint.Close(e, a.Logger)
		return nil
	})
}

func (a *App) pipelineOptions() []pipeline.Option {
	return []pipeline.Option{
		pipeline.WithChannelCapacity(a.Cfg.Pipeline.ChannelCapacity),
		pipeline.WithLogger(a.Logger),
		pipeline.WithMetrics(a.metrics),
		pipeline.WithDrainOnClose(a.Cfg.Middleware.BatchFlushOnClose),
	}
}
