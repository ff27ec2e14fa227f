package app

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/fluxmux/logger"
	"github.com/kbukum/fluxmux/observability"
)

// App runs fluxmux commands with a uniform lifecycle: metrics set up, run
// id assigned, task run under signal cancellation, then stop hooks.
//
//	cfg, _ := app.Load("")
//	a, err := app.New(cfg)
//	err = a.RunBridge(ctx, "kafka://localhost:9092/orders", "-")
type App struct {
	Name    string
	Version string
	Cfg     *Config
	Logger  *logger.Logger
	Summary *Summary

	stdin           io.Reader
	stdout          io.Writer
	summaryOut      io.Writer
	gracefulTimeout time.Duration
	metrics         *observability.PipelineMetrics
	onStop          []Hook
}

// New creates an application from cfg. It applies defaults, validates the
// config and initializes the logger.
func New(cfg *Config, opts ...Option) (*App, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	o := resolveOptions(opts)
	a := &App{
		Name:            cfg.Name,
		Version:         cfg.Version,
		Cfg:             cfg,
		stdin:           o.stdin,
		stdout:          o.stdout,
		summaryOut:      os.Stderr,
		gracefulTimeout: 15 * time.Second,
	}
	if a.stdin == nil {
		a.stdin = os.Stdin
	}
	if a.stdout == nil {
		a.stdout = os.Stdout
	}
	if o.summarySet {
		a.summaryOut = o.summary
	}
	if o.gracefulTimeout != nil {
		a.gracefulTimeout = *o.gracefulTimeout
	}

	a.Logger = o.logger
	if a.Logger == nil {
		a.Logger = logger.New(&cfg.Logging, cfg.Name)
	}
	return a, nil
}

// RunTask runs task with a fresh run id. SIGINT and SIGTERM cancel the task
// context; a task that ends because of cancellation counts as a clean exit.
// Stop hooks run afterwards within the graceful timeout.
func (a *App) RunTask(ctx context.Context, mode string, task func(ctx context.Context) error) error {
	runID := uuid.NewString()
	ctx = logger.ContextWithRunID(ctx, runID)
	log := a.Logger.WithContext(ctx)
	a.Summary = NewSummary(a.Name, a.Version, runID, mode)

	if err := a.startup(ctx); err != nil {
		return err
	}

	taskCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("run started", logger.Fields(logger.FieldOperation, mode))
	start := time.Now()
	taskErr := task(taskCtx)
	if taskErr != nil && stderrors.Is(taskErr, context.Canceled) {
		log.Info("run cancelled", logger.Fields(logger.FieldOperation, mode))
		taskErr = nil
	}
	elapsed := time.Since(start)

	stopErr := a.stop()
	a.Summary.Finish(elapsed, taskErr)
	a.Summary.Write(a.summaryOut)

	if taskErr != nil {
		log.Error("run failed", logger.ErrorFields(mode, taskErr))
		return taskErr
	}
	log.Info("run finished", logger.DurationFields(mode, elapsed))
	return stopErr
}

// startup installs the meter provider when an OTLP endpoint is configured
// and creates the pipeline instruments. Without an endpoint the instruments
// record into the global no-op provider.
func (a *App) startup(ctx context.Context) error {
	if a.Cfg.Metrics.Enabled() {
		mp, err := observability.InitMeter(ctx, &a.Cfg.Metrics, observability.Resource{
			Name:        a.Name,
			Version:     a.Version,
			Environment: a.Cfg.Environment,
		}, a.Logger)
		if err != nil {
			return fmt.Errorf("metrics initialization failed: %w", err)
		}
		a.OnStop(func(ctx context.Context) error { return mp.Shutdown(ctx) })
	}
	if a.metrics == nil {
		m, err := observability.NewPipelineMetrics(observability.Meter(ServiceName))
		if err != nil {
			return fmt.Errorf("metrics initialization failed: %w", err)
		}
		a.metrics = m
	}
	return nil
}

// stop runs the stop hooks within the graceful timeout.
func (a *App) stop() error {
	hooks := a.onStop
	a.onStop = nil
	if len(hooks) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.gracefulTimeout)
	defer cancel()
	if err := runHooks(ctx, hooks); err != nil {
		a.Logger.Error("shutdown completed with errors", logger.ErrorFields("stop", err))
		return err
	}
	return nil
}
