package pipeline

import (
	"context"
	stderrors "errors"
	"strconv"
	"time"

	"github.com/kbukum/fluxmux/errors"
	"github.com/kbukum/fluxmux/logger"
	"github.com/kbukum/fluxmux/message"
	"github.com/kbukum/fluxmux/middleware"
	"github.com/kbukum/fluxmux/resilience"
)

// DefaultRetryDelay applies when a message carries no usable retry delay.
const DefaultRetryDelay = time.Second

// Bridge moves messages from one source through the middleware chain into
// one sink.
type Bridge struct {
	source Source
	chain  *middleware.Chain
	sink   Sink
	opts   options
}

// NewBridge returns a bridge. A nil chain forwards every message unchanged.
func NewBridge(src Source, chain *middleware.Chain, sink Sink, opts ...Option) *Bridge {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if chain == nil {
		chain = middleware.NewChain(o.log)
	}
	return &Bridge{source: src, chain: chain, sink: sink, opts: o}
}

// Run processes the stream to its end. Delivery failures are logged and do
// not stop the run. The returned error joins the source error and the flush
// error.
func (b *Bridge) Run(ctx context.Context) error {
	log := b.opts.log.WithComponent("bridge").WithContext(ctx)
	metrics := b.opts.metrics
	name := SinkName(b.sink, 0)

	if metrics != nil {
		onDrop := b.chain.OnDrop
		b.chain.OnDrop = func(ctx context.Context, stage string) {
			metrics.RecordDropped(ctx, stage)
			if onDrop != nil {
				onDrop(ctx, stage)
			}
		}
	}

	log.Info("bridge started", logger.Fields(
		logger.FieldSink, name,
		"stages", b.chain.Names(),
		"channel_capacity", b.opts.capacity,
	))

	ch, group := startSource(ctx, b.source, b.opts.capacity)

	var received, delivered, failed int
	for msg := range ch {
		received++
		metrics.RecordReceived(ctx)
		out, ok := b.chain.Process(ctx, msg)
		if !ok {
			continue
		}
		if b.deliver(ctx, log, name, out) {
			delivered++
		} else {
			failed++
		}
	}

	// The stream is over; the rest must reach the sink even when ctx is done.
	endCtx := context.WithoutCancel(ctx)

	if b.opts.drainOnClose {
		for _, out := range b.chain.Drain(endCtx) {
			if b.deliver(endCtx, log, name, out) {
				delivered++
			} else {
				failed++
			}
		}
	} else if pending := b.chain.Pending(); len(pending) > 0 {
		for stage, n := range pending {
			log.Warn("discarding messages held at end of stream", logger.Fields(
				logger.FieldStage, stage,
				"pending", n,
			))
		}
	}

	var flushErr error
	if err := b.sink.Flush(endCtx); err != nil {
		log.Error("sink flush failed", logger.Fields(logger.FieldSink, name, logger.FieldError, err.Error()))
		flushErr = errors.DeliveryFailed(name, err)
	}

	srcErr := group.Wait()
	if srcErr != nil {
		log.Error("source failed", logger.ErrorFields("source", srcErr))
	}

	log.Info("bridge finished", logger.Fields(
		"received", received,
		"delivered", delivered,
		"failed", failed,
	))
	return stderrors.Join(srcErr, flushErr)
}

// deliver sends msg with the retry policy it carries. It reports whether the
// sink accepted the message.
func (b *Bridge) deliver(ctx context.Context, log *logger.Logger, name string, msg message.Message) bool {
	metrics := b.opts.metrics
	maxRetries, delay := retryPolicy(msg, log)
	attempts := maxRetries + 1

	cfg := resilience.FixedDelay(attempts, delay)
	cfg.RetryIf = func(err error) bool {
		return resilience.DefaultRetryIf(err) && !errors.IsPermanent(err)
	}
	cfg.OnRetry = func(attempt int, err error, backoff time.Duration) {
		log.Warn("delivery attempt failed, retrying", logger.Fields(
			logger.FieldSink, name,
			logger.FieldAttempt, attempt,
			"max_attempts", attempts,
			"backoff_ms", backoff.Milliseconds(),
			logger.FieldError, err.Error(),
		))
		metrics.RecordRetry(ctx, name)
	}

	start := time.Now()
	err := resilience.RetryFunc(ctx, cfg, func() error {
		return b.sink.Send(ctx, msg)
	})
	metrics.RecordDeliveryDuration(ctx, name, time.Since(start))

	if err != nil {
		log.Error("delivery failed, message abandoned", logger.Fields(
			logger.FieldSink, name,
			"id", msg.ID,
			"attempts", attempts,
			logger.FieldError, err.Error(),
		))
		metrics.RecordFailure(ctx, name)
		return false
	}
	metrics.RecordDelivered(ctx, name)
	return true
}

// retryPolicy reads the retry tags from msg. Missing or malformed tags fall
// back to no retries and DefaultRetryDelay.
func retryPolicy(msg message.Message, log *logger.Logger) (int, time.Duration) {
	maxRetries, delay := 0, DefaultRetryDelay

	if v, ok := msg.Meta[message.MetaMaxRetries]; ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			log.Warn("ignoring malformed retry tag", logger.Fields(message.MetaMaxRetries, v))
		} else {
			maxRetries = n
		}
	}
	if v, ok := msg.Meta[message.MetaRetryDelayMS]; ok {
		ms, err := strconv.ParseInt(v, 10, 64)
		if err != nil || ms < 0 {
			log.Warn("ignoring malformed retry tag", logger.Fields(message.MetaRetryDelayMS, v))
		} else {
			delay = time.Duration(ms) * time.Millisecond
		}
	}
	return maxRetries, delay
}
