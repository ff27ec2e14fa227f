package pipeline

import (
	"context"
	"time"

	"github.com/kbukum/fluxmux/action"
	"github.com/kbukum/fluxmux/errors"
	"github.com/kbukum/fluxmux/logger"
	"github.com/kbukum/fluxmux/message"
)

// Pipe moves messages from one source through the action chain into every
// sink, in registration order.
type Pipe struct {
	source Source
	chain  *action.Chain
	sinks  []Sink
	names  []string
	opts   options
}

// NewPipe returns a pipe. A nil chain forwards every message unchanged.
func NewPipe(src Source, chain *action.Chain, sinks []Sink, opts ...Option) *Pipe {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if chain == nil {
		chain = action.NewChain(o.log)
	}
	names := make([]string, len(sinks))
	for i, s := range sinks {
		names[i] = SinkName(s, i)
	}
	return &Pipe{source: src, chain: chain, sinks: sinks, names: names, opts: o}
}

// Run processes the stream to its end, finalizes the chain and flushes every
// sink. Delivery and flush failures are logged; only the source error is
// returned.
func (p *Pipe) Run(ctx context.Context) error {
	if len(p.sinks) == 0 {
		return errors.InvalidInput("sinks", "at least one sink is required")
	}
	log := p.opts.log.WithComponent("pipe").WithContext(ctx)
	metrics := p.opts.metrics

	if metrics != nil {
		onDrop := p.chain.OnDrop
		p.chain.OnDrop = func(ctx context.Context, name string) {
			metrics.RecordDropped(ctx, name)
			if onDrop != nil {
				onDrop(ctx, name)
			}
		}
	}

	log.Info("pipe started", logger.Fields(
		"actions", p.chain.Names(),
		"sinks", p.names,
		"channel_capacity", p.opts.capacity,
	))

	ch, group := startSource(ctx, p.source, p.opts.capacity)

	var received, emitted int
	for msg := range ch {
		received++
		metrics.RecordReceived(ctx)
		for _, out := range p.chain.Execute(ctx, msg) {
			emitted++
			p.fanOut(ctx, log, out)
		}
	}

	endCtx := context.WithoutCancel(ctx)

	final := p.chain.Finalize(endCtx)
	for _, out := range final {
		emitted++
		p.fanOut(endCtx, log, out)
	}

	for i, s := range p.sinks {
		if err := s.Flush(endCtx); err != nil {
			log.Error("sink flush failed", logger.Fields(
				logger.FieldSink, p.names[i],
				logger.FieldError, err.Error(),
			))
		}
	}

	err := group.Wait()
	if err != nil {
		log.Error("source failed", logger.ErrorFields("source", err))
	}
	log.Info("pipe finished", logger.Fields(
		"received", received,
		"emitted", emitted,
		"finalized", len(final),
	))
	return err
}

// fanOut sends msg to every sink once. A failing sink does not stop the others.
func (p *Pipe) fanOut(ctx context.Context, log *logger.Logger, msg message.Message) {
	metrics := p.opts.metrics
	for i, s := range p.sinks {
		start := time.Now()
		err := s.Send(ctx, msg)
		metrics.RecordDeliveryDuration(ctx, p.names[i], time.Since(start))
		if err != nil {
			log.Warn("sink rejected message", logger.Fields(
				logger.FieldSink, p.names[i],
				"id", msg.ID,
				logger.FieldError, err.Error(),
			))
			metrics.RecordFailure(ctx, p.names[i])
			continue
		}
		metrics.RecordDelivered(ctx, p.names[i])
	}
}
