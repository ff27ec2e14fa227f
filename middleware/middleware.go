// Package middleware implements the bridge-mode stage chain.
//
// Each stage takes one message and returns at most one. A stage that returns
// false stops the message there: it was filtered, deduplicated or held for a
// later batch. Stages keep their own state and are only ever called from the
// orchestrator goroutine, so they hold no locks.
package middleware

import (
	"context"

	"github.com/kbukum/fluxmux/logger"
	"github.com/kbukum/fluxmux/message"
)

// Middleware is one bridge-mode stage.
type Middleware interface {
	Name() string
	Handle(ctx context.Context, msg message.Message) (message.Message, bool)
}

// Drainer is implemented by stages that hold messages between calls.
// Drain returns whatever is held as one message, if anything.
type Drainer interface {
	Drain(ctx context.Context) (message.Message, bool)
}

// Chain runs messages through stages in order.
type Chain struct {
	stages []Middleware
	log    *logger.Logger

	// OnDrop is called with the stage name whenever a stage stops a message.
	OnDrop func(ctx context.Context, stage string)
}

// NewChain returns a chain over stages, in the order given.
func NewChain(log *logger.Logger, stages ...Middleware) *Chain {
	if log == nil {
		log = logger.NewNop()
	}
	return &Chain{stages: stages, log: log}
}

// Add appends a stage.
func (c *Chain) Add(stage Middleware) {
	c.stages = append(c.stages, stage)
}

// Len returns the number of stages.
func (c *Chain) Len() int {
	return len(c.stages)
}

// Names returns the stage names in order.
func (c *Chain) Names() []string {
	names := make([]string, len(c.stages))
	for i, s := range c.stages {
		names[i] = s.Name()
	}
	return names
}

// Process threads msg through every stage. It returns false as soon as a
// stage stops the message.
func (c *Chain) Process(ctx context.Context, msg message.Message) (message.Message, bool) {
	return c.processFrom(ctx, 0, msg)
}

func (c *Chain) processFrom(ctx context.Context, start int, msg message.Message) (message.Message, bool) {
	current := msg
	for _, stage := range c.stages[start:] {
		out, ok := stage.Handle(ctx, current)
		if !ok {
			if c.OnDrop != nil {
				c.OnDrop(ctx, stage.Name())
			}
			return message.Message{}, false
		}
		current = out
	}
	return current, true
}

// Drain asks every holding stage, in order, for its held state. Drained
// output continues through the stages after the one that held it.
func (c *Chain) Drain(ctx context.Context) []message.Message {
	var out []message.Message
	for i, stage := range c.stages {
		d, ok := stage.(Drainer)
		if !ok {
			continue
		}
		held, ok := d.Drain(ctx)
		if !ok {
			continue
		}
		c.log.Debug("drained held messages", logger.Fields(logger.FieldStage, stage.Name()))
		if result, ok := c.processFrom(ctx, i+1, held); ok {
			out = append(out, result)
		}
	}
	return out
}

// Pending reports, per holding stage, how many messages are still held.
func (c *Chain) Pending() map[string]int {
	pending := make(map[string]int)
	for _, stage := range c.stages {
		if p, ok := stage.(interface{ Pending() int }); ok && p.Pending() > 0 {
			pending[stage.Name()] = p.Pending()
		}
	}
	return pending
}
