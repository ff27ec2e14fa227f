// Package action implements the pipe-mode stage chain.
//
// An action takes one message and returns zero or more. Actions that hold
// state until the end of the stream implement Finalizer; the pipe
// orchestrator calls Finalize once after the source is exhausted.
package action

import (
	"context"

	"github.com/kbukum/fluxmux/logger"
	"github.com/kbukum/fluxmux/message"
)

// Action is one pipe-mode stage.
type Action interface {
	Name() string
	Execute(ctx context.Context, msg message.Message) ([]message.Message, error)
}

// Finalizer is implemented by actions that emit held state at end of stream.
type Finalizer interface {
	Finalize(ctx context.Context) ([]message.Message, error)
}

// Chain runs each input depth-first through its actions: every output of
// action i flows individually through action i+1.
type Chain struct {
	actions []Action
	log     *logger.Logger

	// OnDrop is called with the action name when an action fails on an input
	// or returns no output for it. Finalizing actions hold their inputs, so
	// an empty result from them is not a drop.
	OnDrop func(ctx context.Context, action string)
}

// NewChain returns a chain over actions, in the order given.
func NewChain(log *logger.Logger, actions ...Action) *Chain {
	if log == nil {
		log = logger.NewNop()
	}
	return &Chain{actions: actions, log: log}
}

// Add appends an action.
func (c *Chain) Add(a Action) {
	c.actions = append(c.actions, a)
}

// Len returns the number of actions.
func (c *Chain) Len() int {
	return len(c.actions)
}

// Names returns the action names in order.
func (c *Chain) Names() []string {
	names := make([]string, len(c.actions))
	for i, a := range c.actions {
		names[i] = a.Name()
	}
	return names
}

// Execute returns every message that survives the whole chain for msg.
// An action error is logged and drops that input only.
func (c *Chain) Execute(ctx context.Context, msg message.Message) []message.Message {
	return c.executeFrom(ctx, 0, msg)
}

func (c *Chain) executeFrom(ctx context.Context, start int, msg message.Message) []message.Message {
	if start >= len(c.actions) {
		return []message.Message{msg}
	}
	a := c.actions[start]
	outs, err := a.Execute(ctx, msg)
	if err != nil {
		c.log.Warn("action failed, message dropped", logger.Fields(
			"action", a.Name(),
			"id", msg.ID,
			logger.FieldError, err.Error(),
		))
		c.dropped(ctx, a.Name())
		return nil
	}
	if len(outs) == 0 {
		if _, holds := a.(Finalizer); !holds {
			c.dropped(ctx, a.Name())
		}
		return nil
	}

	var results []message.Message
	for _, out := range outs {
		results = append(results, c.executeFrom(ctx, start+1, out)...)
	}
	return results
}

func (c *Chain) dropped(ctx context.Context, name string) {
	if c.OnDrop != nil {
		c.OnDrop(ctx, name)
	}
}

// Finalize calls Finalize on every finalizing action in chain order and
// returns the concatenated output. Output is not run through later actions.
// A failing finalizer is logged and skipped.
func (c *Chain) Finalize(ctx context.Context) []message.Message {
	var out []message.Message
	for _, a := range c.actions {
		f, ok := a.(Finalizer)
		if !ok {
			continue
		}
		msgs, err := f.Finalize(ctx)
		if err != nil {
			c.log.Error("finalize failed", logger.Fields(
				"action", a.Name(),
				logger.FieldError, err.Error(),
			))
			continue
		}
		c.log.Debug("action finalized", logger.Fields("action", a.Name(), "emitted", len(msgs)))
		out = append(out, msgs...)
	}
	return out
}
