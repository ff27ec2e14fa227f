package testutil

import (
	"context"
	"time"

	"github.com/kbukum/fluxmux/message"
)

// SliceSource emits a fixed list of messages, then returns Err.
type SliceSource struct {
	Msgs []message.Message
	// Err is returned after every message was sent.
	Err error
	// Delay is slept before each send.
	Delay time.Duration

	started chan struct{}
}

// NewSliceSource returns a source over msgs.
func NewSliceSource(msgs ...message.Message) *SliceSource {
	return &SliceSource{Msgs: msgs, started: make(chan struct{})}
}

// Start sends every message in order.
func (s *SliceSource) Start(ctx context.Context, out chan<- message.Message) error {
	if s.started != nil {
		close(s.started)
	}
	for _, m := range s.Msgs {
		if s.Delay > 0 {
			select {
			case <-time.After(s.Delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		select {
		case out <- m:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return s.Err
}

// Started is closed once Start has been called.
func (s *SliceSource) Started() <-chan struct{} {
	return s.started
}
