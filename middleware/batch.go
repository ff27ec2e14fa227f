package middleware

import (
	"context"
	"time"

	"github.com/kbukum/fluxmux/logger"
	"github.com/kbukum/fluxmux/message"
)

// Batcher holds messages and emits them as one JSON array once size
// messages are held or timeout has passed since the last flush.
//
// The timeout is only checked when a message arrives. A held batch is not
// flushed by a clock; when input stalls it waits for the next message or for
// the orchestrator to drain it.
type Batcher struct {
	size      int
	timeout   time.Duration
	held      []message.Message
	lastFlush time.Time
	log       *logger.Logger
	now       func() time.Time
}

// NewBatcher returns a batcher. A timeout of zero or less disables the time
// condition.
func NewBatcher(size int, timeout time.Duration, log *logger.Logger) *Batcher {
	b := &Batcher{size: size, timeout: timeout, log: log, now: time.Now}
	b.lastFlush = b.now()
	return b
}

func (b *Batcher) Name() string { return "batcher" }

func (b *Batcher) Handle(_ context.Context, msg message.Message) (message.Message, bool) {
	b.held = append(b.held, msg)
	if !b.shouldFlush() {
		return message.Message{}, false
	}
	return b.flush()
}

// Drain emits whatever is held, regardless of size or timeout.
func (b *Batcher) Drain(_ context.Context) (message.Message, bool) {
	if len(b.held) == 0 {
		return message.Message{}, false
	}
	return b.flush()
}

// Pending returns the number of held messages.
func (b *Batcher) Pending() int {
	return len(b.held)
}

func (b *Batcher) shouldFlush() bool {
	if len(b.held) == 0 {
		return false
	}
	if len(b.held) >= b.size {
		return true
	}
	return b.timeout > 0 && b.now().Sub(b.lastFlush) >= b.timeout
}

func (b *Batcher) flush() (message.Message, bool) {
	held := b.held
	b.held = nil
	b.lastFlush = b.now()

	values := make([]any, 0, len(held))
	meta := make(map[string]string)
	for _, m := range held {
		for k, v := range m.Meta {
			meta[k] = v
		}
		if v, ok := m.Parsed(); ok {
			values = append(values, v)
		}
	}

	out, err := message.FromValue(values)
	if err != nil {
		b.log.Error("failed to encode batch", logger.Fields(
			"size", len(held),
			logger.FieldError, err.Error(),
		))
		return message.Message{}, false
	}
	if len(meta) > 0 {
		out.Meta = meta
	}
	b.log.Debug("batch flushed", logger.Fields("size", len(held), "values", len(values)))
	return out, true
}
