package middleware

import (
	"context"

	"github.com/kbukum/fluxmux/logger"
	"github.com/kbukum/fluxmux/message"
)

// Deduplicator drops messages whose key was already seen. Keys are kept for
// the lifetime of the stage.
type Deduplicator struct {
	seen map[string]struct{}
	log  *logger.Logger
}

// NewDeduplicator returns an empty deduplicator.
func NewDeduplicator(log *logger.Logger) *Deduplicator {
	return &Deduplicator{seen: make(map[string]struct{}), log: log}
}

func (d *Deduplicator) Name() string { return "deduplicator" }

func (d *Deduplicator) Handle(_ context.Context, msg message.Message) (message.Message, bool) {
	if !msg.HasKey() {
		return msg, true
	}
	k := string(msg.Key)
	if _, dup := d.seen[k]; dup {
		d.log.Debug("duplicate key dropped", logger.Fields("key", k))
		return message.Message{}, false
	}
	d.seen[k] = struct{}{}
	return msg, true
}

// Seen returns the number of distinct keys recorded.
func (d *Deduplicator) Seen() int {
	return len(d.seen)
}
