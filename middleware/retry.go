package middleware

import (
	"context"
	"strconv"
	"time"

	"github.com/kbukum/fluxmux/message"
)

// RetryHandler tags messages with the delivery retry policy. The bridge
// orchestrator reads the tags when it delivers.
type RetryHandler struct {
	maxRetries string
	delayMS    string
}

// NewRetryHandler returns a tagger for maxRetries extra attempts spaced by delay.
func NewRetryHandler(maxRetries int, delay time.Duration) *RetryHandler {
	return &RetryHandler{
		maxRetries: strconv.Itoa(maxRetries),
		delayMS:    strconv.FormatInt(delay.Milliseconds(), 10),
	}
}

func (r *RetryHandler) Name() string { return "retry_handler" }

func (r *RetryHandler) Handle(_ context.Context, msg message.Message) (message.Message, bool) {
	out := msg.WithMeta(message.MetaMaxRetries, r.maxRetries)
	out.Meta[message.MetaRetryDelayMS] = r.delayMS
	return out, true
}
