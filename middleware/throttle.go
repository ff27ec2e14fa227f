package middleware

import (
	"context"

	"github.com/kbukum/fluxmux/logger"
	"github.com/kbukum/fluxmux/message"
	"github.com/kbukum/fluxmux/resilience"
)

// Throttler spaces forwarded messages at least 1/rate seconds apart. It
// blocks the calling flow until the spacing has passed.
type Throttler struct {
	limiter *resilience.Limiter
	log     *logger.Logger
}

// NewThrottler returns a throttler for perSec messages per second.
func NewThrottler(perSec float64, log *logger.Logger) *Throttler {
	return &Throttler{
		limiter: resilience.NewLimiter(perSec, 1),
		log:     log,
	}
}

func (t *Throttler) Name() string { return "throttler" }

func (t *Throttler) Handle(ctx context.Context, msg message.Message) (message.Message, bool) {
	if err := t.limiter.Wait(ctx); err != nil {
		t.log.Warn("throttle wait interrupted, message dropped", logger.Fields(
			"id", msg.ID,
			logger.FieldError, err.Error(),
		))
		return message.Message{}, false
	}
	return msg, true
}
