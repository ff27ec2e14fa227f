package resilience

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"
)

// DefaultRate is used when a limiter is built with a non-positive rate.
const DefaultRate = 10.0

// ErrRateLimited is returned by Wait when the bucket cannot satisfy the
// request before the context deadline.
var ErrRateLimited = errors.New("rate limit exceeded")

// Limiter paces events with a token bucket. With a burst of one it enforces
// a minimum gap of 1/perSec between events.
type Limiter struct {
	bucket *rate.Limiter
}

// NewLimiter allows perSec events per second with the given burst. Burst
// values below one are raised to one.
func NewLimiter(perSec float64, burst int) *Limiter {
	if perSec <= 0 {
		perSec = DefaultRate
	}
	return &Limiter{bucket: rate.NewLimiter(rate.Limit(perSec), max(burst, 1))}
}

// Allow takes a token if one is available now.
func (l *Limiter) Allow() bool { return l.bucket.Allow() }

// Wait blocks for a token. A done context wins over ErrRateLimited.
func (l *Limiter) Wait(ctx context.Context) error {
	err := l.bucket.Wait(ctx)
	switch {
	case err == nil:
		return nil
	case ctx.Err() != nil:
		return ctx.Err()
	default:
		return errors.Join(ErrRateLimited, err)
	}
}

// Interval is the spacing between events once the burst is spent.
func (l *Limiter) Interval() time.Duration {
	return time.Duration(float64(time.Second) / float64(l.bucket.Limit()))
}
