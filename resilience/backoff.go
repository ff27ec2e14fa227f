package resilience

import (
	"context"
	"math"
	"math/rand/v2"
	"time"
)

// Backoff returns the delay to wait after the given failed attempt
// (1-based).
type Backoff func(attempt int) time.Duration

// Constant waits d after every failure.
func Constant(d time.Duration) Backoff {
	return func(int) time.Duration { return d }
}

// Linear waits attempt×step, capped at maxDelay when maxDelay > 0.
func Linear(step, maxDelay time.Duration) Backoff {
	return func(attempt int) time.Duration {
		return capDelay(time.Duration(attempt)*step, maxDelay)
	}
}

// Exponential waits initial×factor^(attempt-1), spread by ±jitter (a
// fraction of the delay) and capped at maxDelay when maxDelay > 0.
func Exponential(initial time.Duration, factor float64, maxDelay time.Duration, jitter float64) Backoff {
	if factor <= 0 {
		factor = 2
	}
	return func(attempt int) time.Duration {
		d := float64(initial) * math.Pow(factor, float64(attempt-1))
		if jitter > 0 {
			d += (rand.Float64()*2 - 1) * jitter * d
		}
		if d < 0 {
			d = 0
		}
		if d > math.MaxInt64 {
			d = math.MaxInt64
		}
		return capDelay(time.Duration(d), maxDelay)
	}
}

func capDelay(d, maxDelay time.Duration) time.Duration {
	if maxDelay > 0 && d > maxDelay {
		return maxDelay
	}
	return d
}

// Sleep waits for d and reports false if ctx ended first. A non-positive d
// returns immediately.
func Sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
