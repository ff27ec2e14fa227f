package resilience

import (
	"context"
	"errors"
	"time"
)

// RetryConfig describes how often and how far apart an operation is
// attempted.
type RetryConfig struct {
	// MaxAttempts counts the first call. Values below 1 mean 1.
	MaxAttempts int
	// Backoff spaces the attempts. Nil retries immediately.
	Backoff Backoff
	// RetryIf decides whether an error is worth another attempt. Nil means
	// DefaultRetryIf.
	RetryIf func(error) bool
	// OnRetry runs after a failed attempt, before the wait.
	OnRetry func(attempt int, err error, wait time.Duration)
}

// FixedDelay makes attempts tries spaced by delay.
func FixedDelay(attempts int, delay time.Duration) RetryConfig {
	return RetryConfig{MaxAttempts: attempts, Backoff: Constant(delay)}
}

// DefaultRetryIf retries everything except context cancellation.
func DefaultRetryIf(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func (c RetryConfig) wait(attempt int) time.Duration {
	if c.Backoff == nil {
		return 0
	}
	return c.Backoff(attempt)
}

// Retry calls fn until it succeeds, RetryIf rejects the error, attempts run
// out or ctx ends. It returns the last error, joined with ctx.Err() when
// the context cut the retries short.
func Retry[T any](ctx context.Context, cfg RetryConfig, fn func() (T, error)) (T, error) {
	var zero T
	retryIf := cfg.RetryIf
	if retryIf == nil {
		retryIf = DefaultRetryIf
	}

	var lastErr error
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, errors.Join(lastErr, err)
		}
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err
		if attempt >= cfg.MaxAttempts || !retryIf(err) {
			return zero, err
		}

		d := cfg.wait(attempt)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err, d)
		}
		if !Sleep(ctx, d) {
			return zero, errors.Join(lastErr, ctx.Err())
		}
	}
}

// RetryFunc is Retry for operations without a result.
func RetryFunc(ctx context.Context, cfg RetryConfig, fn func() error) error {
	_, err := Retry(ctx, cfg, func() (struct{}, error) { return struct{}{}, fn() })
	return err
}
