package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetry_Outcomes(t *testing.T) {
	permanent := errors.New("permanent")
	tests := []struct {
		name      string
		cfg       RetryConfig
		failFirst int
		fail      error
		wantCalls int
		wantErr   error
	}{
		{"first try", FixedDelay(3, time.Millisecond), 0, nil, 1, nil},
		{"after two failures", FixedDelay(3, time.Millisecond), 2, errors.New("flaky"), 3, nil},
		{"attempts exhausted", FixedDelay(3, time.Millisecond), 10, permanent, 3, permanent},
		{"single attempt", RetryConfig{}, 10, permanent, 1, permanent},
		{"retry refused", RetryConfig{
			MaxAttempts: 5,
			RetryIf:     func(err error) bool { return !errors.Is(err, permanent) },
		}, 10, permanent, 1, permanent},
		{"cancellation never retried", FixedDelay(5, 0), 10, context.Canceled, 1, context.Canceled},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			calls := 0
			got, err := Retry(context.Background(), tc.cfg, func() (int, error) {
				calls++
				if calls <= tc.failFirst {
					return 0, tc.fail
				}
				return calls, nil
			})
			if calls != tc.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tc.wantCalls)
			}
			if tc.wantErr == nil {
				if err != nil || got != calls {
					t.Errorf("Retry() = %d, %v", got, err)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("err = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestRetry_FixedDelaySpacing(t *testing.T) {
	delay := 20 * time.Millisecond
	var calls []time.Time
	_ = RetryFunc(context.Background(), FixedDelay(3, delay), func() error {
		calls = append(calls, time.Now())
		return errors.New("fail")
	})
	if len(calls) != 3 {
		t.Fatalf("expected 3 calls, got %d", len(calls))
	}
	for i := 1; i < len(calls); i++ {
		if gap := calls[i].Sub(calls[i-1]); gap < delay {
			t.Errorf("gap %d was %v, want >= %v", i, gap, delay)
		}
	}
}

func TestRetry_OnRetry(t *testing.T) {
	cfg := FixedDelay(3, time.Millisecond)
	var attempts []int
	cfg.OnRetry = func(attempt int, err error, wait time.Duration) {
		attempts = append(attempts, attempt)
		if wait != time.Millisecond {
			t.Errorf("wait = %v, want 1ms", wait)
		}
	}
	_ = RetryFunc(context.Background(), cfg, func() error { return errors.New("fail") })
	if len(attempts) != 2 || attempts[0] != 1 || attempts[1] != 2 {
		t.Errorf("OnRetry attempts = %v, want [1 2]", attempts)
	}
}

func TestRetry_ContextEndsDuringWait(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	fail := errors.New("fail")
	calls := 0
	err := RetryFunc(ctx, FixedDelay(5, time.Second), func() error {
		calls++
		return fail
	})
	if !errors.Is(err, context.DeadlineExceeded) || !errors.Is(err, fail) {
		t.Errorf("expected deadline joined with the last error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestBackoff(t *testing.T) {
	ms := time.Millisecond
	tests := []struct {
		name    string
		backoff Backoff
		attempt int
		want    time.Duration
	}{
		{"constant", Constant(30 * ms), 4, 30 * ms},
		{"linear", Linear(ms, 0), 3, 3 * ms},
		{"linear capped", Linear(time.Second, 30*time.Second), 45, 30 * time.Second},
		{"exponential first", Exponential(100*ms, 2, 0, 0), 1, 100 * ms},
		{"exponential third", Exponential(100*ms, 2, 0, 0), 3, 400 * ms},
		{"exponential capped", Exponential(100*ms, 2, 500*ms, 0), 5, 500 * ms},
		{"exponential default factor", Exponential(10*ms, 0, 0, 0), 2, 20 * ms},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.backoff(tc.attempt); got != tc.want {
				t.Errorf("backoff(%d) = %v, want %v", tc.attempt, got, tc.want)
			}
		})
	}
}

func TestExponential_JitterBounds(t *testing.T) {
	b := Exponential(100*time.Millisecond, 1, 0, 0.5)
	for i := 0; i < 50; i++ {
		if d := b(1); d < 50*time.Millisecond || d > 150*time.Millisecond {
			t.Fatalf("jittered delay %v outside [50ms,150ms]", d)
		}
	}
}

func TestSleep(t *testing.T) {
	if !Sleep(context.Background(), 0) {
		t.Error("zero sleep on a live context should report true")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	if Sleep(ctx, time.Second) {
		t.Error("expected false on a cancelled context")
	}
	if time.Since(start) > 100*time.Millisecond {
		t.Error("Sleep did not return promptly on cancellation")
	}
}
