// Package resilience provides the retry, backoff and rate limiting
// primitives used by fluxmux delivery loops, endpoint connects and the
// throttle stage.
//
//	err := resilience.RetryFunc(ctx, resilience.FixedDelay(3, time.Second), func() error {
//	    return sink.Send(ctx, msg)
//	})
//
// Sources that keep running after a failure use a Backoff with Sleep
// directly:
//
//	wait := resilience.Linear(time.Second, 30*time.Second)
//	if !resilience.Sleep(ctx, wait(failures)) {
//	    return nil
//	}
package resilience
