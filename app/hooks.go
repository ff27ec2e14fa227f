package app

import (
	"context"
	"fmt"
)

// Hook is a lifecycle callback run when a task ends.
type Hook func(ctx context.Context) error

// OnStop registers hooks that run after the current task returns, in
// reverse registration order. They run once and are then cleared.
func (a *App) OnStop(hooks ...Hook) {
	a.onStop = append(a.onStop, hooks...)
}

// runHooks runs every hook and returns the first error.
func runHooks(ctx context.Context, hooks []Hook) error {
	var first error
	for i := len(hooks) - 1; i >= 0; i-- {
		if err := hooks[i](ctx); err != nil && first == nil {
			first = fmt.Errorf("stop hook %d failed: %w", i, err)
		}
	}
	return first
}
