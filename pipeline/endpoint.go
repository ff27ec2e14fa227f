package pipeline

import (
	"context"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/kbukum/fluxmux/message"
)

// Source produces messages into out until it is exhausted, fails, or ctx is
// done. It must not close out; the orchestrator does that once Start returns.
type Source interface {
	Start(ctx context.Context, out chan<- message.Message) error
}

// Sink accepts messages. Send may buffer; Flush forces buffered messages out
// and is a no-op when nothing is pending.
type Sink interface {
	Send(ctx context.Context, msg message.Message) error
	Flush(ctx context.Context) error
}

// Named is implemented by sinks that have a name for logs and metrics.
type Named interface {
	Name() string
}

// SinkName returns the sink's name, or "sink-<index>" when it has none.
func SinkName(s Sink, index int) string {
	if n, ok := s.(Named); ok && n.Name() != "" {
		return n.Name()
	}
	return "sink-" + strconv.Itoa(index)
}

// startSource runs src in its own goroutine and closes the returned channel
// once Start returns.
func startSource(ctx context.Context, src Source, capacity int) (<-chan message.Message, *errgroup.Group) {
	ch := make(chan message.Message, capacity)
	g := new(errgroup.Group)
	g.Go(func() error {
		defer close(ch)
		return src.Start(ctx, ch)
	})
	return ch, g
}
