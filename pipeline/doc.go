// Package pipeline wires a source, a stage chain and one or more sinks
// together.
//
// Two orchestrators are provided:
//
//   - Bridge runs the middleware chain and delivers to a single sink, retrying
//     each message according to the retry tags the chain attached.
//   - Pipe runs the action chain and delivers every survivor to every sink,
//     best effort, then finalizes the chain.
//
// In both, the source runs in its own goroutine and writes into a bounded
// channel. The orchestrator is the only consumer: it applies the chain to one
// message and delivers the result before it pulls the next one, so a slow
// sink slows the source down through the full channel.
//
//	bridge := pipeline.NewBridge(src, chain, sink,
//	    pipeline.WithLogger(log),
//	    pipeline.WithChannelCapacity(512),
//	)
//	if err := bridge.Run(ctx); err != nil {
//	    return err
//	}
package pipeline
