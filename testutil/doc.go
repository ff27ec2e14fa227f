// Package testutil provides in-memory sources and sinks for exercising
// pipelines in tests.
//
//	src := testutil.NewSliceSource(testutil.MustJSON(t, `{"a":1}`))
//	sink := testutil.NewRecordingSink("mem")
//	err := pipeline.NewPipe(src, chain, []pipeline.Sink{sink}, log).Run(ctx)
//	got := sink.Messages()
package testutil
