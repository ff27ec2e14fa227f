package pipeline

import (
	"context"
	stderrors "errors"
	"reflect"
	"testing"
	"time"

	"github.com/kbukum/fluxmux/action"
	"github.com/kbukum/fluxmux/errors"
	"github.com/kbukum/fluxmux/logger"
	"github.com/kbukum/fluxmux/message"
	"github.com/kbukum/fluxmux/middleware"
	"github.com/kbukum/fluxmux/testutil"
)

func ptr[T any](v T) *T { return &v }

func buildMiddleware(t *testing.T, cfg middleware.Config) *middleware.Chain {
	t.Helper()
	chain, err := middleware.Build(cfg, logger.NewNop())
	if err != nil {
		t.Fatalf("middleware.Build: %v", err)
	}
	return chain
}

func TestBridge_Forwards(t *testing.T) {
	src := testutil.NewSliceSource(testutil.MustJSONAll(t, `{"a":1}`, `{"a":2}`)...)
	sink := testutil.NewRecordingSink("mem")

	if err := NewBridge(src, nil, sink).Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := sink.Payloads(); !reflect.DeepEqual(got, []string{`{"a":1}`, `{"a":2}`}) {
		t.Errorf("delivered %v", got)
	}
	if sink.Flushes() != 1 {
		t.Errorf("expected exactly one flush, got %d", sink.Flushes())
	}
}

func TestBridge_Dedup(t *testing.T) {
	msgs := []message.Message{
		testutil.Keyed(testutil.MustJSON(t, `1`), "k"),
		testutil.Keyed(testutil.MustJSON(t, `2`), "k"),
		testutil.MustJSON(t, `3`),
		testutil.MustJSON(t, `3`),
	}
	sink := testutil.NewRecordingSink("mem")
	chain := buildMiddleware(t, middleware.Config{Deduplicate: ptr(true)})

	if err := NewBridge(testutil.NewSliceSource(msgs...), chain, sink).Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := sink.Payloads(); !reflect.DeepEqual(got, []string{"1", "3", "3"}) {
		t.Errorf("delivered %v", got)
	}
}

func TestBridge_RetryExhaustion(t *testing.T) {
	sink := testutil.NewFailingSink("broken", -1)
	chain := buildMiddleware(t, middleware.Config{
		RetryMaxAttempts: ptr(2),
		RetryDelayMS:     ptr(int64(0)),
	})
	src := testutil.NewSliceSource(testutil.MustJSONAll(t, `1`, `2`)...)

	if err := NewBridge(src, chain, sink).Run(context.Background()); err != nil {
		t.Fatalf("delivery failures must not fail the run: %v", err)
	}
	if sink.Attempts() != 6 {
		t.Errorf("expected 3 attempts per message, got %d total", sink.Attempts())
	}
}

func TestBridge_RetryRecovers(t *testing.T) {
	sink := testutil.NewFailingSink("flaky", 2)
	chain := buildMiddleware(t, middleware.Config{
		RetryMaxAttempts: ptr(2),
		RetryDelayMS:     ptr(int64(10)),
	})
	src := testutil.NewSliceSource(testutil.MustJSON(t, `1`))

	start := time.Now()
	if err := NewBridge(src, chain, sink).Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sink.Messages()) != 1 {
		t.Fatal("message should be delivered on the third attempt")
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("expected two 10ms retry delays, run took %v", elapsed)
	}
}

func TestBridge_PermanentErrorNotRetried(t *testing.T) {
	sink := testutil.NewFailingSink("strict", -1)
	sink.Err = errors.DeliveryFailed("strict", errors.SchemaInvalid("column missing"))
	chain := buildMiddleware(t, middleware.Config{
		RetryMaxAttempts: ptr(3),
		RetryDelayMS:     ptr(int64(0)),
	})
	src := testutil.NewSliceSource(testutil.MustJSON(t, `1`))

	if err := NewBridge(src, chain, sink).Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sink.Attempts() != 1 {
		t.Errorf("permanent failure retried: %d attempts", sink.Attempts())
	}
}

func TestBridge_NoRetryWithoutTags(t *testing.T) {
	sink := testutil.NewFailingSink("broken", -1)
	src := testutil.NewSliceSource(testutil.MustJSON(t, `1`))

	if err := NewBridge(src, nil, sink).Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sink.Attempts() != 1 {
		t.Errorf("expected a single attempt, got %d", sink.Attempts())
	}
}

func TestRetryPolicy(t *testing.T) {
	tests := []struct {
		name      string
		meta      map[string]string
		wantMax   int
		wantDelay time.Duration
	}{
		{"absent", nil, 0, time.Second},
		{"set", map[string]string{message.MetaMaxRetries: "3", message.MetaRetryDelayMS: "50"}, 3, 50 * time.Millisecond},
		{"malformed", map[string]string{message.MetaMaxRetries: "many", message.MetaRetryDelayMS: "-1"}, 0, time.Second},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			msg := testutil.MustJSON(t, `1`)
			msg.Meta = tc.meta
			n, d := retryPolicy(msg, logger.NewNop())
			if n != tc.wantMax || d != tc.wantDelay {
				t.Errorf("retryPolicy() = %d,%v want %d,%v", n, d, tc.wantMax, tc.wantDelay)
			}
		})
	}
}

func TestBridge_SourceAndFlushErrors(t *testing.T) {
	srcErr := stderrors.New("source broke")
	src := testutil.NewSliceSource(testutil.MustJSON(t, `1`))
	src.Err = srcErr
	sink := testutil.NewRecordingSink("mem")
	sink.FlushErr = stderrors.New("disk full")

	err := NewBridge(src, nil, sink).Run(context.Background())
	if !stderrors.Is(err, srcErr) {
		t.Errorf("expected source error in %v", err)
	}
	if !stderrors.Is(err, sink.FlushErr) {
		t.Errorf("expected flush error in %v", err)
	}
	if len(sink.Messages()) != 1 {
		t.Error("messages sent before the failure must be delivered")
	}
}

func TestBridge_PartialBatch(t *testing.T) {
	payloads := []string{`{"a":1}`, `{"a":2}`, `{"a":3}`, `{"a":4}`}
	cfg := middleware.Config{BatchSize: ptr(3), BatchTimeoutMS: ptr(int64(0))}

	t.Run("discarded by default", func(t *testing.T) {
		sink := testutil.NewRecordingSink("mem")
		src := testutil.NewSliceSource(testutil.MustJSONAll(t, payloads...)...)
		if err := NewBridge(src, buildMiddleware(t, cfg), sink).Run(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := sink.Payloads(); !reflect.DeepEqual(got, []string{`[{"a":1},{"a":2},{"a":3}]`}) {
			t.Errorf("delivered %v", got)
		}
	})

	t.Run("drained on close", func(t *testing.T) {
		sink := testutil.NewRecordingSink("mem")
		src := testutil.NewSliceSource(testutil.MustJSONAll(t, payloads...)...)
		bridge := NewBridge(src, buildMiddleware(t, cfg), sink, WithDrainOnClose(true))
		if err := bridge.Run(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []string{`[{"a":1},{"a":2},{"a":3}]`, `[{"a":4}]`}
		if got := sink.Payloads(); !reflect.DeepEqual(got, want) {
			t.Errorf("delivered %v, want %v", got, want)
		}
	})
}

func TestBridge_Throttle(t *testing.T) {
	sink := testutil.NewRecordingSink("mem")
	chain := buildMiddleware(t, middleware.Config{ThrottlePerSec: ptr(10.0)})
	src := testutil.NewSliceSource(testutil.MustJSONAll(t, `1`, `2`, `3`)...)

	if err := NewBridge(src, chain, sink).Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	times := sink.Times()
	for i := 1; i < len(times); i++ {
		if gap := times[i].Sub(times[i-1]); gap < 95*time.Millisecond {
			t.Errorf("gap %d = %v, want >= 100ms", i, gap)
		}
	}
}

// blockingSource sends until ctx is done and counts what it managed to send.
type blockingSource struct {
	sent int
}

func (s *blockingSource) Start(ctx context.Context, out chan<- message.Message) error {
	for ctx.Err() == nil {
		select {
		case out <- message.New([]byte("x"), message.FormatText):
			s.sent++
		case <-ctx.Done():
		}
	}
	return nil
}

// gateSink blocks the first Send until release is closed.
type gateSink struct {
	*testutil.RecordingSink
	release chan struct{}
	entered chan struct{}
	once    bool
}

func (s *gateSink) Send(ctx context.Context, msg message.Message) error {
	if !s.once {
		s.once = true
		close(s.entered)
		<-s.release
	}
	return s.RecordingSink.Send(ctx, msg)
}

func TestBridge_Backpressure(t *testing.T) {
	src := &blockingSource{}
	sink := &gateSink{
		RecordingSink: testutil.NewRecordingSink("gate"),
		release:       make(chan struct{}),
		entered:       make(chan struct{}),
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- NewBridge(src, nil, sink, WithChannelCapacity(4)).Run(ctx)
	}()

	<-sink.entered
	time.Sleep(50 * time.Millisecond)
	cancel()
	close(sink.release)

	if err := <-done; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// One message in the sink, four in the channel, at most one more racing
	// the cancellation.
	if src.sent > 6 {
		t.Errorf("source ran ahead of a blocked sink: sent %d", src.sent)
	}
}

func TestPipe_Tee(t *testing.T) {
	good := testutil.NewRecordingSink("good")
	bad := testutil.NewFailingSink("bad", -1)
	other := testutil.NewRecordingSink("other")
	src := testutil.NewSliceSource(testutil.MustJSON(t, `{"v":1}`))

	p := NewPipe(src, nil, []Sink{good, bad, other})
	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if good.Sends() != 1 || bad.Attempts() != 1 || other.Sends() != 1 {
		t.Errorf("expected one send per sink, got %d/%d/%d", good.Sends(), bad.Attempts(), other.Sends())
	}
	if good.Flushes() != 1 || bad.Flushes() != 1 || other.Flushes() != 1 {
		t.Error("every sink must be flushed once")
	}
}

func TestPipe_AggregateFinalize(t *testing.T) {
	chain, err := action.Build([]action.Step{{Name: "aggregate", Param: "by:g,sum:v"}}, nil)
	if err != nil {
		t.Fatalf("action.Build: %v", err)
	}
	a, b := testutil.NewRecordingSink("a"), testutil.NewRecordingSink("b")
	src := testutil.NewSliceSource(testutil.MustJSONAll(t,
		`{"g":"x","v":10}`, `{"g":"x","v":20}`, `{"g":"y","v":5}`,
	)...)

	if err := NewPipe(src, chain, []Sink{a, b}).Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{`{"g":"x","sum_v":30}`, `{"g":"y","sum_v":5}`}
	for _, s := range []*testutil.RecordingSink{a, b} {
		if got := s.Payloads(); !reflect.DeepEqual(got, want) {
			t.Errorf("%s received %v, want %v", s.Name(), got, want)
		}
	}
}

func TestPipe_FilterThenLimit(t *testing.T) {
	chain, err := action.Build([]action.Step{
		{Name: "filter", Param: "v>1"},
		{Name: "limit", Param: "2"},
	}, nil)
	if err != nil {
		t.Fatalf("action.Build: %v", err)
	}
	sink := testutil.NewRecordingSink("mem")
	src := testutil.NewSliceSource(testutil.MustJSONAll(t, `{"v":1}`, `{"v":2}`, `{"v":3}`, `{"v":4}`)...)

	if err := NewPipe(src, chain, []Sink{sink}).Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := sink.Payloads(); !reflect.DeepEqual(got, []string{`{"v":2}`, `{"v":3}`}) {
		t.Errorf("delivered %v", got)
	}
}

func TestPipe_ReturnsSourceErrorOnly(t *testing.T) {
	srcErr := stderrors.New("read failed")
	src := testutil.NewSliceSource(testutil.MustJSON(t, `1`))
	src.Err = srcErr
	sink := testutil.NewRecordingSink("mem")
	sink.FlushErr = stderrors.New("flush failed")

	err := NewPipe(src, nil, []Sink{sink}).Run(context.Background())
	if !stderrors.Is(err, srcErr) {
		t.Errorf("expected source error, got %v", err)
	}
	if stderrors.Is(err, sink.FlushErr) {
		t.Error("pipe flush errors are logged, not returned")
	}
	if len(sink.Messages()) != 1 {
		t.Error("messages before the failure must be delivered")
	}
}

func TestPipe_NoSinks(t *testing.T) {
	if err := NewPipe(testutil.NewSliceSource(), nil, nil).Run(context.Background()); err == nil {
		t.Fatal("expected error without sinks")
	}
}

func TestSinkName(t *testing.T) {
	if got := SinkName(testutil.NewRecordingSink("kafka"), 3); got != "kafka" {
		t.Errorf("got %s", got)
	}
	if got := SinkName(&gateSink{RecordingSink: testutil.NewRecordingSink("")}, 2); got != "sink-2" {
		t.Errorf("got %s", got)
	}
}
