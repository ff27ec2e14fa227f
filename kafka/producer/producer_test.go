package producer

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/kbukum/fluxmux/errors"
	"github.com/kbukum/fluxmux/kafka"
	"github.com/kbukum/fluxmux/logger"
	"github.com/kbukum/fluxmux/testutil"
)

type fakeWriter struct {
	batches  [][]kafkago.Message
	failNext int
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if w.failNext > 0 {
		w.failNext--
		return stderrors.New("leader not available")
	}
	w.batches = append(w.batches, append([]kafkago.Message(nil), msgs...))
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func values(batch []kafkago.Message) []string {
	out := make([]string, len(batch))
	for i, m := range batch {
		out[i] = string(m.Value)
	}
	return out
}

func TestSink_Batches(t *testing.T) {
	w := &fakeWriter{}
	sink := newSink(w, "orders", 2, logger.NewNop())
	ctx := context.Background()

	for _, p := range []string{`1`, `2`, `3`} {
		if err := sink.Send(ctx, testutil.MustJSON(t, p)); err != nil {
			t.Fatalf("Send(%s) error: %v", p, err)
		}
	}
	if len(w.batches) != 1 || len(w.batches[0]) != 2 {
		t.Fatalf("batches = %v", w.batches)
	}
	if err := sink.Flush(ctx); err != nil {
		t.Fatalf("Flush() error: %v", err)
	}
	if len(w.batches) != 2 || values(w.batches[1])[0] != "3" {
		t.Errorf("flush must write the remainder, got %v", w.batches)
	}
	if err := sink.Flush(ctx); err != nil || len(w.batches) != 2 {
		t.Errorf("empty flush must not write, err=%v", err)
	}
}

func TestSink_FailureDropsTrigger(t *testing.T) {
	w := &fakeWriter{failNext: 1}
	sink := newSink(w, "orders", 2, logger.NewNop())
	ctx := context.Background()

	_ = sink.Send(ctx, testutil.MustJSON(t, `1`))
	err := sink.Send(ctx, testutil.MustJSON(t, `2`))
	appErr, ok := errors.AsAppError(err)
	if !ok || appErr.Code != errors.ErrCodeDeliveryFailed || !appErr.Retryable {
		t.Fatalf("expected retryable DELIVERY_FAILED, got %v", err)
	}

	// a retried Send of the same message produces it once
	if err := sink.Send(ctx, testutil.MustJSON(t, `2`)); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if len(w.batches) != 1 {
		t.Fatalf("batches = %v", w.batches)
	}
	if got := values(w.batches[0]); len(got) != 2 || got[0] != "1" || got[1] != "2" {
		t.Errorf("batch = %v", got)
	}
}

func TestSink_KeysAndHeaders(t *testing.T) {
	w := &fakeWriter{}
	sink := newSink(w, "orders", 1, logger.NewNop())
	msg := testutil.Keyed(testutil.MustJSON(t, `{"a":1}`), "k")
	msg.Headers = map[string]string{"source": "stdin"}

	if err := sink.Send(context.Background(), msg); err != nil {
		t.Fatal(err)
	}
	got := w.batches[0][0]
	if string(got.Key) != "k" || len(got.Headers) != 1 {
		t.Errorf("record = %+v", got)
	}
}

func TestSink_Close(t *testing.T) {
	w := &fakeWriter{}
	sink := newSink(w, "orders", 10, logger.NewNop())
	if err := sink.Close(); err != nil || !w.closed {
		t.Fatalf("Close() = %v, closed=%v", err, w.closed)
	}
	if err := sink.Close(); err != nil {
		t.Errorf("second Close() = %v", err)
	}
	if err := sink.Send(context.Background(), testutil.MustJSON(t, `1`)); err == nil {
		t.Error("Send after Close must fail")
	}
}

func TestNewSink_Refused(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := NewSink(ctx, kafka.Config{Brokers: []string{"127.0.0.1:1"}, DialTimeout: "200ms"}, "orders", nil)
	appErr, ok := errors.AsAppError(err)
	if !ok || appErr.Code != errors.ErrCodeConnectionFailed {
		t.Errorf("expected CONNECTION_FAILED, got %v", err)
	}
}
