package testutil

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/kbukum/fluxmux/message"
)

// ErrSinkFailed is returned by FailingSink.
var ErrSinkFailed = errors.New("sink failed")

// RecordingSink keeps every message it is sent.
type RecordingSink struct {
	name string

	mu      sync.Mutex
	msgs    []message.Message
	times   []time.Time
	sends   int
	flushes int
	// FlushErr is returned from Flush when set.
	FlushErr error
}

// NewRecordingSink returns an empty recording sink.
func NewRecordingSink(name string) *RecordingSink {
	return &RecordingSink{name: name}
}

func (s *RecordingSink) Name() string { return s.name }

// Send records msg.
func (s *RecordingSink) Send(_ context.Context, msg message.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sends++
	s.msgs = append(s.msgs, msg)
	s.times = append(s.times, time.Now())
	return nil
}

// Flush counts the call.
func (s *RecordingSink) Flush(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushes++
	return s.FlushErr
}

// Messages returns a copy of the recorded messages.
func (s *RecordingSink) Messages() []message.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]message.Message(nil), s.msgs...)
}

// Payloads returns the recorded payloads as strings.
func (s *RecordingSink) Payloads() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.msgs))
	for i, m := range s.msgs {
		out[i] = string(m.Payload)
	}
	return out
}

// Times returns when each message was received.
func (s *RecordingSink) Times() []time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Time(nil), s.times...)
}

// Sends returns the number of Send calls.
func (s *RecordingSink) Sends() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sends
}

// Flushes returns the number of Flush calls.
func (s *RecordingSink) Flushes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushes
}

// Reset forgets everything recorded.
func (s *RecordingSink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs, s.times, s.sends, s.flushes = nil, nil, 0, 0
}

// FailingSink fails the first FailTimes sends, or every send when FailTimes
// is negative, and records the messages it eventually accepts.
type FailingSink struct {
	*RecordingSink
	FailTimes int
	// Err replaces ErrSinkFailed as the failure when set.
	Err error

	mu       sync.Mutex
	attempts int
}

// NewFailingSink returns a sink that fails failTimes sends; -1 fails forever.
func NewFailingSink(name string, failTimes int) *FailingSink {
	return &FailingSink{RecordingSink: NewRecordingSink(name), FailTimes: failTimes}
}

// Send fails until the configured number of failures was reached.
func (s *FailingSink) Send(ctx context.Context, msg message.Message) error {
	s.mu.Lock()
	s.attempts++
	fail := s.FailTimes < 0 || s.attempts <= s.FailTimes
	s.mu.Unlock()
	if fail {
		if s.Err != nil {
			return s.Err
		}
		return ErrSinkFailed
	}
	return s.RecordingSink.Send(ctx, msg)
}

// Attempts returns the number of Send calls, failed ones included.
func (s *FailingSink) Attempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts
}
