package action

import (
	"context"

	"github.com/kbukum/fluxmux/message"
)

// Limit passes the first n messages and drops the rest.
type Limit struct {
	n     int
	count int
}

func NewLimit(n int) *Limit {
	return &Limit{n: n}
}

func (l *Limit) Name() string { return "limit" }

func (l *Limit) Execute(_ context.Context, msg message.Message) ([]message.Message, error) {
	if l.count >= l.n {
		return nil, nil
	}
	l.count++
	return []message.Message{msg}, nil
}

// Sample passes every nth message, counting from one.
type Sample struct {
	n     int
	count int
}

func NewSample(n int) *Sample {
	return &Sample{n: n}
}

func (s *Sample) Name() string { return "sample" }

func (s *Sample) Execute(_ context.Context, msg message.Message) ([]message.Message, error) {
	s.count++
	if s.count%s.n != 0 {
		return nil, nil
	}
	return []message.Message{msg}, nil
}
