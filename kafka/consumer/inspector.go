package consumer

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"golang.org/x/sync/errgroup"

	"github.com/kbukum/fluxmux/errors"
	"github.com/kbukum/fluxmux/kafka"
)

// ANSI control sequences used to redraw the window in place.
const (
	hideCursor = "\x1B[?25l"
	showCursor = "\x1B[?25h"
	cursorHome = "\x1B[H"
	clearLine  = "\x1B[2K"
	clearBelow = "\x1B[J"
)

// Head shows the first n records of topic, then returns. Every partition is
// read from its first offset.
func Head(ctx context.Context, cfg kafka.Config, topic string, n int, w io.Writer) error {
	open, err := partitionReaders(cfg, topic, kafkago.FirstOffset)
	if err != nil {
		return err
	}
	return inspect(ctx, open, n, false, w)
}

// Tail follows records produced to topic after it starts, keeping the last
// n in view, until ctx is done.
func Tail(ctx context.Context, cfg kafka.Config, topic string, n int, w io.Writer) error {
	open, err := partitionReaders(cfg, topic, kafkago.LastOffset)
	if err != nil {
		return err
	}
	return inspect(ctx, open, n, true, w)
}

type openFunc func(ctx context.Context) ([]recordReader, error)

// partitionReaders returns an opener creating one group-less reader per
// partition, positioned at offset.
func partitionReaders(cfg kafka.Config, topic string, offset int64) (openFunc, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	dialer, err := kafka.NewDialer(&cfg)
	if err != nil {
		return nil, err
	}

	return func(ctx context.Context) ([]recordReader, error) {
		partitions, err := dialer.LookupPartitions(ctx, "tcp", cfg.Brokers[0], topic)
		if err != nil {
			return nil, kafka.Classify("kafka:"+topic, err)
		}
		if len(partitions) == 0 {
			return nil, errors.InvalidEndpoint("kafka:"+topic, "topic has no partitions")
		}

		readers := make([]recordReader, 0, len(partitions))
		for _, p := range partitions {
			r := kafkago.NewReader(kafkago.ReaderConfig{
				Brokers:   cfg.Brokers,
				Topic:     topic,
				Partition: p.ID,
				Dialer:    dialer,
				MinBytes:  1,
				MaxBytes:  10e6,
				MaxWait:   100 * time.Millisecond,
			})
			if err := r.SetOffset(offset); err != nil {
				_ = r.Close()
				for _, opened := range readers {
					_ = opened.Close()
				}
				return nil, errors.Internal(err)
			}
			readers = append(readers, r)
		}
		return readers, nil
	}, nil
}

// inspect merges the readers into a window of n slots and redraws it after
// every record. Without follow it returns once the window is full.
func inspect(ctx context.Context, open openFunc, n int, follow bool, w io.Writer) error {
	if n <= 0 {
		return errors.InvalidInput("n", "must be greater than 0")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	readers, err := open(ctx)
	if err != nil {
		return err
	}

	records := make(chan kafkago.Message)
	g, gctx := errgroup.WithContext(ctx)
	for _, r := range readers {
		g.Go(func() error {
			defer r.Close()
			for {
				km, err := r.ReadMessage(gctx)
				if err != nil {
					if gctx.Err() != nil || err == io.EOF {
						return nil
					}
					return err
				}
				select {
				case records <- km:
				case <-gctx.Done():
					return nil
				}
			}
		})
	}
	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	out := bufio.NewWriter(w)
	win := newWindow(n)
	fmt.Fprint(out, hideCursor)
	render(out, win.ordered())
	defer func() {
		fmt.Fprint(out, showCursor)
		_ = out.Flush()
	}()

	for {
		select {
		case km := <-records:
			if km.Value == nil {
				continue
			}
			win.put(string(km.Value))
			fmt.Fprint(out, cursorHome)
			render(out, win.ordered())
			if !follow && win.full() {
				cancel()
				<-done
				return nil
			}
		case err := <-done:
			if err != nil {
				return kafka.Classify("kafka", err)
			}
			return nil
		}
	}
}

func render(out *bufio.Writer, slots []*string) {
	for i, s := range slots {
		fmt.Fprint(out, clearLine)
		if s == nil {
			fmt.Fprintf(out, "%d) <nil>\n", i+1)
		} else {
			fmt.Fprintf(out, "%d) %s\n", i+1, *s)
		}
	}
	fmt.Fprint(out, clearBelow)
	_ = out.Flush()
}

// window is a ring of n display slots.
type window struct {
	slots []*string
	next  int
	total int
}

func newWindow(n int) *window {
	return &window{slots: make([]*string, n)}
}

func (w *window) put(s string) {
	w.slots[w.next] = &s
	w.next = (w.next + 1) % len(w.slots)
	w.total++
}

func (w *window) full() bool { return w.total >= len(w.slots) }

// ordered returns the slots oldest first.
func (w *window) ordered() []*string {
	if w.total <= len(w.slots) {
		return w.slots
	}
	out := make([]*string, 0, len(w.slots))
	for i := range w.slots {
		out = append(out, w.slots[(w.next+i)%len(w.slots)])
	}
	return out
}
