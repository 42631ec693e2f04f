// Package memlog is an in-process event log used for development and tests.
package memlog

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/reybrally/cart-service/internal/app/eventlog"
	"github.com/reybrally/cart-service/internal/logging"
)

type Log struct {
	mu     sync.Mutex
	topics map[string][]eventlog.Message
	// closed and replaced on every append
	notify chan struct{}
	closed bool
	done   chan struct{}
}

func New() *Log {
	return &Log{
		topics: make(map[string][]eventlog.Message),
		notify: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

func (l *Log) Publish(ctx context.Context, topic string, rec eventlog.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return eventlog.ErrClosed
	}

	msgs := l.topics[topic]
	l.topics[topic] = append(msgs, eventlog.Message{
		Topic:     topic,
		Partition: eventlog.Partition,
		Offset:    int64(len(msgs)),
		Key:       append([]byte(nil), rec.Key...),
		Value:     append([]byte(nil), rec.Value...),
		Headers:   maps.Clone(rec.Headers),
		Time:      time.Now().UTC(),
	})
	close(l.notify)
	l.notify = make(chan struct{})
	return nil
}

func (l *Log) Subscribe(ctx context.Context, topic string, from int64, h eventlog.Handler, opts ...eventlog.SubscribeOption) error {
	o := eventlog.NewSubscribeOptions(opts...)
	next := max(from, eventlog.FirstOffset)
	for {
		l.mu.Lock()
		msgs := l.topics[topic]
		wait := l.notify
		closed := l.closed
		l.mu.Unlock()

		for ; next < int64(len(msgs)); next++ {
			if ctx.Err() != nil {
				return nil
			}
			if err := h(ctx, msgs[next]); err != nil {
				logging.LogError("memlog handler failed, skipping", err, logrus.Fields{"topic": topic, "offset": next})
			}
		}
		o.CaughtUp()
		if closed {
			return eventlog.ErrClosed
		}

		select {
		case <-ctx.Done():
			return nil
		case <-l.done:
		case <-wait:
		}
	}
}

func (l *Log) Tail(_ context.Context, topic string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return int64(len(l.topics[topic])), nil
}

func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.closed {
		l.closed = true
		close(l.done)
	}
	return nil
}
