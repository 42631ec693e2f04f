// Package eventlog describes the append-only, replayable log that carts are
// built from. Backends live under internal/adapters.
package eventlog

import (
	"context"
	"errors"
	"sync"
	"time"
)

const (
	// Partition is the only partition written and read; ordering is per
	// partition so all cart events share it.
	Partition = 0
	// FirstOffset is the earliest retained entry of a topic.
	FirstOffset int64 = 0
)

const (
	HeaderEventID    = "event-id"
	HeaderEventKind  = "event-kind"
	HeaderOccurredAt = "occurred-at"
	HeaderProducer   = "producer"
)

var ErrClosed = errors.New("event log closed")

// Record is what a producer appends.
type Record struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// Message is a record as read back from the log.
type Message struct {
	Topic     string
	Partition int
	Offset    int64
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Time      time.Time
}

type Handler func(ctx context.Context, msg Message) error

type SubscribeOption func(*SubscribeOptions)

type SubscribeOptions struct {
	// CaughtUp runs once, the first time the subscription has read up to
	// the end of the log. Offsets the backend passed over without
	// delivering (expired, undecodable) count as read.
	CaughtUp func()
}

func OnCaughtUp(fn func()) SubscribeOption {
	return func(o *SubscribeOptions) { o.CaughtUp = fn }
}

// NewSubscribeOptions applies opts. The returned CaughtUp is never nil and
// runs the caller's function at most once.
func NewSubscribeOptions(opts ...SubscribeOption) SubscribeOptions {
	var o SubscribeOptions
	for _, opt := range opts {
		opt(&o)
	}
	fn := o.CaughtUp
	var once sync.Once
	o.CaughtUp = func() {
		if fn != nil {
			once.Do(fn)
		}
	}
	return o
}

type Publisher interface {
	// Publish appends rec to topic and returns once the log acknowledged it.
	Publish(ctx context.Context, topic string, rec Record) error
}

type Subscriber interface {
	// Subscribe delivers topic from offset from in log order, calling h
	// from a single goroutine, until ctx is cancelled, which is reported as
	// a nil error. Delivery is at least once.
	Subscribe(ctx context.Context, topic string, from int64, h Handler, opts ...SubscribeOption) error
	// Tail returns the offset the next appended record will get.
	Tail(ctx context.Context, topic string) (int64, error)
}

type Log interface {
	Publisher
	Subscriber
	Close() error
}
