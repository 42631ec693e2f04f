package kafka

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	kgo "github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/reybrally/cart-service/internal/app/eventlog"
	"github.com/reybrally/cart-service/internal/logging"
)

type Consumer interface {
	Subscribe(ctx context.Context, topic string, from int64, h eventlog.Handler, opts ...eventlog.SubscribeOption) error
	Tail(ctx context.Context, topic string) (int64, error)
	Close() error
}

type ConsumerConfig struct {
	Brokers  []string
	ClientID string
	MinBytes int           // 1
	MaxBytes int           // 10<<20
	MaxWait  time.Duration // 100 * time.Millisecond
	// handler retries before a message is skipped
	MaxRetries int           // 5
	Backoff    time.Duration // 200 * time.Millisecond
	// how long a replaying reader may see nothing before it checks its lag
	IdleWait time.Duration // 2 * time.Second
}

// partitionConsumer reads partition 0 directly, without a consumer group:
// every subscription picks its own start offset and nothing is committed.
type partitionConsumer struct {
	cfg    ConsumerConfig
	dialer *kgo.Dialer

	mu      sync.Mutex
	readers map[*kgo.Reader]struct{}
	closed  bool
}

func NewConsumer(cfg ConsumerConfig) Consumer {
	if cfg.MinBytes <= 0 {
		cfg.MinBytes = 1
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 10 << 20
	}
	if cfg.IdleWait <= 0 {
		cfg.IdleWait = 2 * time.Second
	}
	return &partitionConsumer{
		cfg:     cfg,
		dialer:  &kgo.Dialer{ClientID: cfg.ClientID, Timeout: 10 * time.Second},
		readers: make(map[*kgo.Reader]struct{}),
	}
}

func (c *partitionConsumer) Subscribe(ctx context.Context, topic string, from int64, h eventlog.Handler, opts ...eventlog.SubscribeOption) error {
	o := eventlog.NewSubscribeOptions(opts...)

	first, last, err := c.offsets(ctx, topic)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("read offsets %s: %w", topic, err)
	}
	// empty, or everything below the high-water mark has expired
	caughtUp := first >= last || from >= last
	if caughtUp {
		o.CaughtUp()
	}

	r := kgo.NewReader(kgo.ReaderConfig{
		Brokers:   c.cfg.Brokers,
		Topic:     topic,
		Partition: eventlog.Partition,
		MinBytes:  c.cfg.MinBytes,
		MaxBytes:  c.cfg.MaxBytes,
		MaxWait:   c.cfg.MaxWait,
		Dialer:    c.dialer,
	})
	if err := c.track(r); err != nil {
		_ = r.Close()
		return err
	}
	defer c.untrack(r)

	start := from
	if start <= first {
		// earliest retained, which is 0 until retention kicks in
		start = kgo.FirstOffset
	}
	if err := r.SetOffset(start); err != nil {
		return fmt.Errorf("set offset %d: %w", from, err)
	}

	for {
		m, err := c.read(ctx, r, caughtUp)
		if err != nil {
			// graceful shutdown
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, io.EOF) {
				return eventlog.ErrClosed
			}
			if errors.Is(err, context.DeadlineExceeded) {
				if lag, lagErr := r.ReadLag(ctx); lagErr == nil && lag <= 0 {
					caughtUp = true
					o.CaughtUp()
				}
				continue
			}
			logging.LogError("kafka read failed", err, logrus.Fields{"topic": topic})
			if !wait(ctx, 200*time.Millisecond) {
				return nil
			}
			continue
		}

		msg := toMessage(m)

		// at-least-once: retry the handler, then skip the message
		var hErr error
		for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
			hErr = h(ctx, msg)
			if hErr == nil || attempt == c.cfg.MaxRetries {
				break
			}
			if !wait(ctx, c.cfg.Backoff*time.Duration(attempt+1)) {
				return nil
			}
		}
		if hErr != nil {
			logging.LogError("kafka handler failed, skipping", hErr, logrus.Fields{"topic": topic, "offset": m.Offset})
		}

		if !caughtUp && m.Offset+1 >= m.HighWaterMark {
			caughtUp = true
			o.CaughtUp()
		}
	}
}

// read bounds the wait by IdleWait until the reader has caught up once, so
// a replay that ends on offsets the broker never returns still finishes.
func (c *partitionConsumer) read(ctx context.Context, r *kgo.Reader, caughtUp bool) (kgo.Message, error) {
	if caughtUp {
		return r.ReadMessage(ctx)
	}
	rctx, cancel := context.WithTimeout(ctx, c.cfg.IdleWait)
	defer cancel()
	return r.ReadMessage(rctx)
}

// Tail asks the partition leader for the last offset.
func (c *partitionConsumer) Tail(ctx context.Context, topic string) (int64, error) {
	_, last, err := c.offsets(ctx, topic)
	return last, err
}

// offsets returns the first retained and the next offset of the partition.
// A topic that does not exist yet, or is still being auto-created, is empty.
func (c *partitionConsumer) offsets(ctx context.Context, topic string) (int64, int64, error) {
	var lastErr error
	for _, broker := range c.cfg.Brokers {
		conn, err := c.dialer.DialLeader(ctx, "tcp", broker, topic, eventlog.Partition)
		if err != nil {
			if errors.Is(err, kgo.UnknownTopicOrPartition) || errors.Is(err, kgo.LeaderNotAvailable) {
				return 0, 0, nil
			}
			lastErr = err
			continue
		}
		first, last, err := conn.ReadOffsets()
		_ = conn.Close()
		if err != nil {
			lastErr = err
			continue
		}
		return first, last, nil
	}
	if lastErr == nil {
		lastErr = errors.New("no kafka brokers configured")
	}
	return 0, 0, lastErr
}

func (c *partitionConsumer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	var errs []error
	for r := range c.readers {
		errs = append(errs, r.Close())
	}
	clear(c.readers)
	return errors.Join(errs...)
}

func (c *partitionConsumer) track(r *kgo.Reader) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return eventlog.ErrClosed
	}
	c.readers[r] = struct{}{}
	return nil
}

func (c *partitionConsumer) untrack(r *kgo.Reader) {
	c.mu.Lock()
	_, ok := c.readers[r]
	delete(c.readers, r)
	c.mu.Unlock()
	if ok {
		_ = r.Close()
	}
}

func wait(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
