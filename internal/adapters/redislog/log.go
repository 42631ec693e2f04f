// Package redislog stores each topic as a Redis list. RPUSH is atomic and
// returns the new length, which gives every entry a dense integer offset.
package redislog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/reybrally/cart-service/internal/app/eventlog"
	"github.com/reybrally/cart-service/internal/logging"
)

type Config struct {
	Addr         string
	Password     string
	DB           int
	Prefix       string
	PollInterval time.Duration
	BatchSize    int
}

type Log struct {
	rdb    *redis.Client
	prefix string
	poll   time.Duration
	batch  int64
}

type entry struct {
	Key     []byte            `json:"key,omitempty"`
	Value   []byte            `json:"value"`
	Headers map[string]string `json:"headers,omitempty"`
	Time    time.Time         `json:"time"`
}

func New(cfg Config) *Log {
	rdb := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})
	return NewWithClient(rdb, cfg)
}

func NewWithClient(rdb *redis.Client, cfg Config) *Log {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 250 * time.Millisecond
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}
	return &Log{
		rdb:    rdb,
		prefix: cfg.Prefix,
		poll:   cfg.PollInterval,
		batch:  int64(cfg.BatchSize),
	}
}

func (l *Log) Ping(ctx context.Context) error {
	return l.rdb.Ping(ctx).Err()
}

func (l *Log) makeKey(topic string) string {
	return l.prefix + topic
}

func (l *Log) Publish(ctx context.Context, topic string, rec eventlog.Record) error {
	data, err := json.Marshal(entry{Key: rec.Key, Value: rec.Value, Headers: rec.Headers, Time: time.Now().UTC()})
	if err != nil {
		return err
	}
	return l.rdb.RPush(ctx, l.makeKey(topic), data).Err()
}

func (l *Log) Subscribe(ctx context.Context, topic string, from int64, h eventlog.Handler, opts ...eventlog.SubscribeOption) error {
	o := eventlog.NewSubscribeOptions(opts...)
	key := l.makeKey(topic)
	next := max(from, eventlog.FirstOffset)
	for {
		vals, err := l.rdb.LRange(ctx, key, next, next+l.batch-1).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, redis.ErrClosed) {
				return eventlog.ErrClosed
			}
			logging.LogError("redis log read failed", err, logrus.Fields{"topic": topic, "offset": next})
			if !wait(ctx, l.poll) {
				return nil
			}
			continue
		}

		for _, raw := range vals {
			msg, err := decode(topic, next, raw)
			if err != nil {
				logging.LogError("redis log entry undecodable, skipping", err, logrus.Fields{"topic": topic, "offset": next})
			} else if err := h(ctx, msg); err != nil {
				logging.LogError("redis log handler failed, skipping", err, logrus.Fields{"topic": topic, "offset": next})
			}
			next++
		}

		// a short batch means next is past the end of the list
		if int64(len(vals)) < l.batch {
			o.CaughtUp()
			if !wait(ctx, l.poll) {
				return nil
			}
		}
	}
}

func (l *Log) Tail(ctx context.Context, topic string) (int64, error) {
	return l.rdb.LLen(ctx, l.makeKey(topic)).Result()
}

func (l *Log) Close() error {
	return l.rdb.Close()
}

func decode(topic string, offset int64, raw string) (eventlog.Message, error) {
	var e entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		return eventlog.Message{}, err
	}
	return eventlog.Message{
		Topic:     topic,
		Partition: eventlog.Partition,
		Offset:    offset,
		Key:       e.Key,
		Value:     e.Value,
		Headers:   e.Headers,
		Time:      e.Time,
	}, nil
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
