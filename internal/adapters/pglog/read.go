package pglog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/reybrally/cart-service/internal/app/eventlog"
	"github.com/reybrally/cart-service/internal/logging"
)

const (
	qRead = `
SELECT log_offset, msg_key, msg_value, headers, created_at
FROM event_log
WHERE topic = $1 AND log_offset >= $2
ORDER BY log_offset
LIMIT $3;`

	qTail = `SELECT COALESCE(MAX(log_offset) + 1, 0) FROM event_log WHERE topic = $1;`
)

func (l *Log) Subscribe(ctx context.Context, topic string, from int64, h eventlog.Handler, opts ...eventlog.SubscribeOption) error {
	o := eventlog.NewSubscribeOptions(opts...)
	next := max(from, eventlog.FirstOffset)
	for {
		batch, err := l.read(ctx, topic, next)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logging.LogError("event_log read failed", err, logrus.Fields{"topic": topic, "offset": next})
			if !wait(ctx, l.poll) {
				return nil
			}
			continue
		}

		for _, msg := range batch {
			if err := h(ctx, msg); err != nil {
				logging.LogError("event_log handler failed, skipping", err, logrus.Fields{"topic": topic, "offset": msg.Offset})
			}
			next = msg.Offset + 1
		}

		if len(batch) < l.batch {
			o.CaughtUp()
			if !wait(ctx, l.poll) {
				return nil
			}
		}
	}
}

func (l *Log) read(ctx context.Context, topic string, from int64) ([]eventlog.Message, error) {
	rows, err := l.pool.Query(ctx, qRead, topic, from, l.batch)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]eventlog.Message, 0, l.batch)
	for rows.Next() {
		var (
			msg     = eventlog.Message{Topic: topic, Partition: eventlog.Partition}
			headers []byte
			created time.Time
		)
		if err := rows.Scan(&msg.Offset, &msg.Key, &msg.Value, &headers, &created); err != nil {
			return nil, err
		}
		if len(headers) > 0 {
			if err := json.Unmarshal(headers, &msg.Headers); err != nil {
				logging.LogError("event_log headers undecodable", err, logrus.Fields{"topic": topic, "offset": msg.Offset})
			}
		}
		msg.Time = created.UTC()
		out = append(out, msg)
	}
	return out, rows.Err()
}

func (l *Log) Tail(ctx context.Context, topic string) (int64, error) {
	var tail int64
	if err := l.pool.QueryRow(ctx, qTail, topic).Scan(&tail); err != nil {
		return 0, err
	}
	return tail, nil
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
