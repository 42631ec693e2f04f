package pglog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/reybrally/cart-service/internal/app/eventlog"
	"github.com/reybrally/cart-service/internal/logging"
)

// appends to one topic are serialised by a transaction-scoped advisory lock
const (
	qLockTopic = `SELECT pg_advisory_xact_lock(hashtext($1));`

	qAppend = `
INSERT INTO event_log (topic, log_offset, msg_key, msg_value, headers)
SELECT $1, COALESCE(MAX(log_offset) + 1, 0), $2, $3, $4::jsonb
FROM event_log
WHERE topic = $1
RETURNING log_offset;`
)

func (l *Log) Publish(ctx context.Context, topic string, rec eventlog.Record) error {
	headers, err := json.Marshal(rec.Headers)
	if err != nil {
		return fmt.Errorf("encode headers: %w", err)
	}
	if rec.Headers == nil {
		headers = []byte("{}")
	}

	var offset int64
	err = pgx.BeginFunc(ctx, l.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, qLockTopic, topic); err != nil {
			return err
		}
		return tx.QueryRow(ctx, qAppend, topic, rec.Key, rec.Value, string(headers)).Scan(&offset)
	})
	if err != nil {
		logging.LogError("event_log append failed", err, logrus.Fields{"topic": topic})
		return err
	}
	logging.LogDebug("event_log appended", logrus.Fields{"topic": topic, "offset": offset})
	return nil
}
