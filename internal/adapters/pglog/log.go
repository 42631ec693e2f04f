// Package pglog keeps the event log in a Postgres table, one row per entry,
// keyed by topic and a dense per-topic offset.
package pglog

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/reybrally/cart-service/internal/logging"
)

const qSchema = `
CREATE TABLE IF NOT EXISTS event_log (
    topic       TEXT        NOT NULL,
    log_offset  BIGINT      NOT NULL,
    msg_key     BYTEA,
    msg_value   BYTEA       NOT NULL,
    headers     JSONB       NOT NULL DEFAULT '{}'::jsonb,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (topic, log_offset)
);`

type Config struct {
	PollInterval time.Duration
	BatchSize    int
}

type Log struct {
	pool  *pgxpool.Pool
	poll  time.Duration
	batch int
}

func New(pool *pgxpool.Pool, cfg Config) *Log {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 250 * time.Millisecond
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}
	return &Log{pool: pool, poll: cfg.PollInterval, batch: cfg.BatchSize}
}

// EnsureSchema creates the event_log table when it does not exist yet.
func (l *Log) EnsureSchema(ctx context.Context) error {
	if _, err := l.pool.Exec(ctx, qSchema); err != nil {
		logging.LogError("event_log schema failed", err, logrus.Fields{})
		return err
	}
	return nil
}

func (l *Log) Ping(ctx context.Context) error {
	return l.pool.Ping(ctx)
}

func (l *Log) Close() error {
	l.pool.Close()
	return nil
}
