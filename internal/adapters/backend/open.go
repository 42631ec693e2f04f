// Package backend opens the event log selected by configuration.
package backend

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	segmentio "github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/reybrally/cart-service/internal/adapters/kafka"
	"github.com/reybrally/cart-service/internal/adapters/memlog"
	"github.com/reybrally/cart-service/internal/adapters/pglog"
	"github.com/reybrally/cart-service/internal/adapters/redislog"
	"github.com/reybrally/cart-service/internal/app/eventlog"
	"github.com/reybrally/cart-service/internal/config"
	"github.com/reybrally/cart-service/internal/logging"
)

func Open(ctx context.Context, cfg config.Config) (eventlog.Log, error) {
	switch cfg.EventLog.Backend {
	case config.BackendKafka:
		return openKafka(cfg), nil
	case config.BackendRedis:
		return openRedis(ctx, cfg)
	case config.BackendPostgres:
		return openPostgres(ctx, cfg)
	case config.BackendMemory:
		logging.LogWarn("in-memory event log: events are lost on restart", logrus.Fields{})
		return memlog.New(), nil
	default:
		return nil, fmt.Errorf("unknown event log backend %q", cfg.EventLog.Backend)
	}
}

func openKafka(cfg config.Config) eventlog.Log {
	l := kafka.NewLog(kafka.ProducerConfig{
		Brokers:                cfg.Kafka.Brokers,
		ClientID:               cfg.Kafka.ClientID,
		RequiredAcks:           segmentio.RequireAll,
		BatchBytes:             1 << 20,
		BatchTimeout:           10 * time.Millisecond,
		Compression:            segmentio.Snappy,
		WriteTimeout:           5 * time.Second,
		AllowAutoTopicCreation: true,
	}, kafka.ConsumerConfig{
		Brokers:    cfg.Kafka.Brokers,
		ClientID:   cfg.Kafka.ClientID,
		MinBytes:   1,
		MaxBytes:   10 << 20,
		MaxWait:    cfg.Kafka.MaxWait,
		MaxRetries: cfg.Kafka.MaxRetries,
		Backoff:    cfg.Kafka.Backoff,
		IdleWait:   cfg.Kafka.IdleWait,
	})
	logging.LogInfo("kafka event log created", logrus.Fields{"brokers": cfg.Kafka.Brokers, "client_id": cfg.Kafka.ClientID})
	return l
}

func openRedis(ctx context.Context, cfg config.Config) (eventlog.Log, error) {
	l := redislog.New(redislog.Config{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		Prefix:       cfg.Redis.Prefix,
		PollInterval: cfg.EventLog.PollInterval,
		BatchSize:    cfg.EventLog.BatchSize,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := l.Ping(pingCtx); err != nil {
		_ = l.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	logging.LogInfo("redis event log created", logrus.Fields{"addr": cfg.Redis.Addr, "prefix": cfg.Redis.Prefix})
	return l, nil
}

func openPostgres(ctx context.Context, cfg config.Config) (eventlog.Log, error) {
	fields := logrus.Fields{"host": cfg.DB.Host, "port": cfg.DB.Port, "db_name": cfg.DB.Name}
	if cfg.DB.URL != "" {
		fields = logrus.Fields{"source": "DATABASE_URL"}
	}

	pool, err := pgxpool.New(ctx, cfg.DB.DSN())
	if err != nil {
		logging.LogError("pgxpool.New failed", err, fields)
		return nil, err
	}
	l := pglog.New(pool, pglog.Config{PollInterval: cfg.EventLog.PollInterval, BatchSize: cfg.EventLog.BatchSize})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := l.Ping(pingCtx); err != nil {
		logging.LogError("postgres ping failed", err, fields)
		_ = l.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	if err := l.EnsureSchema(ctx); err != nil {
		_ = l.Close()
		return nil, fmt.Errorf("event_log schema: %w", err)
	}
	logging.LogInfo("postgres event log created", fields)
	return l, nil
}
