package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	BackendKafka    = "kafka"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

type App struct {
	Env                string `env:"APP_ENV" envDefault:"dev"`
	LogLevel           string `env:"LOG_LEVEL" envDefault:"info"`
	PlaceholderProduct string `env:"PLACEHOLDER_PRODUCT" envDefault:"testing"`
}

type HTTP struct {
	Port           string        `env:"PORT" envDefault:"3000"`
	RequestTimeout time.Duration `env:"HTTP_REQUEST_TIMEOUT" envDefault:"5s"`
}

type EventLog struct {
	Backend        string        `env:"EVENT_LOG_BACKEND" envDefault:"kafka"`
	Producer       string        `env:"EVENT_PRODUCER" envDefault:"cart-service"`
	PublishRetries int           `env:"PUBLISH_RETRIES" envDefault:"3"`
	PublishBackoff time.Duration `env:"PUBLISH_BACKOFF" envDefault:"100ms"`
	PollInterval   time.Duration `env:"EVENT_LOG_POLL_INTERVAL" envDefault:"250ms"`
	BatchSize      int           `env:"EVENT_LOG_BATCH_SIZE" envDefault:"500"`
}

type Kafka struct {
	Brokers    []string      `env:"KAFKA_BROKERS" envSeparator:"," envDefault:"localhost:9092"`
	ClientID   string        `env:"KAFKA_CLIENT_ID" envDefault:"cart-service"`
	MaxWait    time.Duration `env:"KAFKA_MAX_WAIT" envDefault:"100ms"`
	MaxRetries int           `env:"KAFKA_HANDLER_RETRIES" envDefault:"5"`
	Backoff    time.Duration `env:"KAFKA_HANDLER_BACKOFF" envDefault:"200ms"`
	IdleWait   time.Duration `env:"KAFKA_IDLE_WAIT" envDefault:"2s"`
}

type Redis struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	Prefix   string `env:"REDIS_PREFIX" envDefault:"cart-events:"`
}

type DB struct {
	URL      string `env:"DATABASE_URL"`
	Host     string `env:"DB_HOST" envDefault:"127.0.0.1"`
	Port     string `env:"DB_PORT" envDefault:"55432"`
	Name     string `env:"DB_NAME" envDefault:"carts_db"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD" envDefault:"postgres"`
	SSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`
}

// DSN prefers DATABASE_URL over the individual DB_* settings.
func (d DB) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

type Carts struct {
	ApplyRemovals  bool          `env:"CART_APPLY_REMOVALS" envDefault:"false"`
	DedupeCapacity int           `env:"CART_DEDUPE_CAPACITY" envDefault:"10000"`
	StatsInterval  time.Duration `env:"CART_STATS_INTERVAL" envDefault:"1m"`
}

type Config struct {
	App      App
	HTTP     HTTP
	EventLog EventLog
	Kafka    Kafka
	Redis    Redis
	DB       DB
	Carts    Carts
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	switch cfg.EventLog.Backend {
	case BackendKafka, BackendRedis, BackendPostgres, BackendMemory:
	default:
		return Config{}, fmt.Errorf("unknown EVENT_LOG_BACKEND %q", cfg.EventLog.Backend)
	}
	return cfg, nil
}
