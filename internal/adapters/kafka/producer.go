package kafka

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/reybrally/cart-service/internal/app/eventlog"
)

type Producer interface {
	Publish(ctx context.Context, topic string, rec eventlog.Record) error
	Close() error
}

type ProducerConfig struct {
	Brokers                []string
	ClientID               string
	RequiredAcks           kafka.RequiredAcks
	BatchBytes             int
	BatchTimeout           time.Duration
	Compression            kafka.Compression
	WriteTimeout           time.Duration
	AllowAutoTopicCreation bool
}

type writerProducer struct {
	w *kafka.Writer
}

// NewProducer returns a synchronous producer: Publish returns after the
// broker acknowledged the write with cfg.RequiredAcks.
func NewProducer(cfg ProducerConfig) Producer {
	w := &kafka.Writer{
		Addr: kafka.TCP(cfg.Brokers...),
		// every cart event goes to the one ordered partition
		Balancer: kafka.BalancerFunc(func(kafka.Message, ...int) int {
			return eventlog.Partition
		}),
		RequiredAcks:           cfg.RequiredAcks,
		BatchBytes:             int64(cfg.BatchBytes),
		BatchTimeout:           cfg.BatchTimeout,
		WriteTimeout:           cfg.WriteTimeout,
		Compression:            cfg.Compression,
		Async:                  false,
		AllowAutoTopicCreation: cfg.AllowAutoTopicCreation,
		Transport:              &kafka.Transport{ClientID: cfg.ClientID},
	}
	return &writerProducer{w: w}
}

func (p *writerProducer) Publish(ctx context.Context, topic string, rec eventlog.Record) error {
	return p.w.WriteMessages(ctx, kafka.Message{
		Topic:   topic,
		Key:     rec.Key,
		Value:   rec.Value,
		Headers: toHeaders(rec.Headers),
		Time:    time.Now().UTC(),
	})
}

func (p *writerProducer) Close() error { return p.w.Close() }
