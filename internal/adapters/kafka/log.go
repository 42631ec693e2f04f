package kafka

import (
	"context"
	"errors"

	"github.com/reybrally/cart-service/internal/app/eventlog"
)

// Log pairs a producer and a consumer into an eventlog.Log.
type Log struct {
	producer Producer
	consumer Consumer
}

func NewLog(pcfg ProducerConfig, ccfg ConsumerConfig) *Log {
	return &Log{producer: NewProducer(pcfg), consumer: NewConsumer(ccfg)}
}

func (l *Log) Publish(ctx context.Context, topic string, rec eventlog.Record) error {
	return l.producer.Publish(ctx, topic, rec)
}

func (l *Log) Subscribe(ctx context.Context, topic string, from int64, h eventlog.Handler, opts ...eventlog.SubscribeOption) error {
	return l.consumer.Subscribe(ctx, topic, from, h, opts...)
}

func (l *Log) Tail(ctx context.Context, topic string) (int64, error) {
	return l.consumer.Tail(ctx, topic)
}

func (l *Log) Close() error {
	return errors.Join(l.consumer.Close(), l.producer.Close())
}
