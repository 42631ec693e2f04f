package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reybrally/cart-service/internal/app/eventlog"
)

func TestWaitReturnsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	assert.False(t, wait(ctx, time.Minute))
	assert.Less(t, time.Since(start), time.Second)

	assert.True(t, wait(context.Background(), time.Millisecond))
}

func TestSubscribeWithoutBrokersFails(t *testing.T) {
	c := NewConsumer(ConsumerConfig{})
	t.Cleanup(func() { _ = c.Close() })

	caughtUp := false
	err := c.Subscribe(context.Background(), "PRODUCT_ADD", eventlog.FirstOffset,
		func(context.Context, eventlog.Message) error { return nil },
		eventlog.OnCaughtUp(func() { caughtUp = true }))

	require.Error(t, err)
	assert.False(t, caughtUp)
}
