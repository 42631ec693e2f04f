package commands

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reybrally/cart-service/internal/app/eventlog"
	"github.com/reybrally/cart-service/internal/domain/cart"
)

type published struct {
	topic string
	rec   eventlog.Record
}

// stubPublisher fails the first failures calls, then records.
type stubPublisher struct {
	mu       sync.Mutex
	failures int
	calls    int
	out      []published
}

func (p *stubPublisher) Publish(_ context.Context, topic string, rec eventlog.Record) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.failures > 0 {
		p.failures--
		return errors.New("broker unavailable")
	}
	p.out = append(p.out, published{topic: topic, rec: rec})
	return nil
}

func fixedHandler(kind Kind, pub eventlog.Publisher, cfg HandlerConfig) *ProductHandler {
	h := NewProductHandler(kind, pub, cfg)
	h.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	h.newID = func() string { return "evt-1" }
	return h
}

func TestProductAddHandlerAccepts(t *testing.T) {
	h := NewProductAddHandler(&stubPublisher{}, HandlerConfig{})

	assert.True(t, h.Accepts(ProductAdd{CartID: "1"}))
	assert.False(t, h.Accepts(ProductRemove{CartID: "1"}))
	assert.False(t, h.Accepts(nil))
}

func TestProductHandlerPublishesToKindTopic(t *testing.T) {
	pub := &stubPublisher{}
	h := fixedHandler(KindProductAdd, pub, HandlerConfig{Producer: "cart-service"})

	err := h.Handle(context.Background(), ProductAdd{CartID: "7", Product: cart.Product{Name: "widget"}})
	require.NoError(t, err)

	require.Len(t, pub.out, 1)
	got := pub.out[0]
	assert.Equal(t, "PRODUCT_ADD", got.topic)
	assert.Equal(t, []byte("7"), got.rec.Key)
	assert.JSONEq(t, `{"cartId":"7","product":{"name":"widget"}}`, string(got.rec.Value))
	assert.Equal(t, "evt-1", got.rec.Headers[eventlog.HeaderEventID])
	assert.Equal(t, "PRODUCT_ADD", got.rec.Headers[eventlog.HeaderEventKind])
	assert.Equal(t, "2026-01-02T03:04:05Z", got.rec.Headers[eventlog.HeaderOccurredAt])
	assert.Equal(t, "cart-service", got.rec.Headers[eventlog.HeaderProducer])
}

func TestProductRemoveHandlerTopic(t *testing.T) {
	pub := &stubPublisher{}
	h := NewProductRemoveHandler(pub, HandlerConfig{})

	require.NoError(t, h.Handle(context.Background(), ProductRemove{CartID: "7", Product: cart.Product{Name: "widget"}}))
	require.Len(t, pub.out, 1)
	assert.Equal(t, "PRODUCT_REMOVE", pub.out[0].topic)
}

func TestProductHandlerRetriesWithSameEventID(t *testing.T) {
	pub := &stubPublisher{failures: 2}
	h := NewProductAddHandler(pub, HandlerConfig{Retries: 2, Backoff: time.Millisecond})

	require.NoError(t, h.Handle(context.Background(), ProductAdd{CartID: "1", Product: cart.Product{Name: "a"}}))
	assert.Equal(t, 3, pub.calls)
	require.Len(t, pub.out, 1)
	assert.NotEmpty(t, pub.out[0].rec.Headers[eventlog.HeaderEventID])
}

func TestProductHandlerReturnsRetryableFailure(t *testing.T) {
	pub := &stubPublisher{failures: 10}
	h := NewProductAddHandler(pub, HandlerConfig{Retries: 1, Backoff: time.Millisecond})

	err := h.Handle(context.Background(), ProductAdd{CartID: "1", Product: cart.Product{Name: "a"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPublishFailed))
	assert.Contains(t, err.Error(), "broker unavailable")
	assert.Equal(t, 2, pub.calls)
}

func TestProductHandlerStopsOnCancelledContext(t *testing.T) {
	pub := &stubPublisher{failures: 10}
	h := NewProductAddHandler(pub, HandlerConfig{Retries: 5, Backoff: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := h.Handle(ctx, ProductAdd{CartID: "1"})
	assert.True(t, errors.Is(err, ErrPublishFailed))
	assert.Equal(t, 1, pub.calls)
}

type notAProduct struct{}

func (notAProduct) Kind() Kind { return KindProductAdd }

func TestProductHandlerRejectsForeignCommand(t *testing.T) {
	h := NewProductAddHandler(&stubPublisher{}, HandlerConfig{})

	err := h.Handle(context.Background(), notAProduct{})
	assert.True(t, errors.Is(err, ErrNotProduct))
}
