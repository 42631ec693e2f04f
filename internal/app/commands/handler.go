package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/reybrally/cart-service/internal/app/eventlog"
	"github.com/reybrally/cart-service/internal/domain/cart"
	"github.com/reybrally/cart-service/internal/logging"
)

type HandlerConfig struct {
	Producer string
	// Retries is the number of extra publish attempts after the first one.
	Retries int
	Backoff time.Duration
}

// ProductHandler turns a ProductCommand of one kind into a ProductEvent on
// the topic named after that kind.
type ProductHandler struct {
	kind  Kind
	topic string
	pub   eventlog.Publisher
	cfg   HandlerConfig

	now   func() time.Time
	newID func() string
}

func NewProductHandler(kind Kind, pub eventlog.Publisher, cfg HandlerConfig) *ProductHandler {
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	return &ProductHandler{
		kind:  kind,
		topic: kind.Topic(),
		pub:   pub,
		cfg:   cfg,
		now:   func() time.Time { return time.Now().UTC() },
		newID: func() string { return uuid.NewString() },
	}
}

func NewProductAddHandler(pub eventlog.Publisher, cfg HandlerConfig) *ProductHandler {
	return NewProductHandler(KindProductAdd, pub, cfg)
}

func NewProductRemoveHandler(pub eventlog.Publisher, cfg HandlerConfig) *ProductHandler {
	return NewProductHandler(KindProductRemove, pub, cfg)
}

func (h *ProductHandler) Kind() Kind { return h.kind }

func (h *ProductHandler) Accepts(cmd Command) bool {
	return cmd != nil && cmd.Kind() == h.kind
}

func (h *ProductHandler) Handle(ctx context.Context, cmd Command) error {
	pc, ok := cmd.(ProductCommand)
	if !ok {
		return fmt.Errorf("%w: %T", ErrNotProduct, cmd)
	}
	cartID, product := pc.Target()

	body, err := cart.ProductEvent{CartID: cartID, Product: product}.Marshal()
	if err != nil {
		return fmt.Errorf("encode %s event: %w", h.kind, err)
	}
	eventID := h.newID()
	rec := eventlog.Record{
		Key:   []byte(cartID),
		Value: body,
		Headers: map[string]string{
			eventlog.HeaderEventID:    eventID,
			eventlog.HeaderEventKind:  string(h.kind),
			eventlog.HeaderOccurredAt: h.now().Format(time.RFC3339Nano),
			eventlog.HeaderProducer:   h.cfg.Producer,
		},
	}

	// every attempt reuses eventID so the projection can drop duplicates
	var pubErr error
	for attempt := 0; attempt <= h.cfg.Retries; attempt++ {
		pubErr = h.pub.Publish(ctx, h.topic, rec)
		if pubErr == nil {
			logging.LogInfo("event published", logrus.Fields{
				"topic": h.topic, "cart_id": cartID, "event_id": eventID, "attempt": attempt + 1,
			})
			return nil
		}
		if ctx.Err() != nil {
			break
		}
		logging.LogWarn("publish attempt failed", logrus.Fields{
			"topic": h.topic, "cart_id": cartID, "attempt": attempt + 1, "error": pubErr.Error(),
		})
		if attempt < h.cfg.Retries && !sleep(ctx, h.cfg.Backoff*time.Duration(attempt+1)) {
			break
		}
	}

	logging.LogError("event not published", pubErr, logrus.Fields{"topic": h.topic, "cart_id": cartID, "event_id": eventID})
	return fmt.Errorf("%w: topic %s: %w", ErrPublishFailed, h.topic, pubErr)
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
