package carts

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/reybrally/cart-service/internal/app/eventlog"
	"github.com/reybrally/cart-service/internal/domain/cart"
	"github.com/reybrally/cart-service/internal/logging"
)

// SeenSet remembers event ids. Seen reports whether id was recorded before
// and records it otherwise.
type SeenSet interface {
	Seen(id string) bool
}

type RouterConfig struct {
	// Dedupe drops redelivered events by id. Nil disables id dedupe;
	// offset dedupe is always on.
	Dedupe        SeenSet
	StatsInterval time.Duration
}

// Router replays every folded topic once from the first offset and fans
// the events out to projectors by cart id.
type Router struct {
	sub eventlog.Subscriber
	reg *Registry
	cfg RouterConfig

	routed  atomic.Int64
	skipped atomic.Int64
}

func NewRouter(sub eventlog.Subscriber, reg *Registry, cfg RouterConfig) *Router {
	return &Router{sub: sub, reg: reg, cfg: cfg}
}

// Run blocks until ctx is cancelled or a subscription fails for good.
func (rt *Router) Run(ctx context.Context) error {
	topics := rt.reg.Topics()

	var pending atomic.Int32
	pending.Store(int32(len(topics)))
	caughtUp := func() {
		if pending.Add(-1) == 0 {
			rt.reg.markLive()
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, topic := range topics {
		g.Go(func() error { return rt.follow(gctx, topic, caughtUp) })
	}
	if rt.cfg.StatsInterval > 0 {
		g.Go(func() error {
			rt.reportStats(gctx)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logging.LogError("cart router stopped", err, logrus.Fields{"topics": topics})
		return err
	}
	logging.LogInfo("cart router exited gracefully", logrus.Fields{"topics": topics})
	return nil
}

func (rt *Router) follow(ctx context.Context, topic string, caughtUp func()) error {
	tail, err := rt.sub.Tail(ctx, topic)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("tail %s: %w", topic, err)
	}

	logging.LogInfo("cart router subscribing", logrus.Fields{"topic": topic, "from": eventlog.FirstOffset, "tail": tail})

	last := eventlog.FirstOffset - 1
	handle := func(_ context.Context, msg eventlog.Message) error {
		if msg.Offset <= last {
			rt.skipped.Add(1)
			logging.LogDebug("redelivered offset skipped", logrus.Fields{"topic": topic, "offset": msg.Offset})
			return nil
		}
		last = msg.Offset
		rt.route(topic, msg)
		return nil
	}
	// reported by the backend, which also counts offsets it never delivered
	var once sync.Once
	replayed := func() {
		once.Do(func() {
			logging.LogInfo("cart topic replayed", logrus.Fields{"topic": topic, "tail": tail, "last_offset": last})
			caughtUp()
		})
	}
	err = rt.sub.Subscribe(ctx, topic, eventlog.FirstOffset, handle, eventlog.OnCaughtUp(replayed))
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}
	return nil
}

// route never fails: a bad event is logged and the subscription moves on.
func (rt *Router) route(topic string, msg eventlog.Message) {
	fields := logrus.Fields{"topic": topic, "offset": msg.Offset}
	defer func() {
		if r := recover(); r != nil {
			rt.skipped.Add(1)
			logging.LogError("cart event fold panicked", fmt.Errorf("%v", r), fields)
		}
	}()

	if id := msg.Headers[eventlog.HeaderEventID]; id != "" && rt.cfg.Dedupe != nil && rt.cfg.Dedupe.Seen(id) {
		rt.skipped.Add(1)
		logging.LogDebug("duplicate event skipped", logrus.Fields{"topic": topic, "offset": msg.Offset, "event_id": id})
		return
	}

	ev, err := cart.UnmarshalProductEvent(msg.Value)
	if err != nil {
		rt.skipped.Add(1)
		logging.LogError("cart event skipped", err, fields)
		return
	}
	if rt.reg.deliver(topic, ev) {
		rt.routed.Add(1)
		logging.LogDebug("cart event applied", logrus.Fields{"topic": topic, "offset": msg.Offset, "cart_id": ev.CartID})
	}
}

func (rt *Router) reportStats(ctx context.Context) {
	t := time.NewTicker(rt.cfg.StatsInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			routed, skipped := rt.Stats()
			logging.LogInfo("cart registry stats", logrus.Fields{
				"carts":   rt.reg.Len(),
				"routed":  routed,
				"skipped": skipped,
				"live":    rt.reg.Live(),
			})
		}
	}
}

// Stats returns the number of applied and skipped events so far.
func (rt *Router) Stats() (routed, skipped int64) {
	return rt.routed.Load(), rt.skipped.Load()
}
