package carts

import (
	"context"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/reybrally/cart-service/internal/domain/cart"
	"github.com/reybrally/cart-service/internal/logging"
)

// Registry owns every live Projector, at most one per cart id. Projectors
// are created on first reference, either by a request or by the first
// event addressed to the cart, and live as long as the registry.
type Registry struct {
	folds Folds

	mu         sync.Mutex
	projectors map[string]*Projector

	ready     chan struct{}
	readyOnce sync.Once
}

func NewRegistry(folds Folds) *Registry {
	if len(folds) == 0 {
		folds = DefaultFolds()
	}
	return &Registry{
		folds:      folds,
		projectors: make(map[string]*Projector),
		ready:      make(chan struct{}),
	}
}

func (r *Registry) GetOrCreate(id string) *Projector {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.projectors[id]; ok {
		return p
	}
	p := newProjector(id, r.ready)
	r.projectors[id] = p
	logging.LogDebug("cart projector created", logrus.Fields{"cart_id": id, "state": p.State()})
	return p
}

func (r *Registry) Lookup(id string) (*Projector, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projectors[id]
	return p, ok
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.projectors)
}

// Topics returns the folded topics in a stable order.
func (r *Registry) Topics() []string {
	out := make([]string, 0, len(r.folds))
	for t := range r.folds {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) Live() bool {
	select {
	case <-r.ready:
		return true
	default:
		return false
	}
}

func (r *Registry) WaitLive(ctx context.Context) error {
	select {
	case <-r.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Registry) markLive() {
	r.readyOnce.Do(func() {
		close(r.ready)
		logging.LogInfo("cart replay complete", logrus.Fields{"carts": r.Len()})
	})
}

// deliver folds ev into the cart it addresses. It reports false when topic
// has no fold.
func (r *Registry) deliver(topic string, ev cart.ProductEvent) bool {
	f, ok := r.folds[topic]
	if !ok {
		return false
	}
	r.GetOrCreate(ev.CartID).apply(f, ev.Product)
	return true
}
