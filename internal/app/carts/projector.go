package carts

import (
	"sync"

	"github.com/reybrally/cart-service/internal/domain/cart"
)

// Projector holds the view of one cart. Items are written only by the
// router delivering events for that cart; reads take a snapshot.
type Projector struct {
	id    string
	ready <-chan struct{}

	mu    sync.RWMutex
	items []cart.Product
}

func newProjector(id string, ready <-chan struct{}) *Projector {
	return &Projector{id: id, ready: ready, items: []cart.Product{}}
}

func (p *Projector) ID() string { return p.id }

// Items returns a copy of the products folded so far, in log order.
func (p *Projector) Items() []cart.Product {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]cart.Product, len(p.items))
	copy(out, p.items)
	return out
}

// State is subscribing until the shared subscription has replayed the
// log up to where it stood at startup, live afterwards.
func (p *Projector) State() string {
	select {
	case <-p.ready:
		return cart.StateLive
	default:
		return cart.StateSubscribing
	}
}

func (p *Projector) View() cart.View {
	return cart.View{CartID: p.id, Items: p.Items(), State: p.State()}
}

func (p *Projector) apply(f Fold, product cart.Product) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items = f(p.items, product)
}
