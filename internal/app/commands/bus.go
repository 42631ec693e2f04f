package commands

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/reybrally/cart-service/internal/logging"
)

type Handler interface {
	Accepts(cmd Command) bool
	Handle(ctx context.Context, cmd Command) error
}

// Bus routes a command to the first registered handler that accepts it.
// Registration order is the priority.
type Bus struct {
	handlers []Handler
}

func NewBus(handlers ...Handler) *Bus {
	hs := make([]Handler, 0, len(handlers))
	for _, h := range handlers {
		if h != nil {
			hs = append(hs, h)
		}
	}
	return &Bus{handlers: hs}
}

func (b *Bus) Dispatch(ctx context.Context, cmd Command) error {
	if cmd == nil {
		return fmt.Errorf("%w: nil command", ErrUnhandledCommand)
	}
	for i, h := range b.handlers {
		if !h.Accepts(cmd) {
			continue
		}
		logging.LogDebug("dispatching command", logrus.Fields{"kind": cmd.Kind(), "handler": i})
		return h.Handle(ctx, cmd)
	}
	logging.LogWarn("no handler accepts command", logrus.Fields{"kind": cmd.Kind()})
	return fmt.Errorf("%w: %s", ErrUnhandledCommand, cmd.Kind())
}

// Kinds lists the kinds declared by registered handlers, in priority order.
func (b *Bus) Kinds() []Kind {
	var out []Kind
	seen := make(map[Kind]bool)
	for _, h := range b.handlers {
		k, ok := h.(interface{ Kind() Kind })
		if !ok || seen[k.Kind()] {
			continue
		}
		seen[k.Kind()] = true
		out = append(out, k.Kind())
	}
	return out
}
