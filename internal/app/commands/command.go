package commands

import "github.com/reybrally/cart-service/internal/domain/cart"

// Kind discriminates commands. It doubles as the topic the resulting event
// is published to.
type Kind string

const (
	KindProductAdd    Kind = "PRODUCT_ADD"
	KindProductRemove Kind = "PRODUCT_REMOVE"
)

func (k Kind) Topic() string { return string(k) }

type Command interface {
	Kind() Kind
}

// ProductCommand is implemented by every command that targets a single
// product of a single cart.
type ProductCommand interface {
	Command
	Target() (cartID string, product cart.Product)
}

type ProductAdd struct {
	CartID  string
	Product cart.Product
}

func (ProductAdd) Kind() Kind { return KindProductAdd }

func (c ProductAdd) Target() (string, cart.Product) { return c.CartID, c.Product }

type ProductRemove struct {
	CartID  string
	Product cart.Product
}

func (ProductRemove) Kind() Kind { return KindProductRemove }

func (c ProductRemove) Target() (string, cart.Product) { return c.CartID, c.Product }
