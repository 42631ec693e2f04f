package carts

import (
	"github.com/reybrally/cart-service/internal/app/commands"
	"github.com/reybrally/cart-service/internal/domain/cart"
)

// Fold applies one event's product to the current item list.
type Fold func(items []cart.Product, p cart.Product) []cart.Product

func AppendProduct(items []cart.Product, p cart.Product) []cart.Product {
	return append(items, p)
}

// RemoveProduct drops the most recently added item with the same name.
// Removing a product that is not in the cart is a no-op.
func RemoveProduct(items []cart.Product, p cart.Product) []cart.Product {
	for i := len(items) - 1; i >= 0; i-- {
		if items[i].Name == p.Name {
			return append(items[:i:i], items[i+1:]...)
		}
	}
	return items
}

// Folds maps a topic to the fold applied to its events. Topics without a
// fold are not subscribed to.
type Folds map[string]Fold

func DefaultFolds() Folds {
	return Folds{commands.KindProductAdd.Topic(): AppendProduct}
}

func FoldsWithRemovals() Folds {
	f := DefaultFolds()
	f[commands.KindProductRemove.Topic()] = RemoveProduct
	return f
}
