package services

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/reybrally/cart-service/internal/app/carts"
	"github.com/reybrally/cart-service/internal/app/commands"
	"github.com/reybrally/cart-service/internal/domain/cart"
	"github.com/reybrally/cart-service/internal/logging"
)

var ErrInvalidCartID = errors.New("cart id is required")

type Dispatcher interface {
	Dispatch(ctx context.Context, cmd commands.Command) error
}

type CartService struct {
	bus   Dispatcher
	carts *carts.Registry
}

func NewCartService(bus Dispatcher, registry *carts.Registry) *CartService {
	return &CartService{bus: bus, carts: registry}
}

func (serv *CartService) AddProduct(ctx context.Context, cartID string, p cart.Product) error {
	cartID, p, err := normalize(cartID, p)
	if err != nil {
		return err
	}
	return serv.dispatch(ctx, cartID, commands.ProductAdd{CartID: cartID, Product: p})
}

func (serv *CartService) RemoveProduct(ctx context.Context, cartID string, p cart.Product) error {
	cartID, p, err := normalize(cartID, p)
	if err != nil {
		return err
	}
	return serv.dispatch(ctx, cartID, commands.ProductRemove{CartID: cartID, Product: p})
}

// dispatch references the cart only once its event is in the log, so a
// failed command leaves an unknown cart absent.
func (serv *CartService) dispatch(ctx context.Context, cartID string, cmd commands.Command) error {
	if err := serv.bus.Dispatch(ctx, cmd); err != nil {
		return err
	}
	serv.carts.GetOrCreate(cartID)
	return nil
}

// GetCart never fails for an unknown cart: it returns an empty view in
// state absent.
func (serv *CartService) GetCart(_ context.Context, cartID string) (cart.View, error) {
	cartID = NormalizeCartID(cartID)
	if cartID == "" {
		return cart.View{}, ErrInvalidCartID
	}
	p, ok := serv.carts.Lookup(cartID)
	if !ok {
		logging.LogDebug("cart not referenced yet", logrus.Fields{"cart_id": cartID})
		return cart.EmptyView(cartID), nil
	}
	return p.View(), nil
}

func (serv *CartService) Ready() bool { return serv.carts.Live() }

func normalize(cartID string, p cart.Product) (string, cart.Product, error) {
	cartID = NormalizeCartID(cartID)
	if cartID == "" {
		return "", cart.Product{}, ErrInvalidCartID
	}
	p.Name = NormalizeProductName(p.Name)
	return cartID, p, nil
}
