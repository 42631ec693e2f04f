package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/reybrally/cart-service/internal/app/commands"
	"github.com/reybrally/cart-service/internal/domain/cart"
	"github.com/reybrally/cart-service/internal/logging"
	"github.com/reybrally/cart-service/internal/services"
)

type CartHandlers struct {
	svc         serviceInterface
	placeholder string
}

type serviceInterface interface {
	AddProduct(ctx context.Context, cartID string, p cart.Product) error
	RemoveProduct(ctx context.Context, cartID string, p cart.Product) error
	GetCart(ctx context.Context, cartID string) (cart.View, error)
	Ready() bool
}

// NewCartHandlers uses placeholder as the product name when a request does
// not name the product.
func NewCartHandlers(svc serviceInterface, placeholder string) *CartHandlers {
	return &CartHandlers{svc: svc, placeholder: placeholder}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorResponse{Error: msg})
}

// writeServiceError maps service errors to status codes.
func writeServiceError(w http.ResponseWriter, err error, fields logrus.Fields) {
	switch {
	case errors.Is(err, services.ErrInvalidCartID):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, commands.ErrUnhandledCommand):
		logging.LogError("command has no handler", err, fields)
		writeError(w, http.StatusNotImplemented, err.Error())
	case errors.Is(err, commands.ErrPublishFailed):
		logging.LogError("event log unavailable", err, fields)
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusServiceUnavailable, "event log unavailable, retry later")
	default:
		logging.LogError("internal server error", err, fields)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
