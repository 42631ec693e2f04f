package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/reybrally/cart-service/internal/domain/cart"
	"github.com/reybrally/cart-service/internal/logging"
)

func (h *CartHandlers) AddProduct(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "AddProduct", h.svc.AddProduct)
}

func (h *CartHandlers) RemoveProduct(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "RemoveProduct", h.svc.RemoveProduct)
}

type mutation func(ctx context.Context, cartID string, p cart.Product) error

func (h *CartHandlers) mutate(w http.ResponseWriter, r *http.Request, method string, apply mutation) {
	cartID := chi.URLParam(r, "cartId")
	productID := chi.URLParam(r, "productId")
	fields := logrus.Fields{"method": method, "cart_id": cartID, "product_id": productID}

	req, err := decodeProduct(w, r)
	if err != nil {
		logging.LogError("Error decoding request body", err, fields)
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	name := req.Name
	if name == "" {
		name = h.placeholder
	}

	if err := apply(r.Context(), cartID, cart.Product{Name: name}); err != nil {
		writeServiceError(w, err, fields)
		return
	}

	logging.LogInfo("Cart command accepted", fields)
	writeJSON(w, http.StatusOK, MutationResponse{Message: "done", CartID: cartID})
}
