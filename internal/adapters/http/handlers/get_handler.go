package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/reybrally/cart-service/internal/logging"
)

func (h *CartHandlers) GetCart(w http.ResponseWriter, r *http.Request) {
	cartID := chi.URLParam(r, "cartId")
	fields := logrus.Fields{"method": "GetCart", "cart_id": cartID}

	view, err := h.svc.GetCart(r.Context(), cartID)
	if err != nil {
		writeServiceError(w, err, fields)
		return
	}
	fields["items"] = len(view.Items)
	fields["state"] = view.State
	logging.LogInfo("Cart fetched", fields)
	writeJSON(w, http.StatusOK, ToResponse(view))
}
