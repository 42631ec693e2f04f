package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/reybrally/cart-service/internal/domain/cart"
)

// ProductRequest is the optional body of the product endpoints.
type ProductRequest struct {
	Name string `json:"name"`
}

type MutationResponse struct {
	Message string `json:"message"`
	CartID  string `json:"cartId"`
}

type ProductResponse struct {
	Name string `json:"name"`
}

type CartResponse struct {
	CartID string            `json:"cartId"`
	Items  []ProductResponse `json:"items"`
	State  string            `json:"state"`
}

func ToResponse(v cart.View) CartResponse {
	items := make([]ProductResponse, 0, len(v.Items))
	for _, p := range v.Items {
		items = append(items, ProductResponse{Name: p.Name})
	}
	return CartResponse{CartID: v.CartID, Items: items, State: v.State}
}

// decodeProduct reads an optional ProductRequest. An empty body yields the
// zero value.
func decodeProduct(w http.ResponseWriter, r *http.Request) (ProductRequest, error) {
	var req ProductRequest
	if r.Body == nil {
		return req, nil
	}
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return ProductRequest{}, err
	}
	return req, nil
}
