package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func Routes(h *CartHandlers, timeout time.Duration) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer, middleware.StripSlashes)
	if timeout > 0 {
		r.Use(middleware.Timeout(timeout))
	}

	r.Get("/health", HealthHandler)
	r.Get("/ready", h.Ready)
	r.Route("/cart/{cartId}", func(r chi.Router) {
		r.Get("/", h.GetCart)
		r.Post("/product/{productId}", h.AddProduct)
		r.Delete("/product/{productId}", h.RemoveProduct)
	})
	return r
}
