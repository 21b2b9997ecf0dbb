package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers order ingestion routes under /api
func (h *OrderHandlers) RegisterRoutes(r chi.Router) {
	r.Post("/order", h.HandleOrder)
	// Legacy webhook paths kept for older TradingView alert configurations
	r.Post("/ibkr/order", h.HandleOrder)
	r.Post("/ibkr/place_order", h.HandleOrder)
}

// RegisterAdminRoutes registers journal history routes under /admin/api
func (h *OrderHandlers) RegisterAdminRoutes(r chi.Router) {
	r.Get("/history", h.HandleHistory)
}
