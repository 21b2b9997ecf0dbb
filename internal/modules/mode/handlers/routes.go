package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers admin mode routes
func (h *ModeHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/admin/mode", func(r chi.Router) {
		r.Get("/", h.HandleGetMode)
		r.Post("/", h.HandleSetMode)
	})
}
