// Package handlers provides HTTP handlers for order ingestion and the
// journal history API.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/mustafaesen111/esentrader-boru-api-v2/internal/modules/orders"
	"github.com/mustafaesen111/esentrader-boru-api-v2/internal/modules/signal"
)

// OrderHandlers contains HTTP handlers for the order API
type OrderHandlers struct {
	router      *orders.Router
	journal     *orders.Journal
	liveTrading bool
	log         zerolog.Logger
}

// NewOrderHandlers creates a new order handlers instance
func NewOrderHandlers(router *orders.Router, journal *orders.Journal, liveTrading bool, log zerolog.Logger) *OrderHandlers {
	return &OrderHandlers{
		router:      router,
		journal:     journal,
		liveTrading: liveTrading,
		log:         log.With().Str("handler", "orders").Logger(),
	}
}

// HandleOrder ingests a raw signal payload, normalizes it and routes it.
// POST /api/order (also mounted at /api/ibkr/order and
// /api/ibkr/place_order for older webhook configurations)
func (h *OrderHandlers) HandleOrder(w http.ResponseWriter, r *http.Request) {
	var payload map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	intent, err := signal.Normalize(payload)
	if err != nil {
		h.log.Warn().Err(err).Msg("Rejected signal")
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result := h.router.Route(r.Context(), intent, h.liveTrading)
	writeJSON(w, http.StatusOK, result)
}

// HandleHistory returns the most recent journal records, newest first.
// GET /admin/api/history?limit=N (capped at 200)
func (h *OrderHandlers) HandleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}

	records, err := h.journal.ReadRecent(limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to read journal")
		writeError(w, http.StatusInternalServerError, "failed to read history")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":     true,
		"count":  len(records),
		"orders": records,
	})
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"ok":    false,
		"error": message,
	})
}
