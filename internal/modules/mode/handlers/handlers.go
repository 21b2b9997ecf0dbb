// Package handlers provides HTTP handlers for the admin routing mode.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/mustafaesen111/esentrader-boru-api-v2/internal/modules/mode"
)

// ModeHandlers contains HTTP handlers for the admin mode API
type ModeHandlers struct {
	store *mode.Store
	log   zerolog.Logger
}

// NewModeHandlers creates a new mode handlers instance
func NewModeHandlers(store *mode.Store, log zerolog.Logger) *ModeHandlers {
	return &ModeHandlers{
		store: store,
		log:   log.With().Str("handler", "mode").Logger(),
	}
}

// HandleGetMode returns the current mode and its resolved target
// GET /api/admin/mode
func (h *ModeHandlers) HandleGetMode(w http.ResponseWriter, r *http.Request) {
	target := h.store.Resolve()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":        true,
		"mode":      string(target.Mode),
		"ib_target": target,
	})
}

// HandleSetMode updates the mode
// POST /api/admin/mode with {"mode": "LOCAL"|"VPS"}
func (h *ModeHandlers) HandleSetMode(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Mode string `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	target, err := h.store.Set(body.Mode)
	if err != nil {
		if errors.Is(err, mode.ErrInvalidMode) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error().Err(err).Msg("Failed to persist mode")
		writeError(w, http.StatusInternalServerError, "failed to persist mode")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":        true,
		"mode":      string(target.Mode),
		"ib_target": target,
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
