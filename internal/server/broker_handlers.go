package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/mustafaesen111/esentrader-boru-api-v2/internal/clients/ibkr"
	"github.com/mustafaesen111/esentrader-boru-api-v2/internal/domain"
	"github.com/mustafaesen111/esentrader-boru-api-v2/internal/modules/mode"
)

// BrokerHandlers proxies read-only broker queries through the multi-path
// client and reports failover exhaustion as 502.
type BrokerHandlers struct {
	client    *ibkr.Client
	modeStore *mode.Store
	log       zerolog.Logger
}

// NewBrokerHandlers creates broker proxy handlers
func NewBrokerHandlers(client *ibkr.Client, modeStore *mode.Store, log zerolog.Logger) *BrokerHandlers {
	return &BrokerHandlers{
		client:    client,
		modeStore: modeStore,
		log:       log.With().Str("handler", "broker").Logger(),
	}
}

// RegisterRoutes registers broker proxy routes under /api. The paths are
// registered flat because the order handlers own POST routes under the
// same /ibkr segment.
func (h *BrokerHandlers) RegisterRoutes(r chi.Router) {
	r.Get("/ibkr/status", h.HandleStatus)
	r.Get("/ibkr/positions", h.HandlePositions)
	r.Get("/ibkr/account", h.HandleAccount)
}

// HandleStatus proxies the broker status probe
// GET /api/ibkr/status
func (h *BrokerHandlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	h.proxy(w, r, h.client.Status)
}

// HandlePositions proxies the broker positions query
// GET /api/ibkr/positions
func (h *BrokerHandlers) HandlePositions(w http.ResponseWriter, r *http.Request) {
	h.proxy(w, r, h.client.Positions)
}

// HandleAccount proxies the broker account summary query
// GET /api/ibkr/account
func (h *BrokerHandlers) HandleAccount(w http.ResponseWriter, r *http.Request) {
	h.proxy(w, r, h.client.Account)
}

// proxy runs one broker call and writes the answer. The upstream status is
// preserved: a JSON error from the back-end is the back-end's answer, not
// ours. Only failover exhaustion becomes a 502 here.
func (h *BrokerHandlers) proxy(w http.ResponseWriter, r *http.Request, call func(context.Context) (*domain.BrokerResult, error)) {
	target := h.modeStore.Resolve()

	result, err := call(r.Context())
	if err != nil {
		var aggregated *ibkr.AggregatedError
		if errors.As(err, &aggregated) {
			h.log.Warn().
				Str("mode", string(target.Mode)).
				Str("url", target.BaseURL()).
				Int("paths_tried", len(aggregated.Tried)).
				Msg("All broker paths failed")

			writeJSON(w, http.StatusBadGateway, map[string]interface{}{
				"ok":    false,
				"mode":  string(target.Mode),
				"url":   target.BaseURL(),
				"error": aggregated.Error(),
				"tried": aggregated.Tried,
			})
			return
		}

		h.log.Error().Err(err).Msg("Broker call failed")
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, result.Status, map[string]interface{}{
		"ok":     result.Status < 400,
		"mode":   string(target.Mode),
		"url":    target.BaseURL(),
		"remote": json.RawMessage(result.Body),
	})
}
