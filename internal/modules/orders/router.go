package orders

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mustafaesen111/esentrader-boru-api-v2/internal/domain"
	"github.com/mustafaesen111/esentrader-boru-api-v2/internal/events"
)

// RouteResult is the acknowledgement returned for every accepted signal.
// Demo mirrors the live flag: a signal routed without live dispatch is a
// demo acknowledgement.
type RouteResult struct {
	OK         bool                 `json:"ok"`
	Demo       bool                 `json:"demo"`
	Live       bool                 `json:"live"`
	Order      domain.JournalRecord `json:"order"`
	IBKRResult interface{}          `json:"ibkr_result,omitempty"`
}

// Router routes normalized order intents through the journal, the broker
// and the copy engine. Each step is fault-isolated: a journal write
// failure, a broker refusal or a copy-engine error degrades the response
// but never turns an accepted signal into a request failure.
type Router struct {
	journal *Journal
	broker  domain.BrokerClient
	copier  domain.CopyDistributor
	bus     *events.Bus
	log     zerolog.Logger
}

// NewRouter creates an order router
func NewRouter(journal *Journal, broker domain.BrokerClient, copier domain.CopyDistributor, bus *events.Bus, log zerolog.Logger) *Router {
	return &Router{
		journal: journal,
		broker:  broker,
		copier:  copier,
		bus:     bus,
		log:     log.With().Str("component", "order_router").Logger(),
	}
}

// Route processes one normalized intent. When live is true and the intent
// resolves to a broker account the order is dispatched; otherwise it is
// journaled and fanned out only.
func (r *Router) Route(ctx context.Context, intent domain.OrderIntent, live bool) RouteResult {
	intent.AccountID = ResolveAccount(intent.Portfolio, intent.AccountID)

	dispatch := live && intent.AccountID != nil
	if live && intent.AccountID == nil {
		r.log.Warn().
			Str("portfolio", intent.Portfolio).
			Str("symbol", intent.Symbol).
			Msg("No account for portfolio, live dispatch disabled for this order")
	}

	record := domain.JournalRecord{
		ID:          uuid.New().String(),
		OrderIntent: intent,
		Live:        dispatch,
	}

	if err := r.journal.Append(record); err != nil {
		// Persistence trouble must not reject an accepted signal
		r.log.Error().Err(err).Str("order_id", record.ID).Msg("Failed to journal order")
		if r.bus != nil {
			r.bus.EmitError("orders", err, map[string]interface{}{
				"order_id": record.ID,
				"symbol":   intent.Symbol,
			})
		}
	}

	var ibkrResult interface{}
	if dispatch {
		result, err := r.broker.PlaceOrder(ctx, intent)
		if err != nil {
			r.log.Error().Err(err).Str("order_id", record.ID).Msg("Broker dispatch failed")
			ibkrResult = map[string]interface{}{"ok": false, "error": err.Error()}
		} else {
			ibkrResult = result
			r.emit(events.TradeExecuted, map[string]interface{}{
				"order_id": record.ID,
				"symbol":   intent.Symbol,
				"side":     string(intent.Side),
			})
		}
	}

	event := r.buildMasterTradeEvent(record)
	if r.copier != nil {
		if _, err := r.copier.Distribute(event); err != nil {
			r.log.Error().Err(err).Str("order_id", record.ID).Msg("Copy distribution failed")
		}
	}

	r.emit(events.OrderRouted, map[string]interface{}{
		"order_id":  record.ID,
		"symbol":    intent.Symbol,
		"side":      string(intent.Side),
		"live":      dispatch,
		"portfolio": intent.Portfolio,
	})

	return RouteResult{
		OK:         true,
		Demo:       !dispatch,
		Live:       dispatch,
		Order:      record,
		IBKRResult: ibkrResult,
	}
}

// buildMasterTradeEvent converts a journaled order into the copy-engine
// fan-out record
func (r *Router) buildMasterTradeEvent(record domain.JournalRecord) domain.MasterTradeEvent {
	return domain.MasterTradeEvent{
		EventType:     "MASTER_TRADE",
		OrderID:       record.ID,
		MasterTradeID: uuid.New().String(),
		Symbol:        record.Symbol,
		Side:          record.Side,
		Qty:           record.Quantity,
		USDAmount:     record.USDAmount,
		Source:        record.Source,
		Strategy:      record.Portfolio,
		SignalID:      record.SignalID,
		TS:            record.Timestamp,
	}
}

func (r *Router) emit(eventType events.EventType, data map[string]interface{}) {
	if r.bus != nil {
		r.bus.Emit(eventType, "orders", data)
	}
}
