// Package domain provides core domain models and types.
package domain

import "time"

// Side represents the direction of an order
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// OrderIntent is the canonical, normalized form of an incoming trading
// signal. All downstream components (journal, broker dispatch, copy engine)
// consume this form only; raw webhook payloads never travel past the
// normalizer.
//
// At least one of Quantity or USDAmount is expected to be present for a
// dispatchable order. An unknown portfolio leaves AccountID nil, which
// disables live dispatch but never rejects the signal.
type OrderIntent struct {
	Symbol        string   `json:"symbol"` // always uppercase
	Side          Side     `json:"side"`
	Quantity      *float64 `json:"quantity,omitempty"`
	USDAmount     *float64 `json:"usd_amount,omitempty"`
	TakeProfitPct *float64 `json:"take_profit_pct,omitempty"`
	StopLossPct   *float64 `json:"stop_loss_pct,omitempty"`
	Note          string   `json:"note,omitempty"`
	SignalID      string   `json:"signal_id,omitempty"`
	Source        string   `json:"source"`
	Portfolio     string   `json:"portfolio,omitempty"`
	AccountID     *string  `json:"account_id,omitempty"`
	Timestamp     string   `json:"timestamp"` // RFC3339, UTC
}

// JournalRecord is one line of the append-only order journal
type JournalRecord struct {
	ID string `json:"id"` // uuid
	OrderIntent
	Live bool `json:"live"`
}

// MasterTradeEvent is the fan-out record handed to the copy engine for
// every routed order, regardless of dispatch outcome.
type MasterTradeEvent struct {
	EventType     string   `json:"event_type"` // always "MASTER_TRADE"
	OrderID       string   `json:"order_id"`
	MasterTradeID string   `json:"master_trade_id"`
	Symbol        string   `json:"symbol"`
	Side          Side     `json:"side"`
	Qty           *float64 `json:"qty"`
	Price         *float64 `json:"price"`
	USDAmount     *float64 `json:"usd_amount"`
	Source        string   `json:"source"`
	Strategy      string   `json:"strategy"`
	SignalID      string   `json:"signal_id"`
	TS            string   `json:"ts"` // RFC3339, UTC
}

// Timestamp returns the current time formatted the way all persisted
// records and events expect it.
func Timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
