// Package events provides event management functionality.
package events

import "time"

// EventType represents different event types
type EventType string

const (
	OrderRouted         EventType = "ORDER_ROUTED"
	TradeExecuted       EventType = "TRADE_EXECUTED"
	ModeChanged         EventType = "MODE_CHANGED"
	BrokerStatusChanged EventType = "BROKER_STATUS_CHANGED"
	CopyDistributed     EventType = "COPY_DISTRIBUTED"
	ErrorOccurred       EventType = "ERROR_OCCURRED"
)

// Event represents a system event
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
	Module    string                 `json:"module"`
}
