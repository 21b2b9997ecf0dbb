package domain

import (
	"context"
	"encoding/json"
)

// BrokerResult is the raw JSON answer from a broker back-end together with
// the HTTP status it arrived with. The body is passed through to API
// clients untouched.
type BrokerResult struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

// BrokerClient defines broker-agnostic order and account operations.
// This interface abstracts away broker-specific back-ends (IB gateway on
// the local tunnel, IB gateway on the VPS) so the router never deals with
// endpoints directly.
type BrokerClient interface {
	// Status probes broker connectivity
	Status(ctx context.Context) (*BrokerResult, error)

	// Positions returns open positions as reported by the broker
	Positions(ctx context.Context) (*BrokerResult, error)

	// Account returns account summary data
	Account(ctx context.Context) (*BrokerResult, error)

	// PlaceOrder submits a normalized order intent
	PlaceOrder(ctx context.Context, intent OrderIntent) (*BrokerResult, error)
}

// CopyDistributor fans a master trade event out to follower accounts.
// The allocation policy is owned by the implementation; callers only hand
// over the event.
type CopyDistributor interface {
	Distribute(event MasterTradeEvent) (*DistributionResult, error)
}

// DistributionResult reports a copy-engine fan-out
type DistributionResult struct {
	FollowerCount int              `json:"follower_count"`
	Event         MasterTradeEvent `json:"event"`
}
