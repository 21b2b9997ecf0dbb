// Package copytrade fans master trade events out to follower accounts.
//
// The engine currently records and echoes each event without placing
// follower orders: the proportional allocation policy (equity scaling per
// follower) is a separate decision and the Distribute contract is kept
// stable for it.
package copytrade

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/mustafaesen111/esentrader-boru-api-v2/internal/domain"
	"github.com/mustafaesen111/esentrader-boru-api-v2/internal/events"
)

// Follower is a registered copy-trade follower account
type Follower struct {
	AccountID string  `json:"account_id"`
	Name      string  `json:"name,omitempty"`
	Equity    float64 `json:"equity,omitempty"`
}

// Engine implements domain.CopyDistributor over an in-memory follower
// registry.
type Engine struct {
	mu        sync.RWMutex
	followers []Follower
	bus       *events.Bus
	log       zerolog.Logger
}

// NewEngine creates a copy engine
func NewEngine(bus *events.Bus, log zerolog.Logger) *Engine {
	return &Engine{
		bus: bus,
		log: log.With().Str("component", "copy_engine").Logger(),
	}
}

// AddFollower registers a follower account
func (e *Engine) AddFollower(follower Follower) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.followers = append(e.followers, follower)
}

// Followers returns a copy of the registered followers
func (e *Engine) Followers() []Follower {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Follower, len(e.followers))
	copy(out, e.followers)
	return out
}

// Distribute records the master trade event and echoes it back with the
// current follower count. No follower orders are placed yet.
func (e *Engine) Distribute(event domain.MasterTradeEvent) (*domain.DistributionResult, error) {
	e.mu.RLock()
	count := len(e.followers)
	e.mu.RUnlock()

	e.log.Info().
		Str("master_trade_id", event.MasterTradeID).
		Str("symbol", event.Symbol).
		Str("side", string(event.Side)).
		Int("followers", count).
		Msg("Master trade distributed")

	if e.bus != nil {
		e.bus.Emit(events.CopyDistributed, "copytrade", map[string]interface{}{
			"master_trade_id": event.MasterTradeID,
			"order_id":        event.OrderID,
			"symbol":          event.Symbol,
			"side":            string(event.Side),
			"follower_count":  count,
		})
	}

	return &domain.DistributionResult{
		FollowerCount: count,
		Event:         event,
	}, nil
}
