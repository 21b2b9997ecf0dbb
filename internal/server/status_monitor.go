package server

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mustafaesen111/esentrader-boru-api-v2/internal/clients/ibkr"
	"github.com/mustafaesen111/esentrader-boru-api-v2/internal/events"
)

// StatusMonitor periodically probes the broker gateway and emits a
// BrokerStatusChanged event when connectivity flips.
type StatusMonitor struct {
	bus          *events.Bus
	brokerClient *ibkr.Client
	log          zerolog.Logger

	mu            sync.Mutex
	lastConnected *bool
	stopCh        chan struct{}
	doneCh        chan struct{}
	running       bool
}

// NewStatusMonitor creates a broker status monitor
func NewStatusMonitor(bus *events.Bus, brokerClient *ibkr.Client, log zerolog.Logger) *StatusMonitor {
	return &StatusMonitor{
		bus:          bus,
		brokerClient: brokerClient,
		log:          log.With().Str("component", "status_monitor").Logger(),
	}
}

// Start begins polling at the given interval. Safe to call once.
func (m *StatusMonitor) Start(interval time.Duration) {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	m.stopCh = make(chan struct{})
	m.doneCh = make(chan struct{})
	m.mu.Unlock()

	go m.loop(interval)
	m.log.Info().Dur("interval", interval).Msg("Status monitor started")
}

// Stop halts polling and waits for the loop to exit
func (m *StatusMonitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	close(m.stopCh)
	done := m.doneCh
	m.mu.Unlock()

	<-done
	m.log.Info().Msg("Status monitor stopped")
}

func (m *StatusMonitor) loop(interval time.Duration) {
	defer close(m.doneCh)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.check()
	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.check()
		}
	}
}

// check probes the gateway once and emits on connectivity transitions
func (m *StatusMonitor) check() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	connected := m.brokerClient.IsConnected(ctx)

	m.mu.Lock()
	changed := m.lastConnected == nil || *m.lastConnected != connected
	m.lastConnected = &connected
	m.mu.Unlock()

	if !changed {
		return
	}

	m.log.Info().Bool("connected", connected).Msg("Broker connectivity changed")
	if m.bus != nil {
		m.bus.Emit(events.BrokerStatusChanged, "status_monitor", map[string]interface{}{
			"connected": connected,
		})
	}
}
