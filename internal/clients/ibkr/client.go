package ibkr

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/mustafaesen111/esentrader-boru-api-v2/internal/domain"
)

// Per-operation timeouts. Status probes stay short so the status monitor
// and /api/status never hang; order placement gets the longest window.
const (
	statusTimeout = 2 * time.Second
	dataTimeout   = 5 * time.Second
	orderTimeout  = 10 * time.Second
)

// Candidate path lists, generic path first, legacy broker path second
var (
	statusPaths    = []string{"/api/ibkr/status", "/api/status"}
	positionsPaths = []string{"/api/ibkr/positions", "/api/positions"}
	accountPaths   = []string{"/api/ibkr/account", "/api/account"}
	orderPaths     = []string{"/api/order", "/api/ibkr/place_order"}
)

// Client is the broker capability surface over the multi-path proxy.
// It implements domain.BrokerClient.
type Client struct {
	proxy *Proxy
	log   zerolog.Logger
}

// NewClient creates a broker client resolving its base URL per request
func NewClient(baseURL BaseURLFunc, log zerolog.Logger) *Client {
	return &Client{
		proxy: NewProxy(baseURL, log),
		log:   log.With().Str("client", "ibkr").Logger(),
	}
}

// Status probes broker connectivity
func (c *Client) Status(ctx context.Context) (*domain.BrokerResult, error) {
	return c.call(ctx, http.MethodGet, statusPaths, nil, statusTimeout)
}

// Positions returns open positions as reported by the broker
func (c *Client) Positions(ctx context.Context) (*domain.BrokerResult, error) {
	return c.call(ctx, http.MethodGet, positionsPaths, nil, dataTimeout)
}

// Account returns account summary data
func (c *Client) Account(ctx context.Context) (*domain.BrokerResult, error) {
	return c.call(ctx, http.MethodGet, accountPaths, nil, dataTimeout)
}

// PlaceOrder submits a normalized order intent to the broker back-end
func (c *Client) PlaceOrder(ctx context.Context, intent domain.OrderIntent) (*domain.BrokerResult, error) {
	return c.call(ctx, http.MethodPost, orderPaths, intent, orderTimeout)
}

// IsConnected reports whether a status probe currently succeeds
func (c *Client) IsConnected(ctx context.Context) bool {
	_, err := c.Status(ctx)
	return err == nil
}

func (c *Client) call(ctx context.Context, method string, paths []string, payload interface{}, timeout time.Duration) (*domain.BrokerResult, error) {
	result, err := c.proxy.TryPaths(ctx, method, paths, payload, timeout)
	if err != nil {
		return nil, err
	}
	return &domain.BrokerResult{Status: result.Status, Body: result.Body}, nil
}
