package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mustafaesen111/esentrader-boru-api-v2/internal/domain"
	"github.com/mustafaesen111/esentrader-boru-api-v2/internal/modules/orders"
)

type stubBroker struct{}

func (s *stubBroker) Status(ctx context.Context) (*domain.BrokerResult, error)    { return nil, nil }
func (s *stubBroker) Positions(ctx context.Context) (*domain.BrokerResult, error) { return nil, nil }
func (s *stubBroker) Account(ctx context.Context) (*domain.BrokerResult, error)   { return nil, nil }
func (s *stubBroker) PlaceOrder(ctx context.Context, intent domain.OrderIntent) (*domain.BrokerResult, error) {
	return &domain.BrokerResult{Status: 200, Body: json.RawMessage(`{"order_id":"1"}`)}, nil
}

type stubCopier struct{}

func (s *stubCopier) Distribute(event domain.MasterTradeEvent) (*domain.DistributionResult, error) {
	return &domain.DistributionResult{Event: event}, nil
}

func newTestAPI(t *testing.T, live bool) (*chi.Mux, *orders.Journal) {
	t.Helper()

	journal := orders.NewJournal(t.TempDir(), zerolog.Nop())
	router := orders.NewRouter(journal, &stubBroker{}, &stubCopier{}, nil, zerolog.Nop())
	h := NewOrderHandlers(router, journal, live, zerolog.Nop())

	mux := chi.NewRouter()
	mux.Route("/api", func(r chi.Router) {
		h.RegisterRoutes(r)
	})
	mux.Route("/admin/api", func(r chi.Router) {
		h.RegisterAdminRoutes(r)
	})
	return mux, journal
}

func postJSON(t *testing.T, mux *chi.Mux, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestHandleOrderNormalizesAndRoutes(t *testing.T) {
	mux, journal := newTestAPI(t, false)

	rec := postJSON(t, mux, "/api/order", `{"symbol":"aapl","side":"buy","usd_amount":500,"strategy":"growth"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var result struct {
		OK    bool                 `json:"ok"`
		Demo  bool                 `json:"demo"`
		Order domain.JournalRecord `json:"order"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))

	assert.True(t, result.OK)
	assert.True(t, result.Demo)
	assert.Equal(t, "AAPL", result.Order.Symbol)
	assert.Equal(t, domain.SideBuy, result.Order.Side)
	require.NotNil(t, result.Order.AccountID)
	assert.Equal(t, "DU7654321", *result.Order.AccountID)

	records, err := journal.ReadRecent(10)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestHandleOrderLegacyPaths(t *testing.T) {
	mux, journal := newTestAPI(t, false)

	for _, path := range []string{"/api/ibkr/order", "/api/ibkr/place_order"} {
		rec := postJSON(t, mux, path, `{"symbol":"MSFT","side":"sell","qty":1}`)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	records, err := journal.ReadRecent(10)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestHandleOrderMissingSymbolLeavesJournalUntouched(t *testing.T) {
	mux, journal := newTestAPI(t, false)

	rec := postJSON(t, mux, "/api/order", `{"side":"buy","usd_amount":500}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok":false`)

	records, err := journal.ReadRecent(10)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestHandleOrderInvalidSide(t *testing.T) {
	mux, _ := newTestAPI(t, false)

	rec := postJSON(t, mux, "/api/order", `{"symbol":"AAPL","side":"hold"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleOrderInvalidJSON(t *testing.T) {
	mux, _ := newTestAPI(t, false)

	rec := postJSON(t, mux, "/api/order", `{symbol`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleOrderLiveDispatch(t *testing.T) {
	mux, _ := newTestAPI(t, true)

	rec := postJSON(t, mux, "/api/order", `{"symbol":"AAPL","side":"buy","usd_amount":500,"portfolio":"growth"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"live":true`)
	assert.Contains(t, rec.Body.String(), `"ibkr_result"`)
}

func TestHandleHistoryReturnsNewestFirst(t *testing.T) {
	mux, _ := newTestAPI(t, false)

	postJSON(t, mux, "/api/order", `{"symbol":"AAPL","side":"buy","usd_amount":100}`)
	postJSON(t, mux, "/api/order", `{"symbol":"MSFT","side":"sell","qty":2}`)

	req := httptest.NewRequest(http.MethodGet, "/admin/api/history", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		OK     bool                   `json:"ok"`
		Count  int                    `json:"count"`
		Orders []domain.JournalRecord `json:"orders"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.True(t, body.OK)
	assert.Equal(t, 2, body.Count)
	require.Len(t, body.Orders, 2)
}

func TestHandleHistoryLimit(t *testing.T) {
	mux, _ := newTestAPI(t, false)

	for i := 0; i < 5; i++ {
		postJSON(t, mux, "/api/order", `{"symbol":"AAPL","side":"buy","usd_amount":100}`)
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/api/history?limit=3", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	var body struct {
		Orders []domain.JournalRecord `json:"orders"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Orders, 3)
}
