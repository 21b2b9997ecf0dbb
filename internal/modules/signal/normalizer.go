// Package signal normalizes raw webhook payloads into canonical order
// intents. Upstream signal sources (TradingView alerts, custom scripts,
// the admin panel) disagree on field names, so every recognized alias is
// probed in a fixed order and the first present value wins.
package signal

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mustafaesen111/esentrader-boru-api-v2/internal/domain"
)

var (
	// ErrMissingSymbol is returned when no symbol alias carries a value
	ErrMissingSymbol = errors.New("missing symbol")

	// ErrInvalidSide is returned when the side is absent or not BUY/SELL
	ErrInvalidSide = errors.New("invalid side")

	// ErrMissingSize is returned when neither quantity nor usd_amount
	// carries a positive value
	ErrMissingSize = errors.New("missing quantity or usd_amount")
)

// Alias probe order. The first key with a usable value wins.
var (
	symbolAliases    = []string{"symbol", "ticker", "sym"}
	sideAliases      = []string{"side", "action", "direction"}
	quantityAliases  = []string{"quantity", "qty", "contracts"}
	usdAmountAliases = []string{"usd_amount", "usd", "notional"}
	tpAliases        = []string{"take_profit_pct", "tp_pct"}
	slAliases        = []string{"stop_loss_pct", "sl_pct"}
	noteAliases      = []string{"note", "comment"}
	signalIDAliases  = []string{"signal_id", "alert_id"}
	sourceAliases    = []string{"source", "origin"}
	portfolioAliases = []string{"portfolio", "strategy", "book"}
	accountAliases   = []string{"account_id", "account"}
)

var sideMap = map[string]domain.Side{
	"buy":  domain.SideBuy,
	"sell": domain.SideSell,
}

// Normalize converts a raw payload into a canonical order intent.
// Symbol, side and a positive quantity or usd_amount are mandatory;
// every other field is optional and a malformed optional value is
// treated as absent, never as an error.
func Normalize(payload map[string]interface{}) (domain.OrderIntent, error) {
	symbol := firstString(payload, symbolAliases)
	if symbol == "" {
		return domain.OrderIntent{}, ErrMissingSymbol
	}

	rawSide := firstString(payload, sideAliases)
	side, ok := sideMap[strings.ToLower(rawSide)]
	if !ok {
		return domain.OrderIntent{}, fmt.Errorf("%w: %q", ErrInvalidSide, rawSide)
	}

	source := firstString(payload, sourceAliases)
	if source == "" {
		source = "webhook"
	}

	intent := domain.OrderIntent{
		Symbol:        strings.ToUpper(symbol),
		Side:          side,
		Quantity:      firstPositiveNumber(payload, quantityAliases),
		USDAmount:     firstPositiveNumber(payload, usdAmountAliases),
		TakeProfitPct: firstNumber(payload, tpAliases),
		StopLossPct:   firstNumber(payload, slAliases),
		Note:          firstString(payload, noteAliases),
		SignalID:      firstString(payload, signalIDAliases),
		Source:        source,
		Portfolio:     firstString(payload, portfolioAliases),
		Timestamp:     domain.Timestamp(),
	}

	if intent.Quantity == nil && intent.USDAmount == nil {
		return domain.OrderIntent{}, ErrMissingSize
	}

	if account := firstString(payload, accountAliases); account != "" {
		intent.AccountID = &account
	}

	return intent, nil
}

// firstString returns the first alias whose value is a non-empty string
func firstString(payload map[string]interface{}, aliases []string) string {
	for _, key := range aliases {
		if raw, ok := payload[key]; ok {
			if s, ok := raw.(string); ok {
				if trimmed := strings.TrimSpace(s); trimmed != "" {
					return trimmed
				}
			}
		}
	}
	return ""
}

// parseNumber converts a raw JSON value into a float64. Accepts float64
// (the default JSON decoding), json.Number and numeric strings.
func parseNumber(raw interface{}) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return parsed, true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

// firstNumber returns the first alias carrying a parseable number. Zero
// and negative values are kept; only unparseable values are absent.
func firstNumber(payload map[string]interface{}, aliases []string) *float64 {
	for _, key := range aliases {
		raw, ok := payload[key]
		if !ok || raw == nil {
			continue
		}
		if value, ok := parseNumber(raw); ok {
			return &value
		}
	}
	return nil
}

// firstPositiveNumber returns the first alias carrying a parseable
// positive number. Order sizes must be positive; non-positive values are
// treated as absent.
func firstPositiveNumber(payload map[string]interface{}, aliases []string) *float64 {
	for _, key := range aliases {
		raw, ok := payload[key]
		if !ok || raw == nil {
			continue
		}
		if value, ok := parseNumber(raw); ok && value > 0 {
			return &value
		}
	}
	return nil
}
