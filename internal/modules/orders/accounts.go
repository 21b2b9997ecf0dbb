// Package orders routes normalized order intents: journal, broker
// dispatch and copy-trade fan-out.
package orders

// portfolioAccounts maps a portfolio/strategy name to the broker account
// that trades it. Unknown portfolios resolve to nothing, which disables
// live dispatch for the signal but never rejects it.
var portfolioAccounts = map[string]string{
	"growth":   "DU7654321",
	"momentum": "DU7654322",
	"income":   "DU7654323",
}

// ResolveAccount returns the broker account for a portfolio, if any.
// An explicit account on the intent always wins over the table.
func ResolveAccount(portfolio string, explicit *string) *string {
	if explicit != nil && *explicit != "" {
		return explicit
	}
	if account, ok := portfolioAccounts[portfolio]; ok {
		return &account
	}
	return nil
}
