package market

import (
	"context"
	"errors"
	"fmt"
)

// Quote is the latest market snapshot for a symbol. Quotes are transient;
// nothing in the ledger persists them.
type Quote struct {
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	PreviousClose float64 `json:"previousClose"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
	Volume        int64   `json:"volume"`
	MarketCap     float64 `json:"marketCap,omitempty"`
}

// Bar is a single daily OHLCV bar. Series are ordered oldest first.
type Bar struct {
	Date   string  `json:"date"` // YYYY-MM-DD
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// SearchResult is a single symbol lookup hit
type SearchResult struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Exchange string `json:"exchange"`
	Type     string `json:"type"`
}

// Provider fetches quotes, historical bars and symbol matches.
type Provider interface {
	GetQuote(ctx context.Context, symbol string) (*Quote, error)
	GetHistoricalData(ctx context.Context, symbol string, days int) ([]Bar, error)
	SearchSymbol(ctx context.Context, query string) ([]SearchResult, error)
}

// ErrUnavailable indicates the provider could not produce a quote for the
// requested symbol. Wrapped errors carry the symbol and the cause.
var ErrUnavailable = errors.New("quote unavailable")

// unavailable wraps cause so that errors.Is(err, ErrUnavailable) holds.
func unavailable(symbol string, cause error) error {
	return fmt.Errorf("%w for %s: %v", ErrUnavailable, symbol, cause)
}
