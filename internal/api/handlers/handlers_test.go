package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microcap/papertrade/internal/market"
	"github.com/microcap/papertrade/pkg/logger"
)

type stubProvider struct {
	quotes  map[string]*market.Quote
	results []market.SearchResult
	bars    []market.Bar
}

func (s *stubProvider) GetQuote(ctx context.Context, symbol string) (*market.Quote, error) {
	quote, ok := s.quotes[symbol]
	if !ok {
		return nil, market.ErrUnavailable
	}
	return quote, nil
}

func (s *stubProvider) GetHistoricalData(ctx context.Context, symbol string, days int) ([]market.Bar, error) {
	if s.bars == nil {
		return nil, market.ErrUnavailable
	}
	return s.bars, nil
}

func (s *stubProvider) SearchSymbol(ctx context.Context, query string) ([]market.SearchResult, error) {
	return s.results, nil
}

func stocksRouter(provider market.Provider) http.Handler {
	h := NewStocksHandler(provider, nil, nil, logger.NewNop())
	r := mux.NewRouter()
	r.HandleFunc("/api/stocks/quote/{symbol}", h.GetQuote).Methods("GET")
	r.HandleFunc("/api/stocks/quotes", h.GetQuotes).Methods("POST")
	r.HandleFunc("/api/stocks/search", h.Search).Methods("GET")
	r.HandleFunc("/api/stocks/history/{symbol}", h.GetHistory).Methods("GET")
	return r
}

func TestStocksHandler_GetQuote(t *testing.T) {
	provider := &stubProvider{quotes: map[string]*market.Quote{
		"UPST": {Symbol: "UPST", Name: "Upstart", Price: 72.5},
	}}
	router := stocksRouter(provider)

	t.Run("known symbol", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/stocks/quote/upst", nil))

		require.Equal(t, http.StatusOK, rec.Code)

		var quote market.Quote
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &quote))
		assert.Equal(t, "UPST", quote.Symbol)
		assert.Equal(t, 72.5, quote.Price)
	})

	t.Run("unknown symbol is 404", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/stocks/quote/NOPE", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "NOPE")
	})
}

func TestStocksHandler_GetQuotes(t *testing.T) {
	provider := &stubProvider{quotes: map[string]*market.Quote{
		"UPST": {Symbol: "UPST", Price: 72.5},
		"SOFI": {Symbol: "SOFI", Price: 10.1},
	}}
	router := stocksRouter(provider)

	t.Run("mixes quotes and per-symbol errors", func(t *testing.T) {
		body := strings.NewReader(`{"symbols": ["upst", "SOFI", "NOPE"]}`)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/stocks/quotes", body))

		require.Equal(t, http.StatusOK, rec.Code)

		var payload map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
		assert.Len(t, payload, 3)
		assert.Contains(t, string(payload["NOPE"]), "error")
		assert.Contains(t, string(payload["UPST"]), "72.5")
	})

	t.Run("empty symbol list is 400", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/stocks/quotes", strings.NewReader(`{"symbols": []}`)))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed body is 400", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/stocks/quotes", strings.NewReader("not json")))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestStocksHandler_Search(t *testing.T) {
	provider := &stubProvider{results: []market.SearchResult{
		{Symbol: "UPST", Name: "Upstart", Exchange: "NMS", Type: "EQUITY"},
	}}
	router := stocksRouter(provider)

	t.Run("returns matches with a count", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/stocks/search?q=upstart", nil))

		require.Equal(t, http.StatusOK, rec.Code)

		var payload struct {
			Query   string                `json:"query"`
			Results []market.SearchResult `json:"results"`
			Count   int                   `json:"count"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
		assert.Equal(t, "upstart", payload.Query)
		assert.Equal(t, 1, payload.Count)
	})

	t.Run("missing query is 400", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/stocks/search", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("single-character query short-circuits to empty", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/stocks/search?q=u", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"count":0`)
	})
}

func TestStocksHandler_GetHistory(t *testing.T) {
	provider := &stubProvider{bars: []market.Bar{
		{Date: "2025-08-01", Close: 70},
		{Date: "2025-08-04", Close: 72.5},
	}}
	router := stocksRouter(provider)

	t.Run("returns bars with a count", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/stocks/history/UPST?days=60", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"count":2`)
		assert.Contains(t, rec.Body.String(), `"days":60`)
	})

	t.Run("bad days parameter is 400", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/stocks/history/UPST?days=zero", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("provider failure is 404", func(t *testing.T) {
		empty := stocksRouter(&stubProvider{})
		rec := httptest.NewRecorder()
		empty.ServeHTTP(rec, httptest.NewRequest("GET", "/api/stocks/history/UPST", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestTradeRequestValidation(t *testing.T) {
	tests := []struct {
		name string
		req  TradeRequest
		ok   bool
	}{
		{"valid", TradeRequest{Symbol: "UPST", Shares: 5}, true},
		{"missing symbol", TradeRequest{Shares: 5}, false},
		{"blank symbol", TradeRequest{Symbol: "   ", Shares: 5}, false},
		{"zero shares", TradeRequest{Symbol: "UPST"}, false},
		{"negative shares", TradeRequest{Symbol: "UPST", Shares: -3}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.req.validate()
			if tt.ok {
				assert.Empty(t, msg)
			} else {
				assert.NotEmpty(t, msg)
			}
		})
	}
}

func TestTradesHandler_BadQuote(t *testing.T) {
	// A symbol that cannot be quoted must fail before the ledger is touched,
	// which is why a nil repository is safe here.
	h := NewTradesHandler(nil, &stubProvider{}, logger.NewNop())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/trades/buy", strings.NewReader(`{"symbol": "NOPE", "shares": 1}`))
	h.Buy(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "NOPE")
}
