package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/microcap/papertrade/internal/analysis"
	"github.com/microcap/papertrade/internal/market"
	"github.com/microcap/papertrade/internal/picks"
	"github.com/microcap/papertrade/pkg/logger"
)

// StocksHandler serves market data and analysis endpoints.
type StocksHandler struct {
	provider market.Provider
	engine   *analysis.Engine
	ranker   *picks.Ranker
	logger   *logger.Logger
}

// NewStocksHandler creates a new stocks handler
func NewStocksHandler(provider market.Provider, engine *analysis.Engine, ranker *picks.Ranker, log *logger.Logger) *StocksHandler {
	return &StocksHandler{
		provider: provider,
		engine:   engine,
		ranker:   ranker,
		logger:   log,
	}
}

// GetQuote returns the latest quote for one symbol.
// GET /api/stocks/quote/{symbol}
func (h *StocksHandler) GetQuote(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(mux.Vars(r)["symbol"])

	quote, err := h.provider.GetQuote(r.Context(), symbol)
	if err != nil {
		h.logger.WithFields(map[string]interface{}{
			"symbol": symbol,
			"error":  err.Error(),
		}).Warn("Quote lookup failed")
		respondError(w, http.StatusNotFound, "Unable to fetch quote for "+symbol)
		return
	}

	respondJSON(w, http.StatusOK, quote)
}

// QuotesRequest is the multi-quote payload.
type QuotesRequest struct {
	Symbols []string `json:"symbols"`
}

// GetQuotes returns quotes for several symbols at once. A symbol that cannot
// be quoted appears in the response with an error message instead of a quote.
// POST /api/stocks/quotes
func (h *StocksHandler) GetQuotes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req QuotesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Symbols) == 0 {
		respondError(w, http.StatusBadRequest, "Please provide an array of symbols")
		return
	}

	quotes := make(map[string]interface{}, len(req.Symbols))
	for _, raw := range req.Symbols {
		symbol := strings.ToUpper(strings.TrimSpace(raw))
		if symbol == "" {
			continue
		}
		quote, err := h.provider.GetQuote(ctx, symbol)
		if err != nil {
			quotes[symbol] = map[string]string{"error": err.Error()}
			continue
		}
		quotes[symbol] = quote
	}

	respondJSON(w, http.StatusOK, quotes)
}

// Search looks up symbols matching a free-text query. Queries shorter than
// two characters short-circuit to an empty result set.
// GET /api/stocks/search?q=pltr
func (h *StocksHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		respondError(w, http.StatusBadRequest, `Query parameter "q" is required`)
		return
	}

	if len(query) < 2 {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"query":   query,
			"results": []market.SearchResult{},
			"count":   0,
		})
		return
	}

	results, err := h.provider.SearchSymbol(r.Context(), query)
	if err != nil {
		h.logger.WithError(err).Error("Symbol search failed")
		respondError(w, http.StatusInternalServerError, "Search failed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"query":   query,
		"results": results,
		"count":   len(results),
	})
}

// GetHistory returns daily bars for a symbol.
// GET /api/stocks/history/{symbol}?days=30
func (h *StocksHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(mux.Vars(r)["symbol"])

	days := 30
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respondError(w, http.StatusBadRequest, "Invalid 'days' parameter")
			return
		}
		days = parsed
	}

	bars, err := h.provider.GetHistoricalData(r.Context(), symbol, days)
	if err != nil {
		h.logger.WithFields(map[string]interface{}{
			"symbol": symbol,
			"error":  err.Error(),
		}).Warn("History lookup failed")
		respondError(w, http.StatusNotFound, "Unable to fetch history for "+symbol)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"symbol": symbol,
		"days":   days,
		"data":   bars,
		"count":  len(bars),
	})
}

// Analyze runs the full technical and narrative analysis for a symbol.
// GET /api/stocks/analyze/{symbol}
func (h *StocksHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(mux.Vars(r)["symbol"])

	result, err := h.engine.AnalyzeStock(r.Context(), symbol)
	if err != nil {
		h.logger.WithFields(map[string]interface{}{
			"symbol": symbol,
			"error":  err.Error(),
		}).Warn("Analysis failed")
		status := http.StatusInternalServerError
		if errors.Is(err, analysis.ErrInsufficientData) || errors.Is(err, market.ErrUnavailable) {
			status = http.StatusNotFound
		}
		respondError(w, status, "Unable to analyze "+symbol)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetTopPicks scans the watchlist and returns the highest-scoring analyses.
// An optional comma-separated ?symbols= overrides the default watchlist.
// GET /api/stocks/top-picks
func (h *StocksHandler) GetTopPicks(w http.ResponseWriter, r *http.Request) {
	var symbols []string
	if raw := r.URL.Query().Get("symbols"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
				symbols = append(symbols, s)
			}
		}
	}

	results, err := h.ranker.TopPicks(r.Context(), symbols)
	if err != nil {
		h.logger.WithError(err).Error("Top picks scan failed")
		respondError(w, http.StatusInternalServerError, "Failed to get top picks")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"picks": results,
		"count": len(results),
	})
}
