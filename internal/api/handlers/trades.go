package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/microcap/papertrade/internal/ledger"
	"github.com/microcap/papertrade/internal/market"
	"github.com/microcap/papertrade/pkg/logger"
)

// TradesHandler executes paper trades at the live quote price and serves
// the trade log.
type TradesHandler struct {
	repo     *ledger.Repository
	provider market.Provider
	logger   *logger.Logger
}

// NewTradesHandler creates a new trades handler
func NewTradesHandler(repo *ledger.Repository, provider market.Provider, log *logger.Logger) *TradesHandler {
	return &TradesHandler{
		repo:     repo,
		provider: provider,
		logger:   log,
	}
}

// TradeRequest is the buy/sell payload. Price is never client-supplied;
// orders always fill at the current quote.
type TradeRequest struct {
	Symbol string `json:"symbol"`
	Shares int64  `json:"shares"`
}

func (req *TradeRequest) validate() string {
	if strings.TrimSpace(req.Symbol) == "" {
		return "Symbol is required and must be a string"
	}
	if req.Shares <= 0 {
		return "Shares must be a positive number"
	}
	return ""
}

// Buy purchases shares at the current quote.
// POST /api/trades/buy
func (h *TradesHandler) Buy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req TradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))

	quote, err := h.provider.GetQuote(ctx, symbol)
	if err != nil {
		h.logger.WithFields(map[string]interface{}{
			"symbol": symbol,
			"error":  err.Error(),
		}).Warn("Failed to quote symbol for buy")
		respondError(w, http.StatusBadGateway, "Failed to fetch quote for "+symbol)
		return
	}

	if err := h.repo.Buy(ctx, symbol, req.Shares, quote.Price); err != nil {
		var funds *ledger.InsufficientFundsError
		if errors.As(err, &funds) {
			respondJSON(w, http.StatusBadRequest, map[string]interface{}{
				"error":     "Insufficient funds",
				"required":  funds.Required,
				"available": funds.Available,
			})
			return
		}
		h.logger.WithError(err).Error("Buy failed")
		respondError(w, http.StatusInternalServerError, "Trade failed")
		return
	}

	cash, err := h.repo.Cash(ctx)
	if err != nil {
		h.logger.WithError(err).Warn("Failed to read cash after buy")
	}

	h.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"shares": req.Shares,
		"price":  quote.Price,
	}).Info("Buy executed")

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"action":        "BUY",
		"symbol":        symbol,
		"shares":        req.Shares,
		"price":         quote.Price,
		"total":         float64(req.Shares) * quote.Price,
		"remainingCash": cash,
	})
}

// Sell liquidates shares at the current quote.
// POST /api/trades/sell
func (h *TradesHandler) Sell(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req TradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))

	quote, err := h.provider.GetQuote(ctx, symbol)
	if err != nil {
		h.logger.WithFields(map[string]interface{}{
			"symbol": symbol,
			"error":  err.Error(),
		}).Warn("Failed to quote symbol for sell")
		respondError(w, http.StatusBadGateway, "Failed to fetch quote for "+symbol)
		return
	}

	if err := h.repo.Sell(ctx, symbol, req.Shares, quote.Price); err != nil {
		var shares *ledger.InsufficientSharesError
		if errors.As(err, &shares) {
			respondJSON(w, http.StatusBadRequest, map[string]interface{}{
				"error":     "Insufficient shares",
				"requested": shares.Requested,
				"available": shares.Held,
			})
			return
		}
		h.logger.WithError(err).Error("Sell failed")
		respondError(w, http.StatusInternalServerError, "Trade failed")
		return
	}

	cash, err := h.repo.Cash(ctx)
	if err != nil {
		h.logger.WithError(err).Warn("Failed to read cash after sell")
	}

	h.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"shares": req.Shares,
		"price":  quote.Price,
	}).Info("Sell executed")

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"action":        "SELL",
		"symbol":        symbol,
		"shares":        req.Shares,
		"price":         quote.Price,
		"total":         float64(req.Shares) * quote.Price,
		"remainingCash": cash,
	})
}

// GetHistory returns executed trades, newest first.
// GET /api/trades/history?limit=100
func (h *TradesHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respondError(w, http.StatusBadRequest, "Invalid 'limit' parameter")
			return
		}
		limit = parsed
	}

	trades, err := h.repo.TradeHistory(ctx, limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get trade history")
		respondError(w, http.StatusInternalServerError, "Failed to fetch trade history")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"trades": trades,
		"count":  len(trades),
	})
}
