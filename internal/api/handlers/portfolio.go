package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/microcap/papertrade/internal/ledger"
	"github.com/microcap/papertrade/internal/market"
	"github.com/microcap/papertrade/pkg/logger"
)

// PortfolioHandler serves portfolio state: summary, positions, history
// and the cash reset endpoint.
type PortfolioHandler struct {
	repo     *ledger.Repository
	provider market.Provider
	logger   *logger.Logger
}

// NewPortfolioHandler creates a new portfolio handler
func NewPortfolioHandler(repo *ledger.Repository, provider market.Provider, log *logger.Logger) *PortfolioHandler {
	return &PortfolioHandler{
		repo:     repo,
		provider: provider,
		logger:   log,
	}
}

// PositionValue is a held position marked to the latest quote. Error is set
// and the value zeroed when no quote could be fetched for the symbol.
type PositionValue struct {
	Shares int64   `json:"shares"`
	Price  float64 `json:"price"`
	Value  float64 `json:"value"`
	Change float64 `json:"change"`
	Error  string  `json:"error,omitempty"`
}

// SummaryResponse is the portfolio summary payload.
type SummaryResponse struct {
	Cash               float64                  `json:"cash"`
	Positions          map[string]PositionValue `json:"positions"`
	TotalPositionValue float64                  `json:"totalPositionValue"`
	TotalValue         float64                  `json:"totalValue"`
	History            []ledger.Snapshot        `json:"history"`
}

// GetSummary returns cash, every position valued at its live quote, and the
// ten most recent daily snapshots. A position whose quote cannot be fetched
// is reported with a zero value instead of failing the whole summary.
// GET /api/portfolio
func (h *PortfolioHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cash, err := h.repo.Cash(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get cash balance")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve portfolio")
		return
	}

	positions, err := h.repo.Positions(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get positions")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve portfolio")
		return
	}

	values := make(map[string]PositionValue, len(positions))
	totalPositionValue := 0.0
	for symbol, shares := range positions {
		quote, err := h.provider.GetQuote(ctx, symbol)
		if err != nil {
			h.logger.WithFields(map[string]interface{}{
				"symbol": symbol,
				"error":  err.Error(),
			}).Warn("Failed to value position")
			values[symbol] = PositionValue{Shares: shares, Error: err.Error()}
			continue
		}
		value := float64(shares) * quote.Price
		values[symbol] = PositionValue{
			Shares: shares,
			Price:  quote.Price,
			Value:  value,
			Change: quote.ChangePercent,
		}
		totalPositionValue += value
	}

	history, err := h.repo.History(ctx, 10)
	if err != nil {
		h.logger.WithError(err).Warn("Failed to get portfolio history")
		history = nil
	}

	respondJSON(w, http.StatusOK, SummaryResponse{
		Cash:               cash,
		Positions:          values,
		TotalPositionValue: totalPositionValue,
		TotalValue:         cash + totalPositionValue,
		History:            history,
	})
}

// GetPositions returns raw holdings and cash without quote lookups.
// GET /api/portfolio/positions
func (h *PortfolioHandler) GetPositions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	positions, err := h.repo.Positions(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get positions")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve positions")
		return
	}

	cash, err := h.repo.Cash(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get cash balance")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve positions")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"positions": positions,
		"cash":      cash,
	})
}

// GetHistory returns daily portfolio snapshots, newest first.
// GET /api/portfolio/history?limit=30
func (h *PortfolioHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := 30
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respondError(w, http.StatusBadRequest, "Invalid 'limit' parameter")
			return
		}
		limit = parsed
	}

	history, err := h.repo.History(ctx, limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get portfolio history")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve history")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"history": history,
		"count":   len(history),
	})
}

// SetCashRequest is the cash reset payload.
type SetCashRequest struct {
	Amount float64 `json:"amount"`
}

// SetCash overwrites the cash balance.
// POST /api/portfolio/cash
func (h *PortfolioHandler) SetCash(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req SetCashRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.repo.SetCash(ctx, req.Amount); err != nil {
		if errors.Is(err, ledger.ErrInvalidAmount) {
			respondError(w, http.StatusBadRequest, "Invalid amount. Must be a positive number.")
			return
		}
		h.logger.WithError(err).Error("Failed to set cash balance")
		respondError(w, http.StatusInternalServerError, "Failed to set cash balance")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"cash":    req.Amount,
	})
}
