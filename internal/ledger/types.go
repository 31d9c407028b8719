package ledger

import "time"

// Trade is an immutable log entry for an executed buy or sell.
type Trade struct {
	ID         int64     `json:"id"`
	Action     string    `json:"action"` // BUY or SELL
	Symbol     string    `json:"symbol"`
	Shares     int64     `json:"shares"`
	Price      float64   `json:"price"`
	Total      float64   `json:"total"`
	ExecutedAt time.Time `json:"timestamp"`
}

// Position is the held share count for a symbol. Positions with zero or
// negative shares are never stored; the row is deleted instead.
type Position struct {
	Symbol string `json:"symbol"`
	Shares int64  `json:"shares"`
}

// Snapshot is the daily point-in-time record of the portfolio, one row per
// calendar date. TotalValue stores cash only; live position valuation is
// computed on demand, not persisted.
type Snapshot struct {
	Date       string           `json:"date"` // YYYY-MM-DD
	Cash       float64          `json:"cash"`
	TotalValue float64          `json:"totalValue"`
	Positions  map[string]int64 `json:"positions"`
}
