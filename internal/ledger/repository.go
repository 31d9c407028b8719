package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/microcap/papertrade/internal/market"
	"github.com/microcap/papertrade/pkg/logger"
)

// Repository owns cash, positions, trades and snapshots. No other component
// writes these rows.
type Repository struct {
	pool   *pgxpool.Pool
	logger *logger.Logger
	now    func() time.Time
}

// NewRepository creates a new ledger repository
func NewRepository(pool *pgxpool.Pool, log *logger.Logger) *Repository {
	return &Repository{
		pool:   pool,
		logger: log,
		now:    time.Now,
	}
}

// Init creates the ledger tables if missing and seeds the cash balance row.
func (r *Repository) Init(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS cash_balance (
			id INT PRIMARY KEY,
			amount DOUBLE PRECISION NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS positions (
			symbol TEXT PRIMARY KEY,
			shares BIGINT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS trades (
			id BIGSERIAL PRIMARY KEY,
			action TEXT NOT NULL,
			symbol TEXT NOT NULL,
			shares BIGINT NOT NULL,
			price DOUBLE PRECISION NOT NULL,
			total DOUBLE PRECISION NOT NULL,
			executed_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS portfolio_history (
			snapshot_date DATE PRIMARY KEY,
			cash DOUBLE PRECISION NOT NULL,
			total_value DOUBLE PRECISION NOT NULL,
			positions JSONB NOT NULL DEFAULT '{}'
		)`,
		`INSERT INTO cash_balance (id, amount) VALUES (1, 0) ON CONFLICT (id) DO NOTHING`,
	}

	for _, stmt := range statements {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to initialize ledger schema: %w", err)
		}
	}

	return nil
}

// Cash returns the current cash balance, 0 if uninitialized.
func (r *Repository) Cash(ctx context.Context) (float64, error) {
	var amount float64
	err := r.pool.QueryRow(ctx, `SELECT amount FROM cash_balance WHERE id = 1`).Scan(&amount)
	if err == pgx.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get cash balance: %w", err)
	}
	return amount, nil
}

// SetCash overwrites the cash balance.
func (r *Repository) SetCash(ctx context.Context, amount float64) error {
	if amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return ErrInvalidAmount
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO cash_balance (id, amount, updated_at)
		VALUES (1, $1, NOW())
		ON CONFLICT (id) DO UPDATE SET
			amount = EXCLUDED.amount,
			updated_at = NOW()
	`, amount)
	if err != nil {
		return fmt.Errorf("failed to set cash balance: %w", err)
	}

	return nil
}

// Positions returns all held positions keyed by symbol.
func (r *Repository) Positions(ctx context.Context) (map[string]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT symbol, shares FROM positions WHERE shares > 0`)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	positions := make(map[string]int64)
	for rows.Next() {
		var symbol string
		var shares int64
		if err := rows.Scan(&symbol, &shares); err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		positions[symbol] = shares
	}

	return positions, rows.Err()
}

// PositionBySymbol returns the held position for symbol, or nil if none.
func (r *Repository) PositionBySymbol(ctx context.Context, symbol string) (*Position, error) {
	var pos Position
	err := r.pool.QueryRow(ctx,
		`SELECT symbol, shares FROM positions WHERE symbol = $1 AND shares > 0`,
		symbol,
	).Scan(&pos.Symbol, &pos.Shares)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get position: %w", err)
	}

	return &pos, nil
}

// Buy debits cash, upserts the position and appends a BUY trade as a single
// transaction, then records today's snapshot.
func (r *Repository) Buy(ctx context.Context, symbol string, shares int64, price float64) error {
	cost := float64(shares) * price

	cash, err := r.Cash(ctx)
	if err != nil {
		return err
	}
	if cost > cash {
		return &InsufficientFundsError{Required: cost, Available: cash}
	}

	batch := &pgx.Batch{}
	batch.Queue(`
		UPDATE cash_balance
		SET amount = amount - $1, updated_at = NOW()
		WHERE id = 1
	`, cost)
	batch.Queue(`
		INSERT INTO positions (symbol, shares, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (symbol) DO UPDATE SET
			shares = positions.shares + EXCLUDED.shares,
			updated_at = NOW()
	`, symbol, shares)
	batch.Queue(`
		INSERT INTO trades (action, symbol, shares, price, total)
		VALUES ('BUY', $1, $2, $3, $4)
	`, symbol, shares, price, cost)

	if err := r.sendBatch(ctx, batch); err != nil {
		return fmt.Errorf("buy transaction failed: %w", err)
	}

	if err := r.SaveSnapshot(ctx); err != nil {
		r.logger.WithError(err).Warn("Failed to save snapshot after buy")
	}

	return nil
}

// Sell credits cash, decrements the position and appends a SELL trade as a
// single transaction. A position reduced to zero shares is deleted in the
// same transaction, then today's snapshot is recorded.
func (r *Repository) Sell(ctx context.Context, symbol string, shares int64, price float64) error {
	position, err := r.PositionBySymbol(ctx, symbol)
	if err != nil {
		return err
	}

	var held int64
	if position != nil {
		held = position.Shares
	}
	if held < shares {
		return &InsufficientSharesError{Symbol: symbol, Held: held, Requested: shares}
	}

	proceeds := float64(shares) * price

	batch := &pgx.Batch{}
	batch.Queue(`
		UPDATE cash_balance
		SET amount = amount + $1, updated_at = NOW()
		WHERE id = 1
	`, proceeds)
	batch.Queue(`
		UPDATE positions
		SET shares = shares - $1, updated_at = NOW()
		WHERE symbol = $2
	`, shares, symbol)
	batch.Queue(`
		INSERT INTO trades (action, symbol, shares, price, total)
		VALUES ('SELL', $1, $2, $3, $4)
	`, symbol, shares, price, proceeds)
	batch.Queue(`DELETE FROM positions WHERE symbol = $1 AND shares <= 0`, symbol)

	if err := r.sendBatch(ctx, batch); err != nil {
		return fmt.Errorf("sell transaction failed: %w", err)
	}

	if err := r.SaveSnapshot(ctx); err != nil {
		r.logger.WithError(err).Warn("Failed to save snapshot after sell")
	}

	return nil
}

// sendBatch runs all queued statements inside one transaction so a partial
// application can never be observed.
func (r *Repository) sendBatch(ctx context.Context, batch *pgx.Batch) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	results := tx.SendBatch(ctx, batch)
	if err := results.Close(); err != nil {
		return fmt.Errorf("failed to execute batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// SaveSnapshot upserts today's snapshot row. The stored total value equals
// cash; position market value is intentionally not priced in here.
func (r *Repository) SaveSnapshot(ctx context.Context) error {
	cash, err := r.Cash(ctx)
	if err != nil {
		return err
	}

	positions, err := r.Positions(ctx)
	if err != nil {
		return err
	}

	positionsJSON, err := json.Marshal(positions)
	if err != nil {
		return fmt.Errorf("failed to marshal positions: %w", err)
	}

	today := r.now().Format("2006-01-02")

	_, err = r.pool.Exec(ctx, `
		INSERT INTO portfolio_history (snapshot_date, cash, total_value, positions)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (snapshot_date) DO UPDATE SET
			cash = EXCLUDED.cash,
			total_value = EXCLUDED.total_value,
			positions = EXCLUDED.positions
	`, today, cash, cash, positionsJSON)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	return nil
}

// History returns up to limit snapshots, newest first.
func (r *Repository) History(ctx context.Context, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = 30
	}

	rows, err := r.pool.Query(ctx, `
		SELECT snapshot_date, cash, total_value, positions
		FROM portfolio_history
		ORDER BY snapshot_date DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolio history: %w", err)
	}
	defer rows.Close()

	snapshots := make([]Snapshot, 0, limit)
	for rows.Next() {
		var s Snapshot
		var date time.Time
		var positionsJSON []byte

		if err := rows.Scan(&date, &s.Cash, &s.TotalValue, &positionsJSON); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}

		s.Date = date.Format("2006-01-02")
		s.Positions = make(map[string]int64)
		if len(positionsJSON) > 0 {
			if err := json.Unmarshal(positionsJSON, &s.Positions); err != nil {
				return nil, fmt.Errorf("failed to unmarshal snapshot positions: %w", err)
			}
		}

		snapshots = append(snapshots, s)
	}

	return snapshots, rows.Err()
}

// TradeHistory returns up to limit trades, newest first.
func (r *Repository) TradeHistory(ctx context.Context, limit int) ([]Trade, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, action, symbol, shares, price, total, executed_at
		FROM trades
		ORDER BY executed_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	trades := make([]Trade, 0, limit)
	for rows.Next() {
		var t Trade
		if err := rows.Scan(&t.ID, &t.Action, &t.Symbol, &t.Shares, &t.Price, &t.Total, &t.ExecutedAt); err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		trades = append(trades, t)
	}

	return trades, rows.Err()
}

// TotalValue returns cash plus the live market value of all positions.
// A symbol that cannot be priced is skipped so one bad quote does not sink
// the whole valuation.
func (r *Repository) TotalValue(ctx context.Context, provider market.Provider) (float64, error) {
	cash, err := r.Cash(ctx)
	if err != nil {
		return 0, err
	}

	positions, err := r.Positions(ctx)
	if err != nil {
		return 0, err
	}

	total := cash
	for symbol, shares := range positions {
		quote, err := provider.GetQuote(ctx, symbol)
		if err != nil {
			r.logger.WithFields(map[string]interface{}{
				"symbol": symbol,
				"error":  err.Error(),
			}).Warn("Could not fetch price for position")
			continue
		}
		total += float64(shares) * quote.Price
	}

	return total, nil
}
