// Package picks scans a watchlist with the analysis engine and ranks the
// results by a simple recommendation/signal score.
package picks

import (
	"context"
	"sort"

	"golang.org/x/time/rate"

	"github.com/microcap/papertrade/internal/analysis"
	"github.com/microcap/papertrade/pkg/config"
	"github.com/microcap/papertrade/pkg/logger"
)

// DefaultWatchlist is the built-in small/micro-cap universe scanned when no
// explicit symbols are given.
var DefaultWatchlist = []string{
	"UPST", "OPEN", "SOFI", "PLTR", "CRSP", "EDIT", "BEAM", "NTLA",
	"MRSN", "DVAX", "VKTX", "MRNA", "ROKU", "HOOD", "COIN", "SNOW",
}

// Analyzer is the slice of the analysis engine the ranker needs.
type Analyzer interface {
	AnalyzeStock(ctx context.Context, symbol string) (*analysis.Result, error)
}

// Ranker runs the analyzer over a symbol list sequentially, pacing calls
// with a rate limiter so the upstream quote API is not hammered, and ranks
// the survivors by score.
type Ranker struct {
	analyzer   Analyzer
	limiter    *rate.Limiter
	maxSymbols int
	logger     *logger.Logger
}

// NewRanker creates a ranker
func NewRanker(analyzer Analyzer, cfg *config.Config, log *logger.Logger) *Ranker {
	return &Ranker{
		analyzer:   analyzer,
		limiter:    rate.NewLimiter(rate.Every(cfg.Picks.CallDelay), 1),
		maxSymbols: cfg.Picks.MaxSymbols,
		logger:     log,
	}
}

// TopPicks analyzes at most maxSymbols symbols (the default watchlist when
// symbols is empty) and returns the results sorted by descending score,
// truncated to maxSymbols. A symbol that fails analysis is logged and
// excluded; it never aborts the remaining symbols.
func (r *Ranker) TopPicks(ctx context.Context, symbols []string) ([]*analysis.Result, error) {
	if len(symbols) == 0 {
		symbols = DefaultWatchlist
	}
	if len(symbols) > r.maxSymbols {
		symbols = symbols[:r.maxSymbols]
	}

	results := make([]*analysis.Result, 0, len(symbols))
	for _, symbol := range symbols {
		// Sequential by design: the pause between calls is a rate-limit
		// guard for the upstream provider, not a performance accident.
		if err := r.limiter.Wait(ctx); err != nil {
			return results, err
		}

		result, err := r.analyzer.AnalyzeStock(ctx, symbol)
		if err != nil {
			r.logger.WithFields(map[string]interface{}{
				"symbol": symbol,
				"error":  err.Error(),
			}).Warn("Skipping symbol in top picks")
			continue
		}
		results = append(results, result)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return Score(results[i]) > Score(results[j])
	})

	if len(results) > r.maxSymbols {
		results = results[:r.maxSymbols]
	}

	r.logger.WithFields(map[string]interface{}{
		"scanned": len(symbols),
		"ranked":  len(results),
	}).Info("Top picks scan completed")

	return results, nil
}

// Score converts a recommendation and its signals into a sortable number:
// +-100/50 for the BUY/SELL call by confidence, +-10 per directional signal.
func Score(result *analysis.Result) int {
	score := 0

	switch result.Recommendation.Action {
	case "BUY":
		if result.Recommendation.Confidence == "HIGH" {
			score += 100
		} else {
			score += 50
		}
	case "SELL":
		if result.Recommendation.Confidence == "HIGH" {
			score -= 100
		} else {
			score -= 50
		}
	}

	for _, s := range result.Signals {
		switch s.Type {
		case analysis.SignalBullish:
			score += 10
		case analysis.SignalBearish:
			score -= 10
		}
	}

	return score
}
