// Package advisor produces a trading recommendation for a stock, either by
// asking a Gemini model to narrate one or by falling back to deterministic
// rules. Advisors never fail: a broken model call degrades to the rules.
package advisor

import (
	"context"

	"github.com/microcap/papertrade/internal/market"
)

// Source tags which path produced an analysis.
type Source string

const (
	SourceNarrated  Source = "narrated"
	SourceRuleBased Source = "rule_based"
)

// Recommendation is a BUY/SELL/HOLD call with its confidence and reasoning.
type Recommendation struct {
	Action     string `json:"action"`     // BUY, SELL, HOLD
	Confidence string `json:"confidence"` // HIGH, MODERATE, LOW
	Reasoning  string `json:"reasoning"`
}

// Insights is the narrative portion of an analysis.
type Insights struct {
	Summary    string   `json:"summary"`
	Reasoning  string   `json:"reasoning"`
	KeyFactors []string `json:"keyFactors"`
	Risks      []string `json:"risks"`
}

// TradingPlan carries position management suggestions.
type TradingPlan struct {
	TargetPrice  *float64 `json:"targetPrice"`
	StopLoss     *float64 `json:"stopLoss"`
	PositionSize string   `json:"positionSize"` // SMALL, MODERATE, LARGE
	TimeHorizon  string   `json:"timeHorizon"`  // SHORT, MEDIUM, LONG
	RiskLevel    string   `json:"riskLevel"`    // LOW, MODERATE, HIGH, VERY_HIGH
}

// Analysis is the full advisor output.
type Analysis struct {
	Insights       Insights       `json:"aiInsights"`
	Recommendation Recommendation `json:"recommendation"`
	Trading        TradingPlan    `json:"trading"`
	Source         Source         `json:"source"`
}

// Advisor narrates an analysis for a quoted stock. Implementations must not
// return an error to the caller; unavailability degrades to rules.
type Advisor interface {
	Analyze(ctx context.Context, quote *market.Quote, bars []market.Bar) *Analysis
}
