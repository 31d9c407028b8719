package advisor

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/microcap/papertrade/internal/market"
)

// RuleBased is the deterministic advisor used when no model is configured
// and as the degradation path when one fails.
type RuleBased struct{}

// NewRuleBased creates a rule-based advisor
func NewRuleBased() *RuleBased {
	return &RuleBased{}
}

// Analyze classifies the recent trend and volatility and maps them onto a
// conservative recommendation.
func (r *RuleBased) Analyze(_ context.Context, quote *market.Quote, bars []market.Bar) *Analysis {
	closes := recentCloses(bars, 30)
	vol := annualizedVolatility(closes)
	trend := classifyTrend(closes)

	action, confidence := "HOLD", "LOW"
	if trend == "STRONG_UP" && vol < 0.4 {
		action, confidence = "BUY", "MODERATE"
	} else if trend == "STRONG_DOWN" || vol > 0.6 {
		action, confidence = "SELL", "MODERATE"
	}

	volDesc := "moderate"
	if vol > 0.4 {
		volDesc = "high"
	}

	analysis := &Analysis{
		Insights: Insights{
			Summary: fmt.Sprintf("%s shows %s trend with %s volatility typical of micro-cap stocks.",
				quote.Symbol, strings.ToLower(strings.ReplaceAll(trend, "_", " ")), volDesc),
			Reasoning: "Based on technical analysis of recent price action. Micro-cap stocks carry inherent risks " +
				"including low liquidity, high volatility, and limited institutional coverage. Consider position sizing carefully.",
			KeyFactors: []string{"Technical trend", "Price volatility", "Micro-cap liquidity risks"},
			Risks:      []string{"High volatility", "Low liquidity", "Limited institutional coverage", "Regulatory risks"},
		},
		Recommendation: Recommendation{
			Action:     action,
			Confidence: confidence,
			Reasoning:  "Technical analysis-based recommendation for micro-cap investment",
		},
		Trading: TradingPlan{
			PositionSize: "SMALL",
			TimeHorizon:  "MEDIUM",
			RiskLevel:    "HIGH",
		},
		Source: SourceRuleBased,
	}

	if action == "BUY" {
		stop := quote.Price * 0.85
		analysis.Trading.StopLoss = &stop
	}

	return analysis
}

// recentCloses returns the closes of the last n bars.
func recentCloses(bars []market.Bar, n int) []float64 {
	start := len(bars) - n
	if start < 0 {
		start = 0
	}
	closes := make([]float64, 0, len(bars)-start)
	for _, b := range bars[start:] {
		closes = append(closes, b.Close)
	}
	return closes
}

func annualizedVolatility(prices []float64) float64 {
	if len(prices) < 2 {
		return 0
	}

	returns := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] == 0 {
			continue
		}
		returns = append(returns, (prices[i]-prices[i-1])/prices[i-1])
	}
	if len(returns) == 0 {
		return 0
	}

	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	var variance float64
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(returns))

	return math.Sqrt(variance) * math.Sqrt(252)
}

func classifyTrend(prices []float64) string {
	if len(prices) <= 10 {
		return "NEUTRAL"
	}

	recent := prices[len(prices)-10:]
	earlyStart := len(prices) - 20
	if earlyStart < 0 {
		earlyStart = 0
	}
	early := prices[earlyStart : len(prices)-10]
	if len(early) == 0 {
		return "NEUTRAL"
	}

	var recentSum, earlySum float64
	for _, p := range recent {
		recentSum += p
	}
	for _, p := range early {
		earlySum += p
	}
	recentAvg := recentSum / float64(len(recent))
	earlyAvg := earlySum / float64(len(early))
	if earlyAvg == 0 {
		return "NEUTRAL"
	}

	change := (recentAvg - earlyAvg) / earlyAvg
	switch {
	case change > 0.1:
		return "STRONG_UP"
	case change > 0.03:
		return "UP"
	case change < -0.1:
		return "STRONG_DOWN"
	case change < -0.03:
		return "DOWN"
	default:
		return "NEUTRAL"
	}
}
