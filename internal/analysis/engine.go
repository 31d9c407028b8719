package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/microcap/papertrade/internal/advisor"
	"github.com/microcap/papertrade/internal/market"
	"github.com/microcap/papertrade/pkg/logger"
)

const (
	historyDays = 60
	minBars     = 20
	rsiPeriod   = 14
)

// Engine runs the full analysis for a symbol: quote + history fetch,
// indicators, rule signals, tips, and the advisor's recommendation.
type Engine struct {
	provider market.Provider
	advisor  advisor.Advisor
	logger   *logger.Logger
}

// NewEngine creates an analysis engine
func NewEngine(provider market.Provider, adv advisor.Advisor, log *logger.Logger) *Engine {
	return &Engine{
		provider: provider,
		advisor:  adv,
		logger:   log,
	}
}

// AnalyzeStock fetches market data for symbol and computes the composite
// analysis result. Every failure is wrapped in *Error carrying the symbol.
func (e *Engine) AnalyzeStock(ctx context.Context, symbol string) (*Result, error) {
	quote, err := e.provider.GetQuote(ctx, symbol)
	if err != nil {
		return nil, &Error{Symbol: symbol, Err: err}
	}

	bars, err := e.provider.GetHistoricalData(ctx, symbol, historyDays)
	if err != nil {
		return nil, &Error{Symbol: symbol, Err: err}
	}
	if len(bars) < minBars {
		return nil, &Error{Symbol: symbol, Err: ErrInsufficientData}
	}

	prices := make([]float64, len(bars))
	var volumeSum float64
	for i, b := range bars {
		prices[i] = b.Close
		volumeSum += float64(b.Volume)
	}
	avgVolume := volumeSum / float64(len(bars))

	ind := &Indicators{
		Price:         quote.Price,
		ChangePercent: quote.ChangePercent,
		CurrentVolume: quote.Volume,
		AvgVolume:     avgVolume,
	}
	if v, ok := SMA(prices, 20); ok {
		ind.SMA20 = &v
	}
	sma50Period := 50
	if len(prices) < sma50Period {
		sma50Period = len(prices)
	}
	if v, ok := SMA(prices, sma50Period); ok {
		ind.SMA50 = &v
	}
	if v, ok := RSI(prices, rsiPeriod); ok {
		ind.RSI = &v
	}
	if v, ok := Volatility(prices); ok {
		ind.Volatility = &v
	}

	signals := GenerateSignals(ind)
	tips := GenerateTips(signals, TipContext{
		Symbol:        quote.Symbol,
		Name:          quote.Name,
		Price:         quote.Price,
		ChangePercent: quote.ChangePercent,
		Volatility:    ind.Volatility,
	})

	result := &Result{
		Symbol:        quote.Symbol,
		Name:          quote.Name,
		CurrentPrice:  quote.Price,
		ChangePercent: quote.ChangePercent,
		Analysis:      summarizeIndicators(ind),
		Signals:       signals,
		Tips:          tips,
		Timestamp:     time.Now().UTC(),
	}

	// The advisor never fails; a broken narrator degrades to rules inside.
	// When the result is not narrated, the recommendation comes from the
	// signal rule table rather than the advisor's trend heuristic.
	result.Recommendation = OverallRecommendation(signals)
	result.Source = advisor.SourceRuleBased
	if e.advisor != nil {
		narrated := e.advisor.Analyze(ctx, quote, bars)
		result.Insights = &narrated.Insights
		result.Trading = &narrated.Trading
		if narrated.Source == advisor.SourceNarrated {
			result.Recommendation = narrated.Recommendation
			result.Source = advisor.SourceNarrated
		}
	}

	e.logger.WithFields(map[string]interface{}{
		"symbol":  result.Symbol,
		"signals": len(signals),
		"action":  result.Recommendation.Action,
		"source":  result.Source,
	}).Debug("Analyzed stock")

	return result, nil
}

// summarizeIndicators formats the indicator block for the API payload.
func summarizeIndicators(ind *Indicators) IndicatorSummary {
	summary := IndicatorSummary{}
	if ind.SMA20 != nil {
		summary.SMA20 = fmt.Sprintf("%.2f", *ind.SMA20)
	}
	if ind.SMA50 != nil {
		summary.SMA50 = fmt.Sprintf("%.2f", *ind.SMA50)
	}
	if ind.RSI != nil {
		summary.RSI = fmt.Sprintf("%.2f", *ind.RSI)
	}
	if ind.Volatility != nil {
		summary.Volatility = fmt.Sprintf("%.2f%%", *ind.Volatility*100)
	}
	if ind.AvgVolume > 0 {
		summary.VolumeRatio = fmt.Sprintf("%.2f", float64(ind.CurrentVolume)/ind.AvgVolume)
	}
	return summary
}
