package analysis

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microcap/papertrade/internal/advisor"
	"github.com/microcap/papertrade/internal/market"
	"github.com/microcap/papertrade/pkg/logger"
)

type stubProvider struct {
	quote    *market.Quote
	quoteErr error
	bars     []market.Bar
	barsErr  error
}

func (s *stubProvider) GetQuote(ctx context.Context, symbol string) (*market.Quote, error) {
	return s.quote, s.quoteErr
}

func (s *stubProvider) GetHistoricalData(ctx context.Context, symbol string, days int) ([]market.Bar, error) {
	return s.bars, s.barsErr
}

func (s *stubProvider) SearchSymbol(ctx context.Context, query string) ([]market.SearchResult, error) {
	return nil, nil
}

type stubAdvisor struct {
	analysis *advisor.Analysis
}

func (s *stubAdvisor) Analyze(ctx context.Context, quote *market.Quote, bars []market.Bar) *advisor.Analysis {
	return s.analysis
}

func makeBars(n int, start, step float64) []market.Bar {
	bars := make([]market.Bar, n)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		price := start + step*float64(i)
		bars[i] = market.Bar{
			Date:   base.AddDate(0, 0, i).Format("2006-01-02"),
			Open:   price,
			High:   price,
			Low:    price,
			Close:  price,
			Volume: 1_000_000,
		}
	}
	return bars
}

func TestAnalyzeStock(t *testing.T) {
	quote := &market.Quote{
		Symbol:        "UPST",
		Name:          "Upstart Holdings",
		Price:         72,
		ChangePercent: 1.5,
		Volume:        1_200_000,
	}

	t.Run("rule-based advisor keeps the signal recommendation", func(t *testing.T) {
		provider := &stubProvider{quote: quote, bars: makeBars(60, 40, 0.5)}
		adv := &stubAdvisor{analysis: &advisor.Analysis{
			Recommendation: advisor.Recommendation{Action: "SELL", Confidence: "LOW"},
			Source:         advisor.SourceRuleBased,
		}}
		engine := NewEngine(provider, adv, logger.NewNop())

		result, err := engine.AnalyzeStock(context.Background(), "UPST")
		require.NoError(t, err)

		// Rising series with price above both MAs: the rule table says BUY,
		// and a non-narrated advisor must not override it.
		assert.Equal(t, "UPST", result.Symbol)
		assert.Equal(t, advisor.SourceRuleBased, result.Source)
		assert.Equal(t, "BUY", result.Recommendation.Action)
		assert.NotEmpty(t, result.Signals)
		assert.NotEmpty(t, result.Tips)
		assert.NotEmpty(t, result.Analysis.SMA20)
		assert.NotEmpty(t, result.Analysis.RSI)
	})

	t.Run("narrated advisor overrides the recommendation", func(t *testing.T) {
		provider := &stubProvider{quote: quote, bars: makeBars(60, 40, 0.5)}
		adv := &stubAdvisor{analysis: &advisor.Analysis{
			Recommendation: advisor.Recommendation{Action: "HOLD", Confidence: "MODERATE", Reasoning: "narrated"},
			Insights:       advisor.Insights{Summary: "steady climber"},
			Source:         advisor.SourceNarrated,
		}}
		engine := NewEngine(provider, adv, logger.NewNop())

		result, err := engine.AnalyzeStock(context.Background(), "UPST")
		require.NoError(t, err)

		assert.Equal(t, advisor.SourceNarrated, result.Source)
		assert.Equal(t, "HOLD", result.Recommendation.Action)
		require.NotNil(t, result.Insights)
		assert.Equal(t, "steady climber", result.Insights.Summary)
	})

	t.Run("quote failure wraps the symbol", func(t *testing.T) {
		provider := &stubProvider{quoteErr: market.ErrUnavailable}
		engine := NewEngine(provider, nil, logger.NewNop())

		_, err := engine.AnalyzeStock(context.Background(), "BAD")
		require.Error(t, err)

		var analysisErr *Error
		require.ErrorAs(t, err, &analysisErr)
		assert.Equal(t, "BAD", analysisErr.Symbol)
		assert.ErrorIs(t, err, market.ErrUnavailable)
	})

	t.Run("history failure wraps the symbol", func(t *testing.T) {
		provider := &stubProvider{quote: quote, barsErr: errors.New("upstream 500")}
		engine := NewEngine(provider, nil, logger.NewNop())

		_, err := engine.AnalyzeStock(context.Background(), "UPST")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unable to analyze UPST")
	})

	t.Run("too few bars is insufficient data", func(t *testing.T) {
		provider := &stubProvider{quote: quote, bars: makeBars(10, 40, 0.5)}
		engine := NewEngine(provider, nil, logger.NewNop())

		_, err := engine.AnalyzeStock(context.Background(), "UPST")
		require.ErrorIs(t, err, ErrInsufficientData)
	})

	t.Run("nil advisor still produces a recommendation", func(t *testing.T) {
		provider := &stubProvider{quote: quote, bars: makeBars(60, 40, 0.5)}
		engine := NewEngine(provider, nil, logger.NewNop())

		result, err := engine.AnalyzeStock(context.Background(), "UPST")
		require.NoError(t, err)
		assert.Equal(t, advisor.SourceRuleBased, result.Source)
		assert.NotEmpty(t, result.Recommendation.Action)
		assert.Nil(t, result.Insights)
	})
}

func TestSummarizeIndicators(t *testing.T) {
	vol := 0.4567
	summary := summarizeIndicators(&Indicators{
		Price:         10,
		CurrentVolume: 2_000_000,
		AvgVolume:     1_000_000,
		SMA20:         f(9.456),
		Volatility:    &vol,
	})

	assert.Equal(t, "9.46", summary.SMA20)
	assert.Equal(t, "", summary.SMA50)
	assert.Equal(t, fmt.Sprintf("%.2f%%", 45.67), summary.Volatility)
	assert.Equal(t, "2.00", summary.VolumeRatio)
}
