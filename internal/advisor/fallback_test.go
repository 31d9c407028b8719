package advisor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microcap/papertrade/internal/market"
)

func barsFromCloses(closes []float64) []market.Bar {
	bars := make([]market.Bar, len(closes))
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		bars[i] = market.Bar{
			Date:   base.AddDate(0, 0, i).Format("2006-01-02"),
			Close:  c,
			Volume: 500_000,
		}
	}
	return bars
}

func flatCloses(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestRuleBasedAnalyze(t *testing.T) {
	quote := &market.Quote{Symbol: "DVAX", Name: "Dynavax", Price: 12}

	t.Run("calm strong uptrend is a moderate buy with a stop loss", func(t *testing.T) {
		closes := append(flatCloses(10, 10), flatCloses(10, 11.5)...)
		analysis := NewRuleBased().Analyze(context.Background(), quote, barsFromCloses(closes))

		assert.Equal(t, "BUY", analysis.Recommendation.Action)
		assert.Equal(t, "MODERATE", analysis.Recommendation.Confidence)
		assert.Equal(t, SourceRuleBased, analysis.Source)

		require.NotNil(t, analysis.Trading.StopLoss)
		assert.InDelta(t, 12*0.85, *analysis.Trading.StopLoss, 1e-9)
		assert.Equal(t, "SMALL", analysis.Trading.PositionSize)
	})

	t.Run("strong downtrend is a sell", func(t *testing.T) {
		closes := append(flatCloses(10, 10), flatCloses(10, 8.5)...)
		analysis := NewRuleBased().Analyze(context.Background(), quote, barsFromCloses(closes))

		assert.Equal(t, "SELL", analysis.Recommendation.Action)
		assert.Nil(t, analysis.Trading.StopLoss)
	})

	t.Run("flat series holds", func(t *testing.T) {
		analysis := NewRuleBased().Analyze(context.Background(), quote, barsFromCloses(flatCloses(30, 10)))

		assert.Equal(t, "HOLD", analysis.Recommendation.Action)
		assert.Equal(t, "LOW", analysis.Recommendation.Confidence)
		assert.Contains(t, analysis.Insights.Summary, "DVAX")
		assert.NotEmpty(t, analysis.Insights.Risks)
	})

	t.Run("no history still produces an answer", func(t *testing.T) {
		analysis := NewRuleBased().Analyze(context.Background(), quote, nil)

		assert.Equal(t, "HOLD", analysis.Recommendation.Action)
		assert.Equal(t, SourceRuleBased, analysis.Source)
	})
}

func TestClassifyTrend(t *testing.T) {
	tests := []struct {
		name   string
		closes []float64
		want   string
	}{
		{"too short", flatCloses(8, 10), "NEUTRAL"},
		{"strong up", append(flatCloses(10, 10), flatCloses(10, 12)...), "STRONG_UP"},
		{"mild up", append(flatCloses(10, 10), flatCloses(10, 10.5)...), "UP"},
		{"strong down", append(flatCloses(10, 10), flatCloses(10, 8.5)...), "STRONG_DOWN"},
		{"mild down", append(flatCloses(10, 10), flatCloses(10, 9.5)...), "DOWN"},
		{"flat", flatCloses(20, 10), "NEUTRAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyTrend(tt.closes))
		})
	}
}

func TestAnnualizedVolatility(t *testing.T) {
	assert.Equal(t, 0.0, annualizedVolatility(flatCloses(20, 10)))
	assert.Equal(t, 0.0, annualizedVolatility([]float64{10}))
	assert.Greater(t, annualizedVolatility([]float64{10, 12, 9, 13, 8}), 0.0)
}
