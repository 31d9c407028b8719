package advisor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microcap/papertrade/internal/market"
)

const validModelJSON = `{
	"summary": "Strong momentum with elevated risk.",
	"recommendation": "BUY",
	"confidence": "MODERATE",
	"reasoning": "Price is above both moving averages on rising volume.",
	"riskLevel": "HIGH",
	"targetPrice": 15.5,
	"stopLoss": 10.2,
	"positionSize": "SMALL",
	"timeHorizon": "MEDIUM",
	"keyFactors": ["Momentum", "Volume"],
	"risks": ["Volatility"]
}`

func TestParseModelResponse(t *testing.T) {
	t.Run("valid response", func(t *testing.T) {
		analysis, err := parseModelResponse(validModelJSON)
		require.NoError(t, err)

		assert.Equal(t, "BUY", analysis.Recommendation.Action)
		assert.Equal(t, "MODERATE", analysis.Recommendation.Confidence)
		assert.Equal(t, "Strong momentum with elevated risk.", analysis.Insights.Summary)
		assert.Equal(t, SourceNarrated, analysis.Source)

		require.NotNil(t, analysis.Trading.TargetPrice)
		assert.Equal(t, 15.5, *analysis.Trading.TargetPrice)
		require.NotNil(t, analysis.Trading.StopLoss)
		assert.Equal(t, 10.2, *analysis.Trading.StopLoss)
		assert.Equal(t, "HIGH", analysis.Trading.RiskLevel)
	})

	t.Run("strips markdown fences", func(t *testing.T) {
		fenced := "```json\n" + validModelJSON + "\n```"
		analysis, err := parseModelResponse(fenced)
		require.NoError(t, err)
		assert.Equal(t, "BUY", analysis.Recommendation.Action)
	})

	t.Run("lowercase action is normalized", func(t *testing.T) {
		lowered := strings.Replace(validModelJSON, `"BUY"`, `"sell"`, 1)
		analysis, err := parseModelResponse(lowered)
		require.NoError(t, err)
		assert.Equal(t, "SELL", analysis.Recommendation.Action)
	})

	t.Run("unknown action is rejected", func(t *testing.T) {
		bad := strings.Replace(validModelJSON, `"BUY"`, `"SHORT"`, 1)
		_, err := parseModelResponse(bad)
		assert.Error(t, err)
	})

	t.Run("unknown confidence coerces to LOW", func(t *testing.T) {
		odd := strings.Replace(validModelJSON, `"MODERATE"`, `"VERY HIGH"`, 1)
		analysis, err := parseModelResponse(odd)
		require.NoError(t, err)
		assert.Equal(t, "LOW", analysis.Recommendation.Confidence)
	})

	t.Run("missing lists become empty, not nil", func(t *testing.T) {
		analysis, err := parseModelResponse(`{"recommendation": "HOLD"}`)
		require.NoError(t, err)
		assert.NotNil(t, analysis.Insights.KeyFactors)
		assert.NotNil(t, analysis.Insights.Risks)
	})

	t.Run("non-JSON text is rejected", func(t *testing.T) {
		_, err := parseModelResponse("I recommend buying this stock.")
		assert.Error(t, err)
	})
}

func TestBuildPrompt(t *testing.T) {
	quote := &market.Quote{
		Symbol:        "UPST",
		Name:          "Upstart Holdings",
		Price:         72.5,
		ChangePercent: 3.5,
		Volume:        3_500_000,
	}
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 50 + float64(i)*0.5
	}

	prompt := buildPrompt(quote, barsFromCloses(closes))

	assert.Contains(t, prompt, "STOCK: UPST - Upstart Holdings")
	assert.Contains(t, prompt, "CURRENT PRICE: $72.50")
	assert.Contains(t, prompt, "Trend: Upward")
	// Only the last ten closes are listed.
	assert.NotContains(t, prompt, "50.00,")
	assert.Contains(t, prompt, "69.50")
}
