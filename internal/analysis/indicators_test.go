package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSMA(t *testing.T) {
	tests := []struct {
		name   string
		prices []float64
		period int
		want   float64
		ok     bool
	}{
		{
			name:   "exact window",
			prices: []float64{10, 20, 30, 40, 50},
			period: 5,
			want:   30,
			ok:     true,
		},
		{
			name:   "uses only the last period closes",
			prices: []float64{100, 100, 10, 20, 30},
			period: 3,
			want:   20,
			ok:     true,
		},
		{
			name:   "too few prices",
			prices: []float64{10, 20},
			period: 5,
			ok:     false,
		},
		{
			name:   "zero period",
			prices: []float64{10, 20, 30},
			period: 0,
			ok:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SMA(tt.prices, tt.period)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}

func TestRSI(t *testing.T) {
	t.Run("all gains saturates at 100", func(t *testing.T) {
		prices := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}
		got, ok := RSI(prices, 14)
		assert.True(t, ok)
		assert.Equal(t, 100.0, got)
	})

	t.Run("balanced gains and losses", func(t *testing.T) {
		// Alternating +1/-1 deltas: avgGain == avgLoss, RSI exactly 50.
		prices := []float64{10, 11, 10, 11, 10, 11, 10, 11, 10, 11, 10, 11, 10, 11, 10}
		got, ok := RSI(prices, 14)
		assert.True(t, ok)
		assert.InDelta(t, 50.0, got, 1e-9)
	})

	t.Run("too few prices", func(t *testing.T) {
		_, ok := RSI([]float64{10, 11, 12}, 14)
		assert.False(t, ok)
	})
}

func TestVolatility(t *testing.T) {
	t.Run("constant series has zero volatility", func(t *testing.T) {
		got, ok := Volatility([]float64{50, 50, 50, 50, 50})
		assert.True(t, ok)
		assert.Equal(t, 0.0, got)
	})

	t.Run("single price is undefined", func(t *testing.T) {
		_, ok := Volatility([]float64{50})
		assert.False(t, ok)
	})

	t.Run("alternating returns are annualized", func(t *testing.T) {
		// +10% then roughly -9.09% returns give nonzero dispersion.
		got, ok := Volatility([]float64{100, 110, 100, 110, 100})
		assert.True(t, ok)
		assert.Greater(t, got, 0.0)
		assert.False(t, math.IsNaN(got))
	})
}

func TestTrend(t *testing.T) {
	flat := func(n int, v float64) []float64 {
		out := make([]float64, n)
		for i := range out {
			out[i] = v
		}
		return out
	}

	tests := []struct {
		name   string
		prices []float64
		want   TrendDirection
	}{
		{
			name:   "too short for comparison",
			prices: flat(10, 100),
			want:   TrendNeutral,
		},
		{
			name:   "strong up",
			prices: append(flat(10, 100), flat(10, 120)...),
			want:   TrendStrongUp,
		},
		{
			name:   "mild up",
			prices: append(flat(10, 100), flat(10, 105)...),
			want:   TrendUp,
		},
		{
			name:   "strong down",
			prices: append(flat(10, 100), flat(10, 85)...),
			want:   TrendStrongDown,
		},
		{
			name:   "mild down",
			prices: append(flat(10, 100), flat(10, 95)...),
			want:   TrendDown,
		},
		{
			name:   "flat",
			prices: flat(20, 100),
			want:   TrendNeutral,
		},
		{
			name:   "short early window still compares",
			prices: append(flat(5, 100), flat(10, 120)...),
			want:   TrendStrongUp,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Trend(tt.prices))
		})
	}
}
