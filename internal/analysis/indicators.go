package analysis

import "math"

// Indicator math over ordered close-price series (oldest first). Every
// function returns ok=false when the series is too short to compute.

// SMA returns the simple moving average of the last period closes.
func SMA(prices []float64, period int) (float64, bool) {
	if period <= 0 || len(prices) < period {
		return 0, false
	}

	var sum float64
	for _, p := range prices[len(prices)-period:] {
		sum += p
	}
	return sum / float64(period), true
}

// RSI computes the relative strength index over the first period deltas of
// the supplied window. This is a single-window computation, not a rolling
// Wilder-smoothed one: the caller's choice of window length sets recency.
func RSI(prices []float64, period int) (float64, bool) {
	if period <= 0 || len(prices) < period+1 {
		return 0, false
	}

	var gains, losses float64
	for i := 1; i <= period; i++ {
		change := prices[i] - prices[i-1]
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)

	if avgLoss == 0 {
		return 100, true
	}

	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs)), true
}

// Volatility returns the annualized standard deviation of day-over-day
// simple returns (multiplied by sqrt of 252 trading days).
func Volatility(prices []float64) (float64, bool) {
	if len(prices) < 2 {
		return 0, false
	}

	returns := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] == 0 {
			continue
		}
		returns = append(returns, (prices[i]-prices[i-1])/prices[i-1])
	}
	if len(returns) == 0 {
		return 0, false
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

	return math.Sqrt(variance) * math.Sqrt(252), true
}

// TrendDirection classifies recent price action.
type TrendDirection string

const (
	TrendStrongUp   TrendDirection = "STRONG_UP"
	TrendUp         TrendDirection = "UP"
	TrendNeutral    TrendDirection = "NEUTRAL"
	TrendDown       TrendDirection = "DOWN"
	TrendStrongDown TrendDirection = "STRONG_DOWN"
)

// Trend compares the mean of the latest 10 closes against the mean of the
// preceding window (up to 10 closes). Returns NEUTRAL when there is no
// preceding window to compare against.
func Trend(prices []float64) TrendDirection {
	if len(prices) <= 10 {
		return TrendNeutral
	}

	recent := prices[len(prices)-10:]
	earlyStart := len(prices) - 20
	if earlyStart < 0 {
		earlyStart = 0
	}
	early := prices[earlyStart : len(prices)-10]
	if len(early) == 0 {
		return TrendNeutral
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
		return TrendNeutral
	}

	change := (recentAvg - earlyAvg) / earlyAvg
	switch {
	case change > 0.1:
		return TrendStrongUp
	case change > 0.03:
		return TrendUp
	case change < -0.1:
		return TrendStrongDown
	case change < -0.03:
		return TrendDown
	default:
		return TrendNeutral
	}
}
