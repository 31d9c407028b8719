package analysis

import (
	"fmt"
	"math"

	"github.com/microcap/papertrade/internal/advisor"
)

// GenerateSignals applies the deterministic rule table to the computed
// indicators and returns zero or more signals.
func GenerateSignals(ind *Indicators) []Signal {
	signals := []Signal{}

	// Moving average signals
	if ind.SMA20 != nil && ind.SMA50 != nil {
		sma20, sma50 := *ind.SMA20, *ind.SMA50
		switch {
		case ind.Price > sma20 && sma20 > sma50:
			signals = append(signals, Signal{
				Type: SignalBullish, Indicator: "moving_average", Strength: StrengthStrong,
				Message: "Price above both MA20 and MA50 - Strong uptrend",
			})
		case ind.Price > sma20:
			signals = append(signals, Signal{
				Type: SignalBullish, Indicator: "moving_average", Strength: StrengthModerate,
				Message: "Price above MA20 - Short-term bullish",
			})
		case ind.Price < sma20 && sma20 < sma50:
			signals = append(signals, Signal{
				Type: SignalBearish, Indicator: "moving_average", Strength: StrengthStrong,
				Message: "Price below both MAs - Strong downtrend",
			})
		}
	}

	// RSI signals
	if ind.RSI != nil {
		rsi := *ind.RSI
		switch {
		case rsi > 70:
			signals = append(signals, Signal{
				Type: SignalBearish, Indicator: "rsi", Strength: StrengthModerate,
				Message: fmt.Sprintf("RSI %.1f - Potentially overbought", rsi),
			})
		case rsi < 30:
			signals = append(signals, Signal{
				Type: SignalBullish, Indicator: "rsi", Strength: StrengthModerate,
				Message: fmt.Sprintf("RSI %.1f - Potentially oversold", rsi),
			})
		case rsi >= 45 && rsi <= 55:
			signals = append(signals, Signal{
				Type: SignalNeutral, Indicator: "rsi", Strength: StrengthWeak,
				Message: fmt.Sprintf("RSI %.1f - Neutral momentum", rsi),
			})
		}
	}

	// Volume confirmation
	if ind.AvgVolume > 0 {
		ratio := float64(ind.CurrentVolume) / ind.AvgVolume
		if ratio > 1.5 {
			volumeType := SignalBearish
			if ind.ChangePercent > 0 {
				volumeType = SignalBullish
			}
			signals = append(signals, Signal{
				Type: volumeType, Indicator: "volume", Strength: StrengthModerate,
				Message: fmt.Sprintf("High volume (%.1fx avg) confirms price movement", ratio),
			})
		}
	}

	// Volatility warning
	if ind.Volatility != nil && *ind.Volatility > 0.4 {
		signals = append(signals, Signal{
			Type: SignalWarning, Indicator: "volatility", Strength: StrengthHigh,
			Message: fmt.Sprintf("High volatility (%.1f%%) - Increased risk", *ind.Volatility*100),
		})
	}

	return signals
}

// TipContext carries the stock facts tip generation needs.
type TipContext struct {
	Symbol        string
	Name          string
	Price         float64
	ChangePercent float64
	Volatility    *float64
}

// GenerateTips derives entry/exit, risk and timing tips from the signal set.
// At least one tip is always returned.
func GenerateTips(signals []Signal, stock TipContext) []Tip {
	tips := []Tip{}

	var bullish, bearish, strong int
	for _, s := range signals {
		switch s.Type {
		case SignalBullish:
			bullish++
		case SignalBearish:
			bearish++
		}
		if s.Strength == StrengthStrong {
			strong++
		}
	}

	if bullish > bearish && strong > 0 {
		tips = append(tips, Tip{
			Category: "entry", Type: "buy", Confidence: "moderate",
			Message: fmt.Sprintf("Consider %s for a long position. Multiple bullish indicators suggest upward momentum.", stock.Symbol),
		})
	} else if bearish > bullish && strong > 0 {
		tips = append(tips, Tip{
			Category: "exit", Type: "sell", Confidence: "moderate",
			Message: fmt.Sprintf("Consider reducing %s position. Bearish signals indicate potential downside.", stock.Symbol),
		})
	}

	if stock.Volatility != nil && *stock.Volatility > 0.3 {
		tips = append(tips, Tip{
			Category: "risk", Type: "warning", Confidence: "high",
			Message: fmt.Sprintf("%s shows high volatility. Consider smaller position sizes and tighter stop losses.", stock.Symbol),
		})
	}

	if math.Abs(stock.ChangePercent) > 5 {
		direction := "drop"
		if stock.ChangePercent > 0 {
			direction = "surge"
		}
		tips = append(tips, Tip{
			Category: "timing", Type: "info", Confidence: "moderate",
			Message: fmt.Sprintf("%s experienced a %.1f%% %s today. Wait for consolidation before entering.",
				stock.Symbol, math.Abs(stock.ChangePercent), direction),
		})
	}

	if len(tips) == 0 {
		tips = append(tips, Tip{
			Category: "general", Type: "info", Confidence: "low",
			Message: fmt.Sprintf("%s shows neutral signals. Monitor for clearer directional indicators before taking action.", stock.Symbol),
		})
	}

	return tips
}

// OverallRecommendation is the rule-based BUY/SELL/HOLD call used whenever
// the narrator is unavailable.
func OverallRecommendation(signals []Signal) advisor.Recommendation {
	var bullish, bearish, strongBullish, strongBearish int
	for _, s := range signals {
		switch s.Type {
		case SignalBullish:
			bullish++
			if s.Strength == StrengthStrong {
				strongBullish++
			}
		case SignalBearish:
			bearish++
			if s.Strength == StrengthStrong {
				strongBearish++
			}
		}
	}

	switch {
	case strongBullish > 0 && strongBearish == 0:
		return advisor.Recommendation{Action: "BUY", Confidence: "HIGH", Reasoning: "Strong bullish signals detected"}
	case bullish > bearish+1:
		return advisor.Recommendation{Action: "BUY", Confidence: "MODERATE", Reasoning: "Multiple bullish indicators"}
	case strongBearish > 0 && strongBullish == 0:
		return advisor.Recommendation{Action: "SELL", Confidence: "HIGH", Reasoning: "Strong bearish signals detected"}
	case bearish > bullish+1:
		return advisor.Recommendation{Action: "SELL", Confidence: "MODERATE", Reasoning: "Multiple bearish indicators"}
	default:
		return advisor.Recommendation{Action: "HOLD", Confidence: "LOW", Reasoning: "Mixed or insufficient signals"}
	}
}
