package analysis

import (
	"errors"
	"fmt"
	"time"

	"github.com/microcap/papertrade/internal/advisor"
)

// SignalType classifies a technical signal.
type SignalType string

const (
	SignalBullish SignalType = "bullish"
	SignalBearish SignalType = "bearish"
	SignalNeutral SignalType = "neutral"
	SignalWarning SignalType = "warning"
)

// Signal strengths. Warning signals use StrengthHigh.
const (
	StrengthWeak     = "weak"
	StrengthModerate = "moderate"
	StrengthStrong   = "strong"
	StrengthHigh     = "high"
)

// Signal is a single rule-table hit.
type Signal struct {
	Type      SignalType `json:"type"`
	Indicator string     `json:"indicator"`
	Strength  string     `json:"strength"`
	Message   string     `json:"message"`
}

// Tip is an actionable note derived from the signal set.
type Tip struct {
	Category   string `json:"category"` // entry, exit, risk, timing, general
	Type       string `json:"type"`     // buy, sell, warning, info
	Message    string `json:"message"`
	Confidence string `json:"confidence"` // high, moderate, low
}

// Indicators carries the computed values fed to the signal rules. Optional
// values are nil when the price series was too short to compute them.
type Indicators struct {
	Price         float64
	ChangePercent float64
	CurrentVolume int64
	AvgVolume     float64

	SMA20      *float64
	SMA50      *float64
	RSI        *float64
	Volatility *float64
}

// IndicatorSummary is the formatted indicator block of an analysis payload.
type IndicatorSummary struct {
	SMA20       string `json:"sma20,omitempty"`
	SMA50       string `json:"sma50,omitempty"`
	RSI         string `json:"rsi,omitempty"`
	Volatility  string `json:"volatility,omitempty"`
	VolumeRatio string `json:"volumeRatio,omitempty"`
}

// Result is the composite output of AnalyzeStock.
type Result struct {
	Symbol         string                  `json:"symbol"`
	Name           string                  `json:"name"`
	CurrentPrice   float64                 `json:"currentPrice"`
	ChangePercent  float64                 `json:"changePercent"`
	Analysis       IndicatorSummary        `json:"analysis"`
	Signals        []Signal                `json:"signals"`
	Tips           []Tip                   `json:"tips"`
	Recommendation advisor.Recommendation  `json:"recommendation"`
	Source         advisor.Source          `json:"source"`
	Insights       *advisor.Insights       `json:"aiInsights,omitempty"`
	Trading        *advisor.TradingPlan    `json:"trading,omitempty"`
	Timestamp      time.Time               `json:"timestamp"`
}

// ErrInsufficientData signals fewer than the minimum bars required for an
// analysis (20).
var ErrInsufficientData = errors.New("insufficient historical data for analysis")

// Error wraps any analysis failure with the symbol it concerned.
type Error struct {
	Symbol string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("unable to analyze %s: %v", e.Symbol, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
