package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/microcap/papertrade/internal/market"
	"github.com/microcap/papertrade/pkg/config"
	"github.com/microcap/papertrade/pkg/logger"
)

const systemPrompt = `You are an expert financial analyst specializing in micro-cap and small-cap stocks.
Provide detailed analysis focusing on:
1. Technical indicators and patterns
2. Risk assessment for small/micro-cap investments
3. Specific actionable trading recommendations
4. Market conditions and timing
5. Position sizing suggestions for volatile small caps

Always structure your response as JSON with the following format:
{
  "summary": "Brief 2-3 sentence summary",
  "recommendation": "BUY|SELL|HOLD",
  "confidence": "HIGH|MODERATE|LOW",
  "reasoning": "Detailed reasoning (100-150 words)",
  "riskLevel": "LOW|MODERATE|HIGH|VERY_HIGH",
  "targetPrice": number or null,
  "stopLoss": number or null,
  "positionSize": "SMALL|MODERATE|LARGE",
  "timeHorizon": "SHORT|MEDIUM|LONG",
  "keyFactors": ["factor1", "factor2", "factor3"],
  "risks": ["risk1", "risk2", "risk3"]
}`

// Gemini narrates analyses through the Gemini API. Any failure along the
// way (client, call, parse) degrades to the rule-based advisor; the caller
// never sees an error.
type Gemini struct {
	client   *genai.Client
	model    string
	fallback *RuleBased
	logger   *logger.Logger
}

// NewGemini creates a Gemini-backed advisor. Returns the rule-based advisor
// when no API key is configured.
func NewGemini(ctx context.Context, cfg *config.Config, log *logger.Logger) Advisor {
	if cfg.Gemini.APIKey == "" {
		log.Info("No Gemini API key configured, using rule-based advisor")
		return NewRuleBased()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.Gemini.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		log.WithError(err).Warn("Failed to initialize Gemini client, using rule-based advisor")
		return NewRuleBased()
	}

	return &Gemini{
		client:   client,
		model:    cfg.Gemini.Model,
		fallback: NewRuleBased(),
		logger:   log,
	}
}

// Analyze asks the model for a narrated recommendation. The response is
// parsed defensively; anything malformed falls back to rules.
func (g *Gemini) Analyze(ctx context.Context, quote *market.Quote, bars []market.Bar) *Analysis {
	prompt := buildPrompt(quote, bars)

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		Temperature:       genai.Ptr[float32](0.3),
	})
	if err != nil {
		g.logger.WithError(err).Warn("Gemini analysis failed, falling back to rules")
		return g.fallback.Analyze(ctx, quote, bars)
	}

	text := resp.Text()
	if text == "" {
		g.logger.Warn("Gemini returned an empty response, falling back to rules")
		return g.fallback.Analyze(ctx, quote, bars)
	}

	analysis, err := parseModelResponse(text)
	if err != nil {
		g.logger.WithFields(map[string]interface{}{
			"symbol": quote.Symbol,
			"error":  err.Error(),
		}).Warn("Could not parse Gemini response, falling back to rules")
		return g.fallback.Analyze(ctx, quote, bars)
	}

	return analysis
}

// buildPrompt assembles the per-stock analysis prompt from the quote and
// the last 30 daily bars.
func buildPrompt(quote *market.Quote, bars []market.Bar) string {
	closes := recentCloses(bars, 30)

	var change30d float64
	if len(closes) > 0 && closes[0] != 0 {
		change30d = (quote.Price - closes[0]) / closes[0] * 100
	}

	high, low := quote.Price, quote.Price
	for _, c := range closes {
		if c > high {
			high = c
		}
		if c < low {
			low = c
		}
	}

	trendWord := "Downward"
	if len(closes) > 1 && closes[len(closes)-1] > closes[0] {
		trendWord = "Upward"
	}

	var avgVolume float64
	start := len(bars) - 30
	if start < 0 {
		start = 0
	}
	window := bars[start:]
	for _, b := range window {
		avgVolume += float64(b.Volume)
	}
	if len(window) > 0 {
		avgVolume /= float64(len(window))
	}

	tail := closes
	if len(tail) > 10 {
		tail = tail[len(tail)-10:]
	}
	priceStrs := make([]string, len(tail))
	for i, c := range tail {
		priceStrs[i] = fmt.Sprintf("%.2f", c)
	}

	return fmt.Sprintf(`Analyze this micro-cap stock for investment potential:

STOCK: %s - %s
CURRENT PRICE: $%.2f
MARKET CAP: Small/Micro-cap
30-DAY CHANGE: %.2f%%
TODAY'S CHANGE: %.2f%%

TECHNICAL DATA:
- Recent closing prices: %s
- Average volume (30d): %.0f
- Current volume: %d
- Price volatility: High (typical for micro-caps)

HISTORICAL PATTERNS:
- Highest (30d): $%.2f
- Lowest (30d): $%.2f
- Trend: %s

Please provide a comprehensive analysis focusing on the unique characteristics and risks of micro-cap investing.`,
		quote.Symbol, quote.Name, quote.Price, change30d, quote.ChangePercent,
		strings.Join(priceStrs, ", "), avgVolume, quote.Volume, high, low, trendWord)
}

// modelResponse is the raw JSON shape the model is instructed to emit.
type modelResponse struct {
	Summary        string   `json:"summary"`
	Recommendation string   `json:"recommendation"`
	Confidence     string   `json:"confidence"`
	Reasoning      string   `json:"reasoning"`
	RiskLevel      string   `json:"riskLevel"`
	TargetPrice    *float64 `json:"targetPrice"`
	StopLoss       *float64 `json:"stopLoss"`
	PositionSize   string   `json:"positionSize"`
	TimeHorizon    string   `json:"timeHorizon"`
	KeyFactors     []string `json:"keyFactors"`
	Risks          []string `json:"risks"`
}

// parseModelResponse decodes and validates the model's JSON, tolerating
// markdown code fences around it.
func parseModelResponse(text string) (*Analysis, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var raw modelResponse
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	action := strings.ToUpper(strings.TrimSpace(raw.Recommendation))
	switch action {
	case "BUY", "SELL", "HOLD":
	default:
		return nil, fmt.Errorf("invalid recommendation %q", raw.Recommendation)
	}

	confidence := strings.ToUpper(strings.TrimSpace(raw.Confidence))
	switch confidence {
	case "HIGH", "MODERATE", "LOW":
	default:
		confidence = "LOW"
	}

	return &Analysis{
		Insights: Insights{
			Summary:    raw.Summary,
			Reasoning:  raw.Reasoning,
			KeyFactors: orEmpty(raw.KeyFactors),
			Risks:      orEmpty(raw.Risks),
		},
		Recommendation: Recommendation{
			Action:     action,
			Confidence: confidence,
			Reasoning:  raw.Reasoning,
		},
		Trading: TradingPlan{
			TargetPrice:  raw.TargetPrice,
			StopLoss:     raw.StopLoss,
			PositionSize: raw.PositionSize,
			TimeHorizon:  raw.TimeHorizon,
			RiskLevel:    raw.RiskLevel,
		},
		Source: SourceNarrated,
	}, nil
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
