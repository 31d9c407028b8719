package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/microcap/papertrade/pkg/config"
	"github.com/microcap/papertrade/pkg/httputil"
	"github.com/microcap/papertrade/pkg/logger"
	"github.com/microcap/papertrade/pkg/redis"
)

// Client fetches market data from the Yahoo Finance chart and search APIs.
// Quotes are cached briefly in memory, plus in Redis when enabled, because
// the dashboard endpoints re-price the same symbols on every request.
type Client struct {
	httpClient    *httputil.Client
	logger        *logger.Logger
	chartBaseURL  string
	searchBaseURL string
	cache         *quoteCache
	redisCache    *redis.Cache
	cacheTTL      time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithClock overrides the cache clock. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.cache = newQuoteCache(c.cacheTTL, now)
	}
}

// WithRedisCache layers a shared Redis cache in front of the HTTP fetch.
func WithRedisCache(cache *redis.Cache) Option {
	return func(c *Client) {
		c.redisCache = cache
	}
}

// NewClient creates a market data client
func NewClient(cfg *config.Config, log *logger.Logger, opts ...Option) *Client {
	c := &Client{
		httpClient:    httputil.New(log, cfg.Market.Timeout).WithUserAgent(cfg.Market.UserAgent),
		logger:        log,
		chartBaseURL:  cfg.Market.ChartBaseURL,
		searchBaseURL: cfg.Market.SearchBaseURL,
		cacheTTL:      cfg.Market.QuoteCacheTTL,
	}
	c.cache = newQuoteCache(c.cacheTTL, time.Now)

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// chartResponse mirrors the Yahoo Finance v8 chart payload, limited to the
// fields this client reads.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol              string  `json:"symbol"`
				RegularMarketPrice  float64 `json:"regularMarketPrice"`
				PreviousClose       float64 `json:"previousClose"`
				RegularMarketVolume int64   `json:"regularMarketVolume"`
				MarketCap           float64 `json:"marketCap"`
				LongName            string  `json:"longName"`
				ShortName           string  `json:"shortName"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
	} `json:"chart"`
}

// GetQuote returns the latest quote for a symbol, served from cache when
// fresh enough.
func (c *Client) GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	if quote, ok := c.cache.get(symbol); ok {
		return quote, nil
	}

	if c.redisCache != nil {
		var cached Quote
		if found, _ := c.redisCache.Get(ctx, "quote:"+symbol, &cached); found {
			c.cache.set(symbol, &cached)
			return &cached, nil
		}
	}

	fullURL := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=1d",
		c.chartBaseURL, url.PathEscape(symbol))

	var payload chartResponse
	if err := c.getJSON(ctx, fullURL, &payload); err != nil {
		return nil, unavailable(symbol, err)
	}

	quote, err := parseQuote(symbol, &payload)
	if err != nil {
		return nil, unavailable(symbol, err)
	}

	c.cache.set(symbol, quote)
	if c.redisCache != nil {
		if err := c.redisCache.Set(ctx, "quote:"+symbol, quote, c.cacheTTL); err != nil {
			c.logger.WithError(err).Warn("Failed to cache quote in redis")
		}
	}

	return quote, nil
}

// parseQuote extracts a Quote from a single-day chart response.
func parseQuote(symbol string, payload *chartResponse) (*Quote, error) {
	if len(payload.Chart.Result) == 0 {
		return nil, fmt.Errorf("empty chart result")
	}

	result := payload.Chart.Result[0]
	meta := result.Meta
	if meta.Symbol == "" {
		return nil, fmt.Errorf("invalid response format")
	}

	price := meta.RegularMarketPrice
	if price == 0 && len(result.Indicators.Quote) > 0 {
		closes := result.Indicators.Quote[0].Close
		for i := len(closes) - 1; i >= 0; i-- {
			if closes[i] != nil {
				price = *closes[i]
				break
			}
		}
	}

	name := meta.LongName
	if name == "" {
		name = meta.ShortName
	}
	if name == "" {
		name = symbol
	}

	quote := &Quote{
		Symbol:        meta.Symbol,
		Name:          name,
		Price:         price,
		PreviousClose: meta.PreviousClose,
		Change:        price - meta.PreviousClose,
		Volume:        meta.RegularMarketVolume,
		MarketCap:     meta.MarketCap,
	}
	if meta.PreviousClose != 0 {
		quote.ChangePercent = (price - meta.PreviousClose) / meta.PreviousClose * 100
	}

	return quote, nil
}

// GetHistoricalData returns up to days daily bars ordered oldest first.
// A provider failure surfaces as an error; an empty series means the
// provider had no usable data and callers treat it as insufficient.
func (c *Client) GetHistoricalData(ctx context.Context, symbol string, days int) ([]Bar, error) {
	endTime := time.Now().Unix()
	startTime := endTime - int64(days)*24*60*60

	fullURL := fmt.Sprintf("%s/v8/finance/chart/%s?period1=%d&period2=%d&interval=1d",
		c.chartBaseURL, url.PathEscape(symbol), startTime, endTime)

	var payload chartResponse
	if err := c.getJSON(ctx, fullURL, &payload); err != nil {
		return nil, unavailable(symbol, err)
	}

	bars := parseBars(&payload)

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"bars":   len(bars),
	}).Debug("Fetched historical data")

	return bars, nil
}

// parseBars converts a chart response into bars, dropping days with no close.
func parseBars(payload *chartResponse) []Bar {
	if len(payload.Chart.Result) == 0 {
		return nil
	}

	result := payload.Chart.Result[0]
	if len(result.Timestamp) == 0 || len(result.Indicators.Quote) == 0 {
		return nil
	}

	quotes := result.Indicators.Quote[0]
	bars := make([]Bar, 0, len(result.Timestamp))

	for i, ts := range result.Timestamp {
		if i >= len(quotes.Close) || quotes.Close[i] == nil {
			continue
		}

		bar := Bar{
			Date:  time.Unix(ts, 0).UTC().Format("2006-01-02"),
			Close: *quotes.Close[i],
		}
		if i < len(quotes.Open) && quotes.Open[i] != nil {
			bar.Open = *quotes.Open[i]
		}
		if i < len(quotes.High) && quotes.High[i] != nil {
			bar.High = *quotes.High[i]
		}
		if i < len(quotes.Low) && quotes.Low[i] != nil {
			bar.Low = *quotes.Low[i]
		}
		if i < len(quotes.Volume) && quotes.Volume[i] != nil {
			bar.Volume = *quotes.Volume[i]
		}
		bars = append(bars, bar)
	}

	return bars
}

// searchResponse mirrors the Yahoo Finance v1 search payload.
type searchResponse struct {
	Quotes []struct {
		Symbol    string `json:"symbol"`
		ShortName string `json:"shortname"`
		LongName  string `json:"longname"`
		Exchange  string `json:"exchange"`
		QuoteType string `json:"quoteType"`
	} `json:"quotes"`
}

// SearchSymbol looks up equity symbols matching query. Returns at most five
// results; a provider failure yields an empty list, not an error.
func (c *Client) SearchSymbol(ctx context.Context, query string) ([]SearchResult, error) {
	fullURL := fmt.Sprintf("%s/v1/finance/search?q=%s&lang=en-US&region=US&quotesCount=6&newsCount=0",
		c.searchBaseURL, url.QueryEscape(query))

	var payload searchResponse
	if err := c.getJSON(ctx, fullURL, &payload); err != nil {
		c.logger.WithError(err).Warn("Symbol search failed")
		return []SearchResult{}, nil
	}

	results := make([]SearchResult, 0, 5)
	for _, q := range payload.Quotes {
		if !strings.EqualFold(q.QuoteType, "EQUITY") {
			continue
		}
		name := q.ShortName
		if name == "" {
			name = q.LongName
		}
		results = append(results, SearchResult{
			Symbol:   q.Symbol,
			Name:     name,
			Exchange: q.Exchange,
			Type:     q.QuoteType,
		})
		if len(results) == 5 {
			break
		}
	}

	return results, nil
}

// getJSON fetches fullURL and decodes the JSON body into dest.
func (c *Client) getJSON(ctx context.Context, fullURL string, dest interface{}) error {
	resp, err := c.httpClient.Get(ctx, fullURL)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body failed: %w", err)
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("parse response failed: %w", err)
	}

	return nil
}

// CleanStaleQuotes drops expired quotes from the in-memory cache.
func (c *Client) CleanStaleQuotes() int {
	return c.cache.cleanStale()
}
