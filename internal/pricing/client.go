package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	apperrors "stockwatch/internal/errors"
	"stockwatch/internal/infrastructure"
	"stockwatch/pkg/contracts/domain"
)

const (
	datasetDaily = "TaiwanStockPrice"

	// historyDays is sized so a 20-day moving average survives holidays
	// and weekends inside the window.
	historyDays = 65
)

// Client fetches Taiwan market data from a FinMind-compatible REST API.
// Requests are rate limited and daily rows are cached per symbol.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	limiter    *rate.Limiter
	cache      *quoteCache
	metrics    *infrastructure.BusinessMetrics
	logger     *slog.Logger
	now        func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRateLimit bounds outbound requests per second.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(rps), burst) }
}

// WithCacheTTL sets how long fetched daily rows stay fresh.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) { c.cache = newQuoteCache(ttl) }
}

// WithMetrics wires cache and fetch counters. A nil value leaves the
// client unmetered.
func WithMetrics(metrics *infrastructure.BusinessMetrics) Option {
	return func(c *Client) { c.metrics = metrics }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// NewClient creates a market-data client. An empty token is allowed; the
// provider then serves the anonymous quota.
func NewClient(baseURL, token string, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 20 * time.Second},
		baseURL:    baseURL,
		token:      token,
		limiter:    rate.NewLimiter(rate.Limit(2), 5),
		cache:      newQuoteCache(5 * time.Minute),
		logger:     logger.With(slog.String("component", "pricing")),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// dailyRow mirrors one row of the TaiwanStockPrice dataset.
type dailyRow struct {
	Date          string  `json:"date"`
	StockID       string  `json:"stock_id"`
	TradingVolume int64   `json:"Trading_Volume"`
	Open          float64 `json:"open"`
	Max           float64 `json:"max"`
	Min           float64 `json:"min"`
	Close         float64 `json:"close"`
}

type apiResponse struct {
	Msg    string     `json:"msg"`
	Status int        `json:"status"`
	Data   []dailyRow `json:"data"`
}

// LastPrice returns the most recent close for a symbol.
func (c *Client) LastPrice(ctx context.Context, symbol string) (domain.Quote, error) {
	rows, err := c.dailyRows(ctx, symbol)
	if err != nil {
		return domain.Quote{}, err
	}
	if len(rows) == 0 {
		return domain.Quote{}, fmt.Errorf("no price data for %s: %w", symbol, apperrors.ErrUpstreamPricing)
	}

	last := rows[len(rows)-1]
	return domain.Quote{
		Symbol:    symbol,
		Close:     last.Close,
		FetchedAt: c.now(),
	}, nil
}

// FullStats returns day statistics with a 20-day moving average. An offset
// of 0 is the latest trading day, 1 the day before, and so on.
func (c *Client) FullStats(ctx context.Context, symbol string, offset int) (domain.DailyStats, error) {
	if offset < 0 {
		return domain.DailyStats{}, fmt.Errorf("offset must not be negative, got %d", offset)
	}

	rows, err := c.dailyRows(ctx, symbol)
	if err != nil {
		return domain.DailyStats{}, err
	}
	if len(rows) <= offset {
		return domain.DailyStats{}, fmt.Errorf("not enough history for %s at offset %d: %w",
			symbol, offset, apperrors.ErrUpstreamPricing)
	}

	idx := len(rows) - 1 - offset
	row := rows[idx]

	return domain.DailyStats{
		Symbol: symbol,
		Date:   row.Date,
		Open:   row.Open,
		Close:  row.Close,
		High:   row.Max,
		Low:    row.Min,
		Volume: row.TradingVolume,
		MA20:   movingAverage(rows[:idx+1], 20),
	}, nil
}

// dailyRows fetches the recent daily history for a symbol, serving from
// cache when fresh.
func (c *Client) dailyRows(ctx context.Context, symbol string) ([]dailyRow, error) {
	if rows, ok := c.cache.get(symbol); ok {
		infrastructure.RecordQuoteCache(ctx, c.metrics, symbol, true)
		return rows, nil
	}
	infrastructure.RecordQuoteCache(ctx, c.metrics, symbol, false)

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	end := c.now()
	start := end.AddDate(0, 0, -historyDays)

	q := url.Values{}
	q.Set("dataset", datasetDaily)
	q.Set("data_id", symbol)
	q.Set("start_date", start.Format("2006-01-02"))
	q.Set("end_date", end.Format("2006-01-02"))
	if c.token != "" {
		q.Set("token", c.token)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build pricing request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewNetworkError(
			fmt.Sprintf("pricing request for %s", symbol),
			fmt.Errorf("%w: %v", apperrors.ErrUpstreamPricing, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewPricingError(
			fmt.Sprintf("pricing request for %s returned %d", symbol, resp.StatusCode),
			apperrors.ErrUpstreamPricing)
	}

	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, apperrors.NewParsingError(
			fmt.Sprintf("decode pricing response for %s", symbol), err)
	}
	if body.Status != 0 && body.Status != http.StatusOK {
		return nil, apperrors.NewPricingError(
			fmt.Sprintf("provider status %d (%s) for %s", body.Status, body.Msg, symbol),
			apperrors.ErrUpstreamPricing)
	}

	infrastructure.RecordQuoteFetch(ctx, c.metrics, symbol)
	c.logger.DebugContext(ctx, "daily history fetched",
		slog.String("symbol", symbol),
		slog.Int("rows", len(body.Data)))

	c.cache.put(symbol, body.Data)
	return body.Data, nil
}

// Invalidate drops cached history for a symbol so the next read refetches.
func (c *Client) Invalidate(symbol string) {
	c.cache.invalidate(symbol)
}

// movingAverage computes the mean close of the trailing window ending at
// the last row. Returns 0 when the history is shorter than the window.
func movingAverage(rows []dailyRow, window int) float64 {
	if len(rows) < window {
		return 0
	}
	var sum float64
	for _, row := range rows[len(rows)-window:] {
		sum += row.Close
	}
	avg := sum / float64(window)
	// Round to two decimals to match exchange tick conventions.
	return float64(int64(avg*100+0.5)) / 100
}
