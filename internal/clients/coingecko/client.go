// Package coingecko provides a client for the CoinGecko market chart API
package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/calderalabs/quantfeed/internal/common"
	"github.com/calderalabs/quantfeed/internal/interfaces"
	"github.com/calderalabs/quantfeed/internal/models"
)

const (
	DefaultBaseURL   = "https://api.coingecko.com"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 10 // requests per second
)

// Client implements interfaces.ProviderClient for CoinGecko.
// Response shape: {"prices": [[timestamp_ms, price], ...]}.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new CoinGecko client. The public API needs no key.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Name identifies the provider.
func (c *Client) Name() string { return "coingecko" }

type marketChartResponse struct {
	Prices [][2]json.Number `json:"prices"`
}

// FetchSeries retrieves daily USD prices for a coin id (e.g. "bitcoin").
func (c *Client) FetchSeries(ctx context.Context, params interfaces.SeriesParams) (*models.TimeSeries, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, models.NewProviderError(c.Name(), models.ProviderErrTransient, err)
	}

	days := params.Limit
	if days <= 0 {
		days = 90
	}

	q := url.Values{}
	q.Set("vs_currency", "usd")
	q.Set("days", fmt.Sprintf("%d", days))
	q.Set("interval", "daily")

	reqURL := fmt.Sprintf("%s/api/v3/coins/%s/market_chart?%s", c.baseURL, url.PathEscape(params.Symbol), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, models.NewProviderError(c.Name(), models.ProviderErrTransient, err)
	}

	c.logger.Debug().Str("coin", params.Symbol).Int("days", days).Msg("CoinGecko API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, models.NewProviderError(c.Name(), models.ProviderErrTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		kind := models.ProviderErrTransient
		switch resp.StatusCode {
		case http.StatusTooManyRequests:
			kind = models.ProviderErrRateLimited
		case http.StatusUnauthorized, http.StatusForbidden:
			kind = models.ProviderErrAuth
		}
		return nil, models.NewProviderError(c.Name(), kind,
			fmt.Errorf("status %d: %s", resp.StatusCode, string(body)))
	}

	var chart marketChartResponse
	if err := json.NewDecoder(resp.Body).Decode(&chart); err != nil {
		return nil, models.NewProviderError(c.Name(), models.ProviderErrInvalidResponse, err)
	}

	if len(chart.Prices) == 0 {
		return nil, models.NewProviderError(c.Name(), models.ProviderErrInvalidResponse,
			fmt.Errorf("empty price array for %s", params.Symbol))
	}

	labels := make([]string, len(chart.Prices))
	values := make([]float64, len(chart.Prices))
	for i, pair := range chart.Prices {
		tsMillis, err := pair[0].Int64()
		if err != nil {
			return nil, models.NewProviderError(c.Name(), models.ProviderErrInvalidResponse,
				fmt.Errorf("bad timestamp %q at index %d", pair[0], i))
		}
		price, err := pair[1].Float64()
		if err != nil || math.IsNaN(price) || math.IsInf(price, 0) {
			return nil, models.NewProviderError(c.Name(), models.ProviderErrInvalidResponse,
				fmt.Errorf("bad price %q at index %d", pair[1], i))
		}
		labels[i] = time.UnixMilli(tsMillis).UTC().Format("2006-01-02")
		values[i] = price
	}

	return models.NewTimeSeries(params.Symbol, labels, values), nil
}

// Ensure Client implements ProviderClient
var _ interfaces.ProviderClient = (*Client)(nil)
