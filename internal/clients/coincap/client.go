// Package coincap provides a client for the CoinCap asset history API
package coincap

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/calderalabs/quantfeed/internal/common"
	"github.com/calderalabs/quantfeed/internal/interfaces"
	"github.com/calderalabs/quantfeed/internal/models"
)

const (
	DefaultBaseURL   = "https://api.coincap.io"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 10 // requests per second
)

// Client implements interfaces.ProviderClient for CoinCap, the secondary
// (global) crypto source. Response shape: {"data": [{"priceUsd": "...",
// "time": ms}, ...]} with prices encoded as strings.
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

// NewClient creates a new CoinCap client.
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
func (c *Client) Name() string { return "coincap" }

type historyResponse struct {
	Data []historyPoint `json:"data"`
}

type historyPoint struct {
	PriceUSD string `json:"priceUsd"`
	Time     int64  `json:"time"`
}

// FetchSeries retrieves daily USD prices for an asset id (e.g. "bitcoin").
func (c *Client) FetchSeries(ctx context.Context, params interfaces.SeriesParams) (*models.TimeSeries, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, models.NewProviderError(c.Name(), models.ProviderErrTransient, err)
	}

	q := url.Values{}
	q.Set("interval", "d1")
	if !params.From.IsZero() && !params.To.IsZero() {
		q.Set("start", strconv.FormatInt(params.From.UnixMilli(), 10))
		q.Set("end", strconv.FormatInt(params.To.UnixMilli(), 10))
	}

	reqURL := fmt.Sprintf("%s/v2/assets/%s/history?%s", c.baseURL, url.PathEscape(params.Symbol), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, models.NewProviderError(c.Name(), models.ProviderErrTransient, err)
	}

	c.logger.Debug().Str("asset", params.Symbol).Msg("CoinCap API request")

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

	var history historyResponse
	if err := json.NewDecoder(resp.Body).Decode(&history); err != nil {
		return nil, models.NewProviderError(c.Name(), models.ProviderErrInvalidResponse, err)
	}

	if len(history.Data) == 0 {
		return nil, models.NewProviderError(c.Name(), models.ProviderErrInvalidResponse,
			fmt.Errorf("empty history for %s", params.Symbol))
	}

	points := history.Data
	if params.Limit > 0 && len(points) > params.Limit {
		points = points[len(points)-params.Limit:]
	}

	labels := make([]string, len(points))
	values := make([]float64, len(points))
	for i, p := range points {
		price, err := strconv.ParseFloat(p.PriceUSD, 64)
		if err != nil || math.IsNaN(price) || math.IsInf(price, 0) {
			return nil, models.NewProviderError(c.Name(), models.ProviderErrInvalidResponse,
				fmt.Errorf("unparseable priceUsd %q at index %d", p.PriceUSD, i))
		}
		labels[i] = time.UnixMilli(p.Time).UTC().Format("2006-01-02")
		values[i] = price
	}

	return models.NewTimeSeries(params.Symbol, labels, values), nil
}

// Ensure Client implements ProviderClient
var _ interfaces.ProviderClient = (*Client)(nil)
