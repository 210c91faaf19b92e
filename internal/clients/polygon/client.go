// Package polygon provides a client for the Polygon.io aggregate bars API,
// used for options and equity aggregates
package polygon

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
	DefaultBaseURL   = "https://api.polygon.io"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 5 // requests per second
)

// Client implements interfaces.ProviderClient for Polygon.io.
// Response shape: {"status": "OK", "results": [{"t": ms, "o","h","l","c","v"}]}.
type Client struct {
	baseURL    string
	apiKey     string
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

// NewClient creates a new Polygon client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
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
func (c *Client) Name() string { return "polygon" }

type aggsResponse struct {
	Status  string   `json:"status"`
	Error   string   `json:"error"`
	Results []aggBar `json:"results"`
}

type aggBar struct {
	Timestamp int64   `json:"t"`
	Open      float64 `json:"o"`
	High      float64 `json:"h"`
	Low       float64 `json:"l"`
	Close     float64 `json:"c"`
	Volume    float64 `json:"v"`
}

// FetchSeries retrieves daily aggregate closes for a ticker. Options tickers
// use the OCC form (e.g. "O:SPY260116C00500000").
func (c *Client) FetchSeries(ctx context.Context, params interfaces.SeriesParams) (*models.TimeSeries, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, models.NewProviderError(c.Name(), models.ProviderErrTransient, err)
	}

	from := params.From
	to := params.To
	if to.IsZero() {
		to = time.Now()
	}
	if from.IsZero() {
		from = to.AddDate(0, -3, 0)
	}

	q := url.Values{}
	q.Set("apiKey", c.apiKey)
	q.Set("sort", "asc")
	if params.Limit > 0 {
		q.Set("limit", fmt.Sprintf("%d", params.Limit))
	}

	reqURL := fmt.Sprintf("%s/v2/aggs/ticker/%s/range/1/day/%s/%s?%s",
		c.baseURL, url.PathEscape(params.Symbol),
		from.Format("2006-01-02"), to.Format("2006-01-02"), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, models.NewProviderError(c.Name(), models.ProviderErrTransient, err)
	}

	c.logger.Debug().Str("ticker", params.Symbol).Msg("Polygon API request")

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

	var aggs aggsResponse
	if err := json.NewDecoder(resp.Body).Decode(&aggs); err != nil {
		return nil, models.NewProviderError(c.Name(), models.ProviderErrInvalidResponse, err)
	}
	if aggs.Status == "ERROR" {
		return nil, models.NewProviderError(c.Name(), models.ProviderErrInvalidResponse,
			fmt.Errorf("api error: %s", aggs.Error))
	}
	if len(aggs.Results) == 0 {
		return nil, models.NewProviderError(c.Name(), models.ProviderErrInvalidResponse,
			fmt.Errorf("no bars for %s", params.Symbol))
	}

	labels := make([]string, len(aggs.Results))
	values := make([]float64, len(aggs.Results))
	for i, bar := range aggs.Results {
		if math.IsNaN(bar.Close) || math.IsInf(bar.Close, 0) {
			return nil, models.NewProviderError(c.Name(), models.ProviderErrInvalidResponse,
				fmt.Errorf("non-finite close at index %d", i))
		}
		labels[i] = time.UnixMilli(bar.Timestamp).UTC().Format("2006-01-02")
		values[i] = bar.Close
	}

	return models.NewTimeSeries(params.Symbol, labels, values), nil
}

// Ensure Client implements ProviderClient
var _ interfaces.ProviderClient = (*Client)(nil)
