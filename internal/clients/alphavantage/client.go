// Package alphavantage provides a client for the Alpha Vantage daily equity API
package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/calderalabs/quantfeed/internal/common"
	"github.com/calderalabs/quantfeed/internal/interfaces"
	"github.com/calderalabs/quantfeed/internal/models"
)

const (
	DefaultBaseURL   = "https://www.alphavantage.co"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 5 // requests per second
)

// Client implements interfaces.ProviderClient for Alpha Vantage.
// Response shape: an object keyed by date, each value an OHLC record with
// numbers encoded as strings.
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

// NewClient creates a new Alpha Vantage client
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
func (c *Client) Name() string { return "alphavantage" }

type dailyResponse struct {
	ErrorMessage string                    `json:"Error Message"`
	Note         string                    `json:"Note"`
	Series       map[string]dailyBarRecord `json:"Time Series (Daily)"`
}

type dailyBarRecord struct {
	Open   string `json:"1. open"`
	High   string `json:"2. high"`
	Low    string `json:"3. low"`
	Close  string `json:"4. close"`
	Volume string `json:"5. volume"`
}

// FetchSeries retrieves daily closes for a symbol.
func (c *Client) FetchSeries(ctx context.Context, params interfaces.SeriesParams) (*models.TimeSeries, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, models.NewProviderError(c.Name(), models.ProviderErrTransient, err)
	}

	q := url.Values{}
	q.Set("function", "TIME_SERIES_DAILY")
	q.Set("symbol", params.Symbol)
	q.Set("apikey", c.apiKey)
	q.Set("outputsize", "compact")

	reqURL := fmt.Sprintf("%s/query?%s", c.baseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, models.NewProviderError(c.Name(), models.ProviderErrTransient, err)
	}

	c.logger.Debug().Str("symbol", params.Symbol).Msg("Alpha Vantage API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, models.NewProviderError(c.Name(), models.ProviderErrTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, models.NewProviderError(c.Name(), classifyStatus(resp.StatusCode),
			fmt.Errorf("status %d: %s", resp.StatusCode, string(body)))
	}

	var daily dailyResponse
	if err := json.NewDecoder(resp.Body).Decode(&daily); err != nil {
		return nil, models.NewProviderError(c.Name(), models.ProviderErrInvalidResponse, err)
	}

	// Alpha Vantage reports errors and rate limiting in a 200 body.
	if daily.ErrorMessage != "" {
		return nil, models.NewProviderError(c.Name(), models.ProviderErrInvalidResponse,
			fmt.Errorf("api error: %s", daily.ErrorMessage))
	}
	if daily.Note != "" {
		return nil, models.NewProviderError(c.Name(), models.ProviderErrRateLimited,
			fmt.Errorf("api note: %s", daily.Note))
	}
	if len(daily.Series) == 0 {
		return nil, models.NewProviderError(c.Name(), models.ProviderErrInvalidResponse,
			fmt.Errorf("empty time series for %s", params.Symbol))
	}

	dates := make([]string, 0, len(daily.Series))
	for date := range daily.Series {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	if params.Limit > 0 && len(dates) > params.Limit {
		dates = dates[len(dates)-params.Limit:]
	}

	values := make([]float64, len(dates))
	for i, date := range dates {
		v, err := strconv.ParseFloat(daily.Series[date].Close, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			// One bad value fails the whole response — no partial series.
			return nil, models.NewProviderError(c.Name(), models.ProviderErrInvalidResponse,
				fmt.Errorf("unparseable close %q at %s", daily.Series[date].Close, date))
		}
		values[i] = v
	}

	return models.NewTimeSeries(params.Symbol, dates, values), nil
}

func classifyStatus(status int) models.ProviderErrorKind {
	switch {
	case status == http.StatusTooManyRequests:
		return models.ProviderErrRateLimited
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return models.ProviderErrAuth
	default:
		return models.ProviderErrTransient
	}
}

// Ensure Client implements ProviderClient
var _ interfaces.ProviderClient = (*Client)(nil)
