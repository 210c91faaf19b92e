// Package fred provides a client for the FRED macroeconomic observations API
package fred

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
	DefaultBaseURL   = "https://api.stlouisfed.org"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 5 // requests per second

	// FRED marks a missing observation with a literal dot.
	missingMarker = "."
)

// Client implements interfaces.ProviderClient for FRED.
// Response shape: {"observations": [{"date": "...", "value": "3.5"|"."}]}.
// A "." value is a documented missing-data marker and becomes an absent
// point; any other unparseable value fails the response as a whole.
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

// NewClient creates a new FRED client
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
func (c *Client) Name() string { return "fred" }

type observationsResponse struct {
	ErrorCode    int           `json:"error_code"`
	ErrorMessage string        `json:"error_message"`
	Observations []observation `json:"observations"`
}

type observation struct {
	Date  string `json:"date"`
	Value string `json:"value"`
}

// FetchSeries retrieves observations for a FRED series id (e.g. "DGS10").
func (c *Client) FetchSeries(ctx context.Context, params interfaces.SeriesParams) (*models.TimeSeries, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, models.NewProviderError(c.Name(), models.ProviderErrTransient, err)
	}

	q := url.Values{}
	q.Set("series_id", params.Symbol)
	q.Set("api_key", c.apiKey)
	q.Set("file_type", "json")
	q.Set("sort_order", "asc")
	if params.Limit > 0 {
		q.Set("limit", strconv.Itoa(params.Limit))
	}
	if !params.From.IsZero() {
		q.Set("observation_start", params.From.Format("2006-01-02"))
	}
	if !params.To.IsZero() {
		q.Set("observation_end", params.To.Format("2006-01-02"))
	}

	reqURL := fmt.Sprintf("%s/fred/series/observations?%s", c.baseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, models.NewProviderError(c.Name(), models.ProviderErrTransient, err)
	}

	c.logger.Debug().Str("series_id", params.Symbol).Msg("FRED API request")

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
		case http.StatusBadRequest, http.StatusForbidden:
			// FRED reports a bad api_key as 400 with an error body.
			kind = models.ProviderErrAuth
		}
		return nil, models.NewProviderError(c.Name(), kind,
			fmt.Errorf("status %d: %s", resp.StatusCode, string(body)))
	}

	var obs observationsResponse
	if err := json.NewDecoder(resp.Body).Decode(&obs); err != nil {
		return nil, models.NewProviderError(c.Name(), models.ProviderErrInvalidResponse, err)
	}
	if obs.ErrorCode != 0 {
		return nil, models.NewProviderError(c.Name(), models.ProviderErrInvalidResponse,
			fmt.Errorf("api error %d: %s", obs.ErrorCode, obs.ErrorMessage))
	}
	if len(obs.Observations) == 0 {
		return nil, models.NewProviderError(c.Name(), models.ProviderErrInvalidResponse,
			fmt.Errorf("no observations for %s", params.Symbol))
	}

	series := &models.TimeSeries{
		Key:    params.Symbol,
		Labels: make([]string, len(obs.Observations)),
		Values: make([]*float64, len(obs.Observations)),
	}
	for i, o := range obs.Observations {
		series.Labels[i] = o.Date
		if o.Value == missingMarker {
			continue // absent point, carried through
		}
		v, err := strconv.ParseFloat(o.Value, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, models.NewProviderError(c.Name(), models.ProviderErrInvalidResponse,
				fmt.Errorf("unparseable value %q at %s", o.Value, o.Date))
		}
		series.Values[i] = &v
	}

	return series, nil
}

// Ensure Client implements ProviderClient
var _ interfaces.ProviderClient = (*Client)(nil)
