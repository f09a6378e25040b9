// Package client provides the HTTP client for the Open Brewery DB API with
// rate limiting, retries and error classification.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/brewery-pager/pkg/brewery"
	"github.com/Sternrassler/brewery-pager/pkg/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for API client operations.
var (
	apiRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "brewery_api_requests_total",
		Help: "Total brewery API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	apiRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "brewery_api_request_duration_seconds",
		Help:    "Brewery API request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	apiErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "brewery_api_errors_total",
		Help: "Total brewery API errors by class",
	}, []string{"class"})
)

// DefaultBaseURL is the public Open Brewery DB endpoint.
const DefaultBaseURL = "https://api.openbrewerydb.org"

// Endpoint labels; ids are not used as labels.
const (
	endpointList   = "/v1/breweries"
	endpointDetail = "/v1/breweries/{id}"
)

// maxErrorBody bounds how much of an error response is kept as message.
const maxErrorBody = 512

// Client is the brewery API client.
type Client struct {
	httpClient  *http.Client
	baseURL     *url.URL
	rateLimiter *ratelimit.Tracker
	config      Config
	logger      zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL of the API, without the /v1 path.
	BaseURL string

	// User-Agent header (REQUIRED)
	// Format: "AppName/Version (contact@example.com)"
	UserAgent string

	// Timeout per HTTP request
	Timeout time.Duration

	// Retry policy for server, rate limit and network errors
	Retry RetryConfig

	// RateLimitStore shares the request budget between clients. Nil keeps it in process.
	RateLimitStore ratelimit.StateStore
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(userAgent string) Config {
	return Config{
		BaseURL:   DefaultBaseURL,
		UserAgent: userAgent,
		Timeout:   30 * time.Second,
		Retry:     DefaultRetryConfig(),
	}
}

// New creates a new API client.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.UserAgent) == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	// Resolve the API root
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", cfg.BaseURL)
	}

	// Fill transport defaults
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	cfg.Retry = cfg.Retry.withDefaults()

	logger := log.With().Str("component", "brewery-client").Logger()

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:     base,
		rateLimiter: ratelimit.NewTracker(cfg.RateLimitStore, logger),
		config:      cfg,
		logger:      logger,
	}, nil
}

// Do performs a GET request with rate limiting, retries and error
// classification. Any status >= 400 is returned as *APIError; the response
// is only returned on success and must be closed by the caller.
func (c *Client) Do(req *http.Request, endpoint string) (*http.Response, error) {
	ctx := req.Context()

	// Start request timing
	startTime := time.Now()
	defer func() {
		apiRequestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	// Step 1: Check Rate Limit
	allowed, err := c.rateLimiter.ShouldAllowRequest(ctx)
	if err != nil {
		c.logger.Error().Err(err).Msg("Rate limit check failed")
		return nil, fmt.Errorf("rate limit check: %w", err)
	}
	if !allowed {
		c.logger.Warn().
			Str("endpoint", endpoint).
			Msg("Request blocked by rate limiter")
		apiRequestsTotal.WithLabelValues(endpoint, "rate_limited").Inc()
		return nil, &APIError{
			StatusCode: http.StatusTooManyRequests,
			ErrorClass: ErrorClassRateLimit,
			Message:    "request blocked",
			Err:        ErrRateLimited,
		}
	}

	// Step 2: Set headers
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("url", req.URL.String()).
		Msg("Executing API request")

	// Step 3: Execute with retry
	var resp *http.Response
	retryErr := retryWithBackoff(ctx, c.config.Retry, func() error {
		var reqErr error
		resp, reqErr = c.httpClient.Do(req)
		// Handle transport errors
		if reqErr != nil {
			c.logger.Warn().Err(reqErr).Str("endpoint", endpoint).Msg("HTTP request failed")
			apiErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			apiRequestsTotal.WithLabelValues(endpoint, "network_error").Inc()
			return &APIError{ErrorClass: ErrorClassNetwork, Message: "request failed", Err: reqErr}
		}

		// Update rate limit from headers
		if err := c.rateLimiter.UpdateFromHeaders(ctx, resp.Header); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to update rate limit from headers")
		}

		apiRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()
		if resp.StatusCode < 400 {
			return nil
		}

		// Non-2xx: classify and release the body
		status := resp.StatusCode
		errClass := classifyStatus(status)
		apiErrorsTotal.WithLabelValues(string(errClass)).Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		resp.Body.Close()
		resp = nil

		c.logger.Warn().
			Str("endpoint", endpoint).
			Int("status", status).
			Str("error_class", string(errClass)).
			Msg("API request error")

		return &APIError{
			StatusCode: status,
			ErrorClass: errClass,
			Message:    errorMessage(status, body),
		}
	})
	if retryErr != nil {
		return nil, retryErr
	}

	return resp, nil
}

// FetchByType returns one page of breweries of a type. An empty page means
// there are no more breweries.
func (c *Client) FetchByType(ctx context.Context, breweryType string, perPage, page int) ([]brewery.Brewery, error) {
	q := url.Values{}
	q.Set("by_type", breweryType)
	q.Set("per_page", strconv.Itoa(perPage))
	q.Set("page", strconv.Itoa(page))

	resp, err := c.get(ctx, endpointList, "/v1/breweries", q)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out []brewery.Brewery
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode %s page %d: %v", ErrMalformedPayload, breweryType, page, err)
	}
	for i := range out {
		if err := out[i].Validate(); err != nil {
			return nil, fmt.Errorf("%w: %s page %d item %d: %v", ErrMalformedPayload, breweryType, page, i, err)
		}
	}
	if out == nil {
		out = []brewery.Brewery{}
	}

	c.logger.Debug().
		Str("type", breweryType).
		Int("page", page).
		Int("count", len(out)).
		Msg("Fetched brewery page")
	return out, nil
}

// FetchByID returns one brewery, or nil, nil if the API does not know it.
func (c *Client) FetchByID(ctx context.Context, id string) (*brewery.Brewery, error) {
	resp, err := c.get(ctx, endpointDetail, "/v1/breweries/"+url.PathEscape(id), nil)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	defer resp.Body.Close()

	var b brewery.Brewery
	if err := json.NewDecoder(resp.Body).Decode(&b); err != nil {
		return nil, fmt.Errorf("%w: decode brewery %s: %v", ErrMalformedPayload, id, err)
	}
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("%w: brewery %s: %v", ErrMalformedPayload, id, err)
	}
	return &b, nil
}

// RateLimitState returns the last known request budget.
func (c *Client) RateLimitState(ctx context.Context) (*ratelimit.State, error) {
	return c.rateLimiter.GetState(ctx)
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

func (c *Client) get(ctx context.Context, endpoint, path string, query url.Values) (*http.Response, error) {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	return c.Do(req, endpoint)
}

// errorMessage extracts the "message" field of a JSON error body, falling
// back to the raw body or the status text.
func errorMessage(status int, body []byte) string {
	var payload struct {
		Message string   `json:"message"`
		Errors  []string `json:"errors"`
	}
	if json.Unmarshal(body, &payload) == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if len(payload.Errors) > 0 {
			return strings.Join(payload.Errors, "; ")
		}
	}
	if msg := strings.TrimSpace(string(body)); msg != "" {
		return msg
	}
	return http.StatusText(status)
}
