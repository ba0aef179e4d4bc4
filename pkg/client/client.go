// Package client provides the HTTP client for the request responses endpoint
// with error classification, optional retry and metrics.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/request-responses/pkg/api"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for client operations.
var (
	responsesRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "responses_client_requests_total",
		Help: "Total responses endpoint requests by status",
	}, []string{"status"})

	responsesRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "responses_client_request_duration_seconds",
		Help:    "Responses endpoint request duration in seconds",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10},
	})

	responsesErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "responses_client_errors_total",
		Help: "Total responses endpoint errors by class",
	}, []string{"class"})
)

// Client fetches batches of responses from a responses server.
type Client struct {
	httpClient *http.Client
	endpoint   string
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL is the server root, e.g. "http://localhost:8080" (REQUIRED).
	BaseURL string

	// UserAgent header (REQUIRED).
	UserAgent string

	// RequestID selects the request whose responses are fetched.
	// Empty lets the server pick its default.
	RequestID string

	// Timeout bounds each HTTP attempt.
	Timeout time.Duration

	// Retry controls retries of server and network errors.
	Retry RetryConfig
}

// DefaultConfig returns a default configuration.
func DefaultConfig(baseURL, userAgent string) Config {
	return Config{
		BaseURL:   baseURL,
		UserAgent: userAgent,
		Timeout:   30 * time.Second,
		Retry:     DefaultRetryConfig(),
	}
}

// New creates a new responses client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if !base.IsAbs() || base.Host == "" {
		return nil, fmt.Errorf("base url must be absolute (got %q)", cfg.BaseURL)
	}

	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	logger := log.With().Str("component", "responses-client").Logger()

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		endpoint: strings.TrimRight(cfg.BaseURL, "/") + api.ResponsesPath,
		config:   cfg,
		logger:   logger,
	}, nil
}

// FetchResponses posts the reload index to the responses endpoint and decodes the batch.
// It satisfies pager.Fetcher.
func (c *Client) FetchResponses(ctx context.Context, reloadIndex int) (*api.Payload, error) {
	form := url.Values{}
	form.Set(api.FieldReloadIndex, strconv.Itoa(reloadIndex))
	if c.config.RequestID != "" {
		form.Set(api.FieldRequestID, c.config.RequestID)
	}

	var payload *api.Payload
	err := retryWithBackoff(ctx, c.config.Retry, c.logger, func() error {
		p, err := c.post(ctx, form)
		if err != nil {
			return err
		}
		payload = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Debug().
		Int("reload_index", reloadIndex).
		Int("responses", len(payload.Responses)).
		Msg("Fetched responses")

	return payload, nil
}

// wirePayload distinguishes a missing request_responses field from an empty one.
type wirePayload struct {
	Responses *[]string `json:"request_responses"`
	HasMore   *bool     `json:"has_more"`
}

// post performs a single request attempt.
func (c *Client) post(ctx context.Context, form url.Values) (*api.Payload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.config.UserAgent)

	c.logger.Debug().
		Str("endpoint", c.endpoint).
		Str(api.FieldReloadIndex, form.Get(api.FieldReloadIndex)).
		Msg("Executing responses request")

	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	responsesRequestDuration.Observe(time.Since(startTime).Seconds())

	if err != nil {
		c.logger.Error().Err(err).Str("endpoint", c.endpoint).Msg("HTTP request failed")
		responsesErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		responsesRequestsTotal.WithLabelValues("network_error").Inc()
		return nil, &ResponsesError{
			ErrorClass: ErrorClassNetwork,
			Message:    "request failed",
			Err:        err,
		}
	}
	defer resp.Body.Close()

	responsesRequestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode >= 400 {
		errClass := classifyStatus(resp.StatusCode)
		responsesErrorsTotal.WithLabelValues(string(errClass)).Inc()

		c.logger.Warn().
			Int("status", resp.StatusCode).
			Str("error_class", string(errClass)).
			Msg("Responses request error")

		return nil, &ResponsesError{
			StatusCode: resp.StatusCode,
			ErrorClass: errClass,
			Message:    resp.Status,
		}
	}

	var wire wirePayload
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, c.decodeError(resp.StatusCode, "invalid JSON body", err)
	}
	if wire.Responses == nil {
		return nil, c.decodeError(resp.StatusCode, "missing "+`"request_responses"`, nil)
	}

	return &api.Payload{Responses: *wire.Responses, HasMore: wire.HasMore}, nil
}

func (c *Client) decodeError(status int, message string, err error) error {
	responsesErrorsTotal.WithLabelValues(string(ErrorClassDecode)).Inc()
	c.logger.Warn().Err(err).Int("status", status).Msg("Malformed responses payload")
	return &ResponsesError{
		StatusCode: status,
		ErrorClass: ErrorClassDecode,
		Message:    message,
		Err:        err,
	}
}

// classifyStatus categorizes an HTTP error status.
func classifyStatus(status int) ErrorClass {
	switch {
	case status >= 400 && status < 500:
		return ErrorClassClient
	default:
		return ErrorClassServer
	}
}

// Endpoint returns the full URL requests are posted to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
