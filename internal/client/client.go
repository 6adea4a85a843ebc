package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kjstillabower/weather-dashboard/internal/models"
	"github.com/kjstillabower/weather-dashboard/internal/observability"
)

// WeatherClient fetches a raw timeline document from the weather provider.
type WeatherClient interface {
	GetTimeline(ctx context.Context, query models.Query) ([]byte, error)
}

var (
	ErrInvalidAPIKey    = errors.New("invalid API key")
	ErrLocationNotFound = errors.New("location not found")
	ErrUpstreamFailure  = errors.New("upstream failure")
	ErrRateLimited      = errors.New("rate limited")
	ErrInvalidBody      = errors.New("invalid response body")
)

// maxBodyBytes caps how much of a provider response is read. Fifteen-day
// timelines with hourly data are a few hundred KB.
const maxBodyBytes = 16 << 20

// VisualCrossingClient calls the Visual Crossing timeline API. One call per
// GetTimeline; it never retries.
type VisualCrossingClient struct {
	apiKey string
	apiURL string
	client *http.Client
}

// NewVisualCrossingClient returns a client for the timeline endpoint at apiURL.
// timeout of 0 keeps the transport default. An empty apiKey is accepted; the
// provider rejects such calls and they surface as ErrInvalidAPIKey.
func NewVisualCrossingClient(apiKey, apiURL string, timeout time.Duration) (*VisualCrossingClient, error) {
	base, err := url.Parse(apiURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid API URL: unsupported scheme %q", base.Scheme)
	}

	return &VisualCrossingClient{
		apiKey: apiKey,
		apiURL: strings.TrimRight(apiURL, "/"),
		client: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// GetTimeline issues GET <apiURL>/<location>?key=...&unitGroup=... and returns the body verbatim.
// Non-2xx statuses and bodies that are not JSON are errors.
func (c *VisualCrossingClient) GetTimeline(ctx context.Context, query models.Query) ([]byte, error) {
	start := time.Now()

	req, err := c.buildRequest(ctx, query)
	if err != nil {
		observability.WeatherAPICallsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("build request: %w", err)
	}

	if corrID := observability.CorrelationID(ctx); corrID != "" {
		req.Header.Set("X-Correlation-ID", corrID)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		duration := time.Since(start).Seconds()
		observability.WeatherAPICallsTotal.WithLabelValues("error").Inc()
		observability.WeatherAPIDuration.WithLabelValues("error").Observe(duration)

		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("request timeout: %w", err)
		}
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	duration := time.Since(start).Seconds()
	status := statusLabel(resp.StatusCode)
	observability.WeatherAPICallsTotal.WithLabelValues(status).Inc()
	observability.WeatherAPIDuration.WithLabelValues(status).Observe(duration)

	if err := handleErrorResponse(resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: provider returned non-JSON content", ErrInvalidBody)
	}

	return body, nil
}

// buildRequest escapes the location as a single path segment and encodes the query string.
func (c *VisualCrossingClient) buildRequest(ctx context.Context, query models.Query) (*http.Request, error) {
	u, err := url.Parse(c.apiURL + "/" + url.PathEscape(query.Location))
	if err != nil {
		return nil, fmt.Errorf("invalid API URL: %w", err)
	}

	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("unitGroup", query.UnitGroup())
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	return req, nil
}

func handleErrorResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	// Visual Crossing explains 4xx failures in a short plain-text body.
	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	msg := strings.TrimSpace(string(detail))

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrInvalidAPIKey, msg)
	case http.StatusBadRequest, http.StatusNotFound:
		return fmt.Errorf("%w: HTTP %d: %s", ErrLocationNotFound, resp.StatusCode, msg)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", ErrRateLimited, msg)
	}
	return fmt.Errorf("%w: HTTP %d", ErrUpstreamFailure, resp.StatusCode)
}

func statusLabel(statusCode int) string {
	if statusCode >= 200 && statusCode < 300 {
		return "success"
	}
	if statusCode == 429 {
		return "rate_limited"
	}
	if statusCode >= 400 && statusCode < 500 {
		return "client_error"
	}
	if statusCode >= 500 {
		return "server_error"
	}
	return "error"
}
