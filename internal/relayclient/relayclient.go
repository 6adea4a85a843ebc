// Package relayclient is the dashboard's HTTP client for the relay's weather endpoint.
package relayclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/kjstillabower/weather-dashboard/internal/models"
	"github.com/kjstillabower/weather-dashboard/internal/observability"
)

var (
	ErrRelayFailure = errors.New("relay failure")
	ErrDecode       = errors.New("undecodable weather payload")
)

const maxBodyBytes = 16 << 20

// Client fetches weather payloads from the relay.
type Client struct {
	relayURL string
	client   *http.Client
}

// New returns a client for the relay endpoint at relayURL (e.g. http://localhost:5000/api/weather).
// timeout of 0 keeps the transport default.
func New(relayURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(relayURL)
	if err != nil {
		return nil, fmt.Errorf("invalid relay URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid relay URL: unsupported scheme %q", u.Scheme)
	}
	return &Client{
		relayURL: relayURL,
		client:   &http.Client{Timeout: timeout},
	}, nil
}

// Fetch issues GET <relayURL>?loc=<location>&unit=<marker> and decodes the body.
func (c *Client) Fetch(ctx context.Context, q models.Query) (*models.WeatherPayload, error) {
	start := time.Now()
	payload, err := c.fetch(ctx, q)
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	observability.DashboardFetchesTotal.WithLabelValues(outcome).Inc()
	observability.DashboardFetchDuration.Observe(time.Since(start).Seconds())
	return payload, err
}

func (c *Client) fetch(ctx context.Context, q models.Query) (*models.WeatherPayload, error) {
	u, err := url.Parse(c.relayURL)
	if err != nil {
		return nil, fmt.Errorf("invalid relay URL: %w", err)
	}
	params := u.Query()
	params.Set("loc", q.Location)
	params.Set("unit", string(q.Unit))
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if corrID := observability.CorrelationID(ctx); corrID != "" {
		req.Header.Set("X-Correlation-ID", corrID)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRelayFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: HTTP %d", ErrRelayFailure, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrRelayFailure, err)
	}
	var payload models.WeatherPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return &payload, nil
}
