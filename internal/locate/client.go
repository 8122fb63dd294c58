// Package locate looks up the device position from an IP geolocation
// service that answers with a JSON body.
package locate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/five82/tally/internal/state"
)

// ErrNoPosition is returned when the service answers without coordinates.
var ErrNoPosition = errors.New("locate: response has no position")

// Locator resolves the current position.
type Locator interface {
	Locate(ctx context.Context) (state.Location, error)
}

var _ Locator = (*Client)(nil)

// Client queries a geolocation endpoint.
type Client struct {
	endpoint  *url.URL
	http      *http.Client
	userAgent string
	now       func() time.Time
}

const (
	defaultUserAgent = "tally/0.1"
	defaultTimeout   = 5 * time.Second
)

// NewClient builds a Client for endpoint. A non-positive timeout uses the
// default.
func NewClient(endpoint string, timeout time.Duration) (*Client, error) {
	u, err := parseEndpoint(endpoint)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		endpoint:  u,
		http:      &http.Client{Timeout: timeout},
		userAgent: defaultUserAgent,
		now:       time.Now,
	}, nil
}

type response struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	City      string   `json:"city"`
	Error     bool     `json:"error"`
	Reason    string   `json:"reason"`
}

// Locate fetches the current position.
func (c *Client) Locate(ctx context.Context) (state.Location, error) {
	if c == nil {
		return state.Location{}, fmt.Errorf("client is nil")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint.String(), nil)
	if err != nil {
		return state.Location{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return state.Location{}, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return state.Location{}, fmt.Errorf("locate returned status %d", resp.StatusCode)
	}

	var payload response
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return state.Location{}, fmt.Errorf("decode response: %w", err)
	}
	if payload.Error {
		return state.Location{}, fmt.Errorf("locate: %s", payload.Reason)
	}
	if payload.Latitude == nil || payload.Longitude == nil {
		return state.Location{}, ErrNoPosition
	}
	return state.Location{
		Latitude:  *payload.Latitude,
		Longitude: *payload.Longitude,
		City:      payload.City,
		Found:     c.now(),
	}, nil
}

func parseEndpoint(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("locate url is empty")
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse locate url %q: %w", raw, err)
	}
	u.Fragment = ""
	return u, nil
}
