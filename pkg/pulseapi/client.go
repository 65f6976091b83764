// Package pulseapi is the HTTP/JSON client for the monitoring dashboard backend.
//
// It covers the settings-area endpoints the console needs: security status and
// API tokens, host agents, organizations and shares, SSO providers, network
// discovery and guest metadata. Every call takes a context and is awaited
// individually; nothing is retried.
package pulseapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultTimeout bounds a single request when the caller does not supply an
// *http.Client of its own.
const DefaultTimeout = 30 * time.Second

// Client is the dashboard API client.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithToken sets the API token sent in the X-API-Token header.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// NewClient creates a new API client for the dashboard at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the normalized dashboard URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Token returns the configured API token.
func (c *Client) Token() string {
	return c.token
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("X-API-Token", c.token)
	}
	return req, nil
}

// do sends the request and decodes a JSON response into out when out is non-nil.
// Non-2xx responses are returned as *APIError.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := decodeAPIError(resp)
		slog.Debug("api request failed",
			"method", method,
			"path", path,
			"status", resp.StatusCode,
			"request_id", req.Header.Get("X-Request-ID"),
			"error", apiErr.Message)
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if err == io.EOF {
			return nil
		}
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Health checks if the dashboard is reachable.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/api/health", nil, nil)
}
