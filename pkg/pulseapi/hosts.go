package pulseapi

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
)

// State fetches the current live resource snapshot from GET /api/state.
func (c *Client) State(ctx context.Context) (*State, error) {
	var state State
	if err := c.do(ctx, http.MethodGet, "/api/state", nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// LookupHost asks the backend whether a host agent has reported under query,
// which may be a host id or a hostname. It returns nil, nil when no host
// matches.
func (c *Client) LookupHost(ctx context.Context, query string) (*HostLookup, error) {
	params := url.Values{}
	params.Set("q", strings.TrimSpace(query))

	var result struct {
		Success bool        `json:"success"`
		Host    *HostLookup `json:"host"`
	}
	err := c.do(ctx, http.MethodGet, "/api/agents/host/lookup?"+params.Encode(), nil, &result)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return result.Host, nil
}

// GetHost fetches a single host agent.
func (c *Client) GetHost(ctx context.Context, id string) (*Host, error) {
	var host Host
	if err := c.do(ctx, http.MethodGet, "/api/agents/host/"+url.PathEscape(id), nil, &host); err != nil {
		return nil, err
	}
	return &host, nil
}

// UpdateHost applies patch to a host agent.
func (c *Client) UpdateHost(ctx context.Context, id string, patch HostPatch) error {
	return c.do(ctx, http.MethodPut, "/api/agents/host/"+url.PathEscape(id), patch, nil)
}

// DeleteHost removes a host agent and revokes its token. The host disappears
// from the live state only once the backend expires it.
func (c *Client) DeleteHost(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/agents/host/"+url.PathEscape(id), nil, nil)
}
