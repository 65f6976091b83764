package pulseapi

import (
	"context"
	"net/http"
	"net/url"
)

// ScopeHostAgentReport limits a token to host agent reporting.
const ScopeHostAgentReport = "host-agent:report"

// SecurityStatus fetches GET /api/security/status.
func (c *Client) SecurityStatus(ctx context.Context) (*SecurityStatus, error) {
	var status SecurityStatus
	if err := c.do(ctx, http.MethodGet, "/api/security/status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// RegenerateToken rotates the primary API token and returns the new raw value.
func (c *Client) RegenerateToken(ctx context.Context) (string, error) {
	var result struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/security/regenerate-token", struct{}{}, &result); err != nil {
		return "", err
	}
	return result.Token, nil
}

// ListTokens returns the display records of all API tokens.
func (c *Client) ListTokens(ctx context.Context) ([]APIToken, error) {
	var result struct {
		Tokens []APIToken `json:"tokens"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/security/tokens", nil, &result); err != nil {
		return nil, err
	}
	return result.Tokens, nil
}

// CreateToken creates a scoped API token. The raw secret in the result is
// not retrievable again.
func (c *Client) CreateToken(ctx context.Context, req CreateTokenRequest) (*CreatedToken, error) {
	var created CreatedToken
	if err := c.do(ctx, http.MethodPost, "/api/security/tokens", req, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// DeleteToken revokes an API token.
func (c *Client) DeleteToken(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/security/tokens/"+url.PathEscape(id), nil, nil)
}
