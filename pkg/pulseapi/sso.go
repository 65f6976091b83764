package pulseapi

import (
	"context"
	"net/http"
	"net/url"
)

const ssoProvidersPath = "/api/security/sso/providers"

// ListSSOProviders returns every configured identity provider.
func (c *Client) ListSSOProviders(ctx context.Context) ([]SSOProvider, error) {
	var result struct {
		Providers []SSOProvider `json:"providers"`
	}
	if err := c.do(ctx, http.MethodGet, ssoProvidersPath, nil, &result); err != nil {
		return nil, err
	}
	return result.Providers, nil
}

// CreateSSOProvider stores a new identity provider.
func (c *Client) CreateSSOProvider(ctx context.Context, p SSOProvider) (*SSOProvider, error) {
	var created SSOProvider
	if err := c.do(ctx, http.MethodPost, ssoProvidersPath, p, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateSSOProvider replaces an identity provider's configuration.
func (c *Client) UpdateSSOProvider(ctx context.Context, p SSOProvider) (*SSOProvider, error) {
	var updated SSOProvider
	if err := c.do(ctx, http.MethodPut, ssoProvidersPath+"/"+url.PathEscape(p.ID), p, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteSSOProvider removes an identity provider.
func (c *Client) DeleteSSOProvider(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, ssoProvidersPath+"/"+url.PathEscape(id), nil, nil)
}

// TestSSOProvider asks the backend to verify it can reach the provider.
func (c *Client) TestSSOProvider(ctx context.Context, p SSOProvider) (*SSOTestResult, error) {
	var result SSOTestResult
	if err := c.do(ctx, http.MethodPost, "/api/security/sso/test", p, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// PreviewMetadata asks the backend to fetch and parse SAML IdP metadata.
func (c *Client) PreviewMetadata(ctx context.Context, req MetadataPreviewRequest) (*IdPMetadata, error) {
	var md IdPMetadata
	if err := c.do(ctx, http.MethodPost, "/api/security/sso/metadata/preview", req, &md); err != nil {
		return nil, err
	}
	return &md, nil
}
