package pulseapi

import (
	"context"
	"net/http"
)

// Discovery returns the backend's last (cached) discovery result.
func (c *Client) Discovery(ctx context.Context) (*DiscoveryResult, error) {
	var result DiscoveryResult
	if err := c.do(ctx, http.MethodGet, "/api/discover", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Discover triggers a network scan of subnet ("auto" or empty lets the
// backend choose) and returns its result.
func (c *Client) Discover(ctx context.Context, subnet string) (*DiscoveryResult, error) {
	if subnet == "" {
		subnet = "auto"
	}
	body := map[string]string{"subnet": subnet}
	var result DiscoveryResult
	if err := c.do(ctx, http.MethodPost, "/api/discover", body, &result); err != nil {
		return nil, err
	}
	if result.Subnet == "" {
		result.Subnet = subnet
	}
	return &result, nil
}
