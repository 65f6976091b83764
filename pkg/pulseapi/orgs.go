package pulseapi

import (
	"context"
	"net/http"
	"net/url"
)

func orgPath(orgID string, parts ...string) string {
	p := "/api/orgs/" + url.PathEscape(orgID)
	for _, part := range parts {
		p += "/" + url.PathEscape(part)
	}
	return p
}

// ListOrganizations returns the organizations visible to the caller.
func (c *Client) ListOrganizations(ctx context.Context) ([]Organization, error) {
	var orgs []Organization
	if err := c.do(ctx, http.MethodGet, "/api/orgs", nil, &orgs); err != nil {
		return nil, err
	}
	return orgs, nil
}

// GetOrganization fetches one organization.
func (c *Client) GetOrganization(ctx context.Context, orgID string) (*Organization, error) {
	var org Organization
	if err := c.do(ctx, http.MethodGet, orgPath(orgID), nil, &org); err != nil {
		return nil, err
	}
	return &org, nil
}

// UpdateOrganization changes an organization's display name.
func (c *Client) UpdateOrganization(ctx context.Context, orgID, displayName string) (*Organization, error) {
	body := map[string]string{"displayName": displayName}
	var org Organization
	if err := c.do(ctx, http.MethodPut, orgPath(orgID), body, &org); err != nil {
		return nil, err
	}
	return &org, nil
}

// ListMembers returns an organization's members.
func (c *Client) ListMembers(ctx context.Context, orgID string) ([]Member, error) {
	var members []Member
	if err := c.do(ctx, http.MethodGet, orgPath(orgID, "members"), nil, &members); err != nil {
		return nil, err
	}
	return members, nil
}

// AddMember adds or updates a member's role.
func (c *Client) AddMember(ctx context.Context, orgID, userID, role string) (*Member, error) {
	body := map[string]string{"userId": userID, "role": role}
	var member Member
	if err := c.do(ctx, http.MethodPost, orgPath(orgID, "members"), body, &member); err != nil {
		return nil, err
	}
	return &member, nil
}

// BillingStatus fetches an organization's billing state.
func (c *Client) BillingStatus(ctx context.Context, orgID string) (*BillingStatus, error) {
	var status BillingStatus
	if err := c.do(ctx, http.MethodGet, orgPath(orgID, "billing"), nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// ListShares returns the shares an organization has granted to others.
func (c *Client) ListShares(ctx context.Context, orgID string) ([]Share, error) {
	var shares []Share
	if err := c.do(ctx, http.MethodGet, orgPath(orgID, "shares"), nil, &shares); err != nil {
		return nil, err
	}
	return shares, nil
}

// ListIncomingShares returns the shares other organizations granted to orgID.
func (c *Client) ListIncomingShares(ctx context.Context, orgID string) ([]Share, error) {
	var shares []Share
	if err := c.do(ctx, http.MethodGet, orgPath(orgID, "shares", "incoming"), nil, &shares); err != nil {
		return nil, err
	}
	return shares, nil
}

// CreateShare grants a resource of orgID to another organization.
func (c *Client) CreateShare(ctx context.Context, orgID string, req CreateShareRequest) (*Share, error) {
	var share Share
	if err := c.do(ctx, http.MethodPost, orgPath(orgID, "shares"), req, &share); err != nil {
		return nil, err
	}
	return &share, nil
}

// DeleteShare removes an outgoing share.
func (c *Client) DeleteShare(ctx context.Context, orgID, shareID string) error {
	return c.do(ctx, http.MethodDelete, orgPath(orgID, "shares", shareID), nil, nil)
}
