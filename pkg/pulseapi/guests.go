package pulseapi

import (
	"context"
	"net/http"
	"net/url"
)

// GuestMetadata fetches the metadata of one guest.
func (c *Client) GuestMetadata(ctx context.Context, guestID string) (*GuestMetadata, error) {
	var md GuestMetadata
	if err := c.do(ctx, http.MethodGet, "/api/guests/metadata/"+url.PathEscape(guestID), nil, &md); err != nil {
		return nil, err
	}
	return &md, nil
}

// UpdateGuestMetadata replaces the metadata of one guest.
func (c *Client) UpdateGuestMetadata(ctx context.Context, md GuestMetadata) (*GuestMetadata, error) {
	var updated GuestMetadata
	if err := c.do(ctx, http.MethodPut, "/api/guests/metadata/"+url.PathEscape(md.ID), md, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}
