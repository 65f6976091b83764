package service

import (
	"context"
	"net/url"
	"strings"

	"github.com/strrl/pulsectl/pkg/pulseapi"
)

// GuestAPI is the subset of the API used for guest metadata.
type GuestAPI interface {
	GuestMetadata(ctx context.Context, guestID string) (*pulseapi.GuestMetadata, error)
	UpdateGuestMetadata(ctx context.Context, md pulseapi.GuestMetadata) (*pulseapi.GuestMetadata, error)
}

// GuestService edits user-managed guest metadata.
type GuestService struct {
	api GuestAPI
}

// NewGuestService creates a new GuestService.
func NewGuestService(api GuestAPI) *GuestService {
	return &GuestService{api: api}
}

// Metadata returns a guest's metadata.
func (s *GuestService) Metadata(ctx context.Context, guestID string) (*pulseapi.GuestMetadata, error) {
	return s.api.GuestMetadata(ctx, guestID)
}

// SetMetadata validates and stores a guest's metadata. A custom URL must be
// absolute http(s).
func (s *GuestService) SetMetadata(ctx context.Context, md pulseapi.GuestMetadata) (*pulseapi.GuestMetadata, error) {
	md.ID = strings.TrimSpace(md.ID)
	md.CustomURL = strings.TrimSpace(md.CustomURL)
	errs := FieldErrors{}
	if md.ID == "" {
		errs["id"] = "Guest ID is required"
	}
	if md.CustomURL != "" {
		if u, err := url.Parse(md.CustomURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs["customUrl"] = "Custom URL must be an http(s) URL"
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return s.api.UpdateGuestMetadata(ctx, md)
}
