package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/strrl/pulsectl/pkg/oidcprobe"
	"github.com/strrl/pulsectl/pkg/pulseapi"
)

// SSOAPI is the subset of the API used for SSO provider settings.
type SSOAPI interface {
	ListSSOProviders(ctx context.Context) ([]pulseapi.SSOProvider, error)
	CreateSSOProvider(ctx context.Context, p pulseapi.SSOProvider) (*pulseapi.SSOProvider, error)
	UpdateSSOProvider(ctx context.Context, p pulseapi.SSOProvider) (*pulseapi.SSOProvider, error)
	DeleteSSOProvider(ctx context.Context, id string) error
	TestSSOProvider(ctx context.Context, p pulseapi.SSOProvider) (*pulseapi.SSOTestResult, error)
	PreviewMetadata(ctx context.Context, req pulseapi.MetadataPreviewRequest) (*pulseapi.IdPMetadata, error)
}

// ProviderImporter builds SSO provider drafts from an external identity
// provider's client registry.
type ProviderImporter interface {
	Authenticate(ctx context.Context) error
	ProviderDraft(ctx context.Context, clientID string) (*pulseapi.SSOProvider, error)
}

// ProbeFunc checks an OIDC issuer before it is saved.
type ProbeFunc func(ctx context.Context, issuer, clientID, redirectURL string) (*oidcprobe.Result, error)

// SSOService manages SSO provider configuration.
type SSOService struct {
	api         SSOAPI
	importer    ProviderImporter
	probe       ProbeFunc
	redirectURL string
}

// NewSSOService creates a new SSOService. importer may be nil when no
// Keycloak admin client is configured.
func NewSSOService(api SSOAPI, importer ProviderImporter, baseURL string) *SSOService {
	return &SSOService{
		api:         api,
		importer:    importer,
		probe:       oidcprobe.Probe,
		redirectURL: strings.TrimRight(baseURL, "/") + "/api/oidc/callback",
	}
}

// ValidateProvider checks a provider form before anything is sent.
func ValidateProvider(p pulseapi.SSOProvider) FieldErrors {
	errs := FieldErrors{}
	if strings.TrimSpace(p.Name) == "" {
		errs["name"] = "Name is required"
	}

	switch p.Type {
	case pulseapi.ProviderOIDC:
		if strings.TrimSpace(p.IssuerURL) == "" {
			errs["issuerUrl"] = "Issuer URL is required"
		} else if !isHTTPURL(p.IssuerURL) {
			errs["issuerUrl"] = "Issuer URL must be an http(s) URL"
		}
		if strings.TrimSpace(p.ClientID) == "" {
			errs["clientId"] = "Client ID is required"
		}
	case pulseapi.ProviderSAML:
		hasMetadata := strings.TrimSpace(p.MetadataURL) != "" || strings.TrimSpace(p.MetadataXML) != ""
		hasManual := strings.TrimSpace(p.SSOURL) != "" && strings.TrimSpace(p.Certificate) != ""
		if !hasMetadata && !hasManual {
			errs["metadata"] = "Provide a metadata URL, metadata XML, or an SSO URL with a certificate"
		}
		if p.MetadataURL != "" && !isHTTPURL(p.MetadataURL) {
			errs["metadataUrl"] = "Metadata URL must be an http(s) URL"
		}
	default:
		errs["type"] = fmt.Sprintf("Invalid provider type. Valid types: %s, %s", pulseapi.ProviderOIDC, pulseapi.ProviderSAML)
	}

	for _, domain := range p.AllowedDomains {
		if strings.Contains(domain, "@") || strings.TrimSpace(domain) == "" {
			errs["allowedDomains"] = "Allowed domains must be bare domain names"
			break
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// List returns the configured providers.
func (s *SSOService) List(ctx context.Context) ([]pulseapi.SSOProvider, error) {
	return s.api.ListSSOProviders(ctx)
}

// Create validates and stores a new provider.
func (s *SSOService) Create(ctx context.Context, p pulseapi.SSOProvider) (*pulseapi.SSOProvider, error) {
	if errs := ValidateProvider(p); errs != nil {
		return nil, errs
	}
	return s.api.CreateSSOProvider(ctx, p)
}

// Update validates and replaces a provider.
func (s *SSOService) Update(ctx context.Context, p pulseapi.SSOProvider) (*pulseapi.SSOProvider, error) {
	if p.ID == "" {
		return nil, FieldErrors{"id": "Provider ID is required"}
	}
	if errs := ValidateProvider(p); errs != nil {
		return nil, errs
	}
	return s.api.UpdateSSOProvider(ctx, p)
}

// Delete removes a provider.
func (s *SSOService) Delete(ctx context.Context, id string) error {
	return s.api.DeleteSSOProvider(ctx, id)
}

// Test asks the backend to check the provider connection.
func (s *SSOService) Test(ctx context.Context, p pulseapi.SSOProvider) (*pulseapi.SSOTestResult, error) {
	if errs := ValidateProvider(p); errs != nil {
		return nil, errs
	}
	return s.api.TestSSOProvider(ctx, p)
}

// PreviewMetadata asks the backend to parse SAML IdP metadata.
func (s *SSOService) PreviewMetadata(ctx context.Context, req pulseapi.MetadataPreviewRequest) (*pulseapi.IdPMetadata, error) {
	if strings.TrimSpace(req.MetadataURL) == "" && strings.TrimSpace(req.MetadataXML) == "" {
		return nil, ErrMetadataSourceRequired
	}
	return s.api.PreviewMetadata(ctx, req)
}

// Preflight checks an OIDC issuer from this machine: its discovery document
// must load and its JWKS must publish at least one key.
func (s *SSOService) Preflight(ctx context.Context, issuer, clientID string) (*oidcprobe.Result, error) {
	if !isHTTPURL(issuer) {
		return nil, FieldErrors{"issuerUrl": "Issuer URL must be an http(s) URL"}
	}
	result, err := s.probe(ctx, issuer, clientID, s.redirectURL)
	if err != nil {
		slog.Warn("oidc preflight failed", "issuer", issuer, "error", err)
		return nil, err
	}
	slog.Debug("oidc preflight passed", "issuer", issuer, "keys", result.KeyCount)
	return result, nil
}

// ImportFromKeycloak builds a provider draft from a Keycloak client. The
// draft is validated but not saved.
func (s *SSOService) ImportFromKeycloak(ctx context.Context, clientID string) (*pulseapi.SSOProvider, error) {
	if s.importer == nil {
		return nil, ErrKeycloakNotConfigured
	}
	if err := s.importer.Authenticate(ctx); err != nil {
		return nil, fmt.Errorf("authenticate to keycloak: %w", err)
	}
	draft, err := s.importer.ProviderDraft(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("import keycloak client %s: %w", clientID, err)
	}
	if errs := ValidateProvider(*draft); errs != nil {
		return nil, errs
	}
	return draft, nil
}
