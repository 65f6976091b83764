package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/strrl/pulsectl/pkg/oidcprobe"
	"github.com/strrl/pulsectl/pkg/pulseapi"
)

func TestValidateProvider(t *testing.T) {
	tests := []struct {
		name       string
		provider   pulseapi.SSOProvider
		wantFields []string
	}{
		{
			name:     "valid oidc",
			provider: pulseapi.SSOProvider{Name: "Corp", Type: pulseapi.ProviderOIDC, IssuerURL: "https://id.example.com/realms/corp", ClientID: "pulse"},
		},
		{
			name:       "oidc missing issuer and client",
			provider:   pulseapi.SSOProvider{Name: "Corp", Type: pulseapi.ProviderOIDC},
			wantFields: []string{"clientId", "issuerUrl"},
		},
		{
			name:       "oidc issuer not a URL",
			provider:   pulseapi.SSOProvider{Name: "Corp", Type: pulseapi.ProviderOIDC, IssuerURL: "id.example.com", ClientID: "pulse"},
			wantFields: []string{"issuerUrl"},
		},
		{
			name:     "saml with metadata url",
			provider: pulseapi.SSOProvider{Name: "Okta", Type: pulseapi.ProviderSAML, MetadataURL: "https://okta.example.com/metadata"},
		},
		{
			name:     "saml with manual settings",
			provider: pulseapi.SSOProvider{Name: "ADFS", Type: pulseapi.ProviderSAML, SSOURL: "https://adfs.example.com/sso", Certificate: "MIIC..."},
		},
		{
			name:       "saml without any source",
			provider:   pulseapi.SSOProvider{Name: "ADFS", Type: pulseapi.ProviderSAML, SSOURL: "https://adfs.example.com/sso"},
			wantFields: []string{"metadata"},
		},
		{
			name:       "unknown type and no name",
			provider:   pulseapi.SSOProvider{Type: "ldap"},
			wantFields: []string{"name", "type"},
		},
		{
			name: "email as allowed domain",
			provider: pulseapi.SSOProvider{Name: "Corp", Type: pulseapi.ProviderOIDC, IssuerURL: "https://id.example.com",
				ClientID: "pulse", AllowedDomains: []string{"alice@example.com"}},
			wantFields: []string{"allowedDomains"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateProvider(tt.provider)
			if len(tt.wantFields) == 0 {
				assert.Nil(t, errs)
				return
			}
			var fields []string
			for f := range errs {
				fields = append(fields, f)
			}
			assert.ElementsMatch(t, tt.wantFields, fields)
		})
	}
}

func TestSSOService_CreateValidatesLocally(t *testing.T) {
	backend := newFakeBackend()
	svc := NewSSOService(backend.client(t), nil, "https://pulse.example.com")

	_, err := svc.Create(context.Background(), pulseapi.SSOProvider{Type: pulseapi.ProviderOIDC})
	require.Error(t, err)
	assert.Zero(t, backend.total())

	_, err = svc.PreviewMetadata(context.Background(), pulseapi.MetadataPreviewRequest{})
	assert.ErrorIs(t, err, ErrMetadataSourceRequired)
}

func TestSSOService_Preflight(t *testing.T) {
	svc := NewSSOService(newFakeBackend().client(t), nil, "https://pulse.example.com/")

	var gotRedirect string
	svc.probe = func(ctx context.Context, issuer, clientID, redirectURL string) (*oidcprobe.Result, error) {
		gotRedirect = redirectURL
		return &oidcprobe.Result{Issuer: issuer, KeyCount: 2}, nil
	}

	result, err := svc.Preflight(context.Background(), "https://id.example.com", "pulse")
	require.NoError(t, err)
	assert.Equal(t, 2, result.KeyCount)
	assert.Equal(t, "https://pulse.example.com/api/oidc/callback", gotRedirect)

	_, err = svc.Preflight(context.Background(), "not a url", "pulse")
	require.Error(t, err)
}

type fakeImporter struct {
	authErr error
	draft   *pulseapi.SSOProvider
}

func (f *fakeImporter) Authenticate(ctx context.Context) error { return f.authErr }

func (f *fakeImporter) ProviderDraft(ctx context.Context, clientID string) (*pulseapi.SSOProvider, error) {
	return f.draft, nil
}

func TestSSOService_ImportFromKeycloak(t *testing.T) {
	client := newFakeBackend().client(t)

	_, err := NewSSOService(client, nil, "").ImportFromKeycloak(context.Background(), "pulse")
	assert.ErrorIs(t, err, ErrKeycloakNotConfigured)

	authErr := errors.New("invalid client credentials")
	_, err = NewSSOService(client, &fakeImporter{authErr: authErr}, "").ImportFromKeycloak(context.Background(), "pulse")
	assert.ErrorIs(t, err, authErr)

	draft := &pulseapi.SSOProvider{Name: "pulse", Type: pulseapi.ProviderOIDC, IssuerURL: "https://kc.example.com/realms/corp", ClientID: "pulse", ClientSecret: "s3cret"}
	got, err := NewSSOService(client, &fakeImporter{draft: draft}, "").ImportFromKeycloak(context.Background(), "pulse")
	require.NoError(t, err)
	assert.Equal(t, draft, got)
}
