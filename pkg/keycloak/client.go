// Package keycloak reads OIDC client definitions from a Keycloak realm so they
// can be turned into SSO provider configurations without copying secrets by hand.
package keycloak

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Nerzal/gocloak/v13"
	"github.com/strrl/pulsectl/pkg/pulseapi"
)

var (
	ErrClientNotFound       = errors.New("client not found")
	ErrStandardFlowDisabled = errors.New("client does not allow the authorization code flow")
	ErrNotAuthenticated     = errors.New("admin client is not authenticated")
)

// AdminClientConfig holds configuration for the Keycloak admin client.
type AdminClientConfig struct {
	URL          string
	Realm        string
	ClientID     string
	ClientSecret string
}

// AdminClient provides the Keycloak Admin API operations the console needs.
type AdminClient struct {
	client      *gocloak.GoCloak
	config      AdminClientConfig
	accessToken string
}

// NewAdminClient creates a new Keycloak admin client.
func NewAdminClient(config AdminClientConfig) *AdminClient {
	config.URL = strings.TrimRight(config.URL, "/")
	return &AdminClient{
		client: gocloak.NewClient(config.URL),
		config: config,
	}
}

// Authenticate authenticates the admin client using client credentials.
func (c *AdminClient) Authenticate(ctx context.Context) error {
	token, err := c.client.LoginClient(ctx, c.config.ClientID, c.config.ClientSecret, c.config.Realm)
	if err != nil {
		return fmt.Errorf("login client: %w", err)
	}
	c.accessToken = token.AccessToken
	return nil
}

// IssuerURL is the OIDC issuer of the configured realm.
func (c *AdminClient) IssuerURL() string {
	return c.config.URL + "/realms/" + c.config.Realm
}

// ProviderDraft builds an OIDC SSO provider from the Keycloak client with the
// given clientId. The draft is not saved; callers validate and create it.
func (c *AdminClient) ProviderDraft(ctx context.Context, clientID string) (*pulseapi.SSOProvider, error) {
	if c.accessToken == "" {
		return nil, ErrNotAuthenticated
	}

	clients, err := c.client.GetClients(ctx, c.accessToken, c.config.Realm, gocloak.GetClientsParams{
		ClientID: gocloak.StringP(clientID),
	})
	if err != nil {
		return nil, fmt.Errorf("get clients: %w", err)
	}
	if len(clients) == 0 {
		return nil, ErrClientNotFound
	}

	kc := clients[0]
	if kc.StandardFlowEnabled != nil && !*kc.StandardFlowEnabled {
		return nil, ErrStandardFlowDisabled
	}

	provider := &pulseapi.SSOProvider{
		Name:        clientID,
		Type:        pulseapi.ProviderOIDC,
		Enabled:     true,
		IssuerURL:   c.IssuerURL(),
		ClientID:    gocloak.PString(kc.ClientID),
		Scopes:      []string{"openid", "profile", "email"},
		GroupsClaim: "groups",
	}
	if name := gocloak.PString(kc.Name); name != "" {
		provider.Name = name
	}

	if kc.PublicClient == nil || !*kc.PublicClient {
		secret, err := c.client.GetClientSecret(ctx, c.accessToken, c.config.Realm, gocloak.PString(kc.ID))
		if err != nil {
			return nil, fmt.Errorf("get client secret: %w", err)
		}
		provider.ClientSecret = gocloak.PString(secret.Value)
	}

	return provider, nil
}
