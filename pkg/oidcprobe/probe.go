// Package oidcprobe checks an OIDC issuer from the console side before a
// provider is saved: the discovery document must load and its JWKS must
// publish at least one signing key.
package oidcprobe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"golang.org/x/oauth2"
)

var (
	ErrNoJWKS    = errors.New("discovery document has no jwks_uri")
	ErrEmptyJWKS = errors.New("issuer publishes no signing keys")
)

// Result summarizes a successful probe.
type Result struct {
	Issuer          string
	AuthURL         string
	TokenURL        string
	JWKSURL         string
	KeyCount        int
	ScopesSupported []string
	ClaimsSupported []string
	SupportsGroups  bool
	SampleLoginURL  string
}

type discoveryClaims struct {
	JWKSURI         string   `json:"jwks_uri"`
	ScopesSupported []string `json:"scopes_supported"`
	ClaimsSupported []string `json:"claims_supported"`
}

// Probe fetches issuer's discovery document and JWKS. clientID and
// redirectURL are only used to render a sample login URL.
func Probe(ctx context.Context, issuer, clientID, redirectURL string) (*Result, error) {
	issuer = strings.TrimRight(issuer, "/")

	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("discover issuer: %w", err)
	}

	var claims discoveryClaims
	if err := provider.Claims(&claims); err != nil {
		return nil, fmt.Errorf("decode discovery document: %w", err)
	}
	if claims.JWKSURI == "" {
		return nil, ErrNoJWKS
	}

	keySet, err := jwk.Fetch(ctx, claims.JWKSURI)
	if err != nil {
		return nil, fmt.Errorf("fetch JWKS: %w", err)
	}
	if keySet.Len() == 0 {
		return nil, ErrEmptyJWKS
	}

	endpoint := provider.Endpoint()
	cfg := oauth2.Config{
		ClientID:    clientID,
		RedirectURL: redirectURL,
		Endpoint:    endpoint,
		Scopes:      []string{oidc.ScopeOpenID, "profile", "email"},
	}

	result := &Result{
		Issuer:          issuer,
		AuthURL:         endpoint.AuthURL,
		TokenURL:        endpoint.TokenURL,
		JWKSURL:         claims.JWKSURI,
		KeyCount:        keySet.Len(),
		ScopesSupported: claims.ScopesSupported,
		ClaimsSupported: claims.ClaimsSupported,
		SampleLoginURL:  cfg.AuthCodeURL("preflight"),
	}
	for _, c := range claims.ClaimsSupported {
		if c == "groups" {
			result.SupportsGroups = true
			break
		}
	}
	return result, nil
}
