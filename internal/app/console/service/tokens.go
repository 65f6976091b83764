package service

import (
	"context"
	"strings"

	"github.com/strrl/pulsectl/pkg/apitoken"
	"github.com/strrl/pulsectl/pkg/pulseapi"
)

// TokenAPI is the subset of the API used to manage API tokens.
type TokenAPI interface {
	ListTokens(ctx context.Context) ([]pulseapi.APIToken, error)
	CreateToken(ctx context.Context, req pulseapi.CreateTokenRequest) (*pulseapi.CreatedToken, error)
	DeleteToken(ctx context.Context, id string) error
	RegenerateToken(ctx context.Context) (string, error)
}

// TokenView is an API token as listed to the operator.
type TokenView struct {
	pulseapi.APIToken
	Display string
}

// TokenService manages API tokens.
type TokenService struct {
	api TokenAPI
}

// NewTokenService creates a new TokenService.
func NewTokenService(api TokenAPI) *TokenService {
	return &TokenService{api: api}
}

// List returns all tokens with their masked display value.
func (s *TokenService) List(ctx context.Context) ([]TokenView, error) {
	tokens, err := s.api.ListTokens(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]TokenView, len(tokens))
	for i, t := range tokens {
		views[i] = TokenView{APIToken: t, Display: apitoken.Mask(t.Prefix, t.Suffix)}
	}
	return views, nil
}

// Create creates a token. The raw secret in the result is shown once and
// never stored.
func (s *TokenService) Create(ctx context.Context, name string, scopes []string) (*pulseapi.CreatedToken, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	return s.api.CreateToken(ctx, pulseapi.CreateTokenRequest{Name: name, Scopes: scopes})
}

// Delete revokes a token.
func (s *TokenService) Delete(ctx context.Context, id string) error {
	return s.api.DeleteToken(ctx, id)
}

// Regenerate rotates the primary API token.
func (s *TokenService) Regenerate(ctx context.Context) (string, error) {
	return s.api.RegenerateToken(ctx)
}
