// Package identity resolves a caller's global identity from a federated
// login. The admin service never authenticates users itself; it trusts the
// identity provider's ID token and extracts the stable subject from it.
package identity

import (
	"context"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"

	interrors "github.com/chonlathan-cloud/lineoa-public-mirror/internal/errors"
)

// Resolver turns a raw ID token into the global subject identifier.
type Resolver interface {
	Resolve(ctx context.Context, rawIDToken string) (string, error)
}

// OIDCResolver verifies ID tokens against a provider's published keys.
type OIDCResolver struct {
	provider *oidc.Provider
	verifier *oidc.IDTokenVerifier
	oauth    *oauth2.Config
}

var _ Resolver = (*OIDCResolver)(nil)

// OIDCConfig names the provider and client registration. RedirectURL and
// ClientSecret are only needed when exchanging authorization codes.
type OIDCConfig struct {
	Issuer       string
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

func NewOIDCResolver(ctx context.Context, cfg OIDCConfig) (*OIDCResolver, error) {
	if cfg.Issuer == "" || cfg.ClientID == "" {
		return nil, errors.New("[NewOIDCResolver] issuer and client id are required")
	}

	provider, err := oidc.NewProvider(ctx, cfg.Issuer)
	if err != nil {
		return nil, errors.Wrapf(err, "[NewOIDCResolver] discover provider %s", cfg.Issuer)
	}

	return &OIDCResolver{
		provider: provider,
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "profile"},
		},
	}, nil
}

// Resolve verifies the ID token's signature, audience, and expiry, and
// returns its subject.
func (r *OIDCResolver) Resolve(ctx context.Context, rawIDToken string) (string, error) {
	idToken, err := r.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return "", errors.Wrapf(interrors.ErrTokenInvalid, "verify id token: %v", err)
	}
	return idToken.Subject, nil
}

// ResolveCode exchanges an authorization code for tokens and resolves the
// subject from the returned ID token. Used when the user lands on the admin
// service via a login redirect instead of presenting a bearer token.
func (r *OIDCResolver) ResolveCode(ctx context.Context, code string) (string, error) {
	token, err := r.oauth.Exchange(ctx, code)
	if err != nil {
		return "", errors.Wrapf(interrors.ErrTokenInvalid, "exchange code: %v", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return "", errors.Wrap(interrors.ErrTokenInvalid, "no id token in exchange response")
	}
	return r.Resolve(ctx, rawIDToken)
}

// StaticResolver maps raw tokens to subjects directly. For tests and local
// runs without a reachable identity provider.
type StaticResolver map[string]string

var _ Resolver = StaticResolver{}

func (s StaticResolver) Resolve(_ context.Context, rawIDToken string) (string, error) {
	subject, ok := s[rawIDToken]
	if !ok {
		return "", interrors.ErrTokenInvalid
	}
	return subject, nil
}
