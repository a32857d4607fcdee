// Package oidc implements the IdentityProvider port for an OIDC-style
// authorization-code redirect flow.
package oidc

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/ericfisherdev/certpanel/internal/domain/model"
	"github.com/ericfisherdev/certpanel/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.IdentityProvider = (*Provider)(nil)

// Provider drives the identity provider's redirect protocol. Login and logout
// are full browser navigations built from these URLs; only the code exchange
// is an in-process call.
type Provider struct {
	config             *oauth2.Config
	authority          string
	postLogoutRedirect string
}

// Config carries the provider registration values.
type Config struct {
	// Authority is the provider base URL; authorize, token and logout
	// endpoints hang off it.
	Authority string
	ClientID  string
	// ClientSecret may be empty for public clients.
	ClientSecret string
	// RedirectURL is the registered callback location on this console.
	RedirectURL string
	// PostLogoutRedirectURL is where the provider sends the browser after
	// sign-out, normally the console root.
	PostLogoutRedirectURL string
}

// NewProvider creates a Provider from the registration config.
func NewProvider(cfg Config) *Provider {
	authority := strings.TrimRight(cfg.Authority, "/")

	return &Provider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  authority + "/authorize",
				TokenURL: authority + "/token",
			},
		},
		authority:          authority,
		postLogoutRedirect: cfg.PostLogoutRedirectURL,
	}
}

// AuthCodeURL returns the provider authorize URL carrying the state nonce.
func (p *Provider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state)
}

// Exchange trades an authorization code for a bearer credential. The
// provider's reported expiry is taken as-is; the credential is never extended
// locally.
func (p *Provider) Exchange(ctx context.Context, code string) (*model.Credential, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchanging authorization code: %w", err)
	}

	expiresAt := token.Expiry
	if expiresAt.IsZero() {
		// Some providers omit expires_in. Fall back to a short session so
		// the credential is re-established rather than held forever.
		expiresAt = time.Now().Add(time.Hour)
	}

	return &model.Credential{
		AccessToken: token.AccessToken,
		ExpiresAt:   expiresAt,
	}, nil
}

// LogoutURL returns the provider sign-out URL with the post-logout redirect.
func (p *Provider) LogoutURL() string {
	query := url.Values{}
	if p.postLogoutRedirect != "" {
		query.Set("post_logout_redirect_uri", p.postLogoutRedirect)
	}
	u := p.authority + "/logout"
	if encoded := query.Encode(); encoded != "" {
		u += "?" + encoded
	}
	return u
}
