package driven

import (
	"context"

	"github.com/ericfisherdev/certpanel/internal/domain/model"
)

// IdentityProvider defines the driven port for the OIDC-style identity
// provider's redirect protocol. Both login and logout are full browser
// navigations; this port only builds the URLs and performs the one
// server-to-server code exchange.
type IdentityProvider interface {
	// AuthCodeURL returns the provider authorize URL carrying the given
	// state nonce.
	AuthCodeURL(state string) string

	// Exchange trades an authorization code for a bearer credential.
	Exchange(ctx context.Context, code string) (*model.Credential, error)

	// LogoutURL returns the provider sign-out URL with the post-logout
	// redirect back to the console root.
	LogoutURL() string
}
