package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/certpanel/internal/domain/model"
)

// ErrEncryptionKeyNotSet is returned by SessionStore operations when
// CERTPANEL_SECRET_KEY has not been configured.
var ErrEncryptionKeyNotSet = errors.New("encryption key not configured: set CERTPANEL_SECRET_KEY")

// SessionStore defines the driven port for per-browser-session persistence.
// The adapter encrypts tokens at rest; this interface operates on plaintext
// credentials at the domain boundary.
type SessionStore interface {
	// SaveCredential stores or replaces the credential for the session.
	SaveCredential(ctx context.Context, sessionID string, cred model.Credential) error

	// GetCredential retrieves the stored credential for the session.
	// Returns (nil, nil) when the session has no credential. Expiry is not
	// evaluated here; that is the credential store's job.
	GetCredential(ctx context.Context, sessionID string) (*model.Credential, error)

	// DeleteCredential removes the session's credential.
	DeleteCredential(ctx context.Context, sessionID string) error

	// SaveLoginState records the state nonce minted for an in-progress
	// provider redirect, replacing any previous one.
	SaveLoginState(ctx context.Context, sessionID, state string) error

	// ConsumeLoginState returns the pending state nonce and clears it, so a
	// redirect return can be validated exactly once. Returns ("", nil) when
	// no login is in progress.
	ConsumeLoginState(ctx context.Context, sessionID string) (string, error)
}
