// Package application contains the session, access-control and status
// services that sit between the driving HTTP adapter and the driven ports.
package application

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/ericfisherdev/certpanel/internal/domain/model"
	"github.com/ericfisherdev/certpanel/internal/domain/port/driven"
)

// ErrInvalidCallback is returned by CompleteLogin when the provider's
// redirect parameters fail validation (error parameter present, missing code,
// or state mismatch). The callback handler surfaces it by returning the
// browser to the console root; it never retries the exchange.
var ErrInvalidCallback = errors.New("invalid login callback")

// CredentialStore owns the per-session bearer credential and the two
// provider-driven transitions. It is the sole mutator of credentials; every
// other component reads through CurrentCredential.
type CredentialStore struct {
	provider driven.IdentityProvider
	sessions driven.SessionStore
	now      func() time.Time
}

// NewCredentialStore creates a CredentialStore over the given provider and
// session persistence.
func NewCredentialStore(provider driven.IdentityProvider, sessions driven.SessionStore) *CredentialStore {
	return &CredentialStore{
		provider: provider,
		sessions: sessions,
		now:      time.Now,
	}
}

// CurrentCredential returns the session's credential, or nil when none exists
// or the held credential's expiry has passed. An expired credential is never
// silently extended.
func (s *CredentialStore) CurrentCredential(ctx context.Context, sessionID string) (*model.Credential, error) {
	cred, err := s.sessions.GetCredential(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !cred.Valid(s.now()) {
		return nil, nil
	}
	return cred, nil
}

// BeginLogin mints a state nonce, persists it for the session and returns the
// provider authorize URL. The caller answers with a full redirect; there is
// no cancellation path once the browser navigates away.
func (s *CredentialStore) BeginLogin(ctx context.Context, sessionID string) (string, error) {
	state := uuid.NewString()
	if err := s.sessions.SaveLoginState(ctx, sessionID, state); err != nil {
		return "", fmt.Errorf("persisting login state: %w", err)
	}
	return s.provider.AuthCodeURL(state), nil
}

// CompleteLogin validates the provider's redirect-return parameters and, on
// success, exchanges the code and stores the resulting credential. The stored
// state nonce is consumed on the way in, so a replayed callback fails with
// ErrInvalidCallback rather than triggering a second exchange.
func (s *CredentialStore) CompleteLogin(ctx context.Context, sessionID string, params url.Values) error {
	expected, err := s.sessions.ConsumeLoginState(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("loading login state: %w", err)
	}

	if errParam := params.Get("error"); errParam != "" {
		return fmt.Errorf("%w: provider returned error %q", ErrInvalidCallback, errParam)
	}
	state := params.Get("state")
	if expected == "" || state != expected {
		return fmt.Errorf("%w: state mismatch", ErrInvalidCallback)
	}
	code := params.Get("code")
	if code == "" {
		return fmt.Errorf("%w: missing authorization code", ErrInvalidCallback)
	}

	cred, err := s.provider.Exchange(ctx, code)
	if err != nil {
		return err
	}
	if err := s.sessions.SaveCredential(ctx, sessionID, *cred); err != nil {
		return fmt.Errorf("storing credential: %w", err)
	}
	return nil
}

// BeginLogout clears the session's credential and returns the provider
// sign-out URL. The local credential is destroyed before the browser
// navigates away, so a failed provider logout still ends the local session.
func (s *CredentialStore) BeginLogout(ctx context.Context, sessionID string) (string, error) {
	if err := s.sessions.DeleteCredential(ctx, sessionID); err != nil {
		return "", fmt.Errorf("clearing credential: %w", err)
	}
	return s.provider.LogoutURL(), nil
}
