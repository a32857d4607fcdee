package httphandler

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/ericfisherdev/certpanel/internal/application"
	"github.com/ericfisherdev/certpanel/internal/domain/model"
)

const sessionCookieName = "certpanel_session"

type contextKey int

const (
	sessionIDKey contextKey = iota
	identityKey
)

// sessionMiddleware guarantees every request carries an opaque session ID:
// it reads the session cookie, minting one when absent, and stores the ID in
// the request context for the handlers and the outbound credential source.
func sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id string
		if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
			id = cookie.Value
		} else {
			id = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     sessionCookieName,
				Value:    id,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode, // Lax so the IdP redirect return carries the cookie
				Secure:   false,                // set true when served over HTTPS
			})
		}

		ctx := context.WithValue(r.Context(), sessionIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// sessionIDFrom returns the session ID placed in the context by
// sessionMiddleware, or "" outside of it.
func sessionIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(sessionIDKey).(string)
	return id
}

// identityFrom returns the authenticated user placed in the context by
// requireSession, or nil on unprotected paths.
func identityFrom(ctx context.Context) *model.Identity {
	user, _ := ctx.Value(identityKey).(*model.Identity)
	return user
}

func contextWithIdentity(ctx context.Context, user *model.Identity) context.Context {
	return context.WithValue(ctx, identityKey, user)
}

// ContextCredentialSource adapts the credential store to the outbound bearer
// gate: it looks up the session ID riding on the request context and returns
// that session's credential, or nil for anonymous contexts.
type ContextCredentialSource struct {
	Creds *application.CredentialStore
}

// CurrentCredential implements monitorapi.CredentialSource.
func (s *ContextCredentialSource) CurrentCredential(ctx context.Context) *model.Credential {
	id := sessionIDFrom(ctx)
	if id == "" {
		return nil
	}
	cred, err := s.Creds.CurrentCredential(ctx, id)
	if err != nil {
		return nil
	}
	return cred
}
