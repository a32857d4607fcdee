package httphandler

import (
	"net/http"

	"github.com/ericfisherdev/certpanel/internal/application"
)

// Callback handles the identity provider's redirect return. It completes the
// login exactly once and always falls back to the console root: RouteGate
// re-evaluates there and may legitimately re-attempt login, but this handler
// never starts one itself, so a bad callback cannot produce a redirect loop.
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	sessionID := sessionIDFrom(r.Context())

	if err := h.creds.CompleteLogin(r.Context(), sessionID, r.URL.Query()); err != nil {
		h.logger.Error("login callback rejected", "error", err)
	} else {
		h.logger.Info("login completed", "session", sessionID)
	}

	// A new session lifetime starts either way: resolved status and any
	// pending denial are stale now.
	h.sessions.Invalidate(sessionID)
	h.gate.Reset(sessionID)

	http.Redirect(w, r, "/", http.StatusFound)
}

// Logout clears the local credential and sends the browser to the provider's
// sign-out endpoint.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	sessionID := sessionIDFrom(r.Context())

	logoutURL, err := h.creds.BeginLogout(r.Context(), sessionID)
	if err != nil {
		h.logger.Error("failed to begin logout", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.sessions.Invalidate(sessionID)
	h.gate.Reset(sessionID)

	http.Redirect(w, r, logoutURL, http.StatusFound)
}

// Me returns the authenticated user for the session.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toIdentityResponse(identityFrom(r.Context())))
}

// Protect returns middleware that gates an arbitrary handler behind the
// route gate, for routes registered outside this package.
func Protect(gate *application.RouteGate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return requireSession(gate, next)
	}
}

// requireSession gates protected routes through the RouteGate state machine.
// Granted requests proceed with the user on the context; Denied requests are
// sent into the provider login redirect.
func requireSession(gate *application.RouteGate, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		decision := gate.Evaluate(r.Context(), sessionIDFrom(r.Context()))

		switch decision.State {
		case application.RouteGranted:
			ctx := contextWithIdentity(r.Context(), decision.User)
			next.ServeHTTP(w, r.WithContext(ctx))

		case application.RouteDenied:
			if decision.RedirectURL == "" {
				// Login could not be started; surface as unauthorized
				// rather than bouncing the browser nowhere.
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			http.Redirect(w, r, decision.RedirectURL, http.StatusFound)

		default:
			// Still checking: the session lookup did not complete, which
			// only happens when the request context is gone. Do not decide
			// to redirect on an unknown status.
			writeError(w, http.StatusServiceUnavailable, "session check incomplete")
		}
	})
}
