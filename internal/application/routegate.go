package application

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ericfisherdev/certpanel/internal/domain/model"
)

// RouteState is the access-control state of one session's page load.
type RouteState int

const (
	// RouteChecking means session resolution has not completed; no redirect
	// decision may be made yet.
	RouteChecking RouteState = iota
	// RouteGranted means the protected view may render for the session user.
	RouteGranted
	// RouteDenied means the session is unauthenticated and a provider login
	// redirect has been started.
	RouteDenied
)

// RouteDecision is the outcome of one gate evaluation. RedirectURL is set
// only in RouteDenied; User only in RouteGranted.
type RouteDecision struct {
	State       RouteState
	User        *model.Identity
	RedirectURL string
}

// RouteGate gates protected views. It observes the session service and, on
// the transition into RouteDenied, starts the provider login exactly once:
// re-entrant evaluations while the redirect navigation is underway reuse the
// already-minted authorize URL instead of starting a second login. RouteGate
// is the sole invoker of BeginLogin.
type RouteGate struct {
	sessions *SessionService
	creds    *CredentialStore
	logger   *slog.Logger

	mu     sync.Mutex
	denied map[string]string // sessionID -> minted authorize URL
}

// NewRouteGate creates a RouteGate over the session service and credential
// store.
func NewRouteGate(sessions *SessionService, creds *CredentialStore, logger *slog.Logger) *RouteGate {
	return &RouteGate{
		sessions: sessions,
		creds:    creds,
		logger:   logger,
		denied:   make(map[string]string),
	}
}

// Evaluate resolves the session and returns the gate decision. It never
// starts a login while the session status is still unknown.
func (g *RouteGate) Evaluate(ctx context.Context, sessionID string) RouteDecision {
	status := g.sessions.Resolve(ctx, sessionID)

	switch status.Phase {
	case model.SessionAuthenticated:
		g.mu.Lock()
		delete(g.denied, sessionID)
		g.mu.Unlock()
		return RouteDecision{State: RouteGranted, User: status.User}

	case model.SessionUnauthenticated:
		// Holding the lock across BeginLogin makes the mint atomic with the
		// denied-map insert, so concurrent evaluations cannot race into two
		// state nonces for the same session.
		g.mu.Lock()
		defer g.mu.Unlock()

		if redirect, ok := g.denied[sessionID]; ok {
			return RouteDecision{State: RouteDenied, RedirectURL: redirect}
		}

		redirect, err := g.creds.BeginLogin(ctx, sessionID)
		if err != nil {
			g.logger.Error("failed to start provider login", "error", err)
			return RouteDecision{State: RouteDenied}
		}
		g.denied[sessionID] = redirect
		return RouteDecision{State: RouteDenied, RedirectURL: redirect}

	default:
		return RouteDecision{State: RouteChecking}
	}
}

// Reset clears the session's denied entry so a fresh evaluation after a
// completed callback can mint a new login if still needed.
func (g *RouteGate) Reset(sessionID string) {
	g.mu.Lock()
	delete(g.denied, sessionID)
	g.mu.Unlock()
}
