package application

import (
	"context"
	"sync"

	"github.com/ericfisherdev/certpanel/internal/domain/model"
	"github.com/ericfisherdev/certpanel/internal/domain/port/driven"
)

// SessionService resolves browser sessions to a tri-state status by issuing
// at most one identity lookup per session lifetime. The identity provider's
// session is authoritative: if the backend rejects the lookup, no local
// session exists and the failure is cached, never retried, until the session
// is invalidated by a login or logout transition.
type SessionService struct {
	monitor driven.MonitorClient
	creds   *CredentialStore

	mu    sync.Mutex
	slots map[string]*sessionSlot
}

// sessionSlot is the single mutable slot per session: done doubles as the
// pending flag, and status is written exactly once before done is closed.
type sessionSlot struct {
	done   chan struct{}
	status model.SessionStatus
}

// NewSessionService creates a SessionService over the monitor client and
// credential store.
func NewSessionService(monitor driven.MonitorClient, creds *CredentialStore) *SessionService {
	return &SessionService{
		monitor: monitor,
		creds:   creds,
		slots:   make(map[string]*sessionSlot),
	}
}

// Resolve returns the session's status, issuing the identity lookup if this
// is the first resolution for the session. Concurrent resolvers wait on the
// in-flight lookup instead of issuing a second one. A caller whose context
// is cancelled while waiting gets SessionUnknown back and the in-flight
// result is kept for the next resolver, not discarded into the cache
// half-applied.
func (s *SessionService) Resolve(ctx context.Context, sessionID string) model.SessionStatus {
	s.mu.Lock()
	slot, ok := s.slots[sessionID]
	if !ok {
		slot = &sessionSlot{done: make(chan struct{})}
		s.slots[sessionID] = slot
		s.mu.Unlock()

		// Detach from the initiating request so one aborted request cannot
		// poison the cached outcome for the whole session.
		slot.status = s.lookup(context.WithoutCancel(ctx), sessionID)
		close(slot.done)
		return slot.status
	}
	s.mu.Unlock()

	select {
	case <-slot.done:
		return slot.status
	case <-ctx.Done():
		return model.SessionStatus{Phase: model.SessionUnknown}
	}
}

// Peek returns the session's status without side effects: SessionUnknown
// when no resolution has started or one is still in flight.
func (s *SessionService) Peek(sessionID string) model.SessionStatus {
	s.mu.Lock()
	slot, ok := s.slots[sessionID]
	s.mu.Unlock()
	if !ok {
		return model.SessionStatus{Phase: model.SessionUnknown}
	}

	select {
	case <-slot.done:
		return slot.status
	default:
		return model.SessionStatus{Phase: model.SessionUnknown}
	}
}

// Invalidate discards the session's cached resolution. Called on login and
// logout transitions, which start a new session lifetime.
func (s *SessionService) Invalidate(sessionID string) {
	s.mu.Lock()
	delete(s.slots, sessionID)
	s.mu.Unlock()
}

// lookup classifies the outcome of one identity request. No credential means
// unauthenticated without a network call; any lookup failure, 401 included,
// also means unauthenticated.
func (s *SessionService) lookup(ctx context.Context, sessionID string) model.SessionStatus {
	cred, err := s.creds.CurrentCredential(ctx, sessionID)
	if err != nil || cred == nil {
		return model.SessionStatus{Phase: model.SessionUnauthenticated}
	}

	identity, err := s.monitor.WhoAmI(ctx)
	if err != nil {
		return model.SessionStatus{Phase: model.SessionUnauthenticated}
	}
	return model.SessionStatus{Phase: model.SessionAuthenticated, User: identity}
}
