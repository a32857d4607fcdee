package application

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ericfisherdev/certpanel/internal/domain/model"
	"github.com/ericfisherdev/certpanel/internal/domain/port/driven"
)

// stubMonitor implements only the methods a test exercises; anything else
// panics via the embedded nil interface.
type stubMonitor struct {
	driven.MonitorClient

	whoAmIFn    func(ctx context.Context) (*model.Identity, error)
	whoAmICalls atomic.Int64
}

func (m *stubMonitor) WhoAmI(ctx context.Context) (*model.Identity, error) {
	m.whoAmICalls.Add(1)
	return m.whoAmIFn(ctx)
}

// stubProvider is a canned identity provider.
type stubProvider struct {
	exchangeErr   error
	exchangeCalls atomic.Int64
	mintCalls     atomic.Int64
}

func (p *stubProvider) AuthCodeURL(state string) string {
	p.mintCalls.Add(1)
	return "https://login.example.com/authorize?state=" + state
}

func (p *stubProvider) Exchange(ctx context.Context, code string) (*model.Credential, error) {
	p.exchangeCalls.Add(1)
	if p.exchangeErr != nil {
		return nil, p.exchangeErr
	}
	return &model.Credential{
		AccessToken: "token-for-" + code,
		ExpiresAt:   time.Now().Add(time.Hour),
	}, nil
}

func (p *stubProvider) LogoutURL() string {
	return "https://login.example.com/logout"
}

// memSessionStore is an in-memory driven.SessionStore.
type memSessionStore struct {
	mu     sync.Mutex
	creds  map[string]model.Credential
	states map[string]string

	saveCredentialErr error
	loginStateErr     error
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{
		creds:  make(map[string]model.Credential),
		states: make(map[string]string),
	}
}

func (s *memSessionStore) SaveCredential(ctx context.Context, sessionID string, cred model.Credential) error {
	if s.saveCredentialErr != nil {
		return s.saveCredentialErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds[sessionID] = cred
	return nil
}

func (s *memSessionStore) GetCredential(ctx context.Context, sessionID string) (*model.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cred, ok := s.creds[sessionID]
	if !ok {
		return nil, nil
	}
	return &cred, nil
}

func (s *memSessionStore) DeleteCredential(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.creds, sessionID)
	return nil
}

func (s *memSessionStore) SaveLoginState(ctx context.Context, sessionID, state string) error {
	if s.loginStateErr != nil {
		return s.loginStateErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[sessionID] = state
	return nil
}

func (s *memSessionStore) ConsumeLoginState(ctx context.Context, sessionID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := s.states[sessionID]
	delete(s.states, sessionID)
	return state, nil
}

// seedCredential stores a valid credential for the session.
func (s *memSessionStore) seedCredential(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds[sessionID] = model.Credential{
		AccessToken: fmt.Sprintf("seeded-%s", sessionID),
		ExpiresAt:   time.Now().Add(time.Hour),
	}
}
