package httphandler

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/certpanel/internal/application"
	"github.com/ericfisherdev/certpanel/internal/domain/model"
	"github.com/ericfisherdev/certpanel/internal/domain/port/driven"
)

// fakeMonitor implements the methods a test exercises via function fields;
// anything else panics through the embedded nil interface.
type fakeMonitor struct {
	driven.MonitorClient

	whoAmIFn             func(ctx context.Context) (*model.Identity, error)
	listDomainStatusesFn func(ctx context.Context) ([]model.DomainStatus, error)
	dashboardStatsFn     func(ctx context.Context) (*model.DashboardSnapshot, error)
	getApplicationFn     func(ctx context.Context, id string) (*model.Application, error)
	listUsersFn          func(ctx context.Context) ([]model.Identity, error)
	publicStatusFn       func(ctx context.Context) ([]model.PublicService, error)
}

func (m *fakeMonitor) WhoAmI(ctx context.Context) (*model.Identity, error) {
	return m.whoAmIFn(ctx)
}

func (m *fakeMonitor) ListDomainStatuses(ctx context.Context) ([]model.DomainStatus, error) {
	return m.listDomainStatusesFn(ctx)
}

func (m *fakeMonitor) DashboardStats(ctx context.Context) (*model.DashboardSnapshot, error) {
	return m.dashboardStatsFn(ctx)
}

func (m *fakeMonitor) GetApplication(ctx context.Context, id string) (*model.Application, error) {
	return m.getApplicationFn(ctx, id)
}

func (m *fakeMonitor) ListUsers(ctx context.Context) ([]model.Identity, error) {
	return m.listUsersFn(ctx)
}

func (m *fakeMonitor) PublicStatus(ctx context.Context) ([]model.PublicService, error) {
	return m.publicStatusFn(ctx)
}

// fakeProvider mints deterministic provider URLs and credentials.
type fakeProvider struct{}

func (p *fakeProvider) AuthCodeURL(state string) string {
	return "https://login.example.com/authorize?state=" + state
}

func (p *fakeProvider) Exchange(ctx context.Context, code string) (*model.Credential, error) {
	return &model.Credential{AccessToken: "token-for-" + code, ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (p *fakeProvider) LogoutURL() string {
	return "https://login.example.com/logout"
}

// fakeSessionStore is an in-memory driven.SessionStore.
type fakeSessionStore struct {
	mu     sync.Mutex
	creds  map[string]model.Credential
	states map[string]string
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{creds: make(map[string]model.Credential), states: make(map[string]string)}
}

func (s *fakeSessionStore) SaveCredential(ctx context.Context, sessionID string, cred model.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds[sessionID] = cred
	return nil
}

func (s *fakeSessionStore) GetCredential(ctx context.Context, sessionID string) (*model.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cred, ok := s.creds[sessionID]
	if !ok {
		return nil, nil
	}
	return &cred, nil
}

func (s *fakeSessionStore) DeleteCredential(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.creds, sessionID)
	return nil
}

func (s *fakeSessionStore) SaveLoginState(ctx context.Context, sessionID, state string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[sessionID] = state
	return nil
}

func (s *fakeSessionStore) ConsumeLoginState(ctx context.Context, sessionID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := s.states[sessionID]
	delete(s.states, sessionID)
	return state, nil
}

// fixture is a full console stack over fakes, served by httptest.
type fixture struct {
	server *httptest.Server
	client *http.Client
	store  *fakeSessionStore
}

// newFixture wires the handler stack the way the composition root does and
// returns a cookie-carrying client that does not follow redirects.
func newFixture(t *testing.T, monitor *fakeMonitor) *fixture {
	t.Helper()

	store := newFakeSessionStore()
	creds := application.NewCredentialStore(&fakeProvider{}, store)
	sessions := application.NewSessionService(monitor, creds)
	gate := application.NewRouteGate(sessions, creds, slog.Default())

	handler := NewHandler(monitor, application.NewStatusService(), sessions, creds, gate, 30, slog.Default())
	mux := http.NewServeMux()
	RegisterAPIRoutes(mux, handler)

	server := httptest.NewServer(ApplyMiddleware(mux, slog.Default()))
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &fixture{
		server: server,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		store: store,
	}
}

func (f *fixture) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := f.client.Get(f.server.URL + path)
	require.NoError(t, err)
	return resp
}
