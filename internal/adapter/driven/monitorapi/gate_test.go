package monitorapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/certpanel/internal/domain/model"
)

type staticSource struct {
	cred *model.Credential
}

func (s *staticSource) CurrentCredential(ctx context.Context) *model.Credential {
	return s.cred
}

func TestBearerTransport(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		cred       *model.Credential
		wantHeader string
	}{
		{
			name:       "valid credential is attached",
			cred:       &model.Credential{AccessToken: "tok-123", ExpiresAt: now.Add(time.Hour)},
			wantHeader: "Bearer tok-123",
		},
		{
			name:       "nil credential sends unauthenticated",
			cred:       nil,
			wantHeader: "",
		},
		{
			name:       "expired credential is not attached",
			cred:       &model.Credential{AccessToken: "tok-123", ExpiresAt: now.Add(-time.Minute)},
			wantHeader: "",
		},
		{
			name:       "empty token is not attached",
			cred:       &model.Credential{ExpiresAt: now.Add(time.Hour)},
			wantHeader: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotHeader string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotHeader = r.Header.Get("Authorization")
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			transport := &bearerTransport{
				source: &staticSource{cred: tt.cred},
				base:   http.DefaultTransport,
				now:    func() time.Time { return now },
			}
			client := &http.Client{Transport: transport}

			resp, err := client.Get(server.URL)
			require.NoError(t, err)
			_ = resp.Body.Close()

			assert.Equal(t, tt.wantHeader, gotHeader)
		})
	}
}

// TestBearerTransport_DoesNotMutateRequest: the original request must stay
// untouched per the RoundTripper contract.
func TestBearerTransport_DoesNotMutateRequest(t *testing.T) {
	now := time.Now()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	transport := &bearerTransport{
		source: &staticSource{cred: &model.Credential{AccessToken: "tok", ExpiresAt: now.Add(time.Hour)}},
		base:   http.DefaultTransport,
		now:    func() time.Time { return now },
	}

	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	require.NoError(t, err)

	resp, err := transport.RoundTrip(req)
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Empty(t, req.Header.Get("Authorization"))
}

// TestBearerTransport_PassesThroughUnauthorized: a backend 401 reaches the
// caller untouched, with no retry.
func TestBearerTransport_PassesThroughUnauthorized(t *testing.T) {
	now := time.Now()
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	transport := &bearerTransport{
		source: &staticSource{cred: &model.Credential{AccessToken: "tok", ExpiresAt: now.Add(time.Hour)}},
		base:   http.DefaultTransport,
		now:    func() time.Time { return now },
	}
	client := &http.Client{Transport: transport}

	resp, err := client.Get(server.URL)
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, 1, calls)
}
