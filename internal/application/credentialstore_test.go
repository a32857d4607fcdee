package application

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/certpanel/internal/domain/model"
)

func newCredentialFixture() (*CredentialStore, *stubProvider, *memSessionStore) {
	store := newMemSessionStore()
	provider := &stubProvider{}
	return NewCredentialStore(provider, store), provider, store
}

// mintedState runs BeginLogin and extracts the state nonce from the authorize URL.
func mintedState(t *testing.T, creds *CredentialStore, sessionID string) string {
	t.Helper()
	redirect, err := creds.BeginLogin(context.Background(), sessionID)
	require.NoError(t, err)

	u, err := url.Parse(redirect)
	require.NoError(t, err)
	state := u.Query().Get("state")
	require.NotEmpty(t, state)
	return state
}

func TestBeginLogin(t *testing.T) {
	creds, _, store := newCredentialFixture()

	state := mintedState(t, creds, "s1")

	// The nonce in the URL is the one persisted for the session.
	stored, err := store.ConsumeLoginState(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, state, stored)
}

func TestBeginLogin_DistinctStates(t *testing.T) {
	creds, _, _ := newCredentialFixture()

	first := mintedState(t, creds, "s1")
	second := mintedState(t, creds, "s1")

	assert.NotEqual(t, first, second)
}

func TestCompleteLogin_Success(t *testing.T) {
	creds, provider, _ := newCredentialFixture()
	state := mintedState(t, creds, "s1")

	err := creds.CompleteLogin(context.Background(), "s1", url.Values{
		"state": {state},
		"code":  {"authcode"},
	})

	require.NoError(t, err)
	assert.Equal(t, int64(1), provider.exchangeCalls.Load())

	cred, err := creds.CurrentCredential(context.Background(), "s1")
	require.NoError(t, err)
	require.NotNil(t, cred)
	assert.Equal(t, "token-for-authcode", cred.AccessToken)
}

func TestCompleteLogin_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		params func(state string) url.Values
	}{
		{
			name: "provider error parameter",
			params: func(state string) url.Values {
				return url.Values{"error": {"access_denied"}, "state": {state}}
			},
		},
		{
			name: "state mismatch",
			params: func(state string) url.Values {
				return url.Values{"state": {"forged"}, "code": {"authcode"}}
			},
		},
		{
			name: "missing state",
			params: func(state string) url.Values {
				return url.Values{"code": {"authcode"}}
			},
		},
		{
			name: "missing code",
			params: func(state string) url.Values {
				return url.Values{"state": {state}}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			creds, provider, _ := newCredentialFixture()
			state := mintedState(t, creds, "s1")

			err := creds.CompleteLogin(context.Background(), "s1", tt.params(state))

			require.ErrorIs(t, err, ErrInvalidCallback)
			assert.Equal(t, int64(0), provider.exchangeCalls.Load())

			// No credential may exist after a rejected callback.
			cred, credErr := creds.CurrentCredential(context.Background(), "s1")
			require.NoError(t, credErr)
			assert.Nil(t, cred)
		})
	}
}

// TestCompleteLogin_ReplayFails: the state nonce is consumed by the first
// callback, valid or not, so a replay cannot trigger a second exchange.
func TestCompleteLogin_ReplayFails(t *testing.T) {
	creds, provider, _ := newCredentialFixture()
	state := mintedState(t, creds, "s1")
	params := url.Values{"state": {state}, "code": {"authcode"}}

	require.NoError(t, creds.CompleteLogin(context.Background(), "s1", params))

	err := creds.CompleteLogin(context.Background(), "s1", params)
	require.ErrorIs(t, err, ErrInvalidCallback)
	assert.Equal(t, int64(1), provider.exchangeCalls.Load())
}

func TestCompleteLogin_NoLoginStarted(t *testing.T) {
	creds, _, _ := newCredentialFixture()

	err := creds.CompleteLogin(context.Background(), "s1", url.Values{
		"state": {"whatever"},
		"code":  {"authcode"},
	})

	require.ErrorIs(t, err, ErrInvalidCallback)
}

func TestCompleteLogin_ExchangeFailure(t *testing.T) {
	creds, provider, _ := newCredentialFixture()
	provider.exchangeErr = assert.AnError
	state := mintedState(t, creds, "s1")

	err := creds.CompleteLogin(context.Background(), "s1", url.Values{
		"state": {state},
		"code":  {"authcode"},
	})

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCallback)

	cred, credErr := creds.CurrentCredential(context.Background(), "s1")
	require.NoError(t, credErr)
	assert.Nil(t, cred)
}

func TestCurrentCredential_ExpiredIsNil(t *testing.T) {
	creds, _, store := newCredentialFixture()
	require.NoError(t, store.SaveCredential(context.Background(), "s1", model.Credential{
		AccessToken: "stale",
		ExpiresAt:   time.Now().Add(-time.Minute),
	}))

	cred, err := creds.CurrentCredential(context.Background(), "s1")

	require.NoError(t, err)
	assert.Nil(t, cred)
}

func TestBeginLogout(t *testing.T) {
	creds, _, store := newCredentialFixture()
	store.seedCredential("s1")

	logoutURL, err := creds.BeginLogout(context.Background(), "s1")

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(logoutURL, "https://login.example.com/logout"))

	cred, err := creds.CurrentCredential(context.Background(), "s1")
	require.NoError(t, err)
	assert.Nil(t, cred)
}
