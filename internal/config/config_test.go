package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// allConfigKeys lists every CERTPANEL_ env var that Load() reads.
var allConfigKeys = []string{
	"CERTPANEL_MONITOR_API_URL",
	"CERTPANEL_OIDC_AUTHORITY",
	"CERTPANEL_OIDC_CLIENT_ID",
	"CERTPANEL_OIDC_CLIENT_SECRET",
	"CERTPANEL_OIDC_REDIRECT_URL",
	"CERTPANEL_LISTEN_ADDR",
	"CERTPANEL_DB_PATH",
	"CERTPANEL_SECRET_KEY",
	"CERTPANEL_EXPIRY_HORIZON_DAYS",
}

// isolateConfigEnv saves and unsets all CERTPANEL_ env vars so tests don't
// inherit values from the host environment (e.g. a running dev server).
// t.Cleanup restores original values after the test.
func isolateConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range allConfigKeys {
		if orig, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { os.Setenv(key, orig) })
		} else {
			t.Cleanup(func() { os.Unsetenv(key) })
		}
		os.Unsetenv(key)
	}
}

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("CERTPANEL_MONITOR_API_URL", "https://monitor.internal/api")
	t.Setenv("CERTPANEL_OIDC_AUTHORITY", "https://login.internal/realms/ops")
	t.Setenv("CERTPANEL_OIDC_CLIENT_ID", "certpanel")
}

func TestLoad_Success(t *testing.T) {
	isolateConfigEnv(t)
	setRequired(t)
	t.Setenv("CERTPANEL_OIDC_CLIENT_SECRET", "s3cret")
	t.Setenv("CERTPANEL_OIDC_REDIRECT_URL", "https://panel.internal/auth/callback")
	t.Setenv("CERTPANEL_LISTEN_ADDR", "0.0.0.0:9090")
	t.Setenv("CERTPANEL_DB_PATH", "/tmp/test.db")
	t.Setenv("CERTPANEL_EXPIRY_HORIZON_DAYS", "14")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "https://monitor.internal/api", cfg.MonitorAPIURL)
	assert.Equal(t, "https://login.internal/realms/ops", cfg.OIDCAuthority)
	assert.Equal(t, "certpanel", cfg.OIDCClientID)
	assert.Equal(t, "s3cret", cfg.OIDCClientSecret)
	assert.Equal(t, "https://panel.internal/auth/callback", cfg.OIDCRedirectURL)
	assert.Equal(t, "0.0.0.0:9090", cfg.ListenAddr)
	assert.Equal(t, "/tmp/test.db", cfg.DBPath)
	assert.Equal(t, 14, cfg.ExpiryHorizonDays)
}

func TestLoad_Defaults(t *testing.T) {
	isolateConfigEnv(t)
	setRequired(t)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8080", cfg.ListenAddr)
	assert.Equal(t, "http://127.0.0.1:8080/auth/callback", cfg.OIDCRedirectURL)
	assert.Equal(t, "certpanel.db", cfg.DBPath)
	assert.Equal(t, 30, cfg.ExpiryHorizonDays)
	assert.Equal(t, "", cfg.OIDCClientSecret)
}

// TestLoad_RedirectFollowsListenAddr verifies the default redirect URL is
// derived from a customized listen address.
func TestLoad_RedirectFollowsListenAddr(t *testing.T) {
	isolateConfigEnv(t)
	setRequired(t)
	t.Setenv("CERTPANEL_LISTEN_ADDR", "0.0.0.0:9090")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "http://0.0.0.0:9090/auth/callback", cfg.OIDCRedirectURL)
}

func TestLoad_MissingMonitorURL(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("CERTPANEL_OIDC_AUTHORITY", "https://login.internal/realms/ops")
	t.Setenv("CERTPANEL_OIDC_CLIENT_ID", "certpanel")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CERTPANEL_MONITOR_API_URL")
}

func TestLoad_MissingAuthority(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("CERTPANEL_MONITOR_API_URL", "https://monitor.internal/api")
	t.Setenv("CERTPANEL_OIDC_CLIENT_ID", "certpanel")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CERTPANEL_OIDC_AUTHORITY")
}

func TestLoad_MissingClientID(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("CERTPANEL_MONITOR_API_URL", "https://monitor.internal/api")
	t.Setenv("CERTPANEL_OIDC_AUTHORITY", "https://login.internal/realms/ops")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CERTPANEL_OIDC_CLIENT_ID")
}

func TestLoad_InvalidHorizon(t *testing.T) {
	isolateConfigEnv(t)
	setRequired(t)
	t.Setenv("CERTPANEL_EXPIRY_HORIZON_DAYS", "zero")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CERTPANEL_EXPIRY_HORIZON_DAYS")
}

func TestLoad_NegativeHorizon(t *testing.T) {
	isolateConfigEnv(t)
	setRequired(t)
	t.Setenv("CERTPANEL_EXPIRY_HORIZON_DAYS", "-5")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
}

func TestLoad_SecretKey_Absent(t *testing.T) {
	isolateConfigEnv(t)
	setRequired(t)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Nil(t, cfg.SecretKey)
}

func TestLoad_SecretKey_Valid(t *testing.T) {
	isolateConfigEnv(t)
	setRequired(t)
	// 64 hex chars = 32 bytes
	t.Setenv("CERTPANEL_SECRET_KEY", "0102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f20")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Len(t, cfg.SecretKey, 32)
}

func TestLoad_SecretKey_TooShort(t *testing.T) {
	isolateConfigEnv(t)
	setRequired(t)
	t.Setenv("CERTPANEL_SECRET_KEY", "deadbeef")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CERTPANEL_SECRET_KEY")
}

func TestLoad_SecretKey_NotHex(t *testing.T) {
	isolateConfigEnv(t)
	setRequired(t)
	// 64 chars but not valid hex
	t.Setenv("CERTPANEL_SECRET_KEY", "zzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzz")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CERTPANEL_SECRET_KEY")
}
