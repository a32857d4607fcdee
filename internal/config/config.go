// Package config loads application configuration from environment variables.
package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	MonitorAPIURL     string
	OIDCAuthority     string
	OIDCClientID      string
	OIDCClientSecret  string
	OIDCRedirectURL   string
	ListenAddr        string
	DBPath            string
	SecretKey         []byte
	ExpiryHorizonDays int
}

// Load reads configuration from environment variables and returns a validated Config.
// Required: CERTPANEL_MONITOR_API_URL, CERTPANEL_OIDC_AUTHORITY, CERTPANEL_OIDC_CLIENT_ID.
// Optional variables with defaults: CERTPANEL_LISTEN_ADDR (127.0.0.1:8080),
// CERTPANEL_DB_PATH (certpanel.db), CERTPANEL_OIDC_REDIRECT_URL
// (http://<listen addr>/auth/callback), CERTPANEL_EXPIRY_HORIZON_DAYS (30).
// CERTPANEL_SECRET_KEY is optional; when set it must be 32 hex-encoded bytes
// and enables token encryption at rest.
func Load() (*Config, error) {
	monitorURL := os.Getenv("CERTPANEL_MONITOR_API_URL")
	if monitorURL == "" {
		return nil, fmt.Errorf("CERTPANEL_MONITOR_API_URL is required")
	}

	authority := os.Getenv("CERTPANEL_OIDC_AUTHORITY")
	if authority == "" {
		return nil, fmt.Errorf("CERTPANEL_OIDC_AUTHORITY is required")
	}

	clientID := os.Getenv("CERTPANEL_OIDC_CLIENT_ID")
	if clientID == "" {
		return nil, fmt.Errorf("CERTPANEL_OIDC_CLIENT_ID is required")
	}

	listenAddr := "127.0.0.1:8080"
	if v, ok := os.LookupEnv("CERTPANEL_LISTEN_ADDR"); ok {
		listenAddr = v
	}

	redirectURL := "http://" + listenAddr + "/auth/callback"
	if v, ok := os.LookupEnv("CERTPANEL_OIDC_REDIRECT_URL"); ok {
		redirectURL = v
	}

	dbPath := "certpanel.db"
	if v, ok := os.LookupEnv("CERTPANEL_DB_PATH"); ok {
		dbPath = v
	}

	var secretKey []byte
	if v, ok := os.LookupEnv("CERTPANEL_SECRET_KEY"); ok && v != "" {
		decoded, err := hex.DecodeString(v)
		if err != nil {
			return nil, fmt.Errorf("CERTPANEL_SECRET_KEY is not valid hex: %w", err)
		}
		if len(decoded) != 32 {
			return nil, fmt.Errorf("CERTPANEL_SECRET_KEY must decode to 32 bytes, got %d", len(decoded))
		}
		secretKey = decoded
	}

	horizonDays := 30
	if v, ok := os.LookupEnv("CERTPANEL_EXPIRY_HORIZON_DAYS"); ok {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			return nil, fmt.Errorf("CERTPANEL_EXPIRY_HORIZON_DAYS must be a positive integer, got %q", v)
		}
		horizonDays = parsed
	}

	return &Config{
		MonitorAPIURL:     monitorURL,
		OIDCAuthority:     authority,
		OIDCClientID:      clientID,
		OIDCClientSecret:  os.Getenv("CERTPANEL_OIDC_CLIENT_SECRET"),
		OIDCRedirectURL:   redirectURL,
		ListenAddr:        listenAddr,
		DBPath:            dbPath,
		SecretKey:         secretKey,
		ExpiryHorizonDays: horizonDays,
	}, nil
}
