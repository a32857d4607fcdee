package sqlite

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ericfisherdev/certpanel/internal/domain/model"
	"github.com/ericfisherdev/certpanel/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.SessionStore = (*SessionRepo)(nil)

// SessionRepo is the SQLite implementation of the SessionStore port.
// Access tokens are encrypted with AES-256-GCM before write and decrypted
// after read; login-state nonces are short-lived and stored in the clear.
type SessionRepo struct {
	db  *DB
	key []byte // 32-byte AES-256 key; nil disables credential persistence.
}

// NewSessionRepo creates a SessionRepo. key must be 32 bytes for AES-256-GCM,
// or nil to disable session persistence (credential operations return
// ErrEncryptionKeyNotSet).
func NewSessionRepo(db *DB, key []byte) *SessionRepo {
	return &SessionRepo{db: db, key: key}
}

// SaveCredential stores or replaces the credential for the session.
func (r *SessionRepo) SaveCredential(ctx context.Context, sessionID string, cred model.Credential) error {
	encrypted, err := r.encrypt(cred.AccessToken)
	if err != nil {
		return err
	}

	const query = `
		INSERT INTO sessions (id, token, expires_at, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			token = excluded.token,
			expires_at = excluded.expires_at,
			updated_at = CURRENT_TIMESTAMP`
	_, err = r.db.Writer.ExecContext(ctx, query, sessionID, encrypted, cred.ExpiresAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("save credential for session %q: %w", sessionID, err)
	}
	return nil
}

// GetCredential retrieves the stored credential for the session.
// Returns (nil, nil) when the session holds no credential.
func (r *SessionRepo) GetCredential(ctx context.Context, sessionID string) (*model.Credential, error) {
	if r.key == nil {
		return nil, driven.ErrEncryptionKeyNotSet
	}

	const query = `SELECT token, expires_at FROM sessions WHERE id = ?`
	var encrypted, expiresAt sql.NullString
	err := r.db.Reader.QueryRowContext(ctx, query, sessionID).Scan(&encrypted, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get credential for session %q: %w", sessionID, err)
	}
	if !encrypted.Valid || encrypted.String == "" {
		return nil, nil
	}

	token, err := r.decrypt(encrypted.String)
	if err != nil {
		return nil, fmt.Errorf("decrypt credential for session %q: %w", sessionID, err)
	}

	expiry, err := time.Parse(time.RFC3339, expiresAt.String)
	if err != nil {
		return nil, fmt.Errorf("parse expiry for session %q: %w", sessionID, err)
	}

	return &model.Credential{AccessToken: token, ExpiresAt: expiry}, nil
}

// DeleteCredential clears the session's credential, keeping the session row.
func (r *SessionRepo) DeleteCredential(ctx context.Context, sessionID string) error {
	const query = `UPDATE sessions SET token = NULL, expires_at = NULL, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	_, err := r.db.Writer.ExecContext(ctx, query, sessionID)
	if err != nil {
		return fmt.Errorf("delete credential for session %q: %w", sessionID, err)
	}
	return nil
}

// SaveLoginState records the state nonce for an in-progress redirect,
// replacing any previous one.
func (r *SessionRepo) SaveLoginState(ctx context.Context, sessionID, state string) error {
	const query = `
		INSERT INTO sessions (id, login_state, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			login_state = excluded.login_state,
			updated_at = CURRENT_TIMESTAMP`
	_, err := r.db.Writer.ExecContext(ctx, query, sessionID, state)
	if err != nil {
		return fmt.Errorf("save login state for session %q: %w", sessionID, err)
	}
	return nil
}

// ConsumeLoginState returns the pending state nonce and clears it, so the
// redirect return validates exactly once. Returns ("", nil) when no login is
// in progress.
func (r *SessionRepo) ConsumeLoginState(ctx context.Context, sessionID string) (string, error) {
	const query = `
		UPDATE sessions SET login_state = NULL, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND login_state IS NOT NULL
		RETURNING login_state`
	var state string
	err := r.db.Writer.QueryRowContext(ctx, query, sessionID).Scan(&state)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("consume login state for session %q: %w", sessionID, err)
	}
	return state, nil
}

// encrypt encrypts plaintext using AES-256-GCM and returns a base64-encoded
// string of nonce || ciphertext || tag.
func (r *SessionRepo) encrypt(plaintext string) (string, error) {
	if r.key == nil {
		return "", driven.ErrEncryptionKeyNotSet
	}

	block, err := aes.NewCipher(r.key)
	if err != nil {
		return "", fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("cipher.NewGCM: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("rand nonce: %w", err)
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// decrypt decrypts a base64-encoded AES-256-GCM ciphertext.
func (r *SessionRepo) decrypt(encoded string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("base64 decode: %w", err)
	}

	block, err := aes.NewCipher(r.key)
	if err != nil {
		return "", fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("cipher.NewGCM: %w", err)
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", errors.New("ciphertext too short")
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("gcm.Open: %w", err)
	}
	return string(plaintext), nil
}
