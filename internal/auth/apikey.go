package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/evcraddock/rentwise/internal/apperr"
	"github.com/evcraddock/rentwise/internal/identity"
)

const (
	apiKeyBytes  = 32 // 256-bit keys
	apiKeyPrefix = "rw_"
)

// APIKey is the stored representation of an API key (no raw key).
type APIKey struct {
	ID         int64      `json:"id"`
	UserID     int64      `json:"user_id"`
	Name       string     `json:"name"`
	KeyPrefix  string     `json:"key_prefix"` // first 8 chars for identification
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}

// APIKeyStore manages API keys in SQLite.
type APIKeyStore struct {
	db *sql.DB
}

// NewAPIKeyStore creates an API key store.
func NewAPIKeyStore(db *sql.DB) *APIKeyStore {
	return &APIKeyStore{db: db}
}

// Create generates a new API key for a user.
// Returns the raw key (shown once to user) and the stored record.
func (s *APIKeyStore) Create(ctx context.Context, userID int64, name string) (string, *APIKey, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "default"
	}

	raw, err := generateAPIKey()
	if err != nil {
		return "", nil, fmt.Errorf("generating key: %w", err)
	}

	prefix := raw[:8]
	now := time.Now().UTC()

	result, err := s.db.ExecContext(ctx,
		"INSERT INTO api_keys (user_id, name, key_prefix, key_hash, created_at) VALUES (?, ?, ?, ?, ?)",
		userID, name, prefix, hashAPIKey(raw), now,
	)
	if err != nil {
		return "", nil, fmt.Errorf("storing key: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return "", nil, fmt.Errorf("getting key id: %w", err)
	}

	key := &APIKey{
		ID:        id,
		UserID:    userID,
		Name:      name,
		KeyPrefix: prefix,
		CreatedAt: now,
	}

	return raw, key, nil
}

// List returns a user's API keys (without the raw key).
func (s *APIKeyStore) List(ctx context.Context, userID int64) (keys []APIKey, err error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, user_id, name, key_prefix, created_at, last_used_at FROM api_keys WHERE user_id = ? ORDER BY created_at DESC, id DESC",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying keys: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	for rows.Next() {
		var k APIKey
		var lastUsed sql.NullTime
		if err := rows.Scan(&k.ID, &k.UserID, &k.Name, &k.KeyPrefix, &k.CreatedAt, &lastUsed); err != nil {
			return nil, fmt.Errorf("scanning key: %w", err)
		}
		if lastUsed.Valid {
			k.LastUsedAt = &lastUsed.Time
		}
		keys = append(keys, k)
	}

	return keys, rows.Err()
}

// Delete removes one of a user's API keys.
func (s *APIKeyStore) Delete(ctx context.Context, id, userID int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM api_keys WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("deleting key: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("key %d: %w", id, apperr.ErrNotFound)
	}

	return nil
}

// Resolve looks up the principal a raw API key belongs to and records its use.
// Unknown keys return apperr.ErrUnauthenticated.
func (s *APIKeyStore) Resolve(ctx context.Context, rawKey string) (identity.Principal, error) {
	if !strings.HasPrefix(rawKey, apiKeyPrefix) {
		return identity.Principal{}, apperr.ErrUnauthenticated
	}
	hash := hashAPIKey(rawKey)

	var p identity.Principal
	var role string
	err := s.db.QueryRowContext(ctx,
		`SELECT u.id, u.role FROM api_keys k JOIN users u ON u.id = k.user_id WHERE k.key_hash = ?`,
		hash,
	).Scan(&p.ID, &role)
	if errors.Is(err, sql.ErrNoRows) {
		return identity.Principal{}, apperr.ErrUnauthenticated
	}
	if err != nil {
		return identity.Principal{}, fmt.Errorf("resolving key: %w", err)
	}
	p.Role = identity.Role(role)

	if _, err := s.db.ExecContext(ctx,
		"UPDATE api_keys SET last_used_at = ? WHERE key_hash = ?",
		time.Now().UTC(), hash,
	); err != nil {
		return identity.Principal{}, fmt.Errorf("recording key use: %w", err)
	}

	return p, nil
}

func generateAPIKey() (string, error) {
	b := make([]byte, apiKeyBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return apiKeyPrefix + hex.EncodeToString(b), nil
}

func hashAPIKey(key string) string {
	h := sha256.Sum256([]byte(key))
	return hex.EncodeToString(h[:])
}
