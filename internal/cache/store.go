// Package cache implements the local persistent cache: a key-scoped,
// timestamped store that survives process restarts. It holds the session
// identity, the bulk reference data, and the two heavy admin datasets.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Cache keys. Each key has its own freshness policy: the session expires a
// fixed time after creation, reference data on a rolling TTL, and the admin
// datasets only when the remote change marker moves.
const (
	KeySession       = "orderAppSession"
	KeyOriginalAdmin = "originalAdminSession"
	KeyAppData       = "appDataCache"
	KeyAdminOrders   = "adminOrdersCache"
	KeyAdminReports  = "adminReportsCache"
)

// Store is a single-table key/value store backed by embedded SQLite.
type Store struct {
	db *sql.DB
}

// Open creates or opens the cache database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	// A local single-process cache never needs more than one connection, and
	// limiting it avoids SQLITE_BUSY under concurrent access.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS kv (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		)
	`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize cache schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the raw value and write timestamp for key. The third return is
// false when the key is absent.
func (s *Store) Get(ctx context.Context, key string) ([]byte, time.Time, bool, error) {
	var value []byte
	var updatedAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT value, updated_at FROM kv WHERE key = ?`, key,
	).Scan(&value, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, false, nil
	}
	if err != nil {
		return nil, time.Time{}, false, fmt.Errorf("failed to read cache key %s: %w", key, err)
	}
	return value, time.UnixMilli(updatedAt), true, nil
}

// Set stores value under key, stamping it with the current time.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, key, value, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to write cache key %s: %w", key, err)
	}
	return nil
}

// Invalidate removes key. Removing an absent key is not an error.
func (s *Store) Invalidate(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to invalidate cache key %s: %w", key, err)
	}
	return nil
}

// GetJSON decodes the cached value for key into target. The bool reports
// whether the key was present and decodable; a corrupt entry is treated as
// absent and dropped so the caller falls back to a fresh fetch.
func (s *Store) GetJSON(ctx context.Context, key string, target any) (time.Time, bool, error) {
	raw, updatedAt, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return time.Time{}, false, err
	}
	if err := json.Unmarshal(raw, target); err != nil {
		_ = s.Invalidate(ctx, key)
		return time.Time{}, false, nil
	}
	return updatedAt, true, nil
}

// SetJSON encodes value and stores it under key.
func (s *Store) SetJSON(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache key %s: %w", key, err)
	}
	return s.Set(ctx, key, raw)
}

// GetJSONFresh is GetJSON with a rolling TTL: entries written longer than
// ttl ago are reported as absent but left in place, so a failed refresh can
// still fall back to them.
func (s *Store) GetJSONFresh(ctx context.Context, key string, ttl time.Duration, target any) (bool, error) {
	updatedAt, ok, err := s.GetJSON(ctx, key, target)
	if err != nil || !ok {
		return false, err
	}
	if time.Since(updatedAt) >= ttl {
		return false, nil
	}
	return true, nil
}
