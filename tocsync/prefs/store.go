// CLAUDE:SUMMARY Preference Store implementations: in-memory map and SQLite table scoped by page origin.
package prefs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hazyhaar/pagetoc/dbopen"
)

// Memory is a process-local Store.
type Memory struct {
	mu sync.Mutex
	m  map[string]string
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{m: make(map[string]string)}
}

func (s *Memory) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.m[key]
	return v, ok, nil
}

func (s *Memory) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	s.m[key] = value
	s.mu.Unlock()
	return nil
}

// Schema is the preferences table. One row per (scope, key).
const Schema = `
CREATE TABLE IF NOT EXISTS preferences (
	scope      TEXT NOT NULL,
	key        TEXT NOT NULL,
	value      TEXT NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (scope, key)
);
`

// SQLite is a Store backed by the preferences table. Scope plays the role
// of a browser origin: two scopes never see each other's values.
type SQLite struct {
	db    *sql.DB
	scope string
}

// OpenSQLite opens (creating if needed) the preference database at path.
// The caller must blank-import modernc.org/sqlite.
func OpenSQLite(path, scope string) (*SQLite, error) {
	db, err := dbopen.Open(path, dbopen.WithMkdirAll(), dbopen.WithSchema(Schema))
	if err != nil {
		return nil, fmt.Errorf("prefs: open: %w", err)
	}
	return &SQLite{db: db, scope: scope}, nil
}

// NewSQLite wraps an already opened database. Schema must be applied.
func NewSQLite(db *sql.DB, scope string) *SQLite {
	return &SQLite{db: db, scope: scope}
}

// Scope returns the store scope.
func (s *SQLite) Scope() string { return s.scope }

func (s *SQLite) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM preferences WHERE scope = ? AND key = ?`, s.scope, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *SQLite) Set(ctx context.Context, key, value string) error {
	return dbopen.ExecRetry(ctx, s.db, `
		INSERT INTO preferences (scope, key, value, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (scope, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		s.scope, key, value, time.Now().UnixMilli())
}

// Close closes the underlying database.
func (s *SQLite) Close() error { return s.db.Close() }
