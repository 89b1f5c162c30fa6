// Package sqlstore persists journey state in SQLite or PostgreSQL.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/aretw0/journey/pkg/domain"
	"github.com/aretw0/journey/pkg/persistence"
)

// Dialect selects the SQL flavour of the backing database.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

// Store implements ports.StateStore on database/sql.
type Store struct {
	db      *sql.DB
	dialect Dialect
	ttl     time.Duration
	now     func() time.Time
}

// Option configures the Store.
type Option func(*Store)

// WithTTL expires sessions that have not been saved for ttl. Zero keeps them forever.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Open connects to dsn and prepares the schema.
// postgres:// and postgresql:// URLs use PostgreSQL; anything else is a SQLite file path.
func Open(ctx context.Context, dsn string, opts ...Option) (*Store, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return open(ctx, Postgres, dsn, opts...)
	}
	if dir := filepath.Dir(dsn); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create session db directory: %w", err)
		}
	}
	return open(ctx, SQLite, dsn, opts...)
}

func open(ctx context.Context, dialect Dialect, dsn string, opts ...Option) (*Store, error) {
	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}
	s, err := New(ctx, db, dialect, opts...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an open database and creates the sessions table if needed.
func New(ctx context.Context, db *sql.DB, dialect Dialect, opts ...Option) (*Store, error) {
	s := &Store{db: db, dialect: dialect, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	if dialect == SQLite {
		// One writer at a time; WAL lets readers proceed.
		db.SetMaxOpenConns(1)
		for _, pragma := range []string{`PRAGMA journal_mode = WAL`, `PRAGMA busy_timeout = 5000`} {
			if _, err := db.ExecContext(ctx, pragma); err != nil {
				return nil, fmt.Errorf("configure session db: %w", err)
			}
		}
	}

	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS journey_sessions (
	session_id TEXT PRIMARY KEY,
	state_json TEXT NOT NULL,
	expires_at BIGINT NOT NULL DEFAULT 0,
	updated_at BIGINT NOT NULL
)`); err != nil {
		return nil, fmt.Errorf("initialize session schema: %w", err)
	}
	return s, nil
}

// rebind rewrites ? placeholders for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.dialect != Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Save upserts the state and refreshes its expiry.
func (s *Store) Save(ctx context.Context, sessionID string, state *domain.JourneyState) error {
	data, err := persistence.Marshal(state)
	if err != nil {
		return err
	}
	now := s.now()
	var expiresAt int64
	if s.ttl > 0 {
		expiresAt = now.Add(s.ttl).Unix()
	}

	_, err = s.db.ExecContext(ctx, s.rebind(`
INSERT INTO journey_sessions (session_id, state_json, expires_at, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (session_id) DO UPDATE SET
	state_json = excluded.state_json,
	expires_at = excluded.expires_at,
	updated_at = excluded.updated_at`),
		sessionID, string(data), expiresAt, now.Unix())
	if err != nil {
		return fmt.Errorf("save session %q: %w", sessionID, err)
	}
	return nil
}

// Load retrieves a non-expired state.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.JourneyState, error) {
	var data string
	err := s.db.QueryRowContext(ctx, s.rebind(`
SELECT state_json FROM journey_sessions
WHERE session_id = ? AND (expires_at = 0 OR expires_at > ?)`),
		sessionID, s.now().Unix()).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("load session %q: %w", sessionID, err)
	}
	return persistence.Unmarshal([]byte(data))
}

// Delete removes the session.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM journey_sessions WHERE session_id = ?`), sessionID); err != nil {
		return fmt.Errorf("delete session %q: %w", sessionID, err)
	}
	return nil
}

// List returns the IDs of non-expired sessions, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
SELECT session_id FROM journey_sessions
WHERE expires_at = 0 OR expires_at > ?
ORDER BY session_id`), s.now().Unix())
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan session row: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session rows: %w", err)
	}
	return ids, nil
}

// Prune deletes expired sessions and returns how many were removed.
func (s *Store) Prune(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.rebind(`
DELETE FROM journey_sessions WHERE expires_at <> 0 AND expires_at <= ?`), s.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("prune sessions: %w", err)
	}
	return res.RowsAffected()
}

// Ping checks the connection, for health endpoints.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
