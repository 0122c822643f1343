// Package history is the optional local application ledger: every
// tracked ApplicationEvent is also written to Postgres so later runs
// can answer "did I already apply here?". The store is nil-safe — with
// no database URL configured every method is a no-op, and the rest of
// the pipeline never has to care.
package history

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/applypilot/applypilot-cli/api/schemas"
	"github.com/applypilot/applypilot-cli/internal/config"
)

// DB is the slice of pgxpool.Pool the store uses; pgxmock implements
// it for tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// Store is the application ledger. A nil *Store is valid and inert.
type Store struct {
	db     DB
	logger *zap.Logger
}

const schemaSQL = `
	CREATE TABLE IF NOT EXISTS applications (
		id           TEXT PRIMARY KEY,
		job_title    TEXT NOT NULL,
		company      TEXT NOT NULL DEFAULT '',
		location     TEXT NOT NULL DEFAULT '',
		platform     TEXT NOT NULL DEFAULT '',
		url          TEXT NOT NULL DEFAULT '',
		submitted_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS applications_url_idx ON applications (url);`

// Open connects the ledger. An empty database URL returns (nil, nil):
// history disabled, not an error.
func Open(ctx context.Context, cfg config.HistoryConfig, logger *zap.Logger) (*Store, error) {
	if cfg.DatabaseURL == "" {
		return nil, nil
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("history: connect: %w", err)
	}
	store := NewWithDB(pool, logger)
	if err := store.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

// NewWithDB wraps an existing connection; used by tests.
func NewWithDB(db DB, logger *zap.Logger) *Store {
	return &Store{db: db, logger: logger.Named("history")}
}

func (s *Store) ensureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("history: ensure schema: %w", err)
	}
	return nil
}

// Record writes one tracked application. Replayed events with a known
// ID are absorbed silently.
func (s *Store) Record(ctx context.Context, ev *schemas.ApplicationEvent) error {
	if s == nil {
		return nil
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO applications (id, job_title, company, location, platform, url, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING;
	`, ev.ID, ev.JobTitle, ev.Company, ev.Location, ev.Platform, stripFragment(ev.URL), ev.SubmittedAt)
	if err != nil {
		return fmt.Errorf("history: record application: %w", err)
	}
	return nil
}

// HasApplied reports whether any recorded application carries this URL
// (fragment-insensitive). A nil store always answers false.
func (s *Store) HasApplied(ctx context.Context, pageURL string) (bool, error) {
	if s == nil {
		return false, nil
	}
	var exists bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM applications WHERE url = $1);
	`, stripFragment(pageURL)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("history: lookup: %w", err)
	}
	return exists, nil
}

// Recent returns the newest recorded applications, most recent first.
func (s *Store) Recent(ctx context.Context, limit int) ([]schemas.ApplicationEvent, error) {
	if s == nil {
		return nil, nil
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, job_title, company, location, platform, url, submitted_at
		FROM applications ORDER BY submitted_at DESC LIMIT $1;
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: list: %w", err)
	}
	defer rows.Close()

	var events []schemas.ApplicationEvent
	for rows.Next() {
		var ev schemas.ApplicationEvent
		if err := rows.Scan(&ev.ID, &ev.JobTitle, &ev.Company, &ev.Location, &ev.Platform, &ev.URL, &ev.SubmittedAt); err != nil {
			return nil, fmt.Errorf("history: scan: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: list: %w", err)
	}
	return events, nil
}

// Close releases the pool. Safe on a nil store.
func (s *Store) Close() {
	if s == nil {
		return
	}
	s.db.Close()
}

func stripFragment(u string) string {
	if i := strings.IndexByte(u, '#'); i >= 0 {
		return u[:i]
	}
	return u
}
