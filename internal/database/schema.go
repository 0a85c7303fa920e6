package database

import (
	"context"
	"fmt"
)

// schemaStatements create the service tables. Every statement is
// idempotent so EnsureSchema is safe under repeated invocation and
// concurrent startup.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS submissions (
		id         TEXT PRIMARY KEY,
		source_id  TEXT NOT NULL,
		url        TEXT NOT NULL,
		status     TEXT NOT NULL DEFAULT 'pending'
		           CHECK (status IN ('pending', 'approved', 'rejected')),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_submissions_pending
		ON submissions (created_at) WHERE status = 'pending'`,
	`CREATE TABLE IF NOT EXISTS mappings (
		source_id   TEXT PRIMARY KEY,
		url         TEXT NOT NULL,
		reviewed_by TEXT NOT NULL,
		approved_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS admins (
		username      TEXT PRIMARY KEY,
		password_hash TEXT NOT NULL,
		role          TEXT NOT NULL CHECK (role IN ('super', 'secondary')),
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS heartbeat (
		id        SMALLINT PRIMARY KEY CHECK (id = 1),
		last_beat TIMESTAMPTZ NOT NULL
	)`,
	`INSERT INTO heartbeat (id, last_beat) VALUES (1, now())
		ON CONFLICT (id) DO NOTHING`,
}

// EnsureSchema creates the service tables if absent and seeds the
// heartbeat singleton row.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
