package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Schema creates the tables this package reads and writes. Node and rule
// payloads are stored as JSONB so the relational shape stays stable while
// the domain types evolve.
const Schema = `
CREATE TABLE IF NOT EXISTS rule_sets (
	domain      TEXT PRIMARY KEY,
	version     TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	rules       JSONB NOT NULL DEFAULT '{}',
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS solutions (
	id         TEXT PRIMARY KEY,
	nodes      JSONB NOT NULL DEFAULT '[]',
	tags       JSONB NOT NULL DEFAULT '[]',
	match_mode TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	expires_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_solutions_created_at ON solutions (created_at);
CREATE INDEX IF NOT EXISTS idx_solutions_expires_at ON solutions (expires_at) WHERE expires_at IS NOT NULL;
`

// Connect opens a pooled connection and verifies it with a ping.
func Connect(ctx context.Context, databaseURL string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	return db, nil
}

// Migrate applies the schema. Statements are idempotent so this is safe to
// run on every startup.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	return nil
}
