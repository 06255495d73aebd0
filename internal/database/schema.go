package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Both stores share the same shape; EnsureSchema is run against each
// pool at startup and is safe to repeat.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id              BIGSERIAL PRIMARY KEY,
		name            TEXT NOT NULL,
		email           TEXT NOT NULL UNIQUE,
		password_hash   TEXT NOT NULL,
		role            TEXT NOT NULL DEFAULT 'security',
		phone           TEXT NOT NULL DEFAULT '',
		designation     TEXT NOT NULL DEFAULT '',
		photo           TEXT NOT NULL DEFAULT '',
		staff_id        TEXT NOT NULL DEFAULT '',
		is_active       BOOLEAN NOT NULL DEFAULT true,
		is_demo         BOOLEAN NOT NULL DEFAULT false,
		demo_session_id TEXT,
		reset_token_hash   TEXT,
		reset_token_expiry TIMESTAMPTZ,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS visitors (
		id              BIGSERIAL PRIMARY KEY,
		name            TEXT NOT NULL,
		phone           TEXT NOT NULL,
		purpose         TEXT NOT NULL,
		id_proof_number TEXT NOT NULL,
		person_to_meet  TEXT NOT NULL,
		photo           TEXT NOT NULL DEFAULT '',
		pass_id         TEXT NOT NULL UNIQUE,
		status          TEXT NOT NULL DEFAULT 'active',
		entry_time      TIMESTAMPTZ NOT NULL DEFAULT now(),
		exit_time       TIMESTAMPTZ,
		expiry_time     TIMESTAMPTZ NOT NULL,
		created_by      BIGINT NOT NULL REFERENCES users(id),
		demo_session_id TEXT,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_visitors_status ON visitors (status)`,
	`CREATE INDEX IF NOT EXISTS idx_visitors_session ON visitors (created_by, demo_session_id)`,
	`CREATE TABLE IF NOT EXISTS audit_logs (
		id             BIGSERIAL PRIMARY KEY,
		action         TEXT NOT NULL,
		visitor_id     BIGINT,
		visitor_name   TEXT NOT NULL,
		performed_by_id   BIGINT NOT NULL,
		performed_by_name TEXT NOT NULL,
		performed_by_role TEXT NOT NULL,
		ip_address     TEXT NOT NULL DEFAULT '',
		notes          TEXT NOT NULL DEFAULT '',
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_logs_created_at ON audit_logs (created_at DESC)`,
}

func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
