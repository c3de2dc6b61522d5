package audit

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Schema creates the audit table.
const Schema = `
CREATE TABLE IF NOT EXISTS forwarded_commands (
	id          UUID PRIMARY KEY,
	instance_id TEXT        NOT NULL,
	server_key  TEXT        NOT NULL,
	server_name TEXT        NOT NULL,
	command     TEXT        NOT NULL,
	mode        TEXT        NOT NULL,
	recognized  BOOLEAN     NOT NULL,
	error       TEXT,
	started_at  TIMESTAMPTZ NOT NULL,
	duration_us BIGINT      NOT NULL
)`

// Execer is the subset of pgxpool.Pool used to apply the schema.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// EnsureSchema creates the audit table when missing.
func EnsureSchema(ctx context.Context, db Execer) error {
	if _, err := db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("create forwarded_commands: %w", err)
	}
	return nil
}
