package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
)

// schema holds the DDL for all tables, applied idempotently by cmd/seed and
// the integration test harness.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS categories (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		description TEXT,
		priority    INT  NOT NULL DEFAULT 0,
		active      BOOLEAN NOT NULL DEFAULT TRUE,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS prompts (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		content     TEXT NOT NULL,
		category_id TEXT REFERENCES categories(id) ON DELETE CASCADE,
		weight      INT  NOT NULL DEFAULT 1,
		active      BOOLEAN NOT NULL DEFAULT TRUE,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS schedule_slots (
		id           TEXT PRIMARY KEY,
		slot_time    TEXT NOT NULL,
		days_of_week TEXT NOT NULL,
		category_id  TEXT REFERENCES categories(id) ON DELETE SET NULL,
		timezone     TEXT NOT NULL DEFAULT 'UTC',
		active       BOOLEAN NOT NULL DEFAULT TRUE,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS posts (
		id              TEXT PRIMARY KEY,
		content         TEXT,
		status          TEXT NOT NULL,
		scheduled_time  TIMESTAMPTZ NOT NULL,
		posted_time     TIMESTAMPTZ,
		category_id     TEXT REFERENCES categories(id) ON DELETE SET NULL,
		prompt_id       TEXT REFERENCES prompts(id) ON DELETE SET NULL,
		slot_id         TEXT REFERENCES schedule_slots(id) ON DELETE SET NULL,
		parent_post_id  TEXT,
		thread_position INT NOT NULL DEFAULT 0,
		external_id     TEXT,
		media_url       TEXT,
		retry_count     INT NOT NULL DEFAULT 0,
		error_message   TEXT,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_posts_status_scheduled ON posts (status, scheduled_time)`,
	`CREATE INDEX IF NOT EXISTS idx_posts_slot_scheduled ON posts (slot_id, scheduled_time)`,
}

// ApplySchema creates all tables and indexes if they do not exist yet.
func ApplySchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
