package repository

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

var migrationStatements = []string{
	`CREATE TABLE IF NOT EXISTS logs (
		id UUID PRIMARY KEY,
		note TEXT NOT NULL DEFAULT '',
		uploaded_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		visible BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_logs_uploaded_at ON logs (uploaded_at DESC)`,
	`CREATE TABLE IF NOT EXISTS heartbeats (
		id BIGSERIAL PRIMARY KEY,
		log_id UUID NOT NULL REFERENCES logs(id) ON DELETE CASCADE,
		session TEXT NOT NULL,
		started_at TIMESTAMPTZ NOT NULL,
		ended_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_heartbeats_log ON heartbeats (log_id, session, started_at)`,
	`CREATE TABLE IF NOT EXISTS casts (
		id BIGSERIAL PRIMARY KEY,
		log_id UUID NOT NULL REFERENCES logs(id) ON DELETE CASCADE,
		bucket TEXT NOT NULL,
		path TEXT NOT NULL,
		size_bytes BIGINT NOT NULL,
		duration_ms BIGINT NOT NULL,
		active_duration_ms BIGINT NOT NULL,
		event_count INTEGER NOT NULL,
		started_at TIMESTAMPTZ NOT NULL,
		width INTEGER NOT NULL DEFAULT 0,
		height INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_casts_log ON casts (log_id, started_at)`,
	`CREATE TABLE IF NOT EXISTS marks (
		id BIGSERIAL PRIMARY KEY,
		cast_id BIGINT NOT NULL REFERENCES casts(id) ON DELETE CASCADE,
		second DOUBLE PRECISION NOT NULL,
		note TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_marks_cast ON marks (cast_id, second)`,
}

func RunMigration(ctx context.Context, pool *pgxpool.Pool) error {
	for _, s := range migrationStatements {
		stmt := strings.TrimSpace(s)
		if stmt == "" {
			continue
		}
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
