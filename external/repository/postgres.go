package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/foxseedlab/replaylog/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const foreignKeyViolation = "23503"

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) repository.Repository {
	return &PostgresRepository{pool: pool}
}

// Shutdown closes the pool when the injector shuts down.
func (r *PostgresRepository) Shutdown() {
	r.pool.Close()
}

func (r *PostgresRepository) InsertUpload(ctx context.Context, input repository.InsertUploadInput) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx, `INSERT INTO logs (id, note) VALUES ($1, $2)`, input.LogID, input.Note); err != nil {
		return fmt.Errorf("failed to insert log: %w", err)
	}

	batch := uploadBatch(input)
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to insert upload rows: %w", err)
		}
	}
	return tx.Commit(ctx)
}

func uploadBatch(input repository.InsertUploadInput) *pgx.Batch {
	batch := &pgx.Batch{}
	for _, hb := range input.Heartbeats {
		batch.Queue(
			`INSERT INTO heartbeats (log_id, session, started_at, ended_at) VALUES ($1, $2, $3, $4)`,
			input.LogID, hb.Session, hb.StartedAt, hb.EndedAt)
	}
	for _, rec := range input.Recordings {
		batch.Queue(
			`INSERT INTO casts (log_id, bucket, path, size_bytes, duration_ms, active_duration_ms, event_count, started_at, width, height)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			input.LogID, rec.Bucket, rec.Path, rec.SizeBytes,
			rec.Duration.Milliseconds(), rec.ActiveDuration.Milliseconds(),
			rec.EventCount, rec.StartedAt, rec.Width, rec.Height)
	}
	return batch
}

func (r *PostgresRepository) ListLogs(ctx context.Context) ([]repository.Log, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id::text, note, uploaded_at, visible FROM logs ORDER BY uploaded_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []repository.Log
	for rows.Next() {
		var l repository.Log
		if err := rows.Scan(&l.ID, &l.Note, &l.UploadedAt, &l.Visible); err != nil {
			return nil, err
		}
		list = append(list, l)
	}
	return list, rows.Err()
}

func (r *PostgresRepository) GetLog(ctx context.Context, id string) (*repository.Log, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id::text, note, uploaded_at, visible FROM logs WHERE id = $1`, id)
	var l repository.Log
	if err := row.Scan(&l.ID, &l.Note, &l.UploadedAt, &l.Visible); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("log %s: %w", id, repository.ErrNotFound)
		}
		return nil, err
	}
	return &l, nil
}

func (r *PostgresRepository) UpdateNote(ctx context.Context, id, note string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE logs SET note = $2 WHERE id = $1`, id, note)
	if err != nil {
		return err
	}
	return requireAffected(tag, "log "+id)
}

func (r *PostgresRepository) UpdateVisible(ctx context.Context, id string, visible bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE logs SET visible = $2 WHERE id = $1`, id, visible)
	if err != nil {
		return err
	}
	return requireAffected(tag, "log "+id)
}

func (r *PostgresRepository) ListHeartbeats(ctx context.Context, logID string) ([]repository.HeartbeatRow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT session, started_at, ended_at FROM heartbeats
		 WHERE log_id = $1 ORDER BY session, started_at`, logID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []repository.HeartbeatRow
	for rows.Next() {
		var hb repository.HeartbeatRow
		if err := rows.Scan(&hb.Session, &hb.StartedAt, &hb.EndedAt); err != nil {
			return nil, err
		}
		list = append(list, hb)
	}
	return list, rows.Err()
}

func (r *PostgresRepository) ListRecordings(ctx context.Context, logID string) ([]repository.RecordingRow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, bucket, path, size_bytes, duration_ms, active_duration_ms, event_count, started_at, width, height
		 FROM casts WHERE log_id = $1 ORDER BY started_at, id`, logID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []repository.RecordingRow
	for rows.Next() {
		var (
			rec                  repository.RecordingRow
			durationMS, activeMS int64
		)
		if err := rows.Scan(&rec.ID, &rec.Bucket, &rec.Path, &rec.SizeBytes, &durationMS, &activeMS,
			&rec.EventCount, &rec.StartedAt, &rec.Width, &rec.Height); err != nil {
			return nil, err
		}
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		rec.ActiveDuration = time.Duration(activeMS) * time.Millisecond
		list = append(list, rec)
	}
	return list, rows.Err()
}

func (r *PostgresRepository) ListMarks(ctx context.Context, logID string) ([]repository.Mark, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT m.id, m.cast_id, m.second, m.note
		 FROM marks m JOIN casts c ON c.id = m.cast_id
		 WHERE c.log_id = $1 ORDER BY m.cast_id, m.second, m.id`, logID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []repository.Mark
	for rows.Next() {
		var m repository.Mark
		if err := rows.Scan(&m.ID, &m.RecordingID, &m.Second, &m.Note); err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

func (r *PostgresRepository) AddMark(ctx context.Context, input repository.AddMarkInput) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO marks (cast_id, second, note) VALUES ($1, $2, $3) RETURNING id`,
		input.RecordingID, input.Second, input.Note).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return 0, fmt.Errorf("recording %d: %w", input.RecordingID, repository.ErrNotFound)
		}
		return 0, err
	}
	return id, nil
}

func (r *PostgresRepository) DeleteMark(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM marks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireAffected(tag, fmt.Sprintf("mark %d", id))
}

func requireAffected(tag pgconn.CommandTag, what string) error {
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", what, repository.ErrNotFound)
	}
	return nil
}
