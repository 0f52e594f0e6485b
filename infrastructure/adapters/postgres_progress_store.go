package adapters

import (
	"avatar-video-api/application/ports/outbound"
	"avatar-video-api/domain"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

const progressSchema = `
	CREATE TABLE IF NOT EXISTS video_job_progress (
		job_id             TEXT PRIMARY KEY,
		status             TEXT NOT NULL,
		percent            INT NOT NULL DEFAULT 0,
		stage              TEXT NOT NULL,
		stage_detail       TEXT NOT NULL DEFAULT '',
		script_text        TEXT NOT NULL DEFAULT '',
		external_job_id    TEXT NOT NULL DEFAULT '',
		external_render_id TEXT NOT NULL DEFAULT '',
		final_artifact_url TEXT NOT NULL DEFAULT '',
		error_message      TEXT NOT NULL DEFAULT '',
		created_at         TIMESTAMPTZ NOT NULL,
		updated_at         TIMESTAMPTZ NOT NULL
	)
`

const progressColumns = `job_id, status, percent, stage, stage_detail, script_text, external_job_id,
	external_render_id, final_artifact_url, error_message, created_at, updated_at`

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type postgresProgressStore struct {
	logger outbound.LoggerPort
	db     *sql.DB
	now    func() time.Time
}

// OpenPostgresProgressStore connects, pings and makes sure the progress table exists.
func OpenPostgresProgressStore(ctx context.Context, logger outbound.LoggerPort, databaseURL string) (outbound.ProgressStorePort, *sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := NewPostgresProgressStore(logger, db)
	if err := store.(*postgresProgressStore).migrate(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return store, db, nil
}

func NewPostgresProgressStore(logger outbound.LoggerPort, db *sql.DB) outbound.ProgressStorePort {
	return &postgresProgressStore{
		logger: logger,
		db:     db,
		now:    time.Now,
	}
}

func (s *postgresProgressStore) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, progressSchema); err != nil {
		return fmt.Errorf("failed to create progress table: %w", err)
	}
	return nil
}

func (s *postgresProgressStore) Initialize(ctx context.Context, jobID string, seed domain.ProgressRecord) (domain.ProgressRecord, error) {
	seed.JobID = jobID
	query := `
		INSERT INTO video_job_progress (` + progressColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (job_id) DO NOTHING
	`
	res, err := s.db.ExecContext(ctx, query, recordArgs(seed)...)
	if err != nil {
		s.logger.ErrorWithFields(err, "Failed to insert progress row", map[string]interface{}{"job_id": jobID})
		return domain.ProgressRecord{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 1 {
		return seed, nil
	}
	return s.Read(ctx, jobID)
}

// Merge locks the row for the duration of the read-modify-write.
func (s *postgresProgressStore) Merge(ctx context.Context, jobID string, patch domain.ProgressPatch) (domain.ProgressRecord, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.ProgressRecord{}, err
	}
	defer tx.Rollback()

	current, err := scanRecord(ctx, tx, `SELECT `+progressColumns+` FROM video_job_progress WHERE job_id = $1 FOR UPDATE`, jobID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return domain.ProgressRecord{}, err
	}

	merged := current.Merge(jobID, patch, s.now())
	query := `
		INSERT INTO video_job_progress (` + progressColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (job_id) DO UPDATE SET
			status = EXCLUDED.status,
			percent = EXCLUDED.percent,
			stage = EXCLUDED.stage,
			stage_detail = EXCLUDED.stage_detail,
			script_text = EXCLUDED.script_text,
			external_job_id = EXCLUDED.external_job_id,
			external_render_id = EXCLUDED.external_render_id,
			final_artifact_url = EXCLUDED.final_artifact_url,
			error_message = EXCLUDED.error_message,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := tx.ExecContext(ctx, query, recordArgs(merged)...); err != nil {
		s.logger.ErrorWithFields(err, "Failed to upsert progress row", map[string]interface{}{"job_id": jobID})
		return domain.ProgressRecord{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.ProgressRecord{}, err
	}
	return merged, nil
}

func (s *postgresProgressStore) Read(ctx context.Context, jobID string) (domain.ProgressRecord, error) {
	return scanRecord(ctx, s.db, `SELECT `+progressColumns+` FROM video_job_progress WHERE job_id = $1`, jobID)
}

func scanRecord(ctx context.Context, q queryRower, query string, jobID string) (domain.ProgressRecord, error) {
	var r domain.ProgressRecord
	var status, stage string
	err := q.QueryRowContext(ctx, query, jobID).Scan(
		&r.JobID,
		&status,
		&r.Percent,
		&stage,
		&r.StageDetail,
		&r.ScriptText,
		&r.ExternalJobID,
		&r.ExternalRenderID,
		&r.FinalArtifactURL,
		&r.ErrorMessage,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ProgressRecord{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.ProgressRecord{}, err
	}
	r.Status = domain.JobStatus(status)
	r.Stage = domain.Stage(stage)
	return r, nil
}

func recordArgs(r domain.ProgressRecord) []interface{} {
	return []interface{}{
		r.JobID,
		string(r.Status),
		r.Percent,
		string(r.Stage),
		r.StageDetail,
		r.ScriptText,
		r.ExternalJobID,
		r.ExternalRenderID,
		r.FinalArtifactURL,
		r.ErrorMessage,
		r.CreatedAt,
		r.UpdatedAt,
	}
}
