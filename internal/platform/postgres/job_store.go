package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/ticklerhq/tickler-api/internal/jobs"
	"github.com/ticklerhq/tickler-api/internal/store"
)

// PostgresJobStore implements the jobs.JobStore interface using a PostgreSQL
// database as the durable backend. The scheduled_jobs table carries a unique
// index on dedupe_key and an index on (status, run_at), so due-item polling
// stays efficient no matter how far in the future jobs are scheduled.
type PostgresJobStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresJobStore creates a new PostgreSQL implementation of the
// JobStore interface.
func NewPostgresJobStore(db store.DBTX, logger *slog.Logger) *PostgresJobStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresJobStore{
		db:     db,
		logger: logger.With(slog.String("component", "job_store")),
	}
}

// Ensure PostgresJobStore implements jobs.JobStore interface
var _ jobs.JobStore = (*PostgresJobStore)(nil)

const jobColumns = `id, dedupe_key, kind, payload, run_at, status, attempts, last_error, created_at, updated_at`

// Upsert implements jobs.JobStore.Upsert
// The ON CONFLICT clause is the atomic replacement per dedupe key: a second
// schedule for the same logical reminder resets the existing row in place
// rather than inserting a duplicate. The row ID is stable across
// replacements, so previously handed-out handles keep pointing at the unit
// they scheduled.
func (s *PostgresJobStore) Upsert(ctx context.Context, job *jobs.Job) (uuid.UUID, error) {
	query := `
		INSERT INTO scheduled_jobs
			(id, dedupe_key, kind, payload, run_at, status, attempts, last_error, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, 0, '', $7, $7)
		ON CONFLICT (dedupe_key) DO UPDATE
		SET kind = EXCLUDED.kind,
		    payload = EXCLUDED.payload,
		    run_at = EXCLUDED.run_at,
		    status = EXCLUDED.status,
		    attempts = 0,
		    last_error = '',
		    updated_at = EXCLUDED.updated_at
		RETURNING id
	`

	var id uuid.UUID
	err := s.db.QueryRowContext(ctx, query,
		job.ID,
		job.DedupeKey,
		job.Kind,
		job.Payload,
		job.RunAt,
		jobs.StatusPending,
		time.Now().UTC(),
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to upsert job: %w", err)
	}

	return id, nil
}

// Cancel implements jobs.JobStore.Cancel
// Only pending jobs are cancelable; a job that already fired or was already
// removed is left untouched, and that is not an error.
func (s *PostgresJobStore) Cancel(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE scheduled_jobs
		SET status = $2, updated_at = $3
		WHERE id = $1 AND status = $4
	`

	_, err := s.db.ExecContext(ctx, query, id, jobs.StatusCanceled, time.Now().UTC(), jobs.StatusPending)
	if err != nil {
		return fmt.Errorf("failed to cancel job: %w", err)
	}

	return nil
}

// ClaimDue implements jobs.JobStore.ClaimDue
// FOR UPDATE SKIP LOCKED keeps concurrent pollers from claiming the same
// rows without serializing on each other.
func (s *PostgresJobStore) ClaimDue(ctx context.Context, now time.Time, limit int) ([]*jobs.Job, error) {
	query := `
		UPDATE scheduled_jobs
		SET status = $1, attempts = attempts + 1, updated_at = $2
		WHERE id IN (
			SELECT id FROM scheduled_jobs
			WHERE status = $3 AND run_at <= $2
			ORDER BY run_at ASC
			LIMIT $4
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + jobColumns

	rows, err := s.db.QueryContext(ctx, query,
		jobs.StatusProcessing, now, jobs.StatusPending, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to claim due jobs: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			s.logger.Warn("failed to close rows", "error", closeErr)
		}
	}()

	var claimed []*jobs.Job
	for rows.Next() {
		var job jobs.Job
		if err := rows.Scan(
			&job.ID,
			&job.DedupeKey,
			&job.Kind,
			&job.Payload,
			&job.RunAt,
			&job.Status,
			&job.Attempts,
			&job.LastError,
			&job.CreatedAt,
			&job.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan job row: %w", err)
		}
		claimed = append(claimed, &job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating job rows: %w", err)
	}

	return claimed, nil
}

// MarkCompleted implements jobs.JobStore.MarkCompleted
func (s *PostgresJobStore) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE scheduled_jobs
		SET status = $2, last_error = '', updated_at = $3
		WHERE id = $1
	`

	if _, err := s.db.ExecContext(ctx, query, id, jobs.StatusCompleted, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to mark job completed: %w", err)
	}

	return nil
}

// MarkFailed implements jobs.JobStore.MarkFailed
func (s *PostgresJobStore) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	query := `
		UPDATE scheduled_jobs
		SET status = $2, last_error = $3, updated_at = $4
		WHERE id = $1
	`

	if _, err := s.db.ExecContext(ctx, query, id, jobs.StatusFailed, errMsg, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to mark job failed: %w", err)
	}

	return nil
}

// Reschedule implements jobs.JobStore.Reschedule
func (s *PostgresJobStore) Reschedule(ctx context.Context, id uuid.UUID, runAt time.Time, errMsg string) error {
	query := `
		UPDATE scheduled_jobs
		SET status = $2, run_at = $3, last_error = $4, updated_at = $5
		WHERE id = $1
	`

	if _, err := s.db.ExecContext(ctx, query, id,
		jobs.StatusPending, runAt, errMsg, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to reschedule job: %w", err)
	}

	return nil
}

// ResetProcessing implements jobs.JobStore.ResetProcessing
func (s *PostgresJobStore) ResetProcessing(ctx context.Context) (int64, error) {
	query := `
		UPDATE scheduled_jobs
		SET status = $1, updated_at = $2
		WHERE status = $3
	`

	result, err := s.db.ExecContext(ctx, query,
		jobs.StatusPending, time.Now().UTC(), jobs.StatusProcessing)
	if err != nil {
		return 0, fmt.Errorf("failed to reset processing jobs: %w", err)
	}

	reset, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count reset jobs: %w", err)
	}

	return reset, nil
}
