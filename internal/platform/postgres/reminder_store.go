package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/ticklerhq/tickler-api/internal/domain"
	"github.com/ticklerhq/tickler-api/internal/store"
)

// PostgresReminderStore implements the store.ReminderStore interface
// using a PostgreSQL database as the storage backend.
type PostgresReminderStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresReminderStore creates a new PostgreSQL implementation of the
// ReminderStore interface. It accepts a database connection or transaction
// that should be initialized and managed by the caller.
func NewPostgresReminderStore(db store.DBTX, logger *slog.Logger) *PostgresReminderStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresReminderStore{
		db:     db,
		logger: logger.With(slog.String("component", "reminder_store")),
	}
}

// Ensure PostgresReminderStore implements store.ReminderStore interface
var _ store.ReminderStore = (*PostgresReminderStore)(nil)

// Create implements store.ReminderStore.Create
func (s *PostgresReminderStore) Create(ctx context.Context, reminder *domain.Reminder) error {
	if err := reminder.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO reminders (id, task_id, trigger_at, status, snoozed_until, job_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.db.ExecContext(ctx, query,
		reminder.ID,
		reminder.TaskID,
		reminder.TriggerAt,
		reminder.Status,
		reminder.SnoozedUntil,
		reminder.JobID,
		reminder.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicate
		}
		return fmt.Errorf("failed to insert reminder: %w", err)
	}

	return nil
}

// GetByID implements store.ReminderStore.GetByID
func (s *PostgresReminderStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Reminder, error) {
	query := `
		SELECT id, task_id, trigger_at, status, snoozed_until, job_id, created_at
		FROM reminders
		WHERE id = $1
	`

	var reminder domain.Reminder
	var snoozedUntil sql.NullTime
	var jobID uuid.NullUUID

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&reminder.ID,
		&reminder.TaskID,
		&reminder.TriggerAt,
		&reminder.Status,
		&snoozedUntil,
		&jobID,
		&reminder.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrReminderNotFound
		}
		return nil, fmt.Errorf("failed to query reminder: %w", err)
	}

	if snoozedUntil.Valid {
		reminder.SnoozedUntil = &snoozedUntil.Time
	}
	if jobID.Valid {
		reminder.JobID = &jobID.UUID
	}

	return &reminder, nil
}

// SetJob implements store.ReminderStore.SetJob
func (s *PostgresReminderStore) SetJob(ctx context.Context, id uuid.UUID, jobID uuid.UUID) error {
	query := `UPDATE reminders SET job_id = $2 WHERE id = $1`

	result, err := s.db.ExecContext(ctx, query, id, jobID)
	if err != nil {
		return fmt.Errorf("failed to set reminder job: %w", err)
	}

	return requireRow(result, store.ErrReminderNotFound)
}

// Snooze implements store.ReminderStore.Snooze
// Status, snoozed_until, and the job reference change in one statement so a
// reminder never briefly holds two job references.
func (s *PostgresReminderStore) Snooze(
	ctx context.Context,
	id uuid.UUID,
	until time.Time,
	jobID uuid.UUID,
) error {
	query := `
		UPDATE reminders
		SET status = $2, trigger_at = $3, snoozed_until = $3, job_id = $4
		WHERE id = $1
	`

	result, err := s.db.ExecContext(ctx, query, id, domain.ReminderStatusSnoozed, until, jobID)
	if err != nil {
		return fmt.Errorf("failed to snooze reminder: %w", err)
	}

	return requireRow(result, store.ErrReminderNotFound)
}

// MarkSent implements store.ReminderStore.MarkSent
func (s *PostgresReminderStore) MarkSent(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE reminders
		SET status = $2, snoozed_until = NULL, job_id = NULL
		WHERE id = $1
	`

	result, err := s.db.ExecContext(ctx, query, id, domain.ReminderStatusSent)
	if err != nil {
		return fmt.Errorf("failed to mark reminder sent: %w", err)
	}

	return requireRow(result, store.ErrReminderNotFound)
}

// MarkDismissed implements store.ReminderStore.MarkDismissed
func (s *PostgresReminderStore) MarkDismissed(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE reminders
		SET status = $2, snoozed_until = NULL, job_id = NULL
		WHERE id = $1
	`

	result, err := s.db.ExecContext(ctx, query, id, domain.ReminderStatusDismissed)
	if err != nil {
		return fmt.Errorf("failed to mark reminder dismissed: %w", err)
	}

	return requireRow(result, store.ErrReminderNotFound)
}

// ListActiveByTask implements store.ReminderStore.ListActiveByTask
func (s *PostgresReminderStore) ListActiveByTask(
	ctx context.Context,
	taskID uuid.UUID,
) ([]*domain.Reminder, error) {
	query := `
		SELECT id, task_id, trigger_at, status, snoozed_until, job_id, created_at
		FROM reminders
		WHERE task_id = $1 AND status IN ($2, $3)
		ORDER BY trigger_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, taskID,
		domain.ReminderStatusPending, domain.ReminderStatusSnoozed)
	if err != nil {
		return nil, fmt.Errorf("failed to query reminders for task: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			s.logger.Warn("failed to close rows", "error", closeErr)
		}
	}()

	var reminders []*domain.Reminder
	for rows.Next() {
		var reminder domain.Reminder
		var snoozedUntil sql.NullTime
		var jobID uuid.NullUUID

		if err := rows.Scan(
			&reminder.ID,
			&reminder.TaskID,
			&reminder.TriggerAt,
			&reminder.Status,
			&snoozedUntil,
			&jobID,
			&reminder.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan reminder row: %w", err)
		}

		if snoozedUntil.Valid {
			reminder.SnoozedUntil = &snoozedUntil.Time
		}
		if jobID.Valid {
			reminder.JobID = &jobID.UUID
		}

		reminders = append(reminders, &reminder)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reminder rows: %w", err)
	}

	return reminders, nil
}

// DismissAllForTask implements store.ReminderStore.DismissAllForTask
func (s *PostgresReminderStore) DismissAllForTask(
	ctx context.Context,
	taskID uuid.UUID,
) (int64, error) {
	query := `
		UPDATE reminders
		SET status = $2, snoozed_until = NULL, job_id = NULL
		WHERE task_id = $1 AND status IN ($3, $4)
	`

	result, err := s.db.ExecContext(ctx, query, taskID,
		domain.ReminderStatusDismissed,
		domain.ReminderStatusPending, domain.ReminderStatusSnoozed)
	if err != nil {
		return 0, fmt.Errorf("failed to dismiss reminders for task: %w", err)
	}

	dismissed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count dismissed reminders: %w", err)
	}

	return dismissed, nil
}

// WithTx implements store.ReminderStore.WithTx
func (s *PostgresReminderStore) WithTx(tx *sql.Tx) store.ReminderStore {
	return &PostgresReminderStore{
		db:     tx,
		logger: s.logger,
	}
}

// requireRow translates a zero-row update into the given not-found sentinel.
func requireRow(result sql.Result, notFound error) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return notFound
	}
	return nil
}
