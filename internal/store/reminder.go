package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/ticklerhq/tickler-api/internal/domain"
)

// ReminderStore defines the interface for reminder data persistence.
// Implementations must preserve the invariant that a reminder carries at
// most one outstanding job reference: every write that changes status also
// writes the job reference in the same statement.
type ReminderStore interface {
	// Create saves a new reminder to the store.
	// Returns validation errors if the reminder data is invalid.
	Create(ctx context.Context, reminder *domain.Reminder) error

	// GetByID retrieves a reminder by its unique ID.
	// Returns ErrReminderNotFound if the reminder does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Reminder, error)

	// SetJob records the scheduled job backing the reminder, replacing any
	// previous reference.
	SetJob(ctx context.Context, id uuid.UUID, jobID uuid.UUID) error

	// Snooze transitions the reminder to snoozed with the new trigger time
	// and job reference in a single write.
	// Returns ErrReminderNotFound if the reminder does not exist.
	Snooze(ctx context.Context, id uuid.UUID, until time.Time, jobID uuid.UUID) error

	// MarkSent transitions the reminder to sent and clears the job reference.
	// Returns ErrReminderNotFound if the reminder does not exist.
	MarkSent(ctx context.Context, id uuid.UUID) error

	// MarkDismissed transitions the reminder to dismissed and clears the job
	// reference and snoozed_until. Dismissing an already dismissed reminder
	// is a no-op, not an error.
	MarkDismissed(ctx context.Context, id uuid.UUID) error

	// ListActiveByTask returns all pending or snoozed reminders for a task.
	ListActiveByTask(ctx context.Context, taskID uuid.UUID) ([]*domain.Reminder, error)

	// DismissAllForTask bulk-transitions all pending or snoozed reminders for
	// a task to dismissed, clearing their job references. Returns the number
	// of reminders dismissed.
	DismissAllForTask(ctx context.Context, taskID uuid.UUID) (int64, error)

	// WithTx returns a new ReminderStore instance that uses the provided
	// transaction. The transaction should be created and managed by the
	// caller (typically a service).
	WithTx(tx *sql.Tx) ReminderStore
}
