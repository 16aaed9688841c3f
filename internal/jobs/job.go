// Package jobs implements the durable job scheduler: delayed, deduplicated
// units of work persisted to the database so they survive process restarts.
//
// Work is scheduled under a deterministic dedupe key; scheduling the same key
// again atomically replaces the outstanding unit, which is what makes repeated
// snoozing safe without duplicate fires. Delivery is at least once: handlers
// must be idempotent per key because redelivery after a crash is possible.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Status represents the current state of a scheduled job.
type Status string

// Possible job status values.
const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCanceled   Status = "canceled"
)

// Common errors returned by the scheduler.
var (
	// ErrSchedulerUnavailable is returned when the backing store cannot be
	// reached. Reminder state is the source of truth, so callers may safely
	// retry the lifecycle operation that triggered the schedule call.
	ErrSchedulerUnavailable = errors.New("scheduler unavailable")

	// ErrNoHandler is returned when a due job names a kind no handler was
	// registered for.
	ErrNoHandler = errors.New("no handler registered for job kind")

	// ErrUnknownKind is returned when scheduling a job whose kind has no
	// registered handler.
	ErrUnknownKind = errors.New("unknown job kind")
)

// Job represents one durable unit of delayed work.
type Job struct {
	ID        uuid.UUID       `json:"id"`
	DedupeKey string          `json:"dedupe_key"`
	Kind      string          `json:"kind"`
	Payload   json.RawMessage `json:"payload"`
	RunAt     time.Time       `json:"run_at"`
	Status    Status          `json:"status"`
	Attempts  int             `json:"attempts"`
	LastError string          `json:"last_error,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// UnmarshalPayload decodes the job payload into the provided structure.
func (j *Job) UnmarshalPayload(v any) error {
	return json.Unmarshal(j.Payload, v)
}

// JobStore defines the interface for persisting scheduled jobs.
// The store, not an in-process timer, is responsible for efficient due-item
// polling: run times may be arbitrarily far in the future.
type JobStore interface {
	// Upsert saves the job keyed by its dedupe key. If a unit with that key
	// is already outstanding, the new job atomically replaces it (run time,
	// payload, and attempt count reset). Returns the ID of the stored row,
	// which is stable across replacements of the same key.
	Upsert(ctx context.Context, job *Job) (uuid.UUID, error)

	// Cancel removes a not-yet-fired job. Jobs that already fired or were
	// already removed are left untouched and no error is returned; callers
	// must not treat "not found" as an error.
	Cancel(ctx context.Context, id uuid.UUID) error

	// ClaimDue atomically marks up to limit due pending jobs as processing,
	// increments their attempt count, and returns them. Each poll produces
	// one finite batch; jobs in the batch are acknowledged independently.
	ClaimDue(ctx context.Context, now time.Time, limit int) ([]*Job, error)

	// MarkCompleted records successful execution of a claimed job.
	MarkCompleted(ctx context.Context, id uuid.UUID) error

	// MarkFailed records terminal failure of a claimed job after the retry
	// budget is exhausted.
	MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error

	// Reschedule returns a claimed job to pending with a new run time,
	// recording the error that caused the retry.
	Reschedule(ctx context.Context, id uuid.UUID, runAt time.Time, errMsg string) error

	// ResetProcessing returns all processing jobs to pending. Called once on
	// consumer startup to recover jobs interrupted by a crash. Returns the
	// number of jobs reset.
	ResetProcessing(ctx context.Context) (int64, error)
}

// HandlerFunc is the consumer invoked once per due job.
// Handlers must be idempotent: a job may be redelivered after a crash.
type HandlerFunc func(ctx context.Context, job *Job) error
