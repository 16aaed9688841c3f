package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/ticklerhq/tickler-api/internal/domain"
	"github.com/ticklerhq/tickler-api/internal/jobs"
	"github.com/ticklerhq/tickler-api/internal/notify"
	"github.com/ticklerhq/tickler-api/internal/store"
)

// JobKindReminderFire is the scheduler job kind for firing a reminder.
const JobKindReminderFire = "reminder.fire"

// FireJobPayload is the serialized payload of a reminder fire job.
type FireJobPayload struct {
	ReminderID uuid.UUID `json:"reminder_id"`
	TaskID     uuid.UUID `json:"task_id"`
}

// JobScheduler is the slice of the durable scheduler the lifecycle manager
// needs: enqueue and best-effort cancel.
type JobScheduler interface {
	Schedule(ctx context.Context, dedupeKey, kind string, payload any, runAt time.Time) (uuid.UUID, error)
	Cancel(ctx context.Context, id uuid.UUID) error
}

// FireDispatcher is the slice of the fan-out dispatcher the fire job handler
// needs.
type FireDispatcher interface {
	HandleFire(ctx context.Context, reminderID, taskID uuid.UUID) (notify.Result, error)
}

// ReminderService is the reminder lifecycle manager: the only component
// callers invoke directly. It owns reminder persistence and coordinates with
// the durable scheduler so that every reminder has at most one outstanding
// job at any time.
//
// No lock guards concurrent lifecycle mutations of the same reminder; the
// scheduler's dedupe key is the only de-duplication mechanism, so two
// near-simultaneous snoozes converge to last-schedule-wins.
type ReminderService struct {
	db         *sql.DB
	reminders  store.ReminderStore
	tasks      store.TaskStore
	scheduler  JobScheduler
	dispatcher FireDispatcher
	logger     *slog.Logger
}

// NewReminderService creates a new ReminderService. The database handle
// carries the transaction for multi-statement operations; single-statement
// operations go through the store directly.
func NewReminderService(
	db *sql.DB,
	reminders store.ReminderStore,
	tasks store.TaskStore,
	scheduler JobScheduler,
	dispatcher FireDispatcher,
	logger *slog.Logger,
) *ReminderService {
	return &ReminderService{
		db:         db,
		reminders:  reminders,
		tasks:      tasks,
		scheduler:  scheduler,
		dispatcher: dispatcher,
		logger:     logger.With(slog.String("component", "reminder_service")),
	}
}

// dedupeKey derives the deterministic scheduler key for a reminder. One key
// per reminder is what makes repeated snoozing replace, not duplicate, the
// outstanding job.
func dedupeKey(reminderID uuid.UUID) string {
	return fmt.Sprintf("reminder:%s", reminderID)
}

// Create persists a pending reminder for the task and schedules its fire job.
// Returns ErrInvalidTriggerAt for an unusable instant, store.ErrTaskNotFound
// for an unknown task, and ErrTaskCompleted when the task is already done.
func (s *ReminderService) Create(
	ctx context.Context,
	taskID uuid.UUID,
	triggerAt time.Time,
) (*domain.Reminder, error) {
	if triggerAt.IsZero() {
		return nil, ErrInvalidTriggerAt
	}

	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.Completed {
		return nil, ErrTaskCompleted
	}

	reminder, err := domain.NewReminder(taskID, triggerAt)
	if err != nil {
		return nil, err
	}

	if err := s.reminders.Create(ctx, reminder); err != nil {
		return nil, fmt.Errorf("failed to persist reminder: %w", err)
	}

	jobID, err := s.scheduler.Schedule(
		ctx,
		dedupeKey(reminder.ID),
		JobKindReminderFire,
		FireJobPayload{ReminderID: reminder.ID, TaskID: taskID},
		triggerAt,
	)
	if err != nil {
		// Reminder state is the source of truth; the caller may safely retry
		// the whole create.
		return nil, err
	}

	if err := s.reminders.SetJob(ctx, reminder.ID, jobID); err != nil {
		return nil, fmt.Errorf("failed to record job handle: %w", err)
	}
	reminder.JobID = &jobID

	s.logger.Info("reminder created",
		"reminder_id", reminder.ID,
		"task_id", taskID,
		"trigger_at", triggerAt)

	return reminder, nil
}

// Snooze reschedules the reminder to now plus the given minutes. The existing
// job, if any, is canceled best-effort; the dedupe key makes the new schedule
// an atomic replacement either way. Dismissed reminders cannot be snoozed.
func (s *ReminderService) Snooze(
	ctx context.Context,
	reminderID uuid.UUID,
	minutes int,
) (*domain.Reminder, error) {
	if minutes <= 0 {
		return nil, ErrInvalidSnoozeDuration
	}

	reminder, err := s.reminders.GetByID(ctx, reminderID)
	if err != nil {
		return nil, err
	}

	if !reminder.CanTransitionTo(domain.ReminderStatusSnoozed) {
		return nil, ErrReminderInactive
	}

	if reminder.JobID != nil {
		if err := s.scheduler.Cancel(ctx, *reminder.JobID); err != nil {
			// Best effort: the replacement schedule below supersedes the old
			// job even if this cancel was lost.
			s.logger.Warn("failed to cancel job before snooze",
				"reminder_id", reminderID,
				"job_id", *reminder.JobID,
				"error", err)
		}
	}

	until := time.Now().UTC().Add(time.Duration(minutes) * time.Minute)

	jobID, err := s.scheduler.Schedule(
		ctx,
		dedupeKey(reminderID),
		JobKindReminderFire,
		FireJobPayload{ReminderID: reminderID, TaskID: reminder.TaskID},
		until,
	)
	if err != nil {
		return nil, err
	}

	if err := s.reminders.Snooze(ctx, reminderID, until, jobID); err != nil {
		return nil, err
	}

	reminder.Status = domain.ReminderStatusSnoozed
	reminder.TriggerAt = until
	reminder.SnoozedUntil = &until
	reminder.JobID = &jobID

	s.logger.Info("reminder snoozed",
		"reminder_id", reminderID,
		"minutes", minutes,
		"until", until)

	return reminder, nil
}

// Dismiss moves the reminder to dismissed and cancels its outstanding job,
// if any. Dismiss is idempotent: dismissing an already dismissed reminder is
// a no-op.
func (s *ReminderService) Dismiss(ctx context.Context, reminderID uuid.UUID) error {
	reminder, err := s.reminders.GetByID(ctx, reminderID)
	if err != nil {
		return err
	}

	if reminder.Status == domain.ReminderStatusDismissed {
		return nil
	}

	if reminder.JobID != nil {
		if err := s.scheduler.Cancel(ctx, *reminder.JobID); err != nil {
			s.logger.Warn("failed to cancel job on dismiss",
				"reminder_id", reminderID,
				"job_id", *reminder.JobID,
				"error", err)
		}
	}

	if err := s.reminders.MarkDismissed(ctx, reminderID); err != nil {
		return err
	}

	s.logger.Info("reminder dismissed", "reminder_id", reminderID)
	return nil
}

// CancelForTask dismisses every pending or snoozed reminder of a completed
// task, canceling each outstanding job best-effort. The list and the bulk
// dismissal run in one transaction so the set of canceled jobs matches the
// set of dismissed reminders. Returns the number of reminders dismissed.
func (s *ReminderService) CancelForTask(ctx context.Context, taskID uuid.UUID) (int64, error) {
	var dismissed int64

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txReminders := s.reminders.WithTx(tx)

		reminders, err := txReminders.ListActiveByTask(ctx, taskID)
		if err != nil {
			return err
		}

		for _, reminder := range reminders {
			if reminder.JobID == nil {
				continue
			}
			if err := s.scheduler.Cancel(ctx, *reminder.JobID); err != nil {
				s.logger.Warn("failed to cancel job for completed task",
					"reminder_id", reminder.ID,
					"task_id", taskID,
					"job_id", *reminder.JobID,
					"error", err)
			}
		}

		dismissed, err = txReminders.DismissAllForTask(ctx, taskID)
		return err
	})
	if err != nil {
		return 0, err
	}

	if dismissed > 0 {
		s.logger.Info("dismissed reminders for completed task",
			"task_id", taskID,
			"count", dismissed)
	}

	return dismissed, nil
}

// HandleFireJob is the scheduler handler for reminder fire jobs. It must be
// idempotent per reminder: redelivery after a crash is possible, and a fire
// racing a snooze or task completion is tolerated rather than locked out.
func (s *ReminderService) HandleFireJob(ctx context.Context, job *jobs.Job) error {
	var payload FireJobPayload
	if err := job.UnmarshalPayload(&payload); err != nil {
		return fmt.Errorf("failed to unmarshal fire payload: %w", err)
	}

	result, err := s.dispatcher.HandleFire(ctx, payload.ReminderID, payload.TaskID)
	if err != nil {
		// A reminder deleted after scheduling is a normal skip, not a retry.
		if errors.Is(err, store.ErrReminderNotFound) {
			s.logger.Debug("reminder gone before fire, skipping",
				"reminder_id", payload.ReminderID)
			return nil
		}
		return err
	}

	s.logger.Debug("fire job handled",
		"reminder_id", payload.ReminderID,
		"total", result.Total,
		"succeeded", result.Succeeded,
		"failed", result.Failed)

	return nil
}
