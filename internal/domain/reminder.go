package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ReminderStatus represents the lifecycle state of a reminder.
type ReminderStatus string

// Possible reminder status values.
const (
	ReminderStatusPending   ReminderStatus = "pending"
	ReminderStatusSnoozed   ReminderStatus = "snoozed"
	ReminderStatusSent      ReminderStatus = "sent"
	ReminderStatusDismissed ReminderStatus = "dismissed"
)

// Reminder-specific validation errors.
var (
	// ErrReminderIDEmpty is returned when a reminder ID is empty or nil.
	ErrReminderIDEmpty = errors.New("reminder ID cannot be empty")

	// ErrReminderTaskIDEmpty is returned when a reminder's task ID is empty or nil.
	ErrReminderTaskIDEmpty = errors.New("reminder task ID cannot be empty")

	// ErrReminderTriggerAtZero is returned when a reminder's trigger time is unset.
	ErrReminderTriggerAtZero = errors.New("reminder trigger time cannot be zero")

	// ErrReminderStatusInvalid is returned when a reminder status is not recognized.
	ErrReminderStatusInvalid = errors.New("invalid reminder status")
)

// Reminder represents a scheduled intent to notify about a task at a future
// instant. A reminder owns at most one outstanding scheduled job, referenced
// by JobID; terminal states (sent, dismissed) carry no job reference.
type Reminder struct {
	ID           uuid.UUID      `json:"id"`
	TaskID       uuid.UUID      `json:"task_id"`
	TriggerAt    time.Time      `json:"trigger_at"`
	Status       ReminderStatus `json:"status"`
	SnoozedUntil *time.Time     `json:"snoozed_until,omitempty"`
	JobID        *uuid.UUID     `json:"-"`
	CreatedAt    time.Time      `json:"created_at"`
}

// NewReminder creates a new pending Reminder for the given task.
// It generates a new UUID for the reminder ID and sets the creation
// timestamp. Returns an error if validation fails.
func NewReminder(taskID uuid.UUID, triggerAt time.Time) (*Reminder, error) {
	reminder := &Reminder{
		ID:        uuid.New(),
		TaskID:    taskID,
		TriggerAt: triggerAt,
		Status:    ReminderStatusPending,
		CreatedAt: time.Now().UTC(),
	}

	if err := reminder.Validate(); err != nil {
		return nil, err
	}

	return reminder, nil
}

// Validate checks if the Reminder has valid data.
// Returns an error if any field fails validation.
func (r *Reminder) Validate() error {
	if r.ID == uuid.Nil {
		return ErrReminderIDEmpty
	}

	if r.TaskID == uuid.Nil {
		return ErrReminderTaskIDEmpty
	}

	if r.TriggerAt.IsZero() {
		return ErrReminderTriggerAtZero
	}

	switch r.Status {
	case ReminderStatusPending, ReminderStatusSnoozed, ReminderStatusSent, ReminderStatusDismissed:
	default:
		return ErrReminderStatusInvalid
	}

	return nil
}

// Active reports whether the reminder still has a notification outstanding,
// i.e. it is pending or snoozed.
func (r *Reminder) Active() bool {
	return r.Status == ReminderStatusPending || r.Status == ReminderStatusSnoozed
}

// CanTransitionTo reports whether a status change from the current status to
// the target status is allowed. Pending and snoozed reminders may move to any
// of sent, snoozed, or dismissed (snoozed is re-entrant). A sent reminder may
// still be snoozed or dismissed: notification action buttons arrive after
// delivery. Dismissed is terminal.
func (r *Reminder) CanTransitionTo(target ReminderStatus) bool {
	switch r.Status {
	case ReminderStatusPending, ReminderStatusSnoozed:
		return target == ReminderStatusSent ||
			target == ReminderStatusSnoozed ||
			target == ReminderStatusDismissed
	case ReminderStatusSent:
		return target == ReminderStatusSnoozed || target == ReminderStatusDismissed
	default:
		return false
	}
}
