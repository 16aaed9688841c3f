// Package service provides application-level services for the reminder
// lifecycle.
package service

import "errors"

// Common service errors - sentinel errors used across service implementations.
// Callers check for these with errors.Is(); the API layer maps them to HTTP
// status codes.
var (
	// ErrInvalidTriggerAt indicates a reminder was created with an unusable
	// trigger instant. API layer should map this to HTTP 400 Bad Request.
	ErrInvalidTriggerAt = errors.New("trigger time is not a valid instant")

	// ErrInvalidSnoozeDuration indicates a snooze was requested for a
	// non-positive number of minutes. Maps to HTTP 400 Bad Request.
	ErrInvalidSnoozeDuration = errors.New("snooze minutes must be positive")

	// ErrTaskCompleted indicates a reminder was requested for a task that is
	// already completed. Maps to HTTP 409 Conflict.
	ErrTaskCompleted = errors.New("task is already completed")

	// ErrReminderInactive indicates a snooze was requested for a reminder
	// that already reached a terminal state. Maps to HTTP 409 Conflict.
	ErrReminderInactive = errors.New("reminder is no longer active")
)
