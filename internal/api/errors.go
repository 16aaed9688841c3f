package api

import (
	"errors"
	"net/http"

	"github.com/ticklerhq/tickler-api/internal/api/shared"
	"github.com/ticklerhq/tickler-api/internal/domain"
	"github.com/ticklerhq/tickler-api/internal/jobs"
	"github.com/ticklerhq/tickler-api/internal/service"
	"github.com/ticklerhq/tickler-api/internal/service/auth"
	"github.com/ticklerhq/tickler-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes based on
// the error type. This prevents leaking internal error types to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized

	// Not found errors: every entity-specific sentinel wraps store.ErrNotFound.
	case store.IsNotFoundError(err):
		return http.StatusNotFound

	// Conflict errors: the entity exists but its state refuses the operation.
	case errors.Is(err, service.ErrTaskCompleted),
		errors.Is(err, service.ErrReminderInactive),
		errors.Is(err, domain.ErrInvalidStatusTransition):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, service.ErrInvalidTriggerAt),
		errors.Is(err, service.ErrInvalidSnoozeDuration),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrInvalidChannel),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	// The scheduler being unreachable is a temporary outage, not a caller bug.
	case errors.Is(err, jobs.ErrSchedulerUnavailable):
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly message for the
// error. Internal detail stays in the logs.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken):
		return "Invalid token"

	case errors.Is(err, auth.ErrInvalidCredentials):
		return "Invalid email or password"

	case errors.Is(err, domain.ErrUnauthorized):
		return "Unauthorized"

	case errors.Is(err, store.ErrReminderNotFound):
		return "Reminder not found"

	case errors.Is(err, store.ErrTaskNotFound):
		return "Task not found"

	case errors.Is(err, store.ErrSubscriptionNotFound):
		return "Subscription not found"

	case errors.Is(err, store.ErrUserNotFound):
		return "User not found"

	case errors.Is(err, service.ErrTaskCompleted):
		return "Task is already completed"

	case errors.Is(err, service.ErrReminderInactive):
		return "Reminder is no longer active"

	case errors.Is(err, domain.ErrInvalidStatusTransition):
		return "Reminder is no longer active"

	case errors.Is(err, service.ErrInvalidTriggerAt):
		return "Invalid trigger time"

	case errors.Is(err, service.ErrInvalidSnoozeDuration):
		return "Invalid snooze duration"

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrInvalidChannel),
		errors.Is(err, store.ErrInvalidEntity):
		var validationErr *domain.ValidationError
		if errors.As(err, &validationErr) && validationErr.Field != "" {
			return "Invalid " + validationErr.Field
		}
		return "Invalid request data"

	case errors.Is(err, jobs.ErrSchedulerUnavailable):
		return "Service temporarily unavailable"

	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError maps the error to a status code and safe message, logs the
// redacted detail, and writes the response. An empty userMessage defers to
// GetSafeErrorMessage.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, userMessage string) {
	status := MapErrorToStatusCode(err)
	if userMessage == "" {
		userMessage = GetSafeErrorMessage(err)
	}
	shared.RespondWithErrorAndLog(w, r, status, userMessage, err)
}
