package api

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/ticklerhq/tickler-api/internal/api/shared"
	"github.com/ticklerhq/tickler-api/internal/notify"
)

// FireDispatcher triggers reminder delivery. Implemented by notify.Dispatcher.
type FireDispatcher interface {
	HandleFire(ctx context.Context, reminderID, taskID uuid.UUID) (notify.Result, error)
}

// NotificationHandler handles the internal fire endpoint. The endpoint exists
// for operators and trusted automation, not end users, so it is guarded by a
// shared secret instead of a session.
type NotificationHandler struct {
	dispatcher FireDispatcher
	fireSecret string
	validator  *validator.Validate
	logger     *slog.Logger
}

// NewNotificationHandler creates a new NotificationHandler with the given
// dependencies.
func NewNotificationHandler(
	dispatcher FireDispatcher,
	fireSecret string,
	logger *slog.Logger,
) *NotificationHandler {
	if dispatcher == nil {
		panic("dispatcher is required") // ALLOW-PANIC: Constructor enforcing required dependency
	}
	if fireSecret == "" {
		panic("fireSecret is required") // ALLOW-PANIC: Constructor enforcing required dependency
	}
	if logger == nil {
		panic("logger is required") // ALLOW-PANIC: Constructor enforcing required dependency
	}
	return &NotificationHandler{
		dispatcher: dispatcher,
		fireSecret: fireSecret,
		validator:  validator.New(),
		logger:     logger.With(slog.String("component", "notification_handler")),
	}
}

// Fire handles POST /api/notifications/fire. The caller authenticates with a
// bearer shared secret, compared in constant time.
func (h *NotificationHandler) Fire(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		shared.RespondWithErrorAndLog(w, r, http.StatusUnauthorized,
			"Unauthorized", nil, shared.WithElevatedLogLevel())
		return
	}

	var req FireRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	result, err := h.dispatcher.HandleFire(r.Context(), req.ReminderID, req.TaskID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to dispatch notification")
		return
	}

	h.logger.Info("manual fire dispatched",
		"reminder_id", req.ReminderID,
		"total", result.Total,
		"succeeded", result.Succeeded,
		"failed", result.Failed)

	shared.RespondWithJSON(w, r, http.StatusOK, FireResponse{
		Total:     result.Total,
		Succeeded: result.Succeeded,
		Failed:    result.Failed,
	})
}

func (h *NotificationHandler) authorized(r *http.Request) bool {
	authHeader := r.Header.Get("Authorization")
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(parts[1]), []byte(h.fireSecret)) == 1
}
