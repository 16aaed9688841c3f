package api

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/ticklerhq/tickler-api/internal/api/shared"
	"github.com/ticklerhq/tickler-api/internal/service"
)

// ReminderHandler handles reminder lifecycle API requests.
type ReminderHandler struct {
	reminderService *service.ReminderService
	validator       *validator.Validate
	logger          *slog.Logger
}

// NewReminderHandler creates a new ReminderHandler with the given dependencies.
func NewReminderHandler(
	reminderService *service.ReminderService,
	logger *slog.Logger,
) *ReminderHandler {
	if reminderService == nil {
		panic("reminderService is required") // ALLOW-PANIC: Constructor enforcing required dependency
	}
	if logger == nil {
		panic("logger is required") // ALLOW-PANIC: Constructor enforcing required dependency
	}
	return &ReminderHandler{
		reminderService: reminderService,
		validator:       validator.New(),
		logger:          logger.With(slog.String("component", "reminder_handler")),
	}
}

// Create handles POST /api/reminders. The reminder is persisted and its fire
// job scheduled in one service call.
func (h *ReminderHandler) Create(w http.ResponseWriter, r *http.Request) {
	if _, ok := getUserIDFromContext(r); !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req CreateReminderRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	reminder, err := h.reminderService.Create(r.Context(), req.TaskID, req.TriggerAt)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	h.logger.Debug("reminder created",
		"reminder_id", reminder.ID,
		"task_id", reminder.TaskID,
		"trigger_at", reminder.TriggerAt)

	shared.RespondWithJSON(w, r, http.StatusCreated, NewReminderResponse(reminder))
}

// Dismiss handles DELETE /api/reminders/{id}. Dismissing an already
// dismissed reminder succeeds, so clients can retry freely.
func (h *ReminderHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	if _, ok := getUserIDFromContext(r); !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	reminderID, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	if err := h.reminderService.Dismiss(r.Context(), reminderID); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
