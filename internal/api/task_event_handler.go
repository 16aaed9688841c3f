package api

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ticklerhq/tickler-api/internal/api/shared"
	"github.com/ticklerhq/tickler-api/internal/events"
)

// TaskEventHandler receives task lifecycle webhooks from the external task
// system. Like the fire endpoint these are machine-to-machine calls guarded
// by the shared secret.
type TaskEventHandler struct {
	emitter    events.EventEmitter
	fireSecret string
	validator  *validator.Validate
	logger     *slog.Logger
}

// NewTaskEventHandler creates a new TaskEventHandler with the given
// dependencies.
func NewTaskEventHandler(
	emitter events.EventEmitter,
	fireSecret string,
	logger *slog.Logger,
) *TaskEventHandler {
	if emitter == nil {
		panic("emitter is required") // ALLOW-PANIC: Constructor enforcing required dependency
	}
	if fireSecret == "" {
		panic("fireSecret is required") // ALLOW-PANIC: Constructor enforcing required dependency
	}
	if logger == nil {
		panic("logger is required") // ALLOW-PANIC: Constructor enforcing required dependency
	}
	return &TaskEventHandler{
		emitter:    emitter,
		fireSecret: fireSecret,
		validator:  validator.New(),
		logger:     logger.With(slog.String("component", "task_event_handler")),
	}
}

// Handle processes POST /api/events/task. The event is dispatched to
// registered handlers synchronously, so a 200 means reminder cleanup for the
// task already ran.
func (h *TaskEventHandler) Handle(w http.ResponseWriter, r *http.Request) {
	authHeader := r.Header.Get("Authorization")
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" ||
		subtle.ConstantTimeCompare([]byte(parts[1]), []byte(h.fireSecret)) != 1 {
		shared.RespondWithErrorAndLog(w, r, http.StatusUnauthorized,
			"Unauthorized", nil, shared.WithElevatedLogLevel())
		return
	}

	var req TaskEventRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	event := events.NewTaskEvent(req.Type, req.TaskID)
	if err := h.emitter.EmitEvent(r.Context(), event); err != nil {
		HandleAPIError(w, r, err, "Failed to process task event")
		return
	}

	h.logger.Debug("task event processed",
		"event_id", event.ID,
		"event_type", event.Type,
		"task_id", event.TaskID)

	shared.RespondWithJSON(w, r, http.StatusOK, map[string]string{"status": "processed"})
}
