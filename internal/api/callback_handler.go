package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/ticklerhq/tickler-api/internal/api/shared"
	"github.com/ticklerhq/tickler-api/internal/domain"
	"github.com/ticklerhq/tickler-api/internal/service"
)

// TokenVerifier checks the capability token embedded in notification action
// URLs. Implemented by notify.TokenSigner.
type TokenVerifier interface {
	Verify(reminderID uuid.UUID, token string) bool
}

// CallbackHandler handles snooze/dismiss callbacks from notification action
// buttons. These requests arrive without a session: the signed token in the
// URL is the sole proof that the caller received the notification.
type CallbackHandler struct {
	reminderService *service.ReminderService
	verifier        TokenVerifier
	logger          *slog.Logger
}

// NewCallbackHandler creates a new CallbackHandler with the given dependencies.
func NewCallbackHandler(
	reminderService *service.ReminderService,
	verifier TokenVerifier,
	logger *slog.Logger,
) *CallbackHandler {
	if reminderService == nil {
		panic("reminderService is required") // ALLOW-PANIC: Constructor enforcing required dependency
	}
	if verifier == nil {
		panic("verifier is required") // ALLOW-PANIC: Constructor enforcing required dependency
	}
	if logger == nil {
		panic("logger is required") // ALLOW-PANIC: Constructor enforcing required dependency
	}
	return &CallbackHandler{
		reminderService: reminderService,
		verifier:        verifier,
		logger:          logger.With(slog.String("component", "callback_handler")),
	}
}

// Handle processes GET /api/reminders/callback. Query parameters:
// reminder_id and token always; minutes for a snooze, done=true for a
// dismiss. All failure modes before token verification produce the same
// generic 401 so the endpoint leaks nothing about which reminders exist.
func (h *CallbackHandler) Handle(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	reminderID, err := uuid.Parse(query.Get("reminder_id"))
	if err != nil {
		h.unauthorized(w, r, "malformed reminder_id")
		return
	}

	if !h.verifier.Verify(reminderID, query.Get("token")) {
		h.unauthorized(w, r, "token verification failed")
		return
	}

	switch {
	case query.Get("done") == "true":
		if err := h.reminderService.Dismiss(r.Context(), reminderID); err != nil {
			HandleAPIError(w, r, err, "")
			return
		}
		h.logger.Debug("reminder dismissed via callback", "reminder_id", reminderID)
		shared.RespondWithJSON(w, r, http.StatusOK, map[string]string{"status": "dismissed"})

	case query.Get("minutes") != "":
		minutes, err := strconv.Atoi(query.Get("minutes"))
		if err != nil {
			HandleAPIError(w, r,
				domain.NewValidationError("minutes", "must be an integer", domain.ErrValidation), "")
			return
		}

		reminder, err := h.reminderService.Snooze(r.Context(), reminderID, minutes)
		if err != nil {
			HandleAPIError(w, r, err, "")
			return
		}
		h.logger.Debug("reminder snoozed via callback",
			"reminder_id", reminderID,
			"snoozed_until", reminder.SnoozedUntil)
		shared.RespondWithJSON(w, r, http.StatusOK, map[string]string{"status": "snoozed"})

	default:
		HandleAPIError(w, r,
			domain.NewValidationError("minutes", "or done=true is required", domain.ErrValidation), "")
	}
}

// unauthorized writes the generic 401. The reason goes to the logs at WARN
// because repeated failures here look like token guessing.
func (h *CallbackHandler) unauthorized(w http.ResponseWriter, r *http.Request, reason string) {
	h.logger.Warn("callback rejected",
		"reason", reason,
		"remote_addr", r.RemoteAddr)
	shared.RespondWithError(w, r, http.StatusUnauthorized, "Unauthorized")
}
