package api

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/ticklerhq/tickler-api/internal/api/shared"
	"github.com/ticklerhq/tickler-api/internal/domain"
	"github.com/ticklerhq/tickler-api/internal/store"
)

// SubscriptionHandler handles notification subscription registration.
type SubscriptionHandler struct {
	subscriptionStore store.SubscriptionStore
	validator         *validator.Validate
	logger            *slog.Logger
}

// NewSubscriptionHandler creates a new SubscriptionHandler with the given
// dependencies.
func NewSubscriptionHandler(
	subscriptionStore store.SubscriptionStore,
	logger *slog.Logger,
) *SubscriptionHandler {
	if subscriptionStore == nil {
		panic("subscriptionStore is required") // ALLOW-PANIC: Constructor enforcing required dependency
	}
	if logger == nil {
		panic("logger is required") // ALLOW-PANIC: Constructor enforcing required dependency
	}
	return &SubscriptionHandler{
		subscriptionStore: subscriptionStore,
		validator:         validator.New(),
		logger:            logger.With(slog.String("component", "subscription_handler")),
	}
}

// Subscribe handles POST /api/notifications/subscriptions. Re-registering an
// existing endpoint or topic refreshes the stored credentials and reactivates
// the row, so browsers can re-subscribe after a key rotation.
func (h *SubscriptionHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req SubscribeRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	var (
		sub *domain.Subscription
		err error
	)
	switch domain.Channel(req.Channel) {
	case domain.ChannelPush:
		sub, err = domain.NewPushSubscription(userID, req.Endpoint, req.P256dhKey, req.AuthKey)
	case domain.ChannelRelay:
		sub, err = domain.NewRelaySubscription(userID, req.Topic)
	default:
		err = domain.ErrInvalidChannel
	}
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	if err := h.subscriptionStore.Upsert(r.Context(), sub); err != nil {
		HandleAPIError(w, r, err, "Failed to register subscription")
		return
	}

	h.logger.Debug("subscription registered",
		"subscription_id", sub.ID,
		"owner_id", userID,
		"channel", sub.Channel)

	shared.RespondWithJSON(w, r, http.StatusCreated, SubscriptionResponse{
		ID:        sub.ID,
		Channel:   string(sub.Channel),
		Active:    sub.Active,
		CreatedAt: sub.CreatedAt,
	})
}

// Unsubscribe handles DELETE /api/notifications/subscriptions. The push
// subscription matching the given endpoint is deactivated, not deleted, so
// a later re-subscribe reuses the row.
func (h *SubscriptionHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req UnsubscribeRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	if err := h.subscriptionStore.DeactivateByEndpoint(r.Context(), userID, req.Endpoint); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
