package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/ticklerhq/tickler-api/internal/domain"
	"github.com/ticklerhq/tickler-api/internal/store"
)

// pushMessage is the JSON document delivered to the service worker.
type pushMessage struct {
	Title      string `json:"title"`
	Body       string `json:"body"`
	ReminderID string `json:"reminder_id"`
	TaskID     string `json:"task_id"`
}

// PushConfig holds the VAPID credentials for Web Push delivery.
type PushConfig struct {
	VAPIDPublicKey  string
	VAPIDPrivateKey string

	// Subject is the contact URI (mailto: or https:) sent to push services.
	Subject string

	// TTL is how long, in seconds, push services should retain an
	// undelivered message.
	TTL int
}

// PushSender delivers notifications over the Web Push protocol to an
// endpoint plus p256dh/auth key pair. Endpoints that report themselves gone
// are deactivated and counted as successes: stale devices clean themselves up.
type PushSender struct {
	config PushConfig
	subs   store.SubscriptionStore
	logger *slog.Logger
}

// NewPushSender creates a new PushSender.
func NewPushSender(config PushConfig, subs store.SubscriptionStore, logger *slog.Logger) *PushSender {
	if config.TTL <= 0 {
		config.TTL = int((6 * time.Hour).Seconds())
	}

	return &PushSender{
		config: config,
		subs:   subs,
		logger: logger.With(slog.String("component", "push_sender")),
	}
}

// Ensure PushSender implements the ChannelSender interface
var _ ChannelSender = (*PushSender)(nil)

// Channel implements ChannelSender.Channel.
func (s *PushSender) Channel() domain.Channel {
	return domain.ChannelPush
}

// Send implements ChannelSender.Send.
func (s *PushSender) Send(ctx context.Context, sub *domain.Subscription, payload domain.Payload) error {
	body := FormatBody(payload, time.Now())

	message, err := json.Marshal(pushMessage{
		Title:      payload.TaskTitle,
		Body:       body,
		ReminderID: payload.ReminderID.String(),
		TaskID:     payload.TaskID.String(),
	})
	if err != nil {
		return fmt.Errorf("%w: marshal push message: %v", ErrChannelDelivery, err)
	}

	resp, err := webpush.SendNotificationWithContext(ctx, message, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dhKey,
			Auth:   sub.AuthKey,
		},
	}, &webpush.Options{
		Subscriber:      s.config.Subject,
		VAPIDPublicKey:  s.config.VAPIDPublicKey,
		VAPIDPrivateKey: s.config.VAPIDPrivateKey,
		TTL:             s.config.TTL,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrChannelDelivery, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			s.logger.Warn("failed to close push response body", "error", closeErr)
		}
	}()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil

	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		// The push service no longer knows this endpoint; the subscription
		// is permanently invalid. Deactivate it and treat the send as a
		// success rather than a failure.
		s.logger.Info("deactivating stale push subscription",
			"subscription_id", sub.ID,
			"status_code", resp.StatusCode)
		if err := s.subs.Deactivate(ctx, sub.ID); err != nil {
			s.logger.Error("failed to deactivate stale push subscription",
				"subscription_id", sub.ID,
				"error", err)
		}
		return nil

	default:
		return fmt.Errorf("%w: push service returned status %d", ErrChannelDelivery, resp.StatusCode)
	}
}
