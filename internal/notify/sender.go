package notify

import (
	"context"
	"errors"

	"github.com/ticklerhq/tickler-api/internal/domain"
)

// Common errors returned by channel senders.
var (
	// ErrChannelDelivery is returned when one channel's send failed. It is
	// logged and counted at the dispatcher boundary, never fatal to a batch.
	ErrChannelDelivery = errors.New("channel delivery failed")
)

// ChannelSender delivers one notification payload to one subscription.
// Implementations are invoked concurrently and must be safe for concurrent
// use.
type ChannelSender interface {
	// Channel returns the delivery channel this sender serves.
	Channel() domain.Channel

	// Send delivers the payload to the subscription. A nil return means the
	// delivery counts as a success, including the self-healing case where a
	// permanently stale subscription was deactivated instead of delivered to.
	Send(ctx context.Context, sub *domain.Subscription, payload domain.Payload) error
}
