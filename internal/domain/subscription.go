package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Channel identifies a notification delivery mechanism.
type Channel string

// Supported delivery channels.
const (
	ChannelPush  Channel = "push"
	ChannelRelay Channel = "relay"
)

// Subscription-specific validation errors.
var (
	// ErrSubscriptionIDEmpty is returned when a subscription ID is empty or nil.
	ErrSubscriptionIDEmpty = errors.New("subscription ID cannot be empty")

	// ErrSubscriptionOwnerEmpty is returned when a subscription's owner ID is empty or nil.
	ErrSubscriptionOwnerEmpty = errors.New("subscription owner ID cannot be empty")

	// ErrSubscriptionEndpointEmpty is returned when a push subscription has no endpoint.
	ErrSubscriptionEndpointEmpty = errors.New("push subscription endpoint cannot be empty")

	// ErrSubscriptionKeysEmpty is returned when a push subscription is missing
	// either of its encryption keys.
	ErrSubscriptionKeysEmpty = errors.New("push subscription keys cannot be empty")

	// ErrSubscriptionTopicEmpty is returned when a relay subscription has no topic.
	ErrSubscriptionTopicEmpty = errors.New("relay subscription topic cannot be empty")
)

// Subscription represents one registered delivery target for notifications.
// Push subscriptions carry an endpoint plus the p256dh/auth key pair; relay
// subscriptions carry a topic name. Subscriptions are deactivated rather than
// deleted, both on explicit unsubscribe and on permanent delivery failure.
type Subscription struct {
	ID      uuid.UUID `json:"id"`
	OwnerID uuid.UUID `json:"owner_id"`
	Channel Channel   `json:"channel"`
	Active  bool      `json:"active"`

	// Push channel credentials.
	Endpoint  string `json:"endpoint,omitempty"`
	P256dhKey string `json:"p256dh_key,omitempty"`
	AuthKey   string `json:"auth_key,omitempty"`

	// Relay channel credentials.
	Topic string `json:"topic,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// NewPushSubscription creates an active push subscription for the given owner.
// Returns an error if validation fails.
func NewPushSubscription(ownerID uuid.UUID, endpoint, p256dhKey, authKey string) (*Subscription, error) {
	sub := &Subscription{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Channel:   ChannelPush,
		Active:    true,
		Endpoint:  endpoint,
		P256dhKey: p256dhKey,
		AuthKey:   authKey,
		CreatedAt: time.Now().UTC(),
	}

	if err := sub.Validate(); err != nil {
		return nil, err
	}

	return sub, nil
}

// NewRelaySubscription creates an active relay subscription for the given owner.
// Returns an error if validation fails.
func NewRelaySubscription(ownerID uuid.UUID, topic string) (*Subscription, error) {
	sub := &Subscription{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Channel:   ChannelRelay,
		Active:    true,
		Topic:     topic,
		CreatedAt: time.Now().UTC(),
	}

	if err := sub.Validate(); err != nil {
		return nil, err
	}

	return sub, nil
}

// Validate checks if the Subscription has valid data for its channel.
func (s *Subscription) Validate() error {
	if s.ID == uuid.Nil {
		return ErrSubscriptionIDEmpty
	}

	if s.OwnerID == uuid.Nil {
		return ErrSubscriptionOwnerEmpty
	}

	switch s.Channel {
	case ChannelPush:
		if s.Endpoint == "" {
			return ErrSubscriptionEndpointEmpty
		}
		if s.P256dhKey == "" || s.AuthKey == "" {
			return ErrSubscriptionKeysEmpty
		}
	case ChannelRelay:
		if s.Topic == "" {
			return ErrSubscriptionTopicEmpty
		}
	default:
		return ErrInvalidChannel
	}

	return nil
}
