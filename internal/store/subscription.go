package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/ticklerhq/tickler-api/internal/domain"
)

// SubscriptionStore defines the interface for notification subscription
// persistence. Subscriptions are never deleted, only deactivated, so a
// returning device re-registers over its previous row.
type SubscriptionStore interface {
	// Upsert registers a subscription, keyed by owner plus endpoint for push
	// subscriptions and owner plus topic for relay subscriptions. An existing
	// row is reactivated and its credentials refreshed; it keeps its original
	// id, which is written back into sub.ID.
	Upsert(ctx context.Context, sub *domain.Subscription) error

	// GetByID retrieves a subscription by its unique ID.
	// Returns ErrSubscriptionNotFound if the subscription does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Subscription, error)

	// ListActive returns all subscriptions with the active flag set.
	ListActive(ctx context.Context) ([]*domain.Subscription, error)

	// Deactivate clears the active flag on a subscription.
	// Deactivating an inactive subscription is a no-op.
	Deactivate(ctx context.Context, id uuid.UUID) error

	// DeactivateByEndpoint clears the active flag on the owner's push
	// subscription with the given endpoint.
	// Returns ErrSubscriptionNotFound if no such subscription exists.
	DeactivateByEndpoint(ctx context.Context, ownerID uuid.UUID, endpoint string) error
}
