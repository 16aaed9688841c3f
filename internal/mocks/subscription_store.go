package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/ticklerhq/tickler-api/internal/domain"
	"github.com/ticklerhq/tickler-api/internal/store"
)

// MockSubscriptionStore implements store.SubscriptionStore for testing.
type MockSubscriptionStore struct {
	mu   sync.Mutex
	subs map[uuid.UUID]*domain.Subscription

	UpsertFn               func(ctx context.Context, sub *domain.Subscription) error
	GetByIDFn              func(ctx context.Context, id uuid.UUID) (*domain.Subscription, error)
	ListActiveFn           func(ctx context.Context) ([]*domain.Subscription, error)
	DeactivateFn           func(ctx context.Context, id uuid.UUID) error
	DeactivateByEndpointFn func(ctx context.Context, ownerID uuid.UUID, endpoint string) error

	// DeactivatedIDs records every Deactivate call for verification.
	DeactivatedIDs []uuid.UUID
}

// NewMockSubscriptionStore creates an empty MockSubscriptionStore.
func NewMockSubscriptionStore() *MockSubscriptionStore {
	return &MockSubscriptionStore{subs: make(map[uuid.UUID]*domain.Subscription)}
}

var _ store.SubscriptionStore = (*MockSubscriptionStore)(nil)

// Put seeds a subscription into the backing map.
func (m *MockSubscriptionStore) Put(sub *domain.Subscription) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *sub
	m.subs[sub.ID] = &copied
}

func (m *MockSubscriptionStore) Upsert(ctx context.Context, sub *domain.Subscription) error {
	if m.UpsertFn != nil {
		return m.UpsertFn(ctx, sub)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	// An existing row for the same owner/endpoint or owner/topic keeps its
	// id, matching the store contract.
	for _, existing := range m.subs {
		if existing.OwnerID != sub.OwnerID || existing.Channel != sub.Channel {
			continue
		}
		samePush := sub.Channel == domain.ChannelPush && existing.Endpoint == sub.Endpoint
		sameRelay := sub.Channel == domain.ChannelRelay && existing.Topic == sub.Topic
		if samePush || sameRelay {
			sub.ID = existing.ID
			break
		}
	}
	copied := *sub
	copied.Active = true
	m.subs[copied.ID] = &copied
	return nil
}

func (m *MockSubscriptionStore) GetByID(
	ctx context.Context,
	id uuid.UUID,
) (*domain.Subscription, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subs[id]
	if !ok {
		return nil, store.ErrSubscriptionNotFound
	}
	copied := *s
	return &copied, nil
}

func (m *MockSubscriptionStore) ListActive(ctx context.Context) ([]*domain.Subscription, error) {
	if m.ListActiveFn != nil {
		return m.ListActiveFn(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Subscription
	for _, s := range m.subs {
		if s.Active {
			copied := *s
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *MockSubscriptionStore) Deactivate(ctx context.Context, id uuid.UUID) error {
	if m.DeactivateFn != nil {
		return m.DeactivateFn(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeactivatedIDs = append(m.DeactivatedIDs, id)
	if s, ok := m.subs[id]; ok {
		s.Active = false
	}
	return nil
}

func (m *MockSubscriptionStore) DeactivateByEndpoint(
	ctx context.Context,
	ownerID uuid.UUID,
	endpoint string,
) error {
	if m.DeactivateByEndpointFn != nil {
		return m.DeactivateByEndpointFn(ctx, ownerID, endpoint)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.subs {
		if s.OwnerID == ownerID && s.Endpoint == endpoint {
			s.Active = false
		}
	}
	return nil
}
