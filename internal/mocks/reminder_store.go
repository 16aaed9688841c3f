package mocks

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ticklerhq/tickler-api/internal/domain"
	"github.com/ticklerhq/tickler-api/internal/store"
)

// MockReminderStore implements store.ReminderStore for testing. Behavior is
// overridden per test through the Fn fields; unset functions fall back to a
// shared in-memory map so sequences of calls behave like a real store.
type MockReminderStore struct {
	mu        sync.Mutex
	reminders map[uuid.UUID]*domain.Reminder

	CreateFn            func(ctx context.Context, reminder *domain.Reminder) error
	GetByIDFn           func(ctx context.Context, id uuid.UUID) (*domain.Reminder, error)
	SetJobFn            func(ctx context.Context, id, jobID uuid.UUID) error
	SnoozeFn            func(ctx context.Context, id uuid.UUID, until time.Time, jobID uuid.UUID) error
	MarkSentFn          func(ctx context.Context, id uuid.UUID) error
	MarkDismissedFn     func(ctx context.Context, id uuid.UUID) error
	ListActiveByTaskFn  func(ctx context.Context, taskID uuid.UUID) ([]*domain.Reminder, error)
	DismissAllForTaskFn func(ctx context.Context, taskID uuid.UUID) (int64, error)
}

// NewMockReminderStore creates an empty MockReminderStore.
func NewMockReminderStore() *MockReminderStore {
	return &MockReminderStore{reminders: make(map[uuid.UUID]*domain.Reminder)}
}

var _ store.ReminderStore = (*MockReminderStore)(nil)

// Put seeds a reminder into the backing map.
func (m *MockReminderStore) Put(reminder *domain.Reminder) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *reminder
	m.reminders[reminder.ID] = &copied
}

// Get returns the current stored state of a reminder, if present.
func (m *MockReminderStore) Get(id uuid.UUID) (*domain.Reminder, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reminders[id]
	if !ok {
		return nil, false
	}
	copied := *r
	return &copied, true
}

func (m *MockReminderStore) Create(ctx context.Context, reminder *domain.Reminder) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, reminder)
	}
	m.Put(reminder)
	return nil
}

func (m *MockReminderStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Reminder, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	r, ok := m.Get(id)
	if !ok {
		return nil, store.ErrReminderNotFound
	}
	return r, nil
}

func (m *MockReminderStore) SetJob(ctx context.Context, id, jobID uuid.UUID) error {
	if m.SetJobFn != nil {
		return m.SetJobFn(ctx, id, jobID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reminders[id]
	if !ok {
		return store.ErrReminderNotFound
	}
	r.JobID = &jobID
	return nil
}

func (m *MockReminderStore) Snooze(
	ctx context.Context,
	id uuid.UUID,
	until time.Time,
	jobID uuid.UUID,
) error {
	if m.SnoozeFn != nil {
		return m.SnoozeFn(ctx, id, until, jobID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reminders[id]
	if !ok {
		return store.ErrReminderNotFound
	}
	r.Status = domain.ReminderStatusSnoozed
	r.SnoozedUntil = &until
	r.JobID = &jobID
	return nil
}

func (m *MockReminderStore) MarkSent(ctx context.Context, id uuid.UUID) error {
	if m.MarkSentFn != nil {
		return m.MarkSentFn(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reminders[id]
	if !ok {
		return store.ErrReminderNotFound
	}
	r.Status = domain.ReminderStatusSent
	r.JobID = nil
	return nil
}

func (m *MockReminderStore) MarkDismissed(ctx context.Context, id uuid.UUID) error {
	if m.MarkDismissedFn != nil {
		return m.MarkDismissedFn(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reminders[id]
	if !ok {
		return store.ErrReminderNotFound
	}
	r.Status = domain.ReminderStatusDismissed
	r.SnoozedUntil = nil
	r.JobID = nil
	return nil
}

func (m *MockReminderStore) ListActiveByTask(
	ctx context.Context,
	taskID uuid.UUID,
) ([]*domain.Reminder, error) {
	if m.ListActiveByTaskFn != nil {
		return m.ListActiveByTaskFn(ctx, taskID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Reminder
	for _, r := range m.reminders {
		if r.TaskID == taskID && r.Active() {
			copied := *r
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *MockReminderStore) DismissAllForTask(
	ctx context.Context,
	taskID uuid.UUID,
) (int64, error) {
	if m.DismissAllForTaskFn != nil {
		return m.DismissAllForTaskFn(ctx, taskID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, r := range m.reminders {
		if r.TaskID == taskID && r.Active() {
			r.Status = domain.ReminderStatusDismissed
			r.SnoozedUntil = nil
			r.JobID = nil
			count++
		}
	}
	return count, nil
}

// WithTx returns the mock itself; transactions are not modeled.
func (m *MockReminderStore) WithTx(tx *sql.Tx) store.ReminderStore {
	return m
}
