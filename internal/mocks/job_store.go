package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ticklerhq/tickler-api/internal/jobs"
)

// MemoryJobStore is a working in-memory implementation of jobs.JobStore.
// It honors the same semantics the postgres store does: dedupe-key upserts
// keep a stable row ID, Cancel only removes pending jobs, and ClaimDue moves
// due pending jobs to processing. Scheduler tests run against it directly.
type MemoryJobStore struct {
	mu     sync.Mutex
	byID   map[uuid.UUID]*jobs.Job
	byKey  map[string]uuid.UUID
	failUp error
}

// NewMemoryJobStore creates an empty MemoryJobStore.
func NewMemoryJobStore() *MemoryJobStore {
	return &MemoryJobStore{
		byID:  make(map[uuid.UUID]*jobs.Job),
		byKey: make(map[string]uuid.UUID),
	}
}

var _ jobs.JobStore = (*MemoryJobStore)(nil)

// FailUpserts makes subsequent Upsert calls return err. Pass nil to recover.
func (m *MemoryJobStore) FailUpserts(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failUp = err
}

// Job returns the stored job with the given ID, if present.
func (m *MemoryJobStore) Job(id uuid.UUID) (*jobs.Job, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.byID[id]
	if !ok {
		return nil, false
	}
	copied := *j
	return &copied, true
}

// Len reports the number of stored jobs across all statuses.
func (m *MemoryJobStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

func (m *MemoryJobStore) Upsert(ctx context.Context, job *jobs.Job) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failUp != nil {
		return uuid.Nil, m.failUp
	}

	now := time.Now().UTC()
	if existingID, ok := m.byKey[job.DedupeKey]; ok {
		existing := m.byID[existingID]
		existing.Kind = job.Kind
		existing.Payload = job.Payload
		existing.RunAt = job.RunAt
		existing.Status = jobs.StatusPending
		existing.Attempts = 0
		existing.LastError = ""
		existing.UpdatedAt = now
		return existingID, nil
	}

	copied := *job
	copied.Status = jobs.StatusPending
	copied.Attempts = 0
	copied.CreatedAt = now
	copied.UpdatedAt = now
	m.byID[copied.ID] = &copied
	m.byKey[copied.DedupeKey] = copied.ID
	return copied.ID, nil
}

func (m *MemoryJobStore) Cancel(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.byID[id]
	if !ok || j.Status != jobs.StatusPending {
		return nil
	}
	delete(m.byKey, j.DedupeKey)
	delete(m.byID, id)
	return nil
}

func (m *MemoryJobStore) ClaimDue(
	ctx context.Context,
	now time.Time,
	limit int,
) ([]*jobs.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var claimed []*jobs.Job
	for _, j := range m.byID {
		if len(claimed) >= limit {
			break
		}
		if j.Status == jobs.StatusPending && !j.RunAt.After(now) {
			j.Status = jobs.StatusProcessing
			j.Attempts++
			j.UpdatedAt = now
			copied := *j
			claimed = append(claimed, &copied)
		}
	}
	return claimed, nil
}

func (m *MemoryJobStore) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	return m.setStatus(id, jobs.StatusCompleted, "")
}

func (m *MemoryJobStore) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	return m.setStatus(id, jobs.StatusFailed, errMsg)
}

func (m *MemoryJobStore) Reschedule(
	ctx context.Context,
	id uuid.UUID,
	runAt time.Time,
	errMsg string,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.byID[id]
	if !ok {
		return nil
	}
	j.Status = jobs.StatusPending
	j.RunAt = runAt
	j.LastError = errMsg
	j.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MemoryJobStore) ResetProcessing(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, j := range m.byID {
		if j.Status == jobs.StatusProcessing {
			j.Status = jobs.StatusPending
			count++
		}
	}
	return count, nil
}

func (m *MemoryJobStore) setStatus(id uuid.UUID, status jobs.Status, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.byID[id]
	if !ok {
		return nil
	}
	j.Status = status
	if errMsg != "" {
		j.LastError = errMsg
	}
	j.UpdatedAt = time.Now().UTC()
	return nil
}
