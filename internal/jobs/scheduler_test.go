package jobs_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ticklerhq/tickler-api/internal/jobs"
	"github.com/ticklerhq/tickler-api/internal/mocks"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() jobs.SchedulerConfig {
	return jobs.SchedulerConfig{
		RunWorker:    true,
		WorkerCount:  2,
		PollInterval: 5 * time.Millisecond,
		BatchSize:    10,
		MaxAttempts:  3,
		RetryBackoff: 5 * time.Millisecond,
	}
}

// waitFor polls cond until it returns true or the deadline passes.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for condition: %s", msg)
}

func TestScheduleUnknownKind(t *testing.T) {
	t.Parallel()

	s := jobs.NewScheduler(mocks.NewMemoryJobStore(), testConfig(), testLogger())

	_, err := s.Schedule(context.Background(), "k", "no.such.kind", nil, time.Now())
	assert.ErrorIs(t, err, jobs.ErrUnknownKind)
}

func TestScheduleStoreFailure(t *testing.T) {
	t.Parallel()

	store := mocks.NewMemoryJobStore()
	store.FailUpserts(errors.New("connection refused"))

	s := jobs.NewScheduler(store, testConfig(), testLogger())
	s.RegisterHandler("test.kind", func(ctx context.Context, job *jobs.Job) error { return nil })

	_, err := s.Schedule(context.Background(), "k", "test.kind", nil, time.Now())
	assert.ErrorIs(t, err, jobs.ErrSchedulerUnavailable)
}

func TestScheduleDedupeReplaces(t *testing.T) {
	t.Parallel()

	store := mocks.NewMemoryJobStore()
	s := jobs.NewScheduler(store, testConfig(), testLogger())
	s.RegisterHandler("test.kind", func(ctx context.Context, job *jobs.Job) error { return nil })

	first, err := s.Schedule(context.Background(), "same-key", "test.kind", nil, time.Now().Add(time.Hour))
	require.NoError(t, err)

	later := time.Now().Add(2 * time.Hour)
	second, err := s.Schedule(context.Background(), "same-key", "test.kind", nil, later)
	require.NoError(t, err)

	// The handle is stable across replacements of the same key.
	assert.Equal(t, first, second)
	assert.Equal(t, 1, store.Len())

	job, ok := store.Job(first)
	require.True(t, ok)
	assert.True(t, job.RunAt.Equal(later))
	assert.Equal(t, jobs.StatusPending, job.Status)
}

func TestCancelIsAdvisory(t *testing.T) {
	t.Parallel()

	store := mocks.NewMemoryJobStore()
	s := jobs.NewScheduler(store, testConfig(), testLogger())
	s.RegisterHandler("test.kind", func(ctx context.Context, job *jobs.Job) error { return nil })

	id, err := s.Schedule(context.Background(), "k", "test.kind", nil, time.Now().Add(time.Hour))
	require.NoError(t, err)

	require.NoError(t, s.Cancel(context.Background(), id))
	assert.Equal(t, 0, store.Len())

	// Canceling an unknown handle is not an error.
	require.NoError(t, s.Cancel(context.Background(), uuid.New()))
}

func TestConsumerExecutesDueJobs(t *testing.T) {
	t.Parallel()

	store := mocks.NewMemoryJobStore()
	s := jobs.NewScheduler(store, testConfig(), testLogger())

	type payload struct {
		N int `json:"n"`
	}

	var handled atomic.Int32
	s.RegisterHandler("test.kind", func(ctx context.Context, job *jobs.Job) error {
		var p payload
		if err := job.UnmarshalPayload(&p); err != nil {
			return err
		}
		handled.Add(int32(p.N))
		return nil
	})

	id, err := s.Schedule(context.Background(), "k", "test.kind", payload{N: 7}, time.Now().Add(-time.Second))
	require.NoError(t, err)

	require.NoError(t, s.Start())
	defer s.Stop()

	waitFor(t, func() bool {
		job, ok := store.Job(id)
		return ok && job.Status == jobs.StatusCompleted
	}, "job completion")
	assert.Equal(t, int32(7), handled.Load())
}

func TestConsumerRetriesThenGivesUp(t *testing.T) {
	t.Parallel()

	store := mocks.NewMemoryJobStore()
	s := jobs.NewScheduler(store, testConfig(), testLogger())

	var attempts atomic.Int32
	s.RegisterHandler("test.kind", func(ctx context.Context, job *jobs.Job) error {
		attempts.Add(1)
		return errors.New("always failing")
	})

	id, err := s.Schedule(context.Background(), "k", "test.kind", nil, time.Now().Add(-time.Second))
	require.NoError(t, err)

	require.NoError(t, s.Start())
	defer s.Stop()

	waitFor(t, func() bool {
		job, ok := store.Job(id)
		return ok && job.Status == jobs.StatusFailed
	}, "job marked failed")

	assert.Equal(t, int32(3), attempts.Load())

	job, _ := store.Job(id)
	assert.Equal(t, "always failing", job.LastError)
}

func TestStartRecoversInterruptedJobs(t *testing.T) {
	t.Parallel()

	store := mocks.NewMemoryJobStore()

	// Simulate a crash: a claimed job left in processing.
	stale := &jobs.Job{
		ID:        uuid.New(),
		DedupeKey: "stale",
		Kind:      "test.kind",
		Payload:   []byte(`{}`),
		RunAt:     time.Now().Add(-time.Minute),
	}
	_, err := store.Upsert(context.Background(), stale)
	require.NoError(t, err)
	claimed, err := store.ClaimDue(context.Background(), time.Now(), 1)
	require.NoError(t, err)
	require.Len(t, claimed, 1)

	s := jobs.NewScheduler(store, testConfig(), testLogger())

	var handled atomic.Int32
	s.RegisterHandler("test.kind", func(ctx context.Context, job *jobs.Job) error {
		handled.Add(1)
		return nil
	})

	require.NoError(t, s.Start())
	defer s.Stop()

	waitFor(t, func() bool {
		job, ok := store.Job(stale.ID)
		return ok && job.Status == jobs.StatusCompleted
	}, "recovered job completion")
	assert.Equal(t, int32(1), handled.Load())
}

func TestStartNoopWithoutWorkerFlag(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.RunWorker = false

	store := mocks.NewMemoryJobStore()
	s := jobs.NewScheduler(store, cfg, testLogger())

	var handled atomic.Int32
	s.RegisterHandler("test.kind", func(ctx context.Context, job *jobs.Job) error {
		handled.Add(1)
		return nil
	})

	id, err := s.Schedule(context.Background(), "k", "test.kind", nil, time.Now().Add(-time.Second))
	require.NoError(t, err)

	require.NoError(t, s.Start())
	time.Sleep(30 * time.Millisecond)
	s.Stop()

	// Scheduling still works; consumption does not happen on this instance.
	job, ok := store.Job(id)
	require.True(t, ok)
	assert.Equal(t, jobs.StatusPending, job.Status)
	assert.Zero(t, handled.Load())
}
