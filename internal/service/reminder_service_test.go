package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ticklerhq/tickler-api/internal/domain"
	"github.com/ticklerhq/tickler-api/internal/jobs"
	"github.com/ticklerhq/tickler-api/internal/mocks"
	"github.com/ticklerhq/tickler-api/internal/notify"
	"github.com/ticklerhq/tickler-api/internal/store"
)

// recordingScheduler implements JobScheduler and records every call.
type recordingScheduler struct {
	mu         sync.Mutex
	scheduled  []scheduledCall
	canceled   []uuid.UUID
	scheduleFn func(dedupeKey, kind string, runAt time.Time) (uuid.UUID, error)
	cancelErr  error
}

type scheduledCall struct {
	dedupeKey string
	kind      string
	payload   any
	runAt     time.Time
	jobID     uuid.UUID
}

func (r *recordingScheduler) Schedule(
	ctx context.Context,
	dedupeKey, kind string,
	payload any,
	runAt time.Time,
) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.scheduleFn != nil {
		id, err := r.scheduleFn(dedupeKey, kind, runAt)
		if err != nil {
			return uuid.Nil, err
		}
		r.scheduled = append(r.scheduled, scheduledCall{dedupeKey, kind, payload, runAt, id})
		return id, nil
	}
	id := uuid.New()
	r.scheduled = append(r.scheduled, scheduledCall{dedupeKey, kind, payload, runAt, id})
	return id, nil
}

func (r *recordingScheduler) Cancel(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.canceled = append(r.canceled, id)
	return r.cancelErr
}

// recordingDispatcher implements FireDispatcher.
type recordingDispatcher struct {
	result notify.Result
	err    error
	calls  []uuid.UUID
}

func (r *recordingDispatcher) HandleFire(
	ctx context.Context,
	reminderID, taskID uuid.UUID,
) (notify.Result, error) {
	r.calls = append(r.calls, reminderID)
	return r.result, r.err
}

type serviceFixture struct {
	tx         *mocks.TxRecorder
	reminders  *mocks.MockReminderStore
	tasks      *mocks.MockTaskStore
	scheduler  *recordingScheduler
	dispatcher *recordingDispatcher
	svc        *ReminderService
}

func newFixture() *serviceFixture {
	f := &serviceFixture{
		tx:         &mocks.TxRecorder{},
		reminders:  mocks.NewMockReminderStore(),
		tasks:      mocks.NewMockTaskStore(),
		scheduler:  &recordingScheduler{},
		dispatcher: &recordingDispatcher{},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.svc = NewReminderService(
		mocks.NewTxDB(f.tx), f.reminders, f.tasks, f.scheduler, f.dispatcher, logger)
	return f
}

func (f *serviceFixture) seedTask(completed bool) *domain.Task {
	task := &domain.Task{ID: uuid.New(), Title: "Water plants", Completed: completed}
	f.tasks.Put(task)
	return task
}

func TestCreateReminder(t *testing.T) {
	t.Parallel()

	f := newFixture()
	task := f.seedTask(false)
	triggerAt := time.Now().Add(time.Hour).UTC()

	reminder, err := f.svc.Create(context.Background(), task.ID, triggerAt)
	require.NoError(t, err)

	assert.Equal(t, task.ID, reminder.TaskID)
	assert.Equal(t, domain.ReminderStatusPending, reminder.Status)
	require.NotNil(t, reminder.JobID)

	require.Len(t, f.scheduler.scheduled, 1)
	call := f.scheduler.scheduled[0]
	assert.Equal(t, "reminder:"+reminder.ID.String(), call.dedupeKey)
	assert.Equal(t, JobKindReminderFire, call.kind)
	assert.True(t, call.runAt.Equal(triggerAt))
	assert.Equal(t, call.jobID, *reminder.JobID)

	stored, ok := f.reminders.Get(reminder.ID)
	require.True(t, ok)
	require.NotNil(t, stored.JobID)
	assert.Equal(t, call.jobID, *stored.JobID)
}

func TestCreateReminderRejections(t *testing.T) {
	t.Parallel()

	t.Run("zero trigger time", func(t *testing.T) {
		t.Parallel()
		f := newFixture()
		task := f.seedTask(false)
		_, err := f.svc.Create(context.Background(), task.ID, time.Time{})
		assert.ErrorIs(t, err, ErrInvalidTriggerAt)
	})

	t.Run("unknown task", func(t *testing.T) {
		t.Parallel()
		f := newFixture()
		_, err := f.svc.Create(context.Background(), uuid.New(), time.Now().Add(time.Hour))
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
	})

	t.Run("completed task", func(t *testing.T) {
		t.Parallel()
		f := newFixture()
		task := f.seedTask(true)
		_, err := f.svc.Create(context.Background(), task.ID, time.Now().Add(time.Hour))
		assert.ErrorIs(t, err, ErrTaskCompleted)
	})

	t.Run("scheduler unavailable", func(t *testing.T) {
		t.Parallel()
		f := newFixture()
		task := f.seedTask(false)
		f.scheduler.scheduleFn = func(dedupeKey, kind string, runAt time.Time) (uuid.UUID, error) {
			return uuid.Nil, jobs.ErrSchedulerUnavailable
		}
		_, err := f.svc.Create(context.Background(), task.ID, time.Now().Add(time.Hour))
		assert.ErrorIs(t, err, jobs.ErrSchedulerUnavailable)
	})
}

func TestSnoozeReminder(t *testing.T) {
	t.Parallel()

	f := newFixture()
	task := f.seedTask(false)
	reminder, err := f.svc.Create(context.Background(), task.ID, time.Now().Add(time.Hour))
	require.NoError(t, err)
	originalJobID := *reminder.JobID

	before := time.Now().UTC()
	snoozed, err := f.svc.Snooze(context.Background(), reminder.ID, 10)
	require.NoError(t, err)

	assert.Equal(t, domain.ReminderStatusSnoozed, snoozed.Status)
	require.NotNil(t, snoozed.SnoozedUntil)
	assert.WithinDuration(t, before.Add(10*time.Minute), *snoozed.SnoozedUntil, 2*time.Second)

	// The old job was canceled and a replacement scheduled under the same key.
	assert.Equal(t, []uuid.UUID{originalJobID}, f.scheduler.canceled)
	require.Len(t, f.scheduler.scheduled, 2)
	assert.Equal(t, f.scheduler.scheduled[0].dedupeKey, f.scheduler.scheduled[1].dedupeKey)

	stored, ok := f.reminders.Get(reminder.ID)
	require.True(t, ok)
	assert.Equal(t, domain.ReminderStatusSnoozed, stored.Status)
}

func TestSnoozeSurvivesCancelFailure(t *testing.T) {
	t.Parallel()

	f := newFixture()
	task := f.seedTask(false)
	reminder, err := f.svc.Create(context.Background(), task.ID, time.Now().Add(time.Hour))
	require.NoError(t, err)

	f.scheduler.cancelErr = errors.New("store down")

	_, err = f.svc.Snooze(context.Background(), reminder.ID, 10)
	require.NoError(t, err)
	require.Len(t, f.scheduler.scheduled, 2)
}

func TestSnoozeRejections(t *testing.T) {
	t.Parallel()

	t.Run("non-positive minutes", func(t *testing.T) {
		t.Parallel()
		f := newFixture()
		_, err := f.svc.Snooze(context.Background(), uuid.New(), 0)
		assert.ErrorIs(t, err, ErrInvalidSnoozeDuration)

		_, err = f.svc.Snooze(context.Background(), uuid.New(), -5)
		assert.ErrorIs(t, err, ErrInvalidSnoozeDuration)
	})

	t.Run("unknown reminder", func(t *testing.T) {
		t.Parallel()
		f := newFixture()
		_, err := f.svc.Snooze(context.Background(), uuid.New(), 10)
		assert.ErrorIs(t, err, store.ErrReminderNotFound)
	})

	t.Run("dismissed reminder", func(t *testing.T) {
		t.Parallel()
		f := newFixture()
		task := f.seedTask(false)
		reminder, err := f.svc.Create(context.Background(), task.ID, time.Now().Add(time.Hour))
		require.NoError(t, err)
		require.NoError(t, f.svc.Dismiss(context.Background(), reminder.ID))

		_, err = f.svc.Snooze(context.Background(), reminder.ID, 10)
		assert.ErrorIs(t, err, ErrReminderInactive)
	})

	t.Run("sent reminder can still be snoozed", func(t *testing.T) {
		t.Parallel()
		f := newFixture()
		task := f.seedTask(false)
		reminder, err := f.svc.Create(context.Background(), task.ID, time.Now().Add(time.Hour))
		require.NoError(t, err)
		require.NoError(t, f.reminders.MarkSent(context.Background(), reminder.ID))

		snoozed, err := f.svc.Snooze(context.Background(), reminder.ID, 10)
		require.NoError(t, err)
		assert.Equal(t, domain.ReminderStatusSnoozed, snoozed.Status)
	})
}

func TestDismissReminder(t *testing.T) {
	t.Parallel()

	f := newFixture()
	task := f.seedTask(false)
	reminder, err := f.svc.Create(context.Background(), task.ID, time.Now().Add(time.Hour))
	require.NoError(t, err)
	jobID := *reminder.JobID

	require.NoError(t, f.svc.Dismiss(context.Background(), reminder.ID))
	assert.Equal(t, []uuid.UUID{jobID}, f.scheduler.canceled)

	stored, ok := f.reminders.Get(reminder.ID)
	require.True(t, ok)
	assert.Equal(t, domain.ReminderStatusDismissed, stored.Status)
	assert.Nil(t, stored.JobID)

	// Second dismiss is a no-op, not an error, and cancels nothing new.
	require.NoError(t, f.svc.Dismiss(context.Background(), reminder.ID))
	assert.Len(t, f.scheduler.canceled, 1)
}

func TestDismissUnknownReminder(t *testing.T) {
	t.Parallel()

	f := newFixture()
	err := f.svc.Dismiss(context.Background(), uuid.New())
	assert.ErrorIs(t, err, store.ErrReminderNotFound)
}

func TestCancelForTask(t *testing.T) {
	t.Parallel()

	f := newFixture()
	task := f.seedTask(false)
	otherTask := f.seedTask(false)

	r1, err := f.svc.Create(context.Background(), task.ID, time.Now().Add(time.Hour))
	require.NoError(t, err)
	r2, err := f.svc.Create(context.Background(), task.ID, time.Now().Add(2*time.Hour))
	require.NoError(t, err)
	other, err := f.svc.Create(context.Background(), otherTask.ID, time.Now().Add(time.Hour))
	require.NoError(t, err)

	dismissed, err := f.svc.CancelForTask(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), dismissed)
	assert.Len(t, f.scheduler.canceled, 2)

	for _, id := range []uuid.UUID{r1.ID, r2.ID} {
		stored, ok := f.reminders.Get(id)
		require.True(t, ok)
		assert.Equal(t, domain.ReminderStatusDismissed, stored.Status)
	}

	// Reminders of other tasks are untouched.
	stored, ok := f.reminders.Get(other.ID)
	require.True(t, ok)
	assert.Equal(t, domain.ReminderStatusPending, stored.Status)

	// The list and bulk dismissal ran in a single committed transaction.
	assert.Equal(t, 1, f.tx.Begins())
	assert.Equal(t, 1, f.tx.Commits())
	assert.Zero(t, f.tx.Rollbacks())
}

func TestCancelForTaskRollsBackOnStoreFailure(t *testing.T) {
	t.Parallel()

	f := newFixture()
	storeErr := errors.New("dismiss failed")
	f.reminders.DismissAllForTaskFn = func(ctx context.Context, taskID uuid.UUID) (int64, error) {
		return 0, storeErr
	}

	_, err := f.svc.CancelForTask(context.Background(), uuid.New())

	require.ErrorIs(t, err, storeErr)
	assert.Equal(t, 1, f.tx.Rollbacks())
	assert.Zero(t, f.tx.Commits())
}

func TestHandleFireJob(t *testing.T) {
	t.Parallel()

	f := newFixture()
	reminderID := uuid.New()
	taskID := uuid.New()

	payload, err := json.Marshal(FireJobPayload{ReminderID: reminderID, TaskID: taskID})
	require.NoError(t, err)
	job := &jobs.Job{ID: uuid.New(), Kind: JobKindReminderFire, Payload: payload}

	require.NoError(t, f.svc.HandleFireJob(context.Background(), job))
	assert.Equal(t, []uuid.UUID{reminderID}, f.dispatcher.calls)
}

func TestHandleFireJobSkipsGoneReminder(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.dispatcher.err = store.ErrReminderNotFound

	payload, err := json.Marshal(FireJobPayload{ReminderID: uuid.New(), TaskID: uuid.New()})
	require.NoError(t, err)
	job := &jobs.Job{ID: uuid.New(), Kind: JobKindReminderFire, Payload: payload}

	// A reminder deleted after scheduling is a skip, not a retryable failure.
	require.NoError(t, f.svc.HandleFireJob(context.Background(), job))
}

func TestHandleFireJobPropagatesDispatchErrors(t *testing.T) {
	t.Parallel()

	f := newFixture()
	dispatchErr := errors.New("subscriptions unavailable")
	f.dispatcher.err = dispatchErr

	payload, err := json.Marshal(FireJobPayload{ReminderID: uuid.New(), TaskID: uuid.New()})
	require.NoError(t, err)
	job := &jobs.Job{ID: uuid.New(), Kind: JobKindReminderFire, Payload: payload}

	assert.ErrorIs(t, f.svc.HandleFireJob(context.Background(), job), dispatchErr)
}
