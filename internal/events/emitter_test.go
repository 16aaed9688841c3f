package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	received []*TaskEvent
	err      error
}

func (h *recordingHandler) HandleEvent(_ context.Context, event *TaskEvent) error {
	h.received = append(h.received, event)
	return h.err
}

func newTestEmitter() *InMemoryEventEmitter {
	return NewInMemoryEventEmitter(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestEmitEventDeliversToAllHandlers(t *testing.T) {
	emitter := newTestEmitter()
	first := &recordingHandler{}
	second := &recordingHandler{}
	emitter.RegisterHandler(first)
	emitter.RegisterHandler(second)

	event := NewTaskEvent(TaskCompleted, uuid.New())
	err := emitter.EmitEvent(context.Background(), event)

	require.NoError(t, err)
	require.Len(t, first.received, 1)
	require.Len(t, second.received, 1)
	assert.Equal(t, event.ID, first.received[0].ID)
	assert.Equal(t, TaskCompleted, second.received[0].Type)
}

func TestEmitEventNoHandlers(t *testing.T) {
	emitter := newTestEmitter()

	err := emitter.EmitEvent(context.Background(), NewTaskEvent(TaskDeleted, uuid.New()))

	assert.NoError(t, err, "an event with no consumers is not an error")
}

func TestEmitEventFailingHandlerDoesNotBlockOthers(t *testing.T) {
	emitter := newTestEmitter()
	failing := &recordingHandler{err: errors.New("cleanup failed")}
	alsoFailing := &recordingHandler{err: errors.New("second failure")}
	healthy := &recordingHandler{}
	emitter.RegisterHandler(failing)
	emitter.RegisterHandler(alsoFailing)
	emitter.RegisterHandler(healthy)

	err := emitter.EmitEvent(context.Background(), NewTaskEvent(TaskCompleted, uuid.New()))

	require.Error(t, err)
	assert.EqualError(t, err, "cleanup failed", "the first handler error should be returned")
	assert.Len(t, healthy.received, 1, "handlers after a failure must still run")
}

func TestNewTaskEvent(t *testing.T) {
	taskID := uuid.New()
	event := NewTaskEvent(TaskDeleted, taskID)

	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, TaskDeleted, event.Type)
	assert.Equal(t, taskID, event.TaskID)
	assert.False(t, event.CreatedAt.IsZero())
}
