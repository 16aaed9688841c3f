package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Task lifecycle event types.
const (
	// TaskCompleted signals the task was marked done in the task system.
	TaskCompleted = "task.completed"

	// TaskDeleted signals the task was removed entirely.
	TaskDeleted = "task.deleted"
)

// TaskEvent represents a lifecycle change to a task owned by the external
// task system. Reminders referencing the task react to it; nothing in this
// codebase mutates tasks.
type TaskEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type is one of the task lifecycle event type constants
	Type string `json:"type"`

	// TaskID identifies the affected task
	TaskID uuid.UUID `json:"task_id"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// NewTaskEvent creates a TaskEvent of the given type for the given task.
func NewTaskEvent(eventType string, taskID uuid.UUID) *TaskEvent {
	return &TaskEvent{
		ID:        uuid.New(),
		Type:      eventType,
		TaskID:    taskID,
		CreatedAt: time.Now(),
	}
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *TaskEvent) error
}

// EventEmitter defines an interface for components that can emit events.
// This allows the API layer to publish events without direct knowledge of
// which services consume them.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	EmitEvent(ctx context.Context, event *TaskEvent) error
}
