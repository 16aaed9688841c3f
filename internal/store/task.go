package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/ticklerhq/tickler-api/internal/domain"
)

// TaskStore is the read-only collaborator contract over the externally-owned
// task data. The reminder engine only needs enough of a task to validate
// lifecycle calls and to build notification payloads.
type TaskStore interface {
	// GetByID retrieves the engine's view of a task, including its project
	// name when the task belongs to a project.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)
}

// UserStore is the minimal collaborator contract over the externally-owned
// user data, used by the session auth service.
type UserStore interface {
	// GetByEmail retrieves a user by email address.
	// Returns ErrUserNotFound if the user does not exist.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// GetByID retrieves a user by ID.
	// Returns ErrUserNotFound if the user does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}
