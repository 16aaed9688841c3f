package domain

import (
	"time"

	"github.com/google/uuid"
)

// Task is the read-only view of a task as the reminder engine sees it.
// Tasks are owned by the task management side of the application; the engine
// only reads the fields it needs to decide whether to notify and what to say.
type Task struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Completed   bool       `json:"completed"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	ProjectName *string    `json:"project_name,omitempty"`
}

// User represents an authenticated principal. The engine only needs enough
// of the user to verify a login and scope subscriptions to an owner.
type User struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
}
