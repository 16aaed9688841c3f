package domain

import (
	"time"

	"github.com/google/uuid"
)

// Payload is the ephemeral notification content for one fired reminder.
// It is constructed at fire time from the task and its project context and
// is never persisted.
type Payload struct {
	ReminderID  uuid.UUID  `json:"reminder_id"`
	TaskID      uuid.UUID  `json:"task_id"`
	TaskTitle   string     `json:"task_title"`
	ProjectName *string    `json:"project_name,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

// PayloadFromTask builds the notification payload for a reminder from the
// task collaborator's current state.
func PayloadFromTask(reminderID uuid.UUID, task *Task) Payload {
	return Payload{
		ReminderID:  reminderID,
		TaskID:      task.ID,
		TaskTitle:   task.Title,
		ProjectName: task.ProjectName,
		DueDate:     task.DueDate,
	}
}
