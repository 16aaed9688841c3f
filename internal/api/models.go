package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/ticklerhq/tickler-api/internal/domain"
)

// Common request/response structures

// LoginRequest defines the payload for the login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
}

// AuthResponse defines the successful response for the login endpoint.
type AuthResponse struct {
	UserID uuid.UUID `json:"user_id"`
	Token  string    `json:"token"`
}

// CreateReminderRequest defines the payload for creating a reminder.
type CreateReminderRequest struct {
	TaskID    uuid.UUID `json:"task_id"    validate:"required"`
	TriggerAt time.Time `json:"trigger_at" validate:"required"`
}

// ReminderResponse is the API representation of a reminder.
type ReminderResponse struct {
	ID           uuid.UUID  `json:"id"`
	TaskID       uuid.UUID  `json:"task_id"`
	TriggerAt    time.Time  `json:"trigger_at"`
	Status       string     `json:"status"`
	SnoozedUntil *time.Time `json:"snoozed_until,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// NewReminderResponse converts a domain reminder to its API representation.
func NewReminderResponse(reminder *domain.Reminder) ReminderResponse {
	return ReminderResponse{
		ID:           reminder.ID,
		TaskID:       reminder.TaskID,
		TriggerAt:    reminder.TriggerAt,
		Status:       string(reminder.Status),
		SnoozedUntil: reminder.SnoozedUntil,
		CreatedAt:    reminder.CreatedAt,
	}
}

// FireRequest defines the payload for the internal fire endpoint.
type FireRequest struct {
	ReminderID uuid.UUID `json:"reminder_id" validate:"required"`
	TaskID     uuid.UUID `json:"task_id"     validate:"required"`
}

// FireResponse reports the fan-out outcome for a fire request.
type FireResponse struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// SubscribeRequest defines the payload for registering a notification
// subscription. Push subscriptions carry the browser endpoint and keys;
// relay subscriptions carry a topic.
type SubscribeRequest struct {
	Channel   string `json:"channel"   validate:"required,oneof=push relay"`
	Endpoint  string `json:"endpoint"  validate:"required_if=Channel push,omitempty,url"`
	P256dhKey string `json:"p256dh"    validate:"required_if=Channel push"`
	AuthKey   string `json:"auth"      validate:"required_if=Channel push"`
	Topic     string `json:"topic"     validate:"required_if=Channel relay"`
}

// SubscriptionResponse is the API representation of a subscription.
// Endpoint and keys are never echoed back.
type SubscriptionResponse struct {
	ID        uuid.UUID `json:"id"`
	Channel   string    `json:"channel"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// UnsubscribeRequest defines the payload for deactivating a push
// subscription by its endpoint.
type UnsubscribeRequest struct {
	Endpoint string `json:"endpoint" validate:"required,url"`
}

// TaskEventRequest defines the payload for the task lifecycle webhook.
type TaskEventRequest struct {
	Type   string    `json:"type"    validate:"required,oneof=task.completed task.deleted"`
	TaskID uuid.UUID `json:"task_id" validate:"required"`
}
