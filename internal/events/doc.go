// Package events carries task lifecycle notifications from the outside
// world into the reminder engine. Task CRUD lives in a separate system;
// when a task is completed or deleted there, an event lands here and
// whatever reminders reference it get cleaned up. The emitter keeps the
// API layer free of a direct dependency on the reminder service.
package events
