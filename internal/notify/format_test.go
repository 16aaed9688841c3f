package notify

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/ticklerhq/tickler-api/internal/domain"
)

func TestDueLabel(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 10, 15, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		due  time.Time
		want string
	}{
		{"overdue by days", now.AddDate(0, 0, -3), "Overdue"},
		{"overdue yesterday", now.AddDate(0, 0, -1), "Overdue"},
		{"due earlier today", time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC), "Due today"},
		{"due later today", time.Date(2025, 6, 10, 23, 0, 0, 0, time.UTC), "Due today"},
		{"due tomorrow morning", time.Date(2025, 6, 11, 1, 0, 0, 0, time.UTC), "Due tomorrow"},
		{"due in two days", now.AddDate(0, 0, 2), "Due in 2 days"},
		{"due in a week", now.AddDate(0, 0, 7), "Due in 7 days"},
		{"due beyond a week", now.AddDate(0, 0, 8), ""},
		{"due next month", now.AddDate(0, 1, 0), ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, DueLabel(tt.due, now))
		})
	}
}

func TestDueLabelAcrossSpringForward(t *testing.T) {
	t.Parallel()

	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	// 2026-03-08 has only 23 wall-clock hours in this zone; the next
	// calendar day must still count as a full day.
	now := time.Date(2026, 3, 8, 12, 0, 0, 0, loc)
	due := time.Date(2026, 3, 9, 12, 0, 0, 0, loc)

	assert.Equal(t, "Due tomorrow", DueLabel(due, now))
}

func TestFormatBody(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 10, 15, 30, 0, 0, time.UTC)
	project := "Errands"
	dueTomorrow := time.Date(2025, 6, 11, 9, 0, 0, 0, time.UTC)
	dueFar := now.AddDate(0, 2, 0)

	base := domain.Payload{
		ReminderID: uuid.New(),
		TaskID:     uuid.New(),
		TaskTitle:  "Buy milk",
	}

	t.Run("title only", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "Buy milk", FormatBody(base, now))
	})

	t.Run("project and due label", func(t *testing.T) {
		t.Parallel()
		p := base
		p.ProjectName = &project
		p.DueDate = &dueTomorrow
		assert.Equal(t, "Buy milk\nErrands · Due tomorrow", FormatBody(p, now))
	})

	t.Run("project only", func(t *testing.T) {
		t.Parallel()
		p := base
		p.ProjectName = &project
		assert.Equal(t, "Buy milk\nErrands", FormatBody(p, now))
	})

	t.Run("due label only", func(t *testing.T) {
		t.Parallel()
		p := base
		p.DueDate = &dueTomorrow
		assert.Equal(t, "Buy milk\nDue tomorrow", FormatBody(p, now))
	})

	t.Run("far due date produces no second line", func(t *testing.T) {
		t.Parallel()
		p := base
		p.DueDate = &dueFar
		assert.Equal(t, "Buy milk", FormatBody(p, now))
	})

	t.Run("empty project name is skipped", func(t *testing.T) {
		t.Parallel()
		empty := ""
		p := base
		p.ProjectName = &empty
		assert.Equal(t, "Buy milk", FormatBody(p, now))
	})
}
