package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/ticklerhq/tickler-api/internal/domain"
)

// FormatBody renders the shared notification body for all channels.
// Line 1 is the task title; line 2 joins the project name (when present)
// and a relative due label with " · ". The second line is omitted entirely
// when it has no items.
func FormatBody(p domain.Payload, now time.Time) string {
	var items []string

	if p.ProjectName != nil && *p.ProjectName != "" {
		items = append(items, *p.ProjectName)
	}

	if p.DueDate != nil {
		if label := DueLabel(*p.DueDate, now); label != "" {
			items = append(items, label)
		}
	}

	if len(items) == 0 {
		return p.TaskTitle
	}

	return p.TaskTitle + "\n" + strings.Join(items, " · ")
}

// DueLabel maps a due date to a relative label based on whole-day offset
// from now: overdue, today, tomorrow, or "Due in N days" up to a week out.
// Anything further out produces no label.
func DueLabel(due, now time.Time) string {
	days := daysBetween(now, due)

	switch {
	case days < 0:
		return "Overdue"
	case days == 0:
		return "Due today"
	case days == 1:
		return "Due tomorrow"
	case days <= 7:
		return fmt.Sprintf("Due in %d days", days)
	default:
		return ""
	}
}

// daysBetween returns the calendar-day offset from a to b, ignoring the
// time of day of either instant. Each wall date is re-anchored in UTC so a
// DST-shortened or -lengthened day still counts as exactly one day.
func daysBetween(a, b time.Time) int {
	aDay := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bDay := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bDay.Sub(aDay) / (24 * time.Hour))
}
