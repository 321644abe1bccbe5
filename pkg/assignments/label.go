package assignments

import (
	"time"

	"github.com/dustin/go-humanize"
)

// DueLabel returns the due date in a medium style ("Jan 2, 2006"), followed
// by the time of day when the assignment has an explicit due time.
func DueLabel(a *Assignment) string {
	due := DueInstant(a)
	if a.DueTime == "" {
		return due.Format("Jan 2, 2006")
	}
	return due.Format("Jan 2, 2006, 3:04 PM")
}

// ShortDueLabel returns a compact label such as "Mon, Jan 2 15:04".
func ShortDueLabel(a *Assignment) string {
	due := DueInstant(a)
	if a.DueTime == "" {
		return due.Format("Mon, Jan 2")
	}
	return due.Format("Mon, Jan 2 15:04")
}

// RelativeDueLabel describes the due instant relative to now, e.g. "3 hours from now".
func RelativeDueLabel(a *Assignment, now time.Time) string {
	return humanize.RelTime(DueInstant(a), now, "ago", "from now")
}

// Badge returns "Overdue", "Due soon" or the empty string.
func Badge(a *Assignment, now time.Time) string {
	switch {
	case IsOverdue(a, now):
		return "Overdue"
	case IsDueSoon(a, now):
		return "Due soon"
	default:
		return ""
	}
}
