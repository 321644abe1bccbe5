package assignments

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultDueTime is used when an assignment has no due time.
	DefaultDueTime = "23:59"
	// DueSoonWindow is how close the due instant must be for an assignment to count as due soon.
	DueSoonWindow = 6 * time.Hour

	dateLayout = "2006-01-02"
)

// DueInstant returns the moment the assignment is due, in local time.
func DueInstant(a *Assignment) time.Time {
	return DueInstantIn(a, time.Local)
}

// DueInstantIn combines the due date with the due time (23:59 when absent)
// in the given location. A malformed due time falls back to midnight of the
// due date; a malformed due date yields the zero time.
func DueInstantIn(a *Assignment, loc *time.Location) time.Time {
	day, err := time.ParseInLocation(dateLayout, strings.TrimSpace(a.DueDate), loc)
	if err != nil {
		return time.Time{}
	}
	clock := a.DueTime
	if clock == "" {
		clock = DefaultDueTime
	}
	hh, mm, ok := parseClock(clock)
	if !ok {
		return day
	}
	// time.Date normalises out-of-range values, e.g. 24:30 rolls into the next day.
	return time.Date(day.Year(), day.Month(), day.Day(), hh, mm, 0, 0, loc)
}

// ReminderInstant returns when the reminder for a should fire, and false
// if the assignment has no reminder or its offset is out of range.
func ReminderInstant(a *Assignment) (time.Time, bool) {
	if !a.RemindAhead.Enabled() || !a.RemindAhead.InRange() {
		return time.Time{}, false
	}
	return DueInstant(a).Add(-a.RemindAhead.Offset()), true
}

// IsOverdue reports whether a is not done and its due instant is before now.
func IsOverdue(a *Assignment, now time.Time) bool {
	return !a.Done() && DueInstant(a).Before(now)
}

// IsDueSoon reports whether a is not done and due within the next six hours.
func IsDueSoon(a *Assignment, now time.Time) bool {
	left := DueInstant(a).Sub(now)
	return !a.Done() && left > 0 && left <= DueSoonWindow
}

// parseClock splits "HH:MM". Anything after the minutes is ignored.
func parseClock(s string) (hh, mm int, ok bool) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 {
		return 0, 0, false
	}
	hh, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, false
	}
	mm, err = strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, false
	}
	return hh, mm, true
}

// parseMinutes parses a reminder offset in minutes, truncating fractions.
// Any negative value comes back as -1; offsets above MaxRemindMinutes and
// non-finite numbers are errors.
func parseMinutes(s string) (int, error) {
	s = strings.TrimSpace(s)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	switch {
	case math.IsNaN(f) || math.IsInf(f, 0):
		return 0, fmt.Errorf("offset %q is not a number", s)
	case f < 0:
		return -1, nil
	case f > MaxRemindMinutes:
		return 0, fmt.Errorf("offset %s exceeds %d minutes", s, MaxRemindMinutes)
	}
	return int(f), nil
}
