// Package assignments holds the assignment record, the due-time
// calculations derived from it and the plain data transformations around
// it (collection, filtering, CSV and calendar export).
package assignments

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status of an assignment.
type Status string

const (
	StatusTodo  Status = "todo"
	StatusDoing Status = "doing"
	StatusDone  Status = "done"
)

// ParseStatus returns the status named by s, or StatusTodo if s is not a known status.
func ParseStatus(s string) Status {
	switch st := Status(strings.TrimSpace(s)); st {
	case StatusTodo, StatusDoing, StatusDone:
		return st
	default:
		return StatusTodo
	}
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	return s == StatusTodo || s == StatusDoing || s == StatusDone
}

// Label returns the display name of the status.
func (s Status) Label() string {
	switch s {
	case StatusTodo:
		return "To-do"
	case StatusDoing:
		return "Doing"
	default:
		return "Done"
	}
}

// Priority of an assignment.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// ParsePriority returns the priority named by s, or PriorityMedium if s is not a known priority.
func ParsePriority(s string) Priority {
	switch p := Priority(strings.TrimSpace(s)); p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return p
	default:
		return PriorityMedium
	}
}

// Rank orders priorities: High 3, Medium 2, Low 1, anything else 0.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// Reminder is either "no reminder" or "remind N minutes before the due instant".
// The zero value is NoReminder.
//
// On the wire a Reminder is a plain integer, with -1 meaning no reminder.
type Reminder struct {
	minutes int
	enabled bool
}

// MaxRemindMinutes is the longest reminder offset accepted: one year.
const MaxRemindMinutes = 366 * 24 * 60

// NoReminder returns a Reminder that never fires.
func NoReminder() Reminder {
	return Reminder{}
}

// RemindBefore returns a Reminder firing the given number of minutes before
// the due instant. Negative values mean no reminder.
func RemindBefore(minutes int) Reminder {
	if minutes < 0 {
		return NoReminder()
	}
	return Reminder{minutes: minutes, enabled: true}
}

// Minutes returns the offset in minutes and whether a reminder is set.
func (r Reminder) Minutes() (int, bool) {
	return r.minutes, r.enabled
}

// Enabled reports whether a reminder is set.
func (r Reminder) Enabled() bool {
	return r.enabled
}

// InRange reports whether the offset is at most MaxRemindMinutes.
// NoReminder is always in range.
func (r Reminder) InRange() bool {
	return !r.enabled || r.minutes <= MaxRemindMinutes
}

// Offset returns how long before the due instant the reminder fires.
func (r Reminder) Offset() time.Duration {
	return time.Duration(r.minutes) * time.Minute
}

// Int returns the wire encoding: the offset in minutes, or -1 for no reminder.
func (r Reminder) Int() int {
	if !r.enabled {
		return -1
	}
	return r.minutes
}

// String returns a short human label such as "30m before".
func (r Reminder) String() string {
	if !r.enabled {
		return "None"
	}
	switch r.minutes {
	case 0:
		return "At due"
	case 60:
		return "1h before"
	case 1440:
		return "1d before"
	default:
		return fmt.Sprintf("%dm before", r.minutes)
	}
}

func (r Reminder) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Int())
}

func (r *Reminder) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*r = NoReminder()
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("remindAheadMinutes: %w", err)
	}
	m, err := parseMinutes(n.String())
	if err != nil {
		return fmt.Errorf("remindAheadMinutes: %w", err)
	}
	*r = RemindBefore(m)
	return nil
}

// Assignment is a single tracked item.
type Assignment struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Course        string     `json:"course"`
	DueDate       string     `json:"dueDate"`
	DueTime       string     `json:"dueTime"`
	Priority      Priority   `json:"priority"`
	EstimateHours float64    `json:"estimateHours"`
	Status        Status     `json:"status"`
	Notes         string     `json:"notes"`
	RemindAhead   Reminder   `json:"remindAheadMinutes"`
	NotifiedAt    *time.Time `json:"notifiedAt"`
	ScheduledAt   *time.Time `json:"scheduledAt"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// NewID returns a fresh assignment identity.
func NewID() string {
	return "asg_" + uuid.NewString()
}

// Done reports whether the assignment is completed.
func (a *Assignment) Done() bool {
	return a.Status == StatusDone
}

// Clone returns a deep copy of the assignment.
func (a *Assignment) Clone() *Assignment {
	c := *a
	if a.NotifiedAt != nil {
		t := *a.NotifiedAt
		c.NotifiedAt = &t
	}
	if a.ScheduledAt != nil {
		t := *a.ScheduledAt
		c.ScheduledAt = &t
	}
	return &c
}
