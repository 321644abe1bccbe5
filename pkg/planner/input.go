package planner

import (
	"fmt"
	"strings"
	"time"

	"assignment-planner/pkg/assignments"
)

// Input is the editable part of an assignment. On update, an empty title,
// due date, priority or status keeps the current value. Every other field
// replaces the current one: an omitted remindAheadMinutes decodes as no
// reminder, on create and on update alike.
type Input struct {
	Title         string               `json:"title"`
	Course        string               `json:"course"`
	DueDate       string               `json:"dueDate"`
	DueTime       string               `json:"dueTime"`
	Priority      string               `json:"priority"`
	EstimateHours float64              `json:"estimateHours"`
	Status        string               `json:"status"`
	Notes         string               `json:"notes"`
	RemindAhead   assignments.Reminder `json:"remindAheadMinutes"`
}

func (in Input) validate() error {
	if d := strings.TrimSpace(in.DueDate); d != "" {
		if _, err := time.Parse("2006-01-02", d); err != nil {
			return fmt.Errorf("%w: due date %q is not YYYY-MM-DD", ErrInvalid, in.DueDate)
		}
	}
	if t := strings.TrimSpace(in.DueTime); t != "" {
		if _, err := time.Parse("15:04", t); err != nil {
			return fmt.Errorf("%w: due time %q is not HH:MM", ErrInvalid, in.DueTime)
		}
	}
	if in.Priority != "" && assignments.ParsePriority(in.Priority) != assignments.Priority(in.Priority) {
		return fmt.Errorf("%w: unknown priority %q", ErrInvalid, in.Priority)
	}
	if in.Status != "" && !assignments.Status(in.Status).Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalid, in.Status)
	}
	if !in.RemindAhead.InRange() {
		return fmt.Errorf("%w: reminder offset above %d minutes", ErrInvalid, assignments.MaxRemindMinutes)
	}
	if in.EstimateHours < 0 {
		return fmt.Errorf("%w: negative estimate", ErrInvalid)
	}
	return nil
}

func (in Input) apply(a *assignments.Assignment) {
	if t := strings.TrimSpace(in.Title); t != "" {
		a.Title = t
	}
	if d := strings.TrimSpace(in.DueDate); d != "" {
		a.DueDate = d
	}
	if in.Priority != "" {
		a.Priority = assignments.Priority(in.Priority)
	}
	if in.Status != "" {
		a.Status = assignments.Status(in.Status)
	}
	a.Course = strings.TrimSpace(in.Course)
	a.DueTime = strings.TrimSpace(in.DueTime)
	a.EstimateHours = in.EstimateHours
	a.Notes = strings.TrimSpace(in.Notes)
	a.RemindAhead = in.RemindAhead
}
