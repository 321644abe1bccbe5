package reminders

import (
	"time"

	"assignment-planner/pkg/assignments"
)

// ReconcileAll rebuilds the store from the full collection: every pending
// reminder is canceled, then each assignment that has a reminder and is not
// done is scheduled again. It returns how many live reminders were armed.
// Must be called on the Loop.
func (s *Scheduler) ReconcileAll(items []*assignments.Assignment, now time.Time) int {
	s.store.Clear()
	armed := 0
	for _, a := range items {
		if !a.RemindAhead.Enabled() || a.Done() {
			continue
		}
		if s.Schedule(a, now) == OutcomeArmed {
			armed++
		}
	}
	s.log.Info("Reconciled %d assignments, %d reminders armed", len(items), armed)
	return armed
}
