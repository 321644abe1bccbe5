package reminders

import (
	"time"

	"github.com/benbjohnson/clock"
)

// Reminder is a live delayed action bound to an assignment identity.
type Reminder struct {
	AssignmentID  string
	ExecutionTime time.Time

	timer *clock.Timer
}

// Key returns the identity the reminder is bound to.
func (r *Reminder) Key() string {
	return r.AssignmentID
}

// ScheduledTime returns the time the reminder is scheduled to fire at.
func (r *Reminder) ScheduledTime() time.Time {
	return r.ExecutionTime
}

// stop disarms the timer. It is safe to call on a reminder that already fired.
func (r *Reminder) stop() {
	if r.timer != nil {
		r.timer.Stop()
	}
}
