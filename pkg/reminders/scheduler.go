// Package reminders decides, for every assignment, whether and when an
// in-session notification fires, and keeps that decision in step with
// edits, deletions, completions and bulk changes.
package reminders

import (
	"time"

	"github.com/benbjohnson/clock"

	"assignment-planner/pkg/assignments"
	"assignment-planner/pkg/logger"
)

// NearTermWindow is how far ahead a reminder may be and still get a live timer.
// Reminders further out are only recorded and picked up by a later reconciliation.
const NearTermWindow = 24 * time.Hour

// Lookup finds the current version of an assignment by identity.
type Lookup interface {
	Get(id string) (*assignments.Assignment, bool)
}

// Outcome is what a schedule attempt did.
type Outcome int

const (
	// OutcomeNoReminder means the assignment has no reminder set.
	OutcomeNoReminder Outcome = iota
	// OutcomePast means the reminder instant was not after now. Past reminders never fire.
	OutcomePast
	// OutcomeDeferred means the reminder is beyond the near-term window.
	OutcomeDeferred
	// OutcomeArmed means a live timer was registered.
	OutcomeArmed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNoReminder:
		return "no-reminder"
	case OutcomePast:
		return "past"
	case OutcomeDeferred:
		return "deferred"
	case OutcomeArmed:
		return "armed"
	default:
		return "unknown"
	}
}

// Options configure a Scheduler.
type Options struct {
	// Clock drives the delayed actions. Defaults to the real clock.
	Clock clock.Clock
	// Loop is the control flow fired timers re-enter. Defaults to a new Loop.
	Loop *Loop
	// Store holds the pending reminders. Defaults to a new Store.
	Store *Store
	// Lookup re-fetches assignments when a reminder fires. Required.
	Lookup Lookup
	// Notify delivers the alert for a fired reminder.
	Notify func(a *assignments.Assignment) bool
	// Window overrides NearTermWindow when positive.
	Window time.Duration
	Logger logger.Logger
}

// Scheduler registers, skips and cancels delayed actions in a Store.
// Schedule, Record, Cancel and ReconcileAll must be called on the Loop.
type Scheduler struct {
	clock  clock.Clock
	loop   *Loop
	store  *Store
	lookup Lookup
	notify func(a *assignments.Assignment) bool
	window time.Duration
	log    logger.Logger
}

// NewScheduler returns a scheduler built from opts.
func NewScheduler(opts Options) *Scheduler {
	s := &Scheduler{
		clock:  opts.Clock,
		loop:   opts.Loop,
		store:  opts.Store,
		lookup: opts.Lookup,
		notify: opts.Notify,
		window: opts.Window,
		log:    opts.Logger,
	}
	if s.clock == nil {
		s.clock = clock.New()
	}
	if s.loop == nil {
		s.loop = &Loop{}
	}
	if s.store == nil {
		s.store = NewStore()
	}
	if s.notify == nil {
		s.notify = func(*assignments.Assignment) bool { return false }
	}
	if s.window <= 0 {
		s.window = NearTermWindow
	}
	if s.log == nil {
		s.log = logger.NewNopLogger()
	}
	return s
}

// Store returns the store the scheduler registers reminders in.
func (s *Scheduler) Store() *Store {
	return s.store
}

// Loop returns the control flow the scheduler runs on.
func (s *Scheduler) Loop() *Loop {
	return s.loop
}

// Clock returns the scheduler's time source.
func (s *Scheduler) Clock() clock.Clock {
	return s.clock
}

// Schedule (re)derives the reminder for a at now. Any pending reminder for
// a's identity is canceled first, and a.ScheduledAt is set to the computed
// reminder instant whatever the outcome.
func (s *Scheduler) Schedule(a *assignments.Assignment, now time.Time) Outcome {
	s.store.Cancel(a.ID)

	at, ok := assignments.ReminderInstant(a)
	if !ok {
		a.ScheduledAt = nil
		return OutcomeNoReminder
	}
	a.ScheduledAt = &at

	delay := at.Sub(now)
	if delay <= 0 {
		return OutcomePast
	}
	if delay > s.window {
		return OutcomeDeferred
	}

	r := &Reminder{AssignmentID: a.ID, ExecutionTime: at}
	r.timer = s.clock.AfterFunc(delay, func() {
		s.loop.Do(func() { s.fire(r) })
	})
	s.store.Set(r)
	s.log.Info("Armed reminder %s for %s (in %s)", a.ID, at.Format(time.RFC822), delay.Round(time.Second))
	return OutcomeArmed
}

// Record cancels any pending reminder for a and refreshes a.ScheduledAt
// from its current fields without arming anything. It is used for
// assignments that must not fire, such as completed ones.
func (s *Scheduler) Record(a *assignments.Assignment) {
	s.Cancel(a.ID)
	if at, ok := assignments.ReminderInstant(a); ok {
		a.ScheduledAt = &at
	} else {
		a.ScheduledAt = nil
	}
}

// Cancel disarms any pending reminder for id. Safe when none is pending.
func (s *Scheduler) Cancel(id string) {
	if s.store.Cancel(id) {
		s.log.Info("Canceled reminder %s", id)
	}
}

// fire runs on the loop when a reminder's timer expires.
func (s *Scheduler) fire(r *Reminder) {
	if !s.store.release(r) {
		// Canceled or rescheduled after the timer had already expired.
		return
	}
	a, ok := s.lookup.Get(r.AssignmentID)
	if !ok {
		s.log.Info("Dropped reminder %s: assignment no longer exists", r.AssignmentID)
		return
	}
	if a.Done() {
		s.log.Info("Dropped reminder %s: assignment is done", r.AssignmentID)
		return
	}
	if s.notify(a) {
		s.log.Info("Delivered reminder %s - scheduled for %s", r.AssignmentID, r.ExecutionTime.Local().Format(time.RFC822))
	}
}
