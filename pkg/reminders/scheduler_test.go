package reminders

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assignment-planner/pkg/assignments"
)

var due = time.Date(2030, 6, 14, 23, 59, 0, 0, time.Local)

func TestSchedule_RecordsScheduledAtForEveryOutcome(t *testing.T) {
	tests := []struct {
		name   string
		now    time.Time
		remind assignments.Reminder
		want   Outcome
	}{
		{name: "near term", now: due.Add(-2 * time.Hour), remind: assignments.RemindBefore(60), want: OutcomeArmed},
		{name: "exactly at window edge", now: due.Add(-25 * time.Hour), remind: assignments.RemindBefore(60), want: OutcomeArmed},
		{name: "beyond window", now: due.Add(-26 * time.Hour), remind: assignments.RemindBefore(60), want: OutcomeDeferred},
		{name: "already passed", now: due.Add(-30 * time.Minute), remind: assignments.RemindBefore(60), want: OutcomePast},
		{name: "exactly now", now: due.Add(-time.Hour), remind: assignments.RemindBefore(60), want: OutcomePast},
		{name: "at due", now: due.Add(-time.Minute), remind: assignments.RemindBefore(0), want: OutcomeArmed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.now)
			a := f.add(dueAt("a1", due, tt.remind))

			assert.Equal(t, tt.want, f.schedule(a))
			require.NotNil(t, a.ScheduledAt)
			m, _ := tt.remind.Minutes()
			assert.True(t, a.ScheduledAt.Equal(assignments.DueInstant(a).Add(-time.Duration(m)*time.Minute)))
			assert.Equal(t, tt.want == OutcomeArmed, f.sched.Store().Has("a1"))
		})
	}
}

func TestSchedule_NoReminder(t *testing.T) {
	f := newFixture(t, due.Add(-2*time.Hour))
	a := f.add(dueAt("a1", due, assignments.RemindBefore(30)))
	require.Equal(t, OutcomeArmed, f.schedule(a))

	a.RemindAhead = assignments.NoReminder()
	assert.Equal(t, OutcomeNoReminder, f.schedule(a))
	assert.Nil(t, a.ScheduledAt)
	assert.Zero(t, f.sched.Store().Len(), "switching to no reminder cancels the pending one")
}

func TestSchedule_IsIdempotent(t *testing.T) {
	f := newFixture(t, due.Add(-2*time.Hour))
	a := f.add(dueAt("a1", due, assignments.RemindBefore(60)))

	f.schedule(a)
	f.schedule(a)
	assert.Equal(t, 1, f.sched.Store().Len())

	f.clock.Add(2 * time.Hour)
	f.delivered(t, 1)
	f.settle(t)
	assert.Len(t, f.delivery.messages(), 1)
}

func TestSchedule_EndToEnd(t *testing.T) {
	f := newFixture(t, due.Add(-90*time.Minute))
	a := f.add(dueAt("essay", due, assignments.RemindBefore(60)))

	require.Equal(t, OutcomeArmed, f.schedule(a))
	pending, ok := f.sched.Store().Get("essay")
	require.True(t, ok)
	assert.Equal(t, due.Add(-time.Hour), pending.ScheduledTime())
	assert.Equal(t, "essay", pending.Key())

	f.clock.Add(29 * time.Minute)
	f.do(func() {})
	assert.Empty(t, f.delivery.messages())

	f.clock.Add(time.Minute)
	f.delivered(t, 1)
	f.settle(t)

	f.do(func() {
		require.NotNil(t, a.NotifiedAt)
		assert.True(t, a.NotifiedAt.Equal(due.Add(-time.Hour)))
		assert.True(t, a.ScheduledAt.Equal(assignments.DueInstant(a).Add(-3600000*time.Millisecond)))
	})
	msg := f.delivery.messages()[0]
	assert.Equal(t, "Due soon: Essay", msg.Title)
	assert.Equal(t, "English · Jun 14, 2030, 11:59 PM", msg.Body)
	assert.Equal(t, "assignment-essay", msg.Tag)
	assert.Equal(t, 1, f.persister.count())
}

func TestFire_SuppressedWhenDoneMeanwhile(t *testing.T) {
	f := newFixture(t, due.Add(-35*time.Minute))
	a := f.add(dueAt("a1", due, assignments.RemindBefore(30)))
	require.Equal(t, OutcomeArmed, f.schedule(a))

	// Completed without going through Cancel: the fire-time check must catch it.
	f.clock.Add(time.Minute)
	f.do(func() { a.Status = assignments.StatusDone })

	f.clock.Add(4 * time.Minute)
	f.settle(t)
	assert.Empty(t, f.delivery.messages())
	f.do(func() { assert.Nil(t, a.NotifiedAt) })
}

func TestFire_SuppressedWhenDeleted(t *testing.T) {
	f := newFixture(t, due.Add(-35*time.Minute))
	a := f.add(dueAt("a1", due, assignments.RemindBefore(30)))
	require.Equal(t, OutcomeArmed, f.schedule(a))

	f.do(func() { f.coll.Remove("a1") })
	f.clock.Add(5 * time.Minute)
	f.settle(t)
	assert.Empty(t, f.delivery.messages())
}

func TestFire_UsesFreshRecord(t *testing.T) {
	f := newFixture(t, due.Add(-35*time.Minute))
	a := f.add(dueAt("a1", due, assignments.RemindBefore(30)))
	require.Equal(t, OutcomeArmed, f.schedule(a))

	f.do(func() { a.Title = "Renamed" })
	f.clock.Add(5 * time.Minute)
	f.delivered(t, 1)
	assert.Equal(t, "Due soon: Renamed", f.delivery.messages()[0].Title)
}

func TestCancel(t *testing.T) {
	f := newFixture(t, due.Add(-35*time.Minute))
	a := f.add(dueAt("a1", due, assignments.RemindBefore(30)))
	require.Equal(t, OutcomeArmed, f.schedule(a))

	f.do(func() {
		f.sched.Cancel("a1")
		f.sched.Cancel("a1")
		f.sched.Cancel("missing")
	})
	assert.False(t, f.sched.Store().Has("a1"))

	f.clock.Add(time.Hour)
	f.do(func() {})
	assert.Empty(t, f.delivery.messages())
}

func TestRecord_RefreshesWithoutArming(t *testing.T) {
	f := newFixture(t, due.Add(-35*time.Minute))
	a := f.add(dueAt("a1", due, assignments.RemindBefore(30)))
	require.Equal(t, OutcomeArmed, f.schedule(a))

	later := due.AddDate(0, 0, 1)
	f.do(func() {
		a.Status = assignments.StatusDone
		a.DueDate = later.Format("2006-01-02")
		f.sched.Record(a)
	})
	assert.False(t, f.sched.Store().Has("a1"))
	require.NotNil(t, a.ScheduledAt)
	assert.True(t, a.ScheduledAt.Equal(later.Add(-30*time.Minute)))

	f.do(func() {
		a.RemindAhead = assignments.NoReminder()
		f.sched.Record(a)
	})
	assert.Nil(t, a.ScheduledAt)

	f.clock.Add(48 * time.Hour)
	f.do(func() {})
	assert.Empty(t, f.delivery.messages())
}

func TestCancelThenDelete(t *testing.T) {
	f := newFixture(t, due.Add(-35*time.Minute))
	a := f.add(dueAt("a1", due, assignments.RemindBefore(30)))
	require.Equal(t, OutcomeArmed, f.schedule(a))

	f.do(func() {
		f.sched.Cancel(a.ID)
		f.coll.Remove(a.ID)
	})
	assert.False(t, f.sched.Store().Has("a1"))
}

func TestReschedule_OldTimerDoesNotFire(t *testing.T) {
	f := newFixture(t, due.Add(-35*time.Minute))
	a := f.add(dueAt("a1", due, assignments.RemindBefore(30)))
	require.Equal(t, OutcomeArmed, f.schedule(a))

	a.RemindAhead = assignments.RemindBefore(25)
	require.Equal(t, OutcomeArmed, f.schedule(a))
	assert.Equal(t, 1, f.sched.Store().Len())

	f.clock.Add(5 * time.Minute)
	f.do(func() {})
	assert.Empty(t, f.delivery.messages())

	f.clock.Add(5 * time.Minute)
	f.delivered(t, 1)
}

func TestReleaseIgnoresSupersededReminder(t *testing.T) {
	s := NewStore()
	old := &Reminder{AssignmentID: "a1"}
	current := &Reminder{AssignmentID: "a1"}
	s.Set(current)

	assert.False(t, s.release(old))
	assert.True(t, s.Has("a1"))
	assert.True(t, s.release(current))
	assert.False(t, s.Has("a1"))
}

func TestReconcileAll_DeferredBecomesLive(t *testing.T) {
	f := newFixture(t, due.Add(-26*time.Hour))
	a := f.add(dueAt("a1", due, assignments.RemindBefore(60)))

	var armed int
	f.do(func() { armed = f.sched.ReconcileAll(f.coll.Items(), f.clock.Now()) })
	assert.Zero(t, armed)
	assert.Zero(t, f.sched.Store().Len())
	require.NotNil(t, a.ScheduledAt)
	assert.True(t, a.ScheduledAt.Equal(due.Add(-time.Hour)))

	f.clock.Add(2 * time.Hour)
	f.do(func() { armed = f.sched.ReconcileAll(f.coll.Items(), f.clock.Now()) })
	assert.Equal(t, 1, armed)
	assert.True(t, f.sched.Store().Has("a1"))
}

func TestReconcileAll_SkipsDoneAndNoReminder(t *testing.T) {
	f := newFixture(t, due.Add(-2*time.Hour))
	live := f.add(dueAt("live", due, assignments.RemindBefore(30)))
	done := f.add(dueAt("done", due, assignments.RemindBefore(30)))
	none := f.add(dueAt("none", due, assignments.NoReminder()))

	f.schedule(done)
	require.True(t, f.sched.Store().Has("done"))
	done.Status = assignments.StatusDone

	var armed int
	f.do(func() { armed = f.sched.ReconcileAll(f.coll.Items(), f.clock.Now()) })
	assert.Equal(t, 1, armed)
	assert.True(t, f.sched.Store().Has(live.ID))
	assert.False(t, f.sched.Store().Has(done.ID), "reconciliation clears stale entries")
	assert.False(t, f.sched.Store().Has(none.ID))
	assert.Nil(t, none.ScheduledAt)
}

func TestReconcileAll_BulkImport(t *testing.T) {
	const n = 25
	f := newFixture(t, due.Add(-12*time.Hour))
	for i := 0; i < n; i++ {
		f.add(dueAt(fmt.Sprintf("a%d", i), due.Add(-time.Duration(i)*time.Minute), assignments.RemindBefore(60)))
	}

	var armed int
	f.do(func() { armed = f.sched.ReconcileAll(f.coll.Items(), f.clock.Now()) })
	assert.Equal(t, n, armed)
	assert.Equal(t, n, f.sched.Store().Len())

	pending := f.sched.Store().Pending()
	require.Len(t, pending, n)
	assert.Equal(t, fmt.Sprintf("a%d", n-1), pending[0].AssignmentID, "soonest first")

	f.clock.Add(12 * time.Hour)
	f.delivered(t, n)
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "armed", OutcomeArmed.String())
	assert.Equal(t, "deferred", OutcomeDeferred.String())
	assert.Equal(t, "past", OutcomePast.String())
	assert.Equal(t, "no-reminder", OutcomeNoReminder.String())
	assert.Equal(t, "unknown", Outcome(42).String())
}
