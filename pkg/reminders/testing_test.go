package reminders

import (
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	"assignment-planner/pkg/assignments"
	"assignment-planner/pkg/logger"
)

type recordingDelivery struct {
	mu   sync.Mutex
	msgs []Message
	err  error
}

func (d *recordingDelivery) Deliver(msg Message) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.msgs = append(d.msgs, msg)
	return nil
}

func (d *recordingDelivery) messages() []Message {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Message(nil), d.msgs...)
}

type countingPersister struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (p *countingPersister) Persist() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return p.err
}

func (p *countingPersister) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// fixture wires a scheduler, a granted notifier and a collection onto a mock clock.
type fixture struct {
	clock     *clock.Mock
	coll      *assignments.Collection
	perms     *Permissions
	delivery  *recordingDelivery
	persister *countingPersister
	log       *logger.MockLogger
	sched     *Scheduler
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()
	f := &fixture{
		clock:     clock.NewMock(),
		coll:      assignments.NewCollection(),
		perms:     NewPermissions(PermissionGranted),
		delivery:  &recordingDelivery{},
		persister: &countingPersister{},
		log:       logger.NewMockLogger(),
	}
	f.clock.Set(now)
	notifier := NewNotifier(f.clock, f.perms, f.delivery, f.persister, f.log)
	f.sched = NewScheduler(Options{
		Clock:  f.clock,
		Lookup: f.coll,
		Notify: notifier.Notify,
		Logger: f.log,
	})
	return f
}

// do runs fn on the scheduler's control flow.
func (f *fixture) do(fn func()) {
	f.sched.Loop().Do(fn)
}

func (f *fixture) add(a *assignments.Assignment) *assignments.Assignment {
	f.do(func() { f.coll.Append(a) })
	return a
}

func (f *fixture) schedule(a *assignments.Assignment) Outcome {
	var out Outcome
	f.do(func() { out = f.sched.Schedule(a, f.clock.Now()) })
	return out
}

func (f *fixture) delivered(t *testing.T, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return len(f.delivery.messages()) == n }, time.Second, time.Millisecond)
}

// settle waits until no reminder is pending, which means every expired timer has run.
func (f *fixture) settle(t *testing.T) {
	t.Helper()
	require.Eventually(t, func() bool { return f.sched.Store().Len() == 0 }, time.Second, time.Millisecond)
	f.do(func() {})
}

// dueAt returns an assignment due at the given local wall-clock time.
func dueAt(id string, due time.Time, remind assignments.Reminder) *assignments.Assignment {
	return &assignments.Assignment{
		ID:          id,
		Title:       "Essay",
		Course:      "English",
		DueDate:     due.Format("2006-01-02"),
		DueTime:     due.Format("15:04"),
		Status:      assignments.StatusTodo,
		RemindAhead: remind,
	}
}
