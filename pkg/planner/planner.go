// Package planner owns the assignment collection. Every operation runs on
// the reminder loop, keeps the scheduled reminders in step with the change
// and saves the result.
package planner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/benbjohnson/clock"

	"assignment-planner/pkg/assignments"
	"assignment-planner/pkg/logger"
	"assignment-planner/pkg/persist"
	"assignment-planner/pkg/reminders"
)

var (
	// ErrNotFound is returned for an unknown assignment identity.
	ErrNotFound = errors.New("assignment not found")
	// ErrInvalid is returned for input that cannot become an assignment.
	ErrInvalid = errors.New("invalid assignment")
)

const saveTimeout = 5 * time.Second

// Config configures a Planner.
type Config struct {
	// Store persists the state. Nil keeps everything in memory.
	Store persist.Store
	// Delivery shows alerts. Nil means alerts are unavailable.
	Delivery reminders.Delivery
	Clock    clock.Clock
	// Window overrides the near-term reminder window.
	Window time.Duration
	// Permission, when set, overrides the persisted permission on Load.
	Permission reminders.Permission
	Logger     logger.Logger
}

// Planner is the assignment collection plus the reminder engine driving it.
type Planner struct {
	clock       clock.Clock
	loop        *reminders.Loop
	items       *assignments.Collection
	filters     assignments.Filters
	permissions *reminders.Permissions
	override    reminders.Permission
	scheduler   *reminders.Scheduler
	store       persist.Store
	log         logger.Logger
}

// New returns an empty planner. Call Load to restore persisted state.
func New(cfg Config) *Planner {
	clk := cfg.Clock
	if clk == nil {
		clk = clock.New()
	}
	log := cfg.Logger
	if log == nil {
		log = logger.NewNopLogger()
	}
	initial := cfg.Permission
	if cfg.Delivery == nil {
		initial = reminders.PermissionUnsupported
	}

	p := &Planner{
		clock:       clk,
		loop:        &reminders.Loop{},
		items:       assignments.NewCollection(),
		filters:     assignments.DefaultFilters(),
		permissions: reminders.NewPermissions(initial),
		override:    initial,
		store:       cfg.Store,
		log:         log,
	}
	notifier := reminders.NewNotifier(clk, p.permissions, cfg.Delivery, p, log)
	p.scheduler = reminders.NewScheduler(reminders.Options{
		Clock:  clk,
		Loop:   p.loop,
		Lookup: p.items,
		Notify: notifier.Notify,
		Window: cfg.Window,
		Logger: log,
	})
	return p
}

// Load restores the persisted state and reconciles every reminder.
// Missing or unreadable state is a fresh start. It returns how many
// reminders were armed.
func (p *Planner) Load(ctx context.Context) int {
	var state *persist.State
	if p.store != nil {
		var err error
		state, err = p.store.Load(ctx)
		if err != nil {
			p.log.Warning("Ignoring unreadable state: %v", err)
			state = nil
		}
	}

	var armed int
	p.loop.Do(func() {
		p.items.Clear()
		p.filters = assignments.DefaultFilters()
		if state != nil {
			p.items.Append(state.Items...)
			p.filters = state.Filters
			if p.override == "" && state.Permission != "" {
				if perm, err := reminders.ParsePermission(state.Permission); err == nil && perm != reminders.PermissionUnsupported {
					p.permissions.Set(perm)
				}
			}
		}
		armed = p.reconcileLocked(ctx)
	})
	return armed
}

// Create validates in and appends a new assignment.
func (p *Planner) Create(ctx context.Context, in Input) (*assignments.Assignment, error) {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.DueDate) == "" {
		return nil, fmt.Errorf("%w: title and due date are required", ErrInvalid)
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	var out *assignments.Assignment
	p.loop.Do(func() {
		now := p.clock.Now()
		a := &assignments.Assignment{
			ID:        assignments.NewID(),
			Priority:  assignments.PriorityMedium,
			Status:    assignments.StatusTodo,
			CreatedAt: now,
		}
		in.apply(a)
		a.UpdatedAt = now

		p.items.Append(a)
		p.scheduler.Schedule(a, now)
		p.saveLocked(ctx)
		out = a.Clone()
	})
	return out, nil
}

// Get returns a copy of the assignment with the given identity.
func (p *Planner) Get(id string) (*assignments.Assignment, error) {
	var out *assignments.Assignment
	p.loop.Do(func() {
		if a, ok := p.items.Get(id); ok {
			out = a.Clone()
		}
	})
	if out == nil {
		return nil, ErrNotFound
	}
	return out, nil
}

// List returns copies of the assignments matching f, in f's order.
func (p *Planner) List(f assignments.Filters) []*assignments.Assignment {
	out := []*assignments.Assignment{}
	p.loop.Do(func() {
		for _, a := range f.Apply(p.items.Items()) {
			out = append(out, a.Clone())
		}
	})
	return out
}

// Update edits an assignment in place. A done assignment loses its pending
// reminder; any other is rescheduled. Moving the due instant or the
// reminder offset starts a new schedule, so the delivery stamp is cleared.
func (p *Planner) Update(ctx context.Context, id string, in Input) (*assignments.Assignment, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var out *assignments.Assignment
	p.loop.Do(func() {
		a, ok := p.items.Get(id)
		if !ok {
			return
		}
		beforeDue, beforeRemind := assignments.DueInstant(a), a.RemindAhead

		in.apply(a)
		now := p.clock.Now()
		a.UpdatedAt = now
		if !assignments.DueInstant(a).Equal(beforeDue) || a.RemindAhead != beforeRemind {
			a.NotifiedAt = nil
		}

		if a.Done() {
			p.scheduler.Record(a)
		} else {
			p.scheduler.Schedule(a, now)
		}
		p.saveLocked(ctx)
		out = a.Clone()
	})
	if out == nil {
		return nil, ErrNotFound
	}
	return out, nil
}

// ToggleDone marks an open assignment done, canceling its reminder, or
// reopens a done one as todo and schedules it again.
func (p *Planner) ToggleDone(ctx context.Context, id string) (*assignments.Assignment, error) {
	var out *assignments.Assignment
	p.loop.Do(func() {
		a, ok := p.items.Get(id)
		if !ok {
			return
		}
		now := p.clock.Now()
		if a.Done() {
			a.Status = assignments.StatusTodo
			p.scheduler.Schedule(a, now)
		} else {
			a.Status = assignments.StatusDone
			p.scheduler.Record(a)
		}
		a.UpdatedAt = now
		p.saveLocked(ctx)
		out = a.Clone()
	})
	if out == nil {
		return nil, ErrNotFound
	}
	return out, nil
}

// Delete cancels the assignment's reminder and removes it.
func (p *Planner) Delete(ctx context.Context, id string) error {
	found := false
	p.loop.Do(func() {
		p.scheduler.Cancel(id)
		if _, found = p.items.Remove(id); found {
			p.saveLocked(ctx)
		}
	})
	if !found {
		return ErrNotFound
	}
	return nil
}

// ClearAll cancels every reminder and removes every assignment.
// It returns how many assignments were removed.
func (p *Planner) ClearAll(ctx context.Context) int {
	var n int
	p.loop.Do(func() {
		for _, a := range p.items.Clear() {
			p.scheduler.Cancel(a.ID)
			n++
		}
		p.saveLocked(ctx)
	})
	return n
}

// Import appends the assignments in a CSV document and reconciles every
// reminder. It returns how many assignments were added.
func (p *Planner) Import(ctx context.Context, r io.Reader) (int, error) {
	items, err := assignments.ParseCSV(r, p.clock.Now())
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	p.loop.Do(func() {
		p.items.Append(items...)
		p.reconcileLocked(ctx)
	})
	p.log.Info("Imported %d assignments", len(items))
	return len(items), nil
}

// ExportCSV writes every assignment as CSV.
func (p *Planner) ExportCSV(w io.Writer) error {
	var items []*assignments.Assignment
	p.loop.Do(func() {
		for _, a := range p.items.Items() {
			items = append(items, a.Clone())
		}
	})
	return assignments.WriteCSV(w, items)
}

// ICS returns the calendar file name and content for one assignment.
func (p *Planner) ICS(id string) (name, body string, err error) {
	a, err := p.Get(id)
	if err != nil {
		return "", "", err
	}
	return assignments.ICSFileName(a), assignments.ICS(a, p.clock.Now()), nil
}

// Stats returns the headline counters.
func (p *Planner) Stats() assignments.Stats {
	var s assignments.Stats
	p.loop.Do(func() {
		s = assignments.ComputeStats(p.items.Items(), p.clock.Now())
	})
	return s
}

// Courses returns the distinct course names.
func (p *Planner) Courses() []string {
	var out []string
	p.loop.Do(func() { out = p.items.Courses() })
	return out
}

// Filters returns the saved listing filters.
func (p *Planner) Filters() assignments.Filters {
	var f assignments.Filters
	p.loop.Do(func() { f = p.filters })
	return f
}

// SetFilters replaces and saves the listing filters.
func (p *Planner) SetFilters(ctx context.Context, f assignments.Filters) {
	if f.Sort == "" {
		f.Sort = assignments.SortDueAsc
	}
	p.loop.Do(func() {
		p.filters = f
		p.saveLocked(ctx)
	})
}

// Permission returns the current alert permission.
func (p *Planner) Permission() reminders.Permission {
	return p.permissions.State()
}

// SetPermission records the user's decision. A transition to granted
// reconciles every reminder so those skipped meanwhile become live.
func (p *Planner) SetPermission(ctx context.Context, next reminders.Permission) error {
	if p.permissions.State() == reminders.PermissionUnsupported {
		return fmt.Errorf("%w: alerts are not supported", ErrInvalid)
	}
	if next == reminders.PermissionUnsupported {
		return fmt.Errorf("%w: cannot set permission to %q", ErrInvalid, next)
	}
	p.loop.Do(func() {
		if p.permissions.Set(next) {
			p.log.Info("Alerts permitted, rescheduling reminders")
			p.reconcileLocked(ctx)
			return
		}
		p.saveLocked(ctx)
	})
	return nil
}

// Reconcile rebuilds every pending reminder from the collection.
func (p *Planner) Reconcile(ctx context.Context) int {
	var armed int
	p.loop.Do(func() { armed = p.reconcileLocked(ctx) })
	return armed
}

// Pending returns the live reminders, soonest first.
func (p *Planner) Pending() []reminders.Reminder {
	return p.scheduler.Store().Pending()
}

// Persist saves the current state. It must be called on the loop; the
// notifier calls it after stamping a delivery.
func (p *Planner) Persist() error {
	return p.save(context.Background())
}

func (p *Planner) reconcileLocked(ctx context.Context) int {
	armed := p.scheduler.ReconcileAll(p.items.Items(), p.clock.Now())
	p.saveLocked(ctx)
	return armed
}

// saveLocked persists the state; failures are logged, the in-memory change stands.
func (p *Planner) saveLocked(ctx context.Context) {
	if err := p.save(ctx); err != nil {
		p.log.Warning("Failed to save state: %v", err)
	}
}

func (p *Planner) save(ctx context.Context) error {
	if p.store == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, saveTimeout)
	defer cancel()
	return p.store.Save(ctx, &persist.State{
		Items:      p.items.Items(),
		Filters:    p.filters,
		Permission: string(p.permissions.State()),
	})
}
