package reminders

import (
	"sort"
	"sync"
)

// Store maps assignment identities to their pending reminder.
// Mutations happen on the scheduler's control flow; the lock only makes
// reads from other goroutines safe.
type Store struct {
	mu      sync.Mutex
	pending map[string]*Reminder
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{pending: make(map[string]*Reminder)}
}

// Set binds r to its assignment identity. The caller must have canceled any
// previous reminder for that identity.
func (s *Store) Set(r *Reminder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[r.AssignmentID] = r
}

// Get returns the pending reminder for id.
func (s *Store) Get(id string) (*Reminder, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.pending[id]
	return r, ok
}

// Cancel disarms and removes the reminder for id. It reports whether one
// was pending; canceling an unknown id is a no-op.
func (s *Store) Cancel(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.pending[id]
	if !ok {
		return false
	}
	r.stop()
	delete(s.pending, id)
	return true
}

// Clear disarms every pending reminder and empties the store.
// It returns how many were pending.
func (s *Store) Clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.pending)
	for id, r := range s.pending {
		r.stop()
		delete(s.pending, id)
	}
	return n
}

// Len returns the number of pending reminders.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Has reports whether a reminder is pending for id.
func (s *Store) Has(id string) bool {
	_, ok := s.Get(id)
	return ok
}

// Pending returns a snapshot of the pending reminders, soonest first.
func (s *Store) Pending() []Reminder {
	s.mu.Lock()
	out := make([]Reminder, 0, len(s.pending))
	for _, r := range s.pending {
		out = append(out, Reminder{AssignmentID: r.AssignmentID, ExecutionTime: r.ExecutionTime})
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].ExecutionTime.Equal(out[j].ExecutionTime) {
			return out[i].AssignmentID < out[j].AssignmentID
		}
		return out[i].ExecutionTime.Before(out[j].ExecutionTime)
	})
	return out
}

// release removes r if it is still the reminder bound to its identity.
// A timer that fired after being canceled or replaced finds a different
// entry (or none) and must not act.
func (s *Store) release(r *Reminder) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending[r.AssignmentID] != r {
		return false
	}
	delete(s.pending, r.AssignmentID)
	return true
}
