package reminders

import "sync"

// Loop is the single control flow that every reminder mutation runs on.
// Callers that own assignment state (the planner) run their operations
// through Do, and fired timers hop back onto it before touching anything,
// so no two operations ever interleave.
type Loop struct {
	mu sync.Mutex
}

// Do runs fn on the control flow. It must not be called from inside fn.
func (l *Loop) Do(fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fn()
}
