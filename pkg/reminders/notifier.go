package reminders

import (
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"assignment-planner/pkg/assignments"
	"assignment-planner/pkg/logger"
)

// Permission is the user's decision about in-session alerts.
type Permission string

const (
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
	// PermissionDefault means the user has not been asked yet.
	PermissionDefault Permission = "default"
	// PermissionUnsupported means there is no delivery surface at all.
	PermissionUnsupported Permission = "unsupported"
)

// ParsePermission validates a permission name.
func ParsePermission(s string) (Permission, error) {
	switch p := Permission(s); p {
	case PermissionGranted, PermissionDenied, PermissionDefault, PermissionUnsupported:
		return p, nil
	default:
		return "", fmt.Errorf("unknown permission %q", s)
	}
}

// Permissions holds the current permission state.
type Permissions struct {
	mu    sync.RWMutex
	state Permission
}

// NewPermissions returns a permission holder in the given state.
// An empty state means PermissionDefault.
func NewPermissions(initial Permission) *Permissions {
	if initial == "" {
		initial = PermissionDefault
	}
	return &Permissions{state: initial}
}

// State returns the current permission.
func (p *Permissions) State() Permission {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// Set records next and reports whether this was a transition into PermissionGranted.
func (p *Permissions) Set(next Permission) (newlyGranted bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	newlyGranted = next == PermissionGranted && p.state != PermissionGranted
	p.state = next
	return newlyGranted
}

// Message is a user-visible alert. Tag identifies the assignment so a
// surface can replace an earlier alert for the same one.
type Message struct {
	Title string    `json:"title"`
	Body  string    `json:"body"`
	Tag   string    `json:"tag"`
	At    time.Time `json:"at"`
}

// Delivery renders alerts to the user.
type Delivery interface {
	Deliver(msg Message) error
}

// Persister saves the collection after the notifier changed a record.
type Persister interface {
	Persist() error
}

// Notifier delivers alerts for fired reminders, subject to permission.
type Notifier struct {
	clock       clock.Clock
	permissions *Permissions
	delivery    Delivery
	persister   Persister
	log         logger.Logger
}

// NewNotifier returns a notifier. A nil delivery means alerts are unavailable;
// a nil persister skips saving.
func NewNotifier(clk clock.Clock, permissions *Permissions, delivery Delivery, persister Persister, log logger.Logger) *Notifier {
	if clk == nil {
		clk = clock.New()
	}
	if permissions == nil {
		permissions = NewPermissions(PermissionDefault)
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Notifier{
		clock:       clk,
		permissions: permissions,
		delivery:    delivery,
		persister:   persister,
		log:         log,
	}
}

// Available reports whether alerts can be delivered right now.
func (n *Notifier) Available() bool {
	return n.delivery != nil && n.permissions.State() == PermissionGranted
}

// Notify delivers the alert for a and stamps a.NotifiedAt. It is a no-op
// when delivery is unavailable or not permitted. It reports whether the
// alert was delivered.
func (n *Notifier) Notify(a *assignments.Assignment) bool {
	if !n.Available() {
		return false
	}
	now := n.clock.Now()
	msg := MessageFor(a)
	msg.At = now
	if err := n.delivery.Deliver(msg); err != nil {
		n.log.Warning("Failed to deliver reminder %s: %v", a.ID, err)
		return false
	}

	a.NotifiedAt = &now
	if n.persister != nil {
		if err := n.persister.Persist(); err != nil {
			n.log.Warning("Failed to save state after notifying %s: %v", a.ID, err)
		}
	}
	return true
}

// MessageFor builds the alert for a.
func MessageFor(a *assignments.Assignment) Message {
	course := a.Course
	if course == "" {
		course = "Course"
	}
	return Message{
		Title: "Due soon: " + a.Title,
		Body:  course + " · " + assignments.DueLabel(a),
		Tag:   "assignment-" + a.ID,
	}
}
