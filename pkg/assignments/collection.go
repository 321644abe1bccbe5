package assignments

import "sort"

// Collection is the ordered set of assignments, looked up by identity.
// It is not safe for concurrent use; the planner owns it on its control flow.
type Collection struct {
	items []*Assignment
}

// NewCollection returns a collection holding items in the given order.
func NewCollection(items ...*Assignment) *Collection {
	c := &Collection{}
	c.Append(items...)
	return c
}

// Len returns the number of assignments.
func (c *Collection) Len() int {
	return len(c.items)
}

// Items returns the assignments in insertion order. The slice is a copy;
// the records are shared.
func (c *Collection) Items() []*Assignment {
	out := make([]*Assignment, len(c.items))
	copy(out, c.items)
	return out
}

// Get looks up an assignment by identity.
func (c *Collection) Get(id string) (*Assignment, bool) {
	for _, a := range c.items {
		if a.ID == id {
			return a, true
		}
	}
	return nil, false
}

// Append adds assignments at the end, skipping nil records.
func (c *Collection) Append(items ...*Assignment) {
	for _, a := range items {
		if a != nil {
			c.items = append(c.items, a)
		}
	}
}

// Remove deletes the assignment with the given identity and returns it.
func (c *Collection) Remove(id string) (*Assignment, bool) {
	for i, a := range c.items {
		if a.ID == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return a, true
		}
	}
	return nil, false
}

// Clear empties the collection and returns what it held.
func (c *Collection) Clear() []*Assignment {
	old := c.items
	c.items = nil
	return old
}

// Courses returns the distinct non-empty course names, sorted.
func (c *Collection) Courses() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, a := range c.items {
		if a.Course == "" {
			continue
		}
		if _, ok := seen[a.Course]; ok {
			continue
		}
		seen[a.Course] = struct{}{}
		out = append(out, a.Course)
	}
	sort.Slice(out, func(i, j int) bool { return compareText(out[i], out[j]) < 0 })
	return out
}
