package assignments

import (
	"sort"
	"strings"
	"time"
)

// SortMode selects the ordering of a filtered listing.
type SortMode string

const (
	SortDueAsc       SortMode = "dueAsc"
	SortPriorityDesc SortMode = "priorityDesc"
	SortCourseAsc    SortMode = "courseAsc"
	SortTitleAsc     SortMode = "titleAsc"
	SortStatusAsc    SortMode = "statusAsc"
)

// Filters narrows and orders a listing. Empty fields match everything.
type Filters struct {
	Search   string   `json:"search"`
	Course   string   `json:"course"`
	Priority string   `json:"priority"`
	Status   string   `json:"status"`
	HideDone bool     `json:"hideDone"`
	Sort     SortMode `json:"sort"`
}

// DefaultFilters matches everything, sorted by due instant.
func DefaultFilters() Filters {
	return Filters{Sort: SortDueAsc}
}

// Matches reports whether a passes every filter.
func (f Filters) Matches(a *Assignment) bool {
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		hay := strings.ToLower(a.Title + " " + a.Notes)
		if !strings.Contains(hay, needle) {
			return false
		}
	}
	if f.Course != "" && a.Course != f.Course {
		return false
	}
	if f.Priority != "" && string(a.Priority) != f.Priority {
		return false
	}
	if f.Status != "" && string(a.Status) != f.Status {
		return false
	}
	if f.HideDone && a.Done() {
		return false
	}
	return true
}

// Apply returns the matching assignments in the order f.Sort selects.
func (f Filters) Apply(items []*Assignment) []*Assignment {
	out := make([]*Assignment, 0, len(items))
	for _, a := range items {
		if f.Matches(a) {
			out = append(out, a)
		}
	}
	Sort(out, f.Sort)
	return out
}

// Sort orders items in place. Unknown modes sort by due instant.
func Sort(items []*Assignment, mode SortMode) {
	byDue := func(a, b *Assignment) int {
		return DueInstant(a).Compare(DueInstant(b))
	}
	less := func(i, j int) bool {
		a, b := items[i], items[j]
		var c int
		switch mode {
		case SortPriorityDesc:
			c = b.Priority.Rank() - a.Priority.Rank()
			if c == 0 {
				c = byDue(a, b)
			}
		case SortCourseAsc:
			c = compareText(a.Course, b.Course)
			if c == 0 {
				c = byDue(a, b)
			}
		case SortTitleAsc:
			c = compareText(a.Title, b.Title)
			if c == 0 {
				c = byDue(a, b)
			}
		case SortStatusAsc:
			c = strings.Compare(string(a.Status), string(b.Status))
			if c == 0 {
				c = byDue(a, b)
			}
		default:
			c = byDue(a, b)
			if c == 0 {
				c = compareText(a.Title, b.Title)
			}
		}
		return c < 0
	}
	sort.SliceStable(items, less)
}

// Stats are the headline counters of a collection.
type Stats struct {
	Total   int `json:"total"`
	Todo    int `json:"todo"`
	Doing   int `json:"doing"`
	Done    int `json:"done"`
	Overdue int `json:"overdue"`
}

// ComputeStats counts items by status and overdue state at now.
func ComputeStats(items []*Assignment, now time.Time) Stats {
	s := Stats{Total: len(items)}
	for _, a := range items {
		switch a.Status {
		case StatusTodo:
			s.Todo++
		case StatusDoing:
			s.Doing++
		case StatusDone:
			s.Done++
		}
		if IsOverdue(a, now) {
			s.Overdue++
		}
	}
	return s
}

// compareText orders case-insensitively, falling back to a byte comparison.
func compareText(a, b string) int {
	if c := strings.Compare(strings.ToLower(a), strings.ToLower(b)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}
