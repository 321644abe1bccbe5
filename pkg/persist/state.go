// Package persist saves and loads the planner state.
package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"assignment-planner/pkg/assignments"
)

// StateKey is the key the state document is stored under.
const StateKey = "assignmentPlanner.state"

// ErrUnknownDriver is returned by Open for an unsupported backend name.
var ErrUnknownDriver = errors.New("unknown store driver")

// State is everything the planner persists between runs.
type State struct {
	Items      []*assignments.Assignment `json:"items"`
	Filters    assignments.Filters       `json:"filters"`
	Permission string                    `json:"permission,omitempty"`
}

// Store is the persistence collaborator. Load returns a nil state and no
// error when nothing was saved yet.
type Store interface {
	Load(ctx context.Context) (*State, error)
	Save(ctx context.Context, state *State) error
	Close() error
}

// Open opens the store for driver ("sqlite" or "bolt") at path.
func Open(driver, path string) (Store, error) {
	switch driver {
	case "", "sqlite":
		return OpenSQLite(path)
	case "bolt":
		return OpenBolt(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}

func encodeState(state *State) ([]byte, error) {
	data, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	return data, nil
}

func decodeState(data []byte) (*State, error) {
	state := &State{Filters: assignments.DefaultFilters()}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	if state.Filters.Sort == "" {
		state.Filters.Sort = assignments.SortDueAsc
	}
	return state, nil
}
