package visits

import (
	"fmt"
	"strings"

	"github.com/agentstation/waypoint/pkg/errors"
)

// State is the lifecycle state of a Request.
type State int

// Request states.
const (
	// StateIdle is the initial state; visits are not applied.
	StateIdle State = iota
	// StateRunning applies every incoming visit.
	StateRunning
	// StatePaused keeps the subscription but drops incoming visits.
	StatePaused
	// StateFinished is terminal; the request is inert.
	StateFinished
)

var stateNames = [...]string{
	StateIdle:     "idle",
	StateRunning:  "running",
	StatePaused:   "paused",
	StateFinished: "finished",
}

// String implements fmt.Stringer.
func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// CanReceiveEvents reports whether visits are applied in this state.
func (s State) CanReceiveEvents() bool {
	return s == StateRunning
}

// IsTerminal reports whether no further transitions are possible.
func (s State) IsTerminal() bool {
	return s == StateFinished
}

// ParseState parses the name of a state.
func ParseState(name string) (State, error) {
	for s, n := range stateNames {
		if strings.EqualFold(name, n) {
			return State(s), nil
		}
	}
	return StateIdle, errors.NewValidationError("state", name, "unknown subscription state")
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(text []byte) error {
	parsed, err := ParseState(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
