package focus

import (
	"fmt"
	"strings"
)

// State is the attention state of the user in a single frame.
type State int

const (
	// Engaged means the pose is within tolerance of the calibrated baseline.
	Engaged State = iota

	// Distracted means a face is present but the pose drifted, or no baseline exists yet.
	Distracted

	// Inactive means no face was detected.
	Inactive
)

var stateNames = [...]string{
	Engaged:    "ENGAGED",
	Distracted: "DISTRACTED",
	Inactive:   "INACTIVE",
}

// States returns every state in display order.
func States() []State {
	return []State{Engaged, Distracted, Inactive}
}

// Valid reports whether s is one of the defined states.
func (s State) Valid() bool {
	return s >= Engaged && s <= Inactive
}

// String returns the upper-case label, e.g. "ENGAGED".
func (s State) String() string {
	if !s.Valid() {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// MarshalText implements encoding.TextMarshaler so states encode as labels in JSON.
func (s State) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownState, int(s))
	}
	return []byte(stateNames[s]), nil
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

// ParseState parses a state label, case-insensitively.
func ParseState(label string) (State, error) {
	for _, s := range States() {
		if strings.EqualFold(label, stateNames[s]) {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownState, label)
}
