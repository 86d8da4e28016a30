package monitor

import (
	"time"

	"github.com/teslashibe/poliscope/pkg/focus"
	"github.com/teslashibe/poliscope/pkg/pose"
)

// EventKind identifies an event.
type EventKind string

// Event kinds.
const (
	EventFrame      EventKind = "frame"
	EventTransition EventKind = "transition"
	EventCalibrated EventKind = "calibrated"
	EventSummary    EventKind = "summary"
)

// Event is emitted to observers by the loop.
type Event struct {
	Kind    EventKind `json:"kind"`
	Session string    `json:"session"`
	At      time.Time `json:"at"`
	Frame   int       `json:"frame"`

	State      focus.State  `json:"state"`
	Previous   *focus.State `json:"previous,omitempty"`
	Sample     pose.Sample  `json:"sample"`
	FocusLevel float64      `json:"focus_level"`
	Calibrated bool         `json:"calibrated"`

	Baseline *focus.Baseline `json:"baseline,omitempty"`
	Report   *Report         `json:"report,omitempty"`
}

// Observer receives loop events. Observe is called on the loop goroutine and must
// not block.
type Observer interface {
	Observe(e Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(e Event)

// Observe implements Observer.
func (f ObserverFunc) Observe(e Event) { f(e) }
