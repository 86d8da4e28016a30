// Package monitor runs the presentation loop: it feeds per-frame pose samples to the
// focus classifier, fires cues and animation resets on state changes, renders the two
// panel view and handles the calibrate, overlay and quit inputs.
//
// The loop is single-threaded and synchronous. Each iteration blocks on the sensor for
// the next frame; everything else happens in order on the same goroutine.
package monitor

import (
	"context"
	"errors"
	"image"
	"time"

	"github.com/teslashibe/poliscope/pkg/camera"
	"github.com/teslashibe/poliscope/pkg/focus"
	"github.com/teslashibe/poliscope/pkg/landmark"
	"github.com/teslashibe/poliscope/pkg/pose"
)

// ErrEndOfStream is returned by a Sensor that has no more frames.
var ErrEndOfStream = errors.New("end of stream")

// Observation is one processed camera frame.
type Observation struct {
	// Sample is the pose derived from the frame.
	Sample pose.Sample

	// Face is the detected face, or nil.
	Face *landmark.Face

	// Frame is the mirrored camera image. It may be nil for synthetic sensors.
	// The loop closes it after rendering.
	Frame *camera.Frame
}

// Sensor produces observations. Next blocks until a frame is available.
type Sensor interface {
	Next(ctx context.Context) (Observation, error)
	Close() error
}

// Key is an input event.
type Key int

// Input events.
const (
	KeyNone Key = iota
	KeyCalibrate
	KeyToggleOverlay
	KeyQuit
)

// String implements fmt.Stringer.
func (k Key) String() string {
	switch k {
	case KeyNone:
		return "none"
	case KeyCalibrate:
		return "calibrate"
	case KeyToggleOverlay:
		return "overlay"
	case KeyQuit:
		return "quit"
	default:
		return "unknown"
	}
}

// View is everything a Display needs to draw one frame.
type View struct {
	Frame      *camera.Frame
	Face       *landmark.Face
	Sample     pose.Sample
	State      focus.State
	Calibrated bool
	FocusLevel float64
	Overlay    bool
	Elapsed    time.Duration

	// Avatar is the current animation frame; AvatarKey identifies it for caching.
	Avatar    image.Image
	AvatarKey AvatarKey
}

// AvatarKey identifies an animation frame.
type AvatarKey struct {
	State focus.State
	Index int
}

// Report is the end-of-session summary.
type Report struct {
	Session  string        `json:"session"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`
	Frames   int           `json:"frames"`
	Summary  focus.Summary `json:"summary"`
}

// Display renders views and reads local input.
type Display interface {
	// Show draws one frame and returns the key pressed, if any.
	Show(v View) (Key, error)

	// ShowSummary draws the session summary and waits for acknowledgement.
	ShowSummary(ctx context.Context, r Report) error

	Close() error
}

// Cues plays the one-shot cue of a state.
type Cues interface {
	Play(state focus.State) error
}

// Clock returns the current time.
type Clock func() time.Time
