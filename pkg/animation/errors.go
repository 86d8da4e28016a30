package animation

import "errors"

var (
	// ErrNoFrames is returned when a clip or GIF has no frames.
	ErrNoFrames = errors.New("animation has no frames")

	// ErrMissingClip is returned when a timeline has no clip for a state.
	ErrMissingClip = errors.New("no clip for state")
)
