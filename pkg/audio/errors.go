package audio

import "errors"

var (
	// ErrMissingCue is returned when a state has no playable cue file.
	ErrMissingCue = errors.New("audio cue missing")

	// ErrNoBackend is returned when no playback command is available.
	ErrNoBackend = errors.New("no audio playback command found")

	// ErrClosed is returned when playing on a closed player.
	ErrClosed = errors.New("audio player closed")
)
