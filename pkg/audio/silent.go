package audio

import (
	"log/slog"

	"github.com/teslashibe/poliscope/pkg/focus"
)

// Silent is a Player that only logs. It is used for headless runs and when cue
// files or a playback command are unavailable.
type Silent struct {
	Logger *slog.Logger
}

// Play logs the cue that would have played.
func (s Silent) Play(state focus.State) error {
	if s.Logger != nil {
		s.Logger.Debug("cue (silent)", "state", state)
	}
	return nil
}

// Stop is a no-op.
func (Silent) Stop() error { return nil }

// Close is a no-op.
func (Silent) Close() error { return nil }
