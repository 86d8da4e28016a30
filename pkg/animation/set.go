package animation

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/teslashibe/poliscope/pkg/focus"
)

// Set maps each state to its clip.
type Set map[focus.State]*Clip

// FileName returns the asset file name for a state, e.g. "engaged.gif".
func FileName(state focus.State) string {
	return strings.ToLower(state.String()) + ".gif"
}

// LoadSet loads engaged.gif, distracted.gif and inactive.gif from dir. A missing or
// unreadable file is replaced by the built-in avatar and logged; it is never fatal.
func LoadSet(dir string, logger *slog.Logger) Set {
	if logger == nil {
		logger = slog.Default()
	}

	set := make(Set, len(focus.States()))
	for _, state := range focus.States() {
		path := filepath.Join(dir, FileName(state))
		clip, err := LoadGIF(path)
		switch {
		case err == nil:
			logger.Info("animation loaded", "state", state, "file", path,
				"frames", clip.Len(), "duration", clip.Duration())
			set[state] = clip
		case errors.Is(err, os.ErrNotExist):
			logger.Warn("animation missing, using built-in avatar", "state", state, "file", path)
			set[state] = Builtin(state)
		default:
			logger.Warn("animation unreadable, using built-in avatar", "state", state, "file", path, "error", err)
			set[state] = Builtin(state)
		}
	}
	return set
}

// BuiltinSet returns the procedurally drawn avatar for every state.
func BuiltinSet() Set {
	set := make(Set, len(focus.States()))
	for _, state := range focus.States() {
		set[state] = Builtin(state)
	}
	return set
}

// Validate checks that every state has a playable clip.
func (s Set) Validate() error {
	for _, state := range focus.States() {
		clip, ok := s[state]
		if !ok || clip == nil {
			return fmt.Errorf("%w: %s", ErrMissingClip, state)
		}
		if err := clip.Validate(); err != nil {
			return fmt.Errorf("%s: %w", state, err)
		}
	}
	return nil
}

// Export writes every clip of the set as <state>.gif under dir.
func (s Set) Export(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", dir, err)
	}
	var written []string
	for _, state := range focus.States() {
		clip, ok := s[state]
		if !ok {
			continue
		}
		path := filepath.Join(dir, FileName(state))
		if err := SaveGIF(path, clip); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}
