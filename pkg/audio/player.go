// Package audio plays the short per-state audio cues.
//
// Cues are mutually interrupting and fire-and-forget: starting a cue stops whatever
// cue is playing and returns immediately without waiting for playback to finish.
package audio

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/teslashibe/poliscope/pkg/focus"
)

// Player plays state cues.
type Player interface {
	// Play stops any playing cue and starts the cue for state.
	Play(state focus.State) error

	// Stop stops the playing cue, if any.
	Stop() error

	// Close stops playback and releases resources.
	Close() error
}

// Config holds audio cue settings.
type Config struct {
	// Dir contains engaged.wav, distracted.wav and inactive.wav.
	Dir string

	// Command is the playback argv; the cue path is appended.
	// Empty selects a platform default (see DefaultCommand).
	Command []string
}

// DefaultConfig returns the default cue configuration.
func DefaultConfig() Config {
	return Config{Dir: "audio"}
}

// CueFile returns the cue file name for a state, e.g. "engaged.wav".
func CueFile(state focus.State) string {
	return strings.ToLower(state.String()) + ".wav"
}

// CuePaths resolves the cue file of every state under dir. It fails with
// ErrMissingCue naming the first file that does not exist.
func CuePaths(dir string) (map[focus.State]string, error) {
	paths := make(map[focus.State]string, len(focus.States()))
	for _, state := range focus.States() {
		path := filepath.Join(dir, CueFile(state))
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			return nil, fmt.Errorf("%w: %s", ErrMissingCue, path)
		}
		paths[state] = path
	}
	return paths, nil
}

// DefaultCommand picks a playback command for the current platform:
// afplay on macOS, then aplay or paplay elsewhere.
func DefaultCommand() ([]string, error) {
	candidates := [][]string{{"aplay", "-q"}, {"paplay"}}
	if runtime.GOOS == "darwin" {
		candidates = [][]string{{"afplay"}}
	}
	for _, argv := range candidates {
		if _, err := exec.LookPath(argv[0]); err == nil {
			return argv, nil
		}
	}
	return nil, ErrNoBackend
}

// New creates the exec-backed player from cfg. Callers that can run without sound
// should fall back to Silent when it returns an error.
func New(cfg Config, logger *slog.Logger) (*ExecPlayer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	cues, err := CuePaths(cfg.Dir)
	if err != nil {
		return nil, err
	}

	command := cfg.Command
	if len(command) == 0 {
		command, err = DefaultCommand()
		if err != nil {
			return nil, err
		}
	}

	logger.Info("audio cues ready", "dir", cfg.Dir, "command", command[0])
	return newExecPlayer(cues, command, startProcess, logger), nil
}
