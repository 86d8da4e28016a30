package audio

import (
	"fmt"
	"log/slog"
	"os/exec"
	"sync"

	"github.com/teslashibe/poliscope/pkg/focus"
)

// process is a running playback command.
type process interface {
	Kill() error
	Wait() error
}

type starter func(argv []string) (process, error)

type cmdProcess struct {
	cmd *exec.Cmd
}

func (p *cmdProcess) Kill() error {
	if p.cmd.Process == nil {
		return nil
	}
	return p.cmd.Process.Kill()
}

func (p *cmdProcess) Wait() error {
	return p.cmd.Wait()
}

func startProcess(argv []string) (process, error) {
	cmd := exec.Command(argv[0], argv[1:]...)
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &cmdProcess{cmd: cmd}, nil
}

// ExecPlayer plays cues by running an external player command per cue.
type ExecPlayer struct {
	mu      sync.Mutex
	cues    map[focus.State]string
	command []string
	start   starter
	current process
	gen     uint64
	closed  bool
	logger  *slog.Logger

	// Callbacks, invoked outside the lock
	OnPlaybackStart func(state focus.State)
	OnPlaybackEnd   func(state focus.State)
}

func newExecPlayer(cues map[focus.State]string, command []string, start starter, logger *slog.Logger) *ExecPlayer {
	return &ExecPlayer{
		cues:    cues,
		command: command,
		start:   start,
		logger:  logger,
	}
}

// Play interrupts the current cue and starts the cue for state.
func (p *ExecPlayer) Play(state focus.State) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}

	path, ok := p.cues[state]
	if !ok {
		p.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrMissingCue, state)
	}

	p.stopLocked()

	argv := append(append([]string(nil), p.command...), path)
	proc, err := p.start(argv)
	if err != nil {
		p.mu.Unlock()
		return fmt.Errorf("start %s: %w", argv[0], err)
	}
	p.gen++
	gen := p.gen
	p.current = proc
	onStart, onEnd := p.OnPlaybackStart, p.OnPlaybackEnd
	p.mu.Unlock()

	p.logger.Debug("cue started", "state", state, "file", path)
	if onStart != nil {
		onStart(state)
	}

	// Reap the process; a newer cue may already have replaced it
	go func() {
		err := proc.Wait()
		p.mu.Lock()
		if p.gen == gen {
			p.current = nil
		}
		p.mu.Unlock()
		p.logger.Debug("cue finished", "state", state, "error", err)
		if onEnd != nil {
			onEnd(state)
		}
	}()

	return nil
}

// Playing reports whether a cue process is running.
func (p *ExecPlayer) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current != nil
}

// Stop kills the playing cue.
func (p *ExecPlayer) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	return nil
}

// stopLocked kills the current process (must hold mu).
func (p *ExecPlayer) stopLocked() {
	if p.current == nil {
		return
	}
	if err := p.current.Kill(); err != nil {
		p.logger.Debug("cue kill failed", "error", err)
	}
	p.current = nil
}

// Close stops playback; later Play calls fail with ErrClosed.
func (p *ExecPlayer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	p.closed = true
	return nil
}
