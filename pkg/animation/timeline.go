package animation

import (
	"fmt"
	"image"
	"time"

	"github.com/teslashibe/poliscope/pkg/focus"
)

// Options controls animation pacing.
type Options struct {
	// Speed multiplies every frame delay; values above 1 slow the avatar down.
	Speed float64

	// LoopPause is an extra hold on the final frame of each pass, per state.
	LoopPause map[focus.State]time.Duration
}

// DefaultOptions returns the calm default pacing.
func DefaultOptions() Options {
	return Options{
		Speed: 1.5,
		LoopPause: map[focus.State]time.Duration{
			focus.Engaged:    500 * time.Millisecond,
			focus.Distracted: 1200 * time.Millisecond,
			focus.Inactive:   2 * time.Second,
		},
	}
}

// Timeline tracks the displayed frame of the active state's clip.
//
// It never sleeps: Advance is called once per rendered frame and moves on only when
// the current frame's time is up, so capture and input keep running while the avatar
// holds a frame. A Timeline is owned by the frame loop and not safe for concurrent use.
type Timeline struct {
	set   Set
	opts  Options
	state focus.State
	index int
	last  time.Time
}

// NewTimeline creates a timeline positioned on the first frame of the Inactive clip.
func NewTimeline(set Set, opts Options) (*Timeline, error) {
	if err := set.Validate(); err != nil {
		return nil, err
	}
	if opts.Speed <= 0 {
		return nil, fmt.Errorf("animation speed must be positive, got %v", opts.Speed)
	}
	return &Timeline{
		set:   set,
		opts:  opts,
		state: focus.Inactive,
	}, nil
}

// Reset switches to the clip for state and rewinds it to the first frame.
func (t *Timeline) Reset(state focus.State, now time.Time) {
	t.state = state
	t.index = 0
	t.last = now
}

// due returns how long the current frame stays on screen.
func (t *Timeline) due() time.Duration {
	clip := t.set[t.state]
	d := time.Duration(float64(clip.Delay(t.index)) * t.opts.Speed)
	if t.index == clip.Len()-1 {
		d += t.opts.LoopPause[t.state]
	}
	return d
}

// Advance steps to the next frame if the current one has been shown long enough.
// It steps at most one frame per call and reports whether the frame changed.
func (t *Timeline) Advance(now time.Time) bool {
	if now.Sub(t.last) < t.due() {
		return false
	}
	t.index++
	if t.index >= t.set[t.state].Len() {
		t.index = 0
	}
	t.last = now
	return true
}

// State returns the state whose clip is playing.
func (t *Timeline) State() focus.State {
	return t.state
}

// Index returns the current frame index.
func (t *Timeline) Index() int {
	return t.index
}

// Frame returns the current frame image.
func (t *Timeline) Frame() image.Image {
	return t.set[t.state].Frames[t.index]
}

// Clip returns the clip for the active state.
func (t *Timeline) Clip() *Clip {
	return t.set[t.state]
}
