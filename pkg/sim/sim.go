// Package sim provides synthetic sensors for running the monitor without a camera.
package sim

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/teslashibe/poliscope/pkg/monitor"
	"github.com/teslashibe/poliscope/pkg/pose"
)

// Step is one scripted pose, emitted Repeat times (at least once). When Key is set it
// is delivered on the Keys channel with the first emission of the step.
type Step struct {
	Sample pose.Sample
	Repeat int
	Key    monitor.Key
}

// Face returns a step with a face at the given pose.
func Face(yaw, pitch, eyeY float64, repeat int) Step {
	return Step{
		Sample: pose.Sample{FacePresent: true, Yaw: yaw, Pitch: pitch, EyeY: eyeY},
		Repeat: repeat,
	}
}

// Away returns a step with no face.
func Away(repeat int) Step {
	return Step{Sample: pose.NoFace(), Repeat: repeat}
}

// WithKey returns a copy of the step that also presses k.
func (s Step) WithKey(k monitor.Key) Step {
	s.Key = k
	return s
}

// Scripted replays a fixed sequence of steps.
type Scripted struct {
	mu       sync.Mutex
	steps    []Step
	step     int
	emitted  int
	interval time.Duration
	loop     bool
	keys     chan monitor.Key
	closed   bool
}

// Option configures a Scripted sensor.
type Option func(*Scripted)

// WithInterval paces frames at d, like a camera at 1/d FPS.
func WithInterval(d time.Duration) Option {
	return func(s *Scripted) { s.interval = d }
}

// WithLoop restarts the script instead of ending the stream.
func WithLoop() Option {
	return func(s *Scripted) { s.loop = true }
}

// NewScripted creates a sensor replaying steps.
func NewScripted(steps []Step, opts ...Option) *Scripted {
	s := &Scripted{
		steps: steps,
		keys:  make(chan monitor.Key, len(steps)+1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Keys returns the channel of scripted key presses, for Monitor.SetRemoteKeys.
func (s *Scripted) Keys() <-chan monitor.Key {
	return s.keys
}

// Next returns the next scripted observation, or monitor.ErrEndOfStream.
func (s *Scripted) Next(ctx context.Context) (monitor.Observation, error) {
	if s.interval > 0 {
		select {
		case <-ctx.Done():
			return monitor.Observation{}, ctx.Err()
		case <-time.After(s.interval):
		}
	} else if err := ctx.Err(); err != nil {
		return monitor.Observation{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return monitor.Observation{}, monitor.ErrEndOfStream
	}
	if s.step >= len(s.steps) {
		if !s.loop || len(s.steps) == 0 {
			return monitor.Observation{}, monitor.ErrEndOfStream
		}
		s.step, s.emitted = 0, 0
	}

	st := s.steps[s.step]
	if s.emitted == 0 && st.Key != monitor.KeyNone {
		select {
		case s.keys <- st.Key:
		default:
		}
	}

	s.emitted++
	if s.emitted >= max(st.Repeat, 1) {
		s.step++
		s.emitted = 0
	}
	return monitor.Observation{Sample: st.Sample}, nil
}

// Close ends the stream.
func (s *Scripted) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Demo returns a script that walks through every state: user away, sitting down
// uncalibrated, calibrating, focused, glancing away and leaving.
func Demo(fps int) []Step {
	sec := func(f float64) int { return int(f * float64(fps)) }
	return []Step{
		Away(sec(2)),
		Face(0.42, -0.55, 0.44, sec(2)),
		Face(0.42, -0.55, 0.44, sec(4)).WithKey(monitor.KeyCalibrate),
		Face(0.47, -0.55, 0.44, sec(2)),
		Face(0.42, -0.50, 0.49, sec(2)),
		Face(0.43, -0.54, 0.45, sec(3)),
		Away(sec(3)),
	}
}

// Wander is an endless sensor generating smoothly drifting poses, with the user
// occasionally stepping away.
type Wander struct {
	start    time.Time
	interval time.Duration
	rng      *rand.Rand
	away     int
}

// NewWander creates a wandering sensor. Frames are paced at interval.
func NewWander(interval time.Duration, seed int64) *Wander {
	return &Wander{
		start:    time.Now(),
		interval: interval,
		rng:      rand.New(rand.NewSource(seed)),
	}
}

// Next returns the next synthetic observation.
func (w *Wander) Next(ctx context.Context) (monitor.Observation, error) {
	if w.interval > 0 {
		select {
		case <-ctx.Done():
			return monitor.Observation{}, ctx.Err()
		case <-time.After(w.interval):
		}
	}

	if w.away > 0 {
		w.away--
		return monitor.Observation{Sample: pose.NoFace()}, nil
	}
	if w.rng.Float64() < 0.002 {
		w.away = 60 + w.rng.Intn(60)
	}

	elapsed := time.Since(w.start).Seconds()
	return monitor.Observation{Sample: pose.Sample{
		FacePresent: true,
		Yaw:         0.42 + 0.04*math.Sin(elapsed*0.5),
		Pitch:       -0.55 + 0.03*math.Cos(elapsed*0.3),
		EyeY:        0.44 + 0.02*math.Sin(elapsed*0.7) + (w.rng.Float64()-0.5)*0.005,
	}}, nil
}

// Close is a no-op.
func (w *Wander) Close() error { return nil }
