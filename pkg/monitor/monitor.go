package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/teslashibe/poliscope/pkg/animation"
	"github.com/teslashibe/poliscope/pkg/debug"
	"github.com/teslashibe/poliscope/pkg/focus"
	"github.com/teslashibe/poliscope/pkg/pose"
)

// Options configures a Monitor.
type Options struct {
	Tolerances focus.Tolerances
	Animation  animation.Options
	Clips      animation.Set

	// Overlay enables the landmark overlay from the start.
	Overlay bool

	// Session identifies the run; empty generates a UUID.
	Session string

	Clock  Clock
	Logger *slog.Logger
}

// DefaultOptions returns production options with the built-in avatar.
func DefaultOptions() Options {
	return Options{
		Tolerances: focus.DefaultTolerances(),
		Animation:  animation.DefaultOptions(),
		Clips:      animation.BuiltinSet(),
		Clock:      time.Now,
	}
}

// Monitor owns the classifier and drives one session.
type Monitor struct {
	sensor  Sensor
	display Display
	cues    Cues

	classifier *focus.Classifier
	timeline   *animation.Timeline
	observers  []Observer
	remote     <-chan Key

	session string
	clock   Clock
	logger  *slog.Logger

	overlay  bool
	frames   int
	started  time.Time
	prev     focus.State
	havePrev bool
}

// New creates a monitor.
func New(sensor Sensor, display Display, cues Cues, opts Options) (*Monitor, error) {
	if sensor == nil || display == nil || cues == nil {
		return nil, errors.New("monitor: sensor, display and cues are required")
	}

	classifier, err := focus.New(opts.Tolerances)
	if err != nil {
		return nil, fmt.Errorf("monitor: %w", err)
	}

	clips := opts.Clips
	if clips == nil {
		clips = animation.BuiltinSet()
	}
	timeline, err := animation.NewTimeline(clips, opts.Animation)
	if err != nil {
		return nil, fmt.Errorf("monitor: %w", err)
	}

	session := opts.Session
	if session == "" {
		session = uuid.NewString()
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Monitor{
		sensor:     sensor,
		display:    display,
		cues:       cues,
		classifier: classifier,
		timeline:   timeline,
		session:    session,
		clock:      clock,
		logger:     logger.With("session", session),
		overlay:    opts.Overlay,
	}, nil
}

// AddObserver registers an event observer. Call before Run.
func (m *Monitor) AddObserver(o Observer) {
	m.observers = append(m.observers, o)
}

// SetRemoteKeys sets a channel of input events from outside the display, such as the
// dashboard. Pending remote keys are handled before the local key of each frame.
func (m *Monitor) SetRemoteKeys(keys <-chan Key) {
	m.remote = keys
}

// Session returns the session id.
func (m *Monitor) Session() string {
	return m.session
}

// Classifier exposes the classifier for inspection. It must only be used from the
// loop goroutine or after Run returns.
func (m *Monitor) Classifier() *focus.Classifier {
	return m.classifier
}

// Run processes frames until quit, end of stream, a capture failure or context
// cancellation, then shows the session summary. The summary is returned in every case.
func (m *Monitor) Run(ctx context.Context) (Report, error) {
	m.logger.Info("session started")

	for ctx.Err() == nil {
		obs, err := m.sensor.Next(ctx)
		if err != nil {
			switch {
			case errors.Is(err, ErrEndOfStream):
				m.logger.Info("sensor stream ended")
			case ctx.Err() != nil:
			default:
				m.logger.Warn("capture failed, ending session", "error", err)
			}
			break
		}

		quit, err := m.step(obs)
		if err != nil {
			m.logger.Error("render failed, ending session", "error", err)
			break
		}
		if quit {
			break
		}
	}

	report := m.Report()
	m.emit(Event{Kind: EventSummary, State: m.classifier.State(), Report: &report})
	m.logger.Info("session ended",
		"frames", report.Frames,
		"duration", report.Duration.Round(time.Second),
		"summary", report.Summary.String())

	if err := m.display.ShowSummary(ctx, report); err != nil {
		return report, fmt.Errorf("show summary: %w", err)
	}
	return report, nil
}

// step processes one observation and reports whether the user quit.
func (m *Monitor) step(obs Observation) (bool, error) {
	if obs.Frame != nil {
		defer obs.Frame.Close()
	}

	now := m.clock()
	if m.frames == 0 {
		m.started = now
	}

	state := m.classifier.Update(obs.Sample)
	m.frames++

	if !m.havePrev || state != m.prev {
		m.transition(state, obs.Sample, now)
	}
	m.timeline.Advance(now)

	level := 0.0
	if obs.Sample.FacePresent {
		level = m.classifier.FocusLevel(obs.Sample.Yaw, obs.Sample.Pitch, obs.Sample.EyeY)
	}

	debug.FrameLog("frame",
		"n", m.frames,
		"pose", obs.Sample.String(),
		"state", state,
		"focus", level)

	m.emit(Event{
		Kind:       EventFrame,
		State:      state,
		Sample:     obs.Sample,
		FocusLevel: level,
		Calibrated: m.classifier.Calibrated(),
	})

	key, err := m.display.Show(View{
		Frame:      obs.Frame,
		Face:       obs.Face,
		Sample:     obs.Sample,
		State:      state,
		Calibrated: m.classifier.Calibrated(),
		FocusLevel: level,
		Overlay:    m.overlay,
		Elapsed:    now.Sub(m.started),
		Avatar:     m.timeline.Frame(),
		AvatarKey:  AvatarKey{State: m.timeline.State(), Index: m.timeline.Index()},
	})
	if err != nil {
		return false, err
	}

	for drained := false; !drained; {
		select {
		case k, ok := <-m.remote:
			if !ok {
				m.remote = nil
				continue
			}
			if m.handleKey(k, obs.Sample) {
				return true, nil
			}
		default:
			drained = true
		}
	}
	return m.handleKey(key, obs.Sample), nil
}

func (m *Monitor) transition(state focus.State, s pose.Sample, now time.Time) {
	e := Event{Kind: EventTransition, State: state, Sample: s, Calibrated: m.classifier.Calibrated()}
	if m.havePrev {
		prev := m.prev
		e.Previous = &prev
		m.logger.Info("state changed", "from", prev, "to", state)
	} else {
		m.logger.Info("initial state", "state", state)
	}

	if err := m.cues.Play(state); err != nil {
		m.logger.Warn("cue failed", "state", state, "error", err)
	}
	m.timeline.Reset(state, now)
	m.prev, m.havePrev = state, true
	m.emit(e)
}

// handleKey applies an input event and reports whether it quits.
func (m *Monitor) handleKey(k Key, s pose.Sample) bool {
	switch k {
	case KeyCalibrate:
		if !m.classifier.CalibrateSample(s) {
			m.logger.Debug("calibration ignored, no face in frame")
			return false
		}
		b, _ := m.classifier.Baseline()
		m.logger.Info("calibration complete", "yaw", b.Yaw, "pitch", b.Pitch, "eye_y", b.EyeY)
		m.emit(Event{Kind: EventCalibrated, State: m.classifier.State(), Sample: s, Calibrated: true, Baseline: &b})
	case KeyToggleOverlay:
		m.overlay = !m.overlay
		m.logger.Debug("overlay toggled", "enabled", m.overlay)
	case KeyQuit:
		m.logger.Info("quit requested")
		return true
	}
	return false
}

// Report returns the summary of the frames processed so far.
func (m *Monitor) Report() Report {
	r := Report{
		Session: m.session,
		Started: m.started,
		Frames:  m.frames,
		Summary: m.classifier.Summary(),
	}
	if m.frames > 0 {
		r.Duration = m.clock().Sub(m.started)
	}
	return r
}

func (m *Monitor) emit(e Event) {
	if len(m.observers) == 0 {
		return
	}
	e.Session = m.session
	e.At = m.clock()
	e.Frame = m.frames
	for _, o := range m.observers {
		o.Observe(e)
	}
}
