// Package focus implements the calibration and state classifier.
//
// A Classifier holds a baseline pose captured on demand and compares each frame's
// pose against it within fixed tolerances. Every frame yields exactly one State,
// and the per-state frame counters always sum to the number of frames classified.
//
// The classifier is recomputed from raw thresholds every frame; there is no
// smoothing or hysteresis, so poses near a tolerance boundary may alternate between
// Engaged and Distracted on consecutive frames.
//
// A Classifier is not safe for concurrent use; it is owned by the frame loop.
package focus

import (
	"fmt"
	"math"

	"github.com/teslashibe/poliscope/pkg/pose"
)

// Tolerances are the maximum absolute deltas from baseline still considered engaged.
// Comparisons are strict: a delta equal to the tolerance is Distracted.
type Tolerances struct {
	Yaw   float64 `json:"yaw"`
	Pitch float64 `json:"pitch"`
	EyeY  float64 `json:"eye_y"`
}

// DefaultTolerances returns the production tolerances.
func DefaultTolerances() Tolerances {
	return Tolerances{
		Yaw:   0.03,
		Pitch: 0.04,
		EyeY:  0.04,
	}
}

// Validate checks that every tolerance is a positive number.
func (t Tolerances) Validate() error {
	check := func(name string, v float64) error {
		if math.IsNaN(v) || v <= 0 {
			return fmt.Errorf("%w: %s=%v", ErrInvalidTolerance, name, v)
		}
		return nil
	}
	if err := check("yaw", t.Yaw); err != nil {
		return err
	}
	if err := check("pitch", t.Pitch); err != nil {
		return err
	}
	return check("eye_y", t.EyeY)
}

// Baseline is the calibrated reference pose.
type Baseline struct {
	Yaw   float64 `json:"yaw"`
	Pitch float64 `json:"pitch"`
	EyeY  float64 `json:"eye_y"`
}

// Classifier maps pose samples to states against a calibrated baseline.
type Classifier struct {
	tol        Tolerances
	baseline   Baseline
	calibrated bool
	state      State
	stats      Stats
}

// New creates a classifier with the given tolerances. The initial state is Inactive.
func New(tol Tolerances) (*Classifier, error) {
	if err := tol.Validate(); err != nil {
		return nil, err
	}
	return &Classifier{
		tol:   tol,
		state: Inactive,
	}, nil
}

// Calibrate stores the given pose as the baseline. The last call wins.
func (c *Classifier) Calibrate(yaw, pitch, eyeY float64) {
	c.baseline = Baseline{Yaw: yaw, Pitch: pitch, EyeY: eyeY}
	c.calibrated = true
}

// CalibrateSample calibrates from a pose sample. It is a no-op returning false when
// the sample has no face.
func (c *Classifier) CalibrateSample(s pose.Sample) bool {
	if !s.FacePresent {
		return false
	}
	c.Calibrate(s.Yaw, s.Pitch, s.EyeY)
	return true
}

// Update classifies one frame and counts it.
func (c *Classifier) Update(s pose.Sample) State {
	c.state = c.classify(s)
	c.stats.add(c.state)
	return c.state
}

func (c *Classifier) classify(s pose.Sample) State {
	if !s.FacePresent {
		return Inactive
	}
	if !c.calibrated {
		return Distracted
	}

	dy, dp, de := c.deltas(s.Yaw, s.Pitch, s.EyeY)
	if dy < c.tol.Yaw && dp < c.tol.Pitch && de < c.tol.EyeY {
		return Engaged
	}
	return Distracted
}

func (c *Classifier) deltas(yaw, pitch, eyeY float64) (dy, dp, de float64) {
	return math.Abs(yaw - c.baseline.Yaw),
		math.Abs(pitch - c.baseline.Pitch),
		math.Abs(eyeY - c.baseline.EyeY)
}

// FocusLevel returns a continuous 0-1 focus proxy: one minus the mean of the
// tolerance-normalized deltas, clamped to [0, 1]. It is 0 when uncalibrated and
// does not affect classification.
func (c *Classifier) FocusLevel(yaw, pitch, eyeY float64) float64 {
	if !c.calibrated {
		return 0
	}
	dy, dp, de := c.deltas(yaw, pitch, eyeY)
	mean := (dy/c.tol.Yaw + dp/c.tol.Pitch + de/c.tol.EyeY) / 3
	level := 1 - math.Min(1, mean)
	if level < 0 || math.IsNaN(level) {
		return 0
	}
	return level
}

// Calibrated reports whether a baseline has been captured.
func (c *Classifier) Calibrated() bool {
	return c.calibrated
}

// Baseline returns the current baseline and whether it is set.
func (c *Classifier) Baseline() (Baseline, bool) {
	return c.baseline, c.calibrated
}

// Tolerances returns the configured tolerances.
func (c *Classifier) Tolerances() Tolerances {
	return c.tol
}

// State returns the state of the most recent frame (Inactive before any frame).
func (c *Classifier) State() State {
	return c.state
}

// Stats returns a copy of the per-state frame counters.
func (c *Classifier) Stats() Stats {
	return c.stats
}

// Summary returns the session breakdown.
func (c *Classifier) Summary() Summary {
	return c.stats.Summary()
}
