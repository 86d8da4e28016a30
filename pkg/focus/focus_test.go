package focus

import (
	"encoding/json"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/teslashibe/poliscope/pkg/pose"
)

func newClassifier(t *testing.T) *Classifier {
	t.Helper()
	c, err := New(DefaultTolerances())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return c
}

func face(yaw, pitch, eyeY float64) pose.Sample {
	return pose.Sample{FacePresent: true, Yaw: yaw, Pitch: pitch, EyeY: eyeY}
}

func TestNew_InitialState(t *testing.T) {
	c := newClassifier(t)

	if c.State() != Inactive {
		t.Errorf("initial state: got %v, want INACTIVE", c.State())
	}
	if c.Calibrated() {
		t.Error("new classifier should not be calibrated")
	}
	if c.Stats().Total() != 0 {
		t.Errorf("initial total: got %d", c.Stats().Total())
	}
}

func TestNew_InvalidTolerances(t *testing.T) {
	tests := []struct {
		name string
		tol  Tolerances
	}{
		{"zero yaw", Tolerances{Yaw: 0, Pitch: 0.04, EyeY: 0.04}},
		{"negative pitch", Tolerances{Yaw: 0.03, Pitch: -1, EyeY: 0.04}},
		{"nan eye", Tolerances{Yaw: 0.03, Pitch: 0.04, EyeY: math.NaN()}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.tol); !errors.Is(err, ErrInvalidTolerance) {
				t.Errorf("expected ErrInvalidTolerance, got %v", err)
			}
		})
	}
}

func TestUpdate_NoFaceIsInactive(t *testing.T) {
	c := newClassifier(t)
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 100; i++ {
		s := pose.Sample{Yaw: rng.Float64(), Pitch: rng.Float64(), EyeY: rng.Float64()}
		if got := c.Update(s); got != Inactive {
			t.Fatalf("uncalibrated, no face: got %v", got)
		}
	}

	c.Calibrate(0.2, -0.4, 0.45)
	for i := 0; i < 100; i++ {
		// Even a pose identical to the baseline is inactive without a face
		if got := c.Update(pose.Sample{Yaw: 0.2, Pitch: -0.4, EyeY: 0.45}); got != Inactive {
			t.Fatalf("calibrated, no face: got %v", got)
		}
	}
}

func TestUpdate_UncalibratedIsDistracted(t *testing.T) {
	c := newClassifier(t)
	rng := rand.New(rand.NewSource(2))

	for i := 0; i < 100; i++ {
		if got := c.Update(face(rng.Float64(), rng.Float64(), rng.Float64())); got != Distracted {
			t.Fatalf("uncalibrated face: got %v, want DISTRACTED", got)
		}
	}
}

func TestUpdate_Thresholds(t *testing.T) {
	tests := []struct {
		name   string
		sample pose.Sample
		want   State
	}{
		{"at baseline", face(0, 0, 0), Engaged},
		{"yaw within", face(0.029, 0, 0), Engaged},
		{"yaw beyond", face(0.05, 0, 0), Distracted},
		{"yaw negative beyond", face(-0.05, 0, 0), Distracted},
		{"pitch within", face(0, 0.039, 0), Engaged},
		{"pitch beyond", face(0, 0.041, 0), Distracted},
		{"eye within", face(0, 0, -0.039), Engaged},
		{"eye beyond", face(0, 0, 0.05), Distracted},
		{"all within", face(0.02, -0.03, 0.03), Engaged},
		{"no face", pose.Sample{}, Inactive},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := newClassifier(t)
			c.Calibrate(0, 0, 0)
			if got := c.Update(tc.sample); got != tc.want {
				t.Errorf("Update(%v): got %v, want %v", tc.sample, got, tc.want)
			}
		})
	}
}

func TestUpdate_StrictComparison(t *testing.T) {
	// Exactly representable values so the delta equals the tolerance
	c, err := New(Tolerances{Yaw: 0.25, Pitch: 0.5, EyeY: 0.5})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	c.Calibrate(0, 0, 0)

	if got := c.Update(face(0.25, 0, 0)); got != Distracted {
		t.Errorf("delta == tolerance: got %v, want DISTRACTED", got)
	}
	if got := c.Update(face(0.125, 0, 0)); got != Engaged {
		t.Errorf("delta < tolerance: got %v, want ENGAGED", got)
	}
}

func TestCalibrate_Roundtrip(t *testing.T) {
	c := newClassifier(t)
	c.Calibrate(0.31, -0.52, 0.47)

	if got := c.Update(face(0.31, -0.52, 0.47)); got != Engaged {
		t.Errorf("pose equal to baseline: got %v, want ENGAGED", got)
	}

	b, ok := c.Baseline()
	if !ok || b != (Baseline{Yaw: 0.31, Pitch: -0.52, EyeY: 0.47}) {
		t.Errorf("Baseline: got %+v (ok=%v)", b, ok)
	}
}

func TestCalibrate_Overwrites(t *testing.T) {
	c := newClassifier(t)
	c.Calibrate(0, 0, 0)
	c.Calibrate(0.5, 0.5, 0.5)

	if got := c.Update(face(0, 0, 0)); got != Distracted {
		t.Errorf("old baseline pose: got %v, want DISTRACTED", got)
	}
	if got := c.Update(face(0.5, 0.5, 0.5)); got != Engaged {
		t.Errorf("new baseline pose: got %v, want ENGAGED", got)
	}
	if c.FocusLevel(0.5, 0.5, 0.5) != 1 {
		t.Error("focus level should be measured from the new baseline")
	}
}

func TestCalibrateSample_IgnoresNoFace(t *testing.T) {
	c := newClassifier(t)

	if c.CalibrateSample(pose.NoFace()) {
		t.Error("CalibrateSample without face should return false")
	}
	if c.Calibrated() {
		t.Error("classifier should remain uncalibrated")
	}

	c.Calibrate(0.1, 0.1, 0.1)
	c.CalibrateSample(pose.Sample{Yaw: 0.9, Pitch: 0.9, EyeY: 0.9})
	if b, _ := c.Baseline(); b.Yaw != 0.1 {
		t.Errorf("baseline changed by a faceless sample: %+v", b)
	}

	if !c.CalibrateSample(face(0.2, 0.3, 0.4)) {
		t.Error("CalibrateSample with face should return true")
	}
	if b, _ := c.Baseline(); b != (Baseline{Yaw: 0.2, Pitch: 0.3, EyeY: 0.4}) {
		t.Errorf("Baseline: got %+v", b)
	}
}

func TestStats_SumsToFrames(t *testing.T) {
	c := newClassifier(t)
	rng := rand.New(rand.NewSource(3))

	const n = 500
	for i := 0; i < n; i++ {
		if i == n/3 {
			c.Calibrate(0.5, 0.5, 0.5)
		}
		s := pose.Sample{
			FacePresent: rng.Intn(4) != 0,
			Yaw:         0.5 + (rng.Float64()-0.5)*0.1,
			Pitch:       0.5 + (rng.Float64()-0.5)*0.1,
			EyeY:        0.5 + (rng.Float64()-0.5)*0.1,
		}
		st := c.Update(s)
		if st != c.State() {
			t.Fatalf("State() %v differs from Update result %v", c.State(), st)
		}
	}

	stats := c.Stats()
	if stats.Total() != n {
		t.Errorf("Total: got %d, want %d", stats.Total(), n)
	}
	sum := 0
	for _, st := range States() {
		sum += stats.Count(st)
	}
	if sum != n {
		t.Errorf("sum of counts: got %d, want %d", sum, n)
	}
}

func TestFocusLevel(t *testing.T) {
	c := newClassifier(t)

	if got := c.FocusLevel(0, 0, 0); got != 0 {
		t.Errorf("uncalibrated: got %v, want 0", got)
	}

	c.Calibrate(0.1, 0.2, 0.3)

	tests := []struct {
		name            string
		yaw, pitch, eye float64
		want            float64
	}{
		{"at baseline", 0.1, 0.2, 0.3, 1},
		{"one tolerance on yaw", 0.13, 0.2, 0.3, 2.0 / 3},
		{"one tolerance on every axis", 0.13, 0.24, 0.34, 0},
		{"far away clamps", 5, 5, 5, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := c.FocusLevel(tc.yaw, tc.pitch, tc.eye)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("FocusLevel: got %v, want %v", got, tc.want)
			}
			if got < 0 || got > 1 {
				t.Errorf("FocusLevel out of range: %v", got)
			}
		})
	}
}

func TestSummary(t *testing.T) {
	c := newClassifier(t)

	empty := c.Summary()
	for _, st := range States() {
		if empty.Percent[st] != 0 {
			t.Errorf("empty summary %v: got %v%%", st, empty.Percent[st])
		}
	}

	c.Calibrate(0, 0, 0)
	c.Update(face(0, 0, 0)) // engaged
	c.Update(face(0, 0, 0)) // engaged
	c.Update(face(1, 0, 0)) // distracted
	c.Update(pose.NoFace()) // inactive

	sum := c.Summary()
	if sum.Total != 4 {
		t.Errorf("Total: got %d, want 4", sum.Total)
	}
	if sum.Percent[Engaged] != 50 || sum.Percent[Distracted] != 25 || sum.Percent[Inactive] != 25 {
		t.Errorf("Percent: got %+v", sum.Percent)
	}

	lines := sum.Lines()
	want := []string{"ENGAGED: 50.0%", "DISTRACTED: 25.0%", "INACTIVE: 25.0%"}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d: got %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestSummary_JSON(t *testing.T) {
	c := newClassifier(t)
	c.Update(pose.NoFace())

	data, err := json.Marshal(c.Summary())
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded struct {
		Total   int                `json:"total"`
		Percent map[string]float64 `json:"percent"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if decoded.Percent["INACTIVE"] != 100 {
		t.Errorf("INACTIVE percent: got %v in %s", decoded.Percent["INACTIVE"], data)
	}
}
