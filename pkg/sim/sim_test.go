package sim

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/teslashibe/poliscope/pkg/focus"
	"github.com/teslashibe/poliscope/pkg/monitor"
)

func TestScripted_Sequence(t *testing.T) {
	s := NewScripted([]Step{Away(2), Face(0.1, 0.2, 0.3, 1), Face(0, 0, 0, 0)})
	ctx := context.Background()

	want := []bool{false, false, true, true}
	for i, present := range want {
		obs, err := s.Next(ctx)
		if err != nil {
			t.Fatalf("Next %d failed: %v", i, err)
		}
		if obs.Sample.FacePresent != present {
			t.Errorf("frame %d: face present %v, want %v", i, obs.Sample.FacePresent, present)
		}
	}

	if _, err := s.Next(ctx); !errors.Is(err, monitor.ErrEndOfStream) {
		t.Errorf("expected ErrEndOfStream, got %v", err)
	}
}

func TestScripted_Loop(t *testing.T) {
	s := NewScripted([]Step{Away(1), Face(0, 0, 0, 1)}, WithLoop())
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		obs, err := s.Next(ctx)
		if err != nil {
			t.Fatalf("Next %d failed: %v", i, err)
		}
		if obs.Sample.FacePresent != (i%2 == 1) {
			t.Errorf("frame %d: unexpected face presence", i)
		}
	}

	s.Close()
	if _, err := s.Next(ctx); !errors.Is(err, monitor.ErrEndOfStream) {
		t.Errorf("closed sensor: got %v", err)
	}
}

func TestScripted_Keys(t *testing.T) {
	s := NewScripted([]Step{Face(0, 0, 0, 3).WithKey(monitor.KeyCalibrate)})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		s.Next(ctx)
	}

	select {
	case k := <-s.Keys():
		if k != monitor.KeyCalibrate {
			t.Errorf("key: got %v", k)
		}
	default:
		t.Fatal("expected a scripted key")
	}

	select {
	case k := <-s.Keys():
		t.Errorf("key should be pressed once, got second %v", k)
	default:
	}
}

func TestScripted_ContextCancel(t *testing.T) {
	s := NewScripted([]Step{Away(100)}, WithInterval(time.Hour))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Next(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestDemo_DrivesEveryState(t *testing.T) {
	script := NewScripted(Demo(10))
	opts := monitor.DefaultOptions()
	opts.Session = "demo"

	display := &headlessDisplay{}
	m, err := monitor.New(script, display, recorder{}, opts)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	m.SetRemoteKeys(script.Keys())

	report, err := m.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	for _, st := range focus.States() {
		if report.Summary.Counts[st] == 0 {
			t.Errorf("demo never reached %v: %+v", st, report.Summary.Counts)
		}
	}
	if !m.Classifier().Calibrated() {
		t.Error("demo should calibrate")
	}
}

func TestWander(t *testing.T) {
	w := NewWander(0, 42)
	defer w.Close()

	faces := 0
	for i := 0; i < 200; i++ {
		obs, err := w.Next(context.Background())
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		if obs.Sample.FacePresent {
			faces++
			if obs.Sample.Yaw < 0.3 || obs.Sample.Yaw > 0.5 {
				t.Errorf("yaw out of range: %v", obs.Sample.Yaw)
			}
		}
	}
	if faces == 0 {
		t.Error("wander should produce faces")
	}
}

type headlessDisplay struct{}

func (headlessDisplay) Show(monitor.View) (monitor.Key, error) { return monitor.KeyNone, nil }
func (headlessDisplay) ShowSummary(context.Context, monitor.Report) error {
	return nil
}
func (headlessDisplay) Close() error { return nil }

type recorder struct{}

func (recorder) Play(focus.State) error { return nil }
