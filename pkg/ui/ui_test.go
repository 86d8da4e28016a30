package ui

import (
	"bytes"
	"context"
	"image"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/teslashibe/poliscope/pkg/animation"
	"github.com/teslashibe/poliscope/pkg/camera"
	"github.com/teslashibe/poliscope/pkg/focus"
	"github.com/teslashibe/poliscope/pkg/landmark"
	"github.com/teslashibe/poliscope/pkg/monitor"
	"gocv.io/x/gocv"
)

func TestMapKey(t *testing.T) {
	tests := []struct {
		code int
		want monitor.Key
	}{
		{-1, monitor.KeyNone},
		{'c', monitor.KeyCalibrate},
		{'d', monitor.KeyToggleOverlay},
		{'q', monitor.KeyQuit},
		{27, monitor.KeyQuit},
		{'x', monitor.KeyNone},
		{0x100000 | 'q', monitor.KeyQuit}, // modifier bits set by some backends
	}
	for _, tc := range tests {
		if got := MapKey(tc.code); got != tc.want {
			t.Errorf("MapKey(%#x): got %v, want %v", tc.code, got, tc.want)
		}
	}
}

func TestLayout(t *testing.T) {
	l := DefaultLayout()
	if l.ContentH != 670 || l.PanelW != 610 || l.Y0 != 110 {
		t.Errorf("layout: %+v", l)
	}

	user, avatar := l.UserPanel(), l.AvatarPanel()
	if user.Overlaps(avatar) {
		t.Error("panels overlap")
	}
	if avatar.Max.X != WindowW-Padding {
		t.Errorf("avatar panel right edge: got %d", avatar.Max.X)
	}
	if !l.AvatarRect().In(avatar) {
		t.Errorf("avatar %v outside panel %v", l.AvatarRect(), avatar)
	}
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00"},
		{59*time.Second + 900*time.Millisecond, "00:59"},
		{61 * time.Second, "01:01"},
		{75 * time.Minute, "75:00"},
		{-time.Second, "00:00"},
	}
	for _, tc := range tests {
		if got := FormatElapsed(tc.d); got != tc.want {
			t.Errorf("FormatElapsed(%v): got %q, want %q", tc.d, got, tc.want)
		}
	}
}

func TestEyeBox_ClippedToPanel(t *testing.T) {
	panel := image.Rect(20, 110, 630, 780)
	eye := []landmark.Point{{X: 0.0, Y: 0.0}, {X: 0.05, Y: 0.02}}

	box := eyeBox(eye, panel)
	if !box.In(panel) {
		t.Errorf("box %v not inside panel %v", box, panel)
	}
	if box.Empty() {
		t.Error("box should not be empty")
	}
}

func TestStateTables(t *testing.T) {
	for _, st := range focus.States() {
		if _, ok := StateColors[st]; !ok {
			t.Errorf("no colour for %v", st)
		}
		if StateExplanation[st] == "" {
			t.Errorf("no explanation for %v", st)
		}
		if o := AvatarOpacity[st]; o <= 0 || o > 1 {
			t.Errorf("opacity for %v: %v", st, o)
		}
	}
}

func TestRenderer_Render(t *testing.T) {
	r := NewRenderer()
	defer r.Close()

	canvas := NewCanvas()
	defer canvas.Close()

	frame := camera.NewFrame(gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3), 80)
	defer frame.Close()

	clip := animation.Builtin(focus.Distracted)
	v := monitor.View{
		Frame:      frame,
		Face:       &landmark.Face{Points: []landmark.Point{{X: 0.3, Y: 0.3}, {X: 0.6, Y: 0.7}}},
		State:      focus.Distracted,
		Calibrated: true,
		FocusLevel: 0.4,
		Overlay:    true,
		Elapsed:    42 * time.Second,
		Avatar:     clip.Frames[0],
		AvatarKey:  monitor.AvatarKey{State: focus.Distracted, Index: 0},
	}

	if err := r.Render(&canvas, v); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if canvas.Rows() != WindowH || canvas.Cols() != WindowW {
		t.Errorf("canvas size: %dx%d", canvas.Cols(), canvas.Rows())
	}

	// Second render of the same frame is served from the cache
	if err := r.Render(&canvas, v); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if len(r.avatars) != 1 {
		t.Errorf("avatar cache: got %d entries", len(r.avatars))
	}

	// Top bar is filled with the state colour (BGR)
	c := StateColors[focus.Distracted]
	px := canvas.GetVecbAt(5, 5)
	if px[0] != c.B || px[1] != c.G || px[2] != c.R {
		t.Errorf("top bar pixel: got %v, want BGR(%d,%d,%d)", px, c.B, c.G, c.R)
	}
}

func TestRenderer_NoFrame(t *testing.T) {
	r := NewRenderer()
	defer r.Close()
	canvas := NewCanvas()
	defer canvas.Close()

	if err := r.Render(&canvas, monitor.View{State: focus.Inactive}); err != nil {
		t.Fatalf("Render without frame failed: %v", err)
	}
}

func TestRenderSummary(t *testing.T) {
	canvas := NewCanvas()
	defer canvas.Close()

	c, _ := focus.New(focus.DefaultTolerances())
	RenderSummary(&canvas, monitor.Report{Summary: c.Summary()})
	if canvas.Empty() {
		t.Error("canvas should not be empty")
	}
}

func TestHeadless(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	h := NewHeadless(logger)
	h.StatusEvery = 2

	for _, st := range []focus.State{focus.Inactive, focus.Inactive, focus.Engaged} {
		key, err := h.Show(monitor.View{State: st})
		if err != nil || key != monitor.KeyNone {
			t.Fatalf("Show: key=%v err=%v", key, err)
		}
	}
	if h.Frames() != 3 {
		t.Errorf("Frames: got %d", h.Frames())
	}

	c, _ := focus.New(focus.DefaultTolerances())
	c.Calibrate(0, 0, 0)
	if err := h.ShowSummary(context.Background(), monitor.Report{Summary: c.Summary()}); err != nil {
		t.Fatalf("ShowSummary failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"state=INACTIVE", "state=ENGAGED", "msg=status", "ENGAGED: 0.0%"} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q:\n%s", want, out)
		}
	}
}

func TestWaitForKey(t *testing.T) {
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	t.Run("key while running", func(t *testing.T) {
		polls := 0
		waitForKey(context.Background(), time.Hour, func() bool {
			polls++
			return polls == 3
		})
		if polls != 3 {
			t.Errorf("polls: got %d, want 3", polls)
		}
	})

	t.Run("key after cancel", func(t *testing.T) {
		polls := 0
		waitForKey(cancelled, time.Hour, func() bool {
			polls++
			return polls == 5
		})
		if polls != 5 {
			t.Errorf("summary should stay up after cancel: %d polls", polls)
		}
	})

	t.Run("grace expires", func(t *testing.T) {
		start := time.Now()
		waitForKey(cancelled, 50*time.Millisecond, func() bool {
			time.Sleep(5 * time.Millisecond)
			return false
		})
		if d := time.Since(start); d < 50*time.Millisecond || d > 2*time.Second {
			t.Errorf("waited %v, want about 50ms", d)
		}
	})
}
