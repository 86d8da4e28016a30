package ui

import (
	"context"
	"log/slog"

	"github.com/teslashibe/poliscope/pkg/focus"
	"github.com/teslashibe/poliscope/pkg/monitor"
)

// Headless is a monitor.Display without a screen. It logs state changes and the
// summary, and never produces keys; quit comes from signals or the dashboard.
type Headless struct {
	Logger *slog.Logger

	// StatusEvery logs a status line every n frames (0 disables).
	StatusEvery int

	frames int
	last   focus.State
	seen   bool
}

// NewHeadless creates a headless display.
func NewHeadless(logger *slog.Logger) *Headless {
	if logger == nil {
		logger = slog.Default()
	}
	return &Headless{Logger: logger, StatusEvery: 300}
}

// Show records the view.
func (h *Headless) Show(v monitor.View) (monitor.Key, error) {
	h.frames++
	if !h.seen || v.State != h.last {
		h.Logger.Info("display state", "state", v.State, "explanation", StateExplanation[v.State])
		h.last, h.seen = v.State, true
	}
	if h.StatusEvery > 0 && h.frames%h.StatusEvery == 0 {
		h.Logger.Info("status",
			"state", v.State,
			"session", FormatElapsed(v.Elapsed),
			"calibrated", v.Calibrated,
			"focus", v.FocusLevel)
	}
	return monitor.KeyNone, nil
}

// Frames returns the number of views shown.
func (h *Headless) Frames() int {
	return h.frames
}

// ShowSummary logs the summary lines.
func (h *Headless) ShowSummary(ctx context.Context, r monitor.Report) error {
	h.Logger.Info("Session Summary", "session", r.Session, "frames", r.Frames, "duration", FormatElapsed(r.Duration))
	for _, line := range r.Summary.Lines() {
		h.Logger.Info(line)
	}
	return nil
}

// Close is a no-op.
func (h *Headless) Close() error { return nil }
