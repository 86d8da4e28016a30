package ui

import (
	"context"
	"log/slog"
	"time"

	"github.com/teslashibe/poliscope/pkg/monitor"
	"gocv.io/x/gocv"
)

// WindowTitle is the title of the monitor window.
const WindowTitle = "Poliscope"

// Window is a monitor.Display backed by a HighGUI window.
// All methods must be called from the goroutine that created it.
type Window struct {
	win      *gocv.Window
	canvas   gocv.Mat
	renderer *Renderer
	logger   *slog.Logger
}

// NewWindow opens the monitor window.
func NewWindow(logger *slog.Logger) *Window {
	if logger == nil {
		logger = slog.Default()
	}
	win := gocv.NewWindow(WindowTitle)
	win.ResizeWindow(WindowW, WindowH)

	return &Window{
		win:      win,
		canvas:   NewCanvas(),
		renderer: NewRenderer(),
		logger:   logger,
	}
}

// Show renders the view and polls the keyboard for one millisecond.
// Closing the window counts as quit.
func (w *Window) Show(v monitor.View) (monitor.Key, error) {
	if err := w.renderer.Render(&w.canvas, v); err != nil {
		return monitor.KeyNone, err
	}
	w.win.IMShow(w.canvas)

	key := MapKey(w.win.WaitKey(1))
	if key == monitor.KeyNone && !w.win.IsOpen() {
		return monitor.KeyQuit, nil
	}
	return key, nil
}

// summaryGrace is how long the summary stays up once ctx has ended.
const summaryGrace = 10 * time.Second

// ShowSummary renders the summary screen and waits for any key or the window
// to be closed. After ctx ends it waits at most summaryGrace more.
func (w *Window) ShowSummary(ctx context.Context, r monitor.Report) error {
	RenderSummary(&w.canvas, r)
	w.win.IMShow(w.canvas)

	waitForKey(ctx, summaryGrace, func() bool {
		return w.win.WaitKey(100) >= 0 || !w.win.IsOpen()
	})
	return nil
}

// waitForKey calls poll until it reports true, or until grace has passed
// since ctx ended.
func waitForKey(ctx context.Context, grace time.Duration, poll func() bool) {
	var deadline time.Time
	for !poll() {
		if ctx.Err() == nil {
			continue
		}
		if deadline.IsZero() {
			deadline = time.Now().Add(grace)
		}
		if !time.Now().Before(deadline) {
			return
		}
	}
}

// Close destroys the window and frees the canvas.
func (w *Window) Close() error {
	w.renderer.Close()
	w.canvas.Close()
	return w.win.Close()
}
