// Package web serves the live focus dashboard: a small HTTP API for the current
// status and session summary, remote calibrate/overlay/quit controls, and websocket
// streams of status snapshots, loop events and camera frames.
package web

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"github.com/teslashibe/poliscope/pkg/focus"
	"github.com/teslashibe/poliscope/pkg/hub"
	"github.com/teslashibe/poliscope/pkg/monitor"
	"github.com/teslashibe/poliscope/pkg/pose"
)

//go:embed static/index.html
var indexHTML []byte

const (
	historySize = 100
	keyBuffer   = 8
)

// Status is the dashboard's snapshot of the running session.
type Status struct {
	Session    string          `json:"session"`
	Running    bool            `json:"running"`
	State      focus.State     `json:"state"`
	Calibrated bool            `json:"calibrated"`
	Baseline   *focus.Baseline `json:"baseline,omitempty"`
	FocusLevel float64         `json:"focus_level"`
	Sample     pose.Sample     `json:"sample"`
	Frames     int             `json:"frames"`
	Cue        string          `json:"cue,omitempty"`
	CuePlaying bool            `json:"cue_playing"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Server is the dashboard. It implements monitor.Observer; Observe never blocks.
type Server struct {
	app    *fiber.App
	addr   string
	logger *slog.Logger

	mu      sync.RWMutex
	status  Status
	report  *monitor.Report
	history []monitor.Event
	playing func() bool

	statusHub *hub.Hub
	eventHub  *hub.Hub
	cameraHub *hub.Hub

	keys chan monitor.Key

	// StatusEvery throttles frame-driven status broadcasts to every n-th frame.
	// Transitions and calibrations are always broadcast.
	StatusEvery int
}

// NewServer creates a dashboard that will listen on addr (e.g. ":8080").
func NewServer(addr string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "web")

	s := &Server{
		addr:        addr,
		logger:      logger,
		status:      Status{State: focus.Inactive},
		statusHub:   hub.New("status", logger),
		eventHub:    hub.New("events", logger),
		cameraHub:   hub.New("camera", logger),
		keys:        make(chan monitor.Key, keyBuffer),
		StatusEvery: 5,
	}

	app := fiber.New(fiber.Config{
		AppName:               "Poliscope",
		DisableStartupMessage: true,
	})
	app.Use(cors.New())

	app.Get("/", s.handleIndex)

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/summary", s.handleSummary)
	api.Get("/events", s.handleEvents)
	api.Post("/calibrate", s.keyHandler(monitor.KeyCalibrate))
	api.Post("/overlay", s.keyHandler(monitor.KeyToggleOverlay))
	api.Post("/quit", s.keyHandler(monitor.KeyQuit))

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/status", websocket.New(s.handleStatusWS))
	app.Get("/ws/events", websocket.New(s.handleEventsWS))
	app.Get("/ws/camera", websocket.New(s.handleCameraWS))

	s.app = app
	return s
}

// App exposes the fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Keys returns remote input events for monitor.SetRemoteKeys.
func (s *Server) Keys() <-chan monitor.Key {
	return s.keys
}

// Start listens on the configured address and serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go s.statusHub.Run(ctx)
	go s.eventHub.Run(ctx)
	go s.cameraHub.Run(ctx)

	go func() {
		<-ctx.Done()
		if err := s.app.ShutdownWithTimeout(2 * time.Second); err != nil {
			s.logger.Warn("dashboard shutdown", "error", err)
		}
		// Cancelled before fiber took over ln
		ln.Close()
	}()

	s.logger.Info("dashboard listening", "addr", ln.Addr().String())
	if err := s.app.Listener(ln); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}

// StartAsync runs Start in a goroutine and logs its failure. The returned
// channel is closed once the server has stopped.
func (s *Server) StartAsync(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := s.Start(ctx); err != nil {
			s.logger.Error("dashboard stopped", "error", err)
		}
	}()
	return done
}

// Observe implements monitor.Observer.
func (s *Server) Observe(e monitor.Event) {
	s.mu.Lock()
	st := &s.status
	st.Session = e.Session
	st.UpdatedAt = e.At
	st.Frames = e.Frame
	st.State = e.State

	broadcast := true
	switch e.Kind {
	case monitor.EventFrame:
		st.Running = true
		st.Sample = e.Sample
		st.FocusLevel = e.FocusLevel
		st.Calibrated = e.Calibrated
		broadcast = s.StatusEvery <= 1 || e.Frame%s.StatusEvery == 0
	case monitor.EventCalibrated:
		st.Calibrated = true
		st.Baseline = e.Baseline
	case monitor.EventSummary:
		st.Running = false
		s.report = e.Report
	}
	if e.Kind != monitor.EventFrame {
		s.history = append(s.history, e)
		if len(s.history) > historySize {
			s.history = s.history[len(s.history)-historySize:]
		}
	}
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	if e.Kind != monitor.EventFrame {
		if err := s.eventHub.BroadcastJSON(e); err != nil {
			s.logger.Warn("encode event", "error", err)
		}
	}
	if broadcast {
		s.broadcastStatus(snapshot)
	}
}

// SendCameraFrame broadcasts a JPEG to camera viewers. Use it as the tracker's
// FrameSink.
func (s *Server) SendCameraFrame(jpeg []byte) {
	if s.cameraHub.ClientCount() == 0 {
		return
	}
	s.cameraHub.BroadcastBinary(jpeg)
}

// TrackCues reports audio playback on the dashboard. playing is polled for
// every snapshot; wire CueStarted and CueEnded to the player's callbacks.
func (s *Server) TrackCues(playing func() bool) {
	s.mu.Lock()
	s.playing = playing
	s.mu.Unlock()
}

// CueStarted records the cue for state and broadcasts the status.
func (s *Server) CueStarted(state focus.State) {
	s.mu.Lock()
	s.status.Cue = state.String()
	snapshot := s.snapshotLocked()
	s.mu.Unlock()
	s.broadcastStatus(snapshot)
}

// CueEnded broadcasts the status once a cue has finished or was interrupted.
func (s *Server) CueEnded(focus.State) {
	s.broadcastStatus(s.Status())
}

func (s *Server) broadcastStatus(st Status) {
	if err := s.statusHub.BroadcastJSON(st); err != nil {
		s.logger.Warn("encode status", "error", err)
	}
}

// Status returns the current snapshot.
func (s *Server) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// snapshotLocked copies the status (must hold mu).
func (s *Server) snapshotLocked() Status {
	st := s.status
	if s.playing != nil {
		st.CuePlaying = s.playing()
	}
	return st
}

// Report returns the session summary, once the session has ended.
func (s *Server) Report() (monitor.Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.report == nil {
		return monitor.Report{}, false
	}
	return *s.report, true
}

// Events returns the recent non-frame events, oldest first.
func (s *Server) Events() []monitor.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]monitor.Event, len(s.history))
	copy(out, s.history)
	return out
}

// pushKey queues a remote key; it reports false when the queue is full.
func (s *Server) pushKey(k monitor.Key) bool {
	select {
	case s.keys <- k:
		return true
	default:
		return false
	}
}

func (s *Server) statusMessage() (hub.Message, error) {
	data, err := json.Marshal(s.Status())
	if err != nil {
		return hub.Message{}, err
	}
	return hub.NewJSONMessage(data), nil
}
