package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/teslashibe/poliscope/internal/config"
	"github.com/teslashibe/poliscope/pkg/animation"
	"github.com/teslashibe/poliscope/pkg/audio"
	"github.com/teslashibe/poliscope/pkg/camera"
	"github.com/teslashibe/poliscope/pkg/focus"
	"github.com/teslashibe/poliscope/pkg/landmark"
	"github.com/teslashibe/poliscope/pkg/landmark/yunet"
	"github.com/teslashibe/poliscope/pkg/monitor"
	"github.com/teslashibe/poliscope/pkg/publish"
	"github.com/teslashibe/poliscope/pkg/sim"
	"github.com/teslashibe/poliscope/pkg/ui"
	"github.com/teslashibe/poliscope/pkg/vision"
	"github.com/teslashibe/poliscope/pkg/web"
)

const mockFPS = 30

// app owns every component of one run and closes them in reverse order.
type app struct {
	cfg     config.Config
	logger  *slog.Logger
	closers []io.Closer

	monitor *monitor.Monitor
	tracker *vision.Tracker
	player  *audio.ExecPlayer
	keys    []<-chan monitor.Key
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func (a *app) onClose(c io.Closer) {
	a.closers = append(a.closers, c)
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// newApp builds the monitor and its optional outputs. A camera that cannot be
// opened is fatal; missing assets and unreachable outputs only degrade the run.
func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (_ *app, err error) {
	a := &app{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	sensor, err := a.newSensor()
	if err != nil {
		return nil, err
	}

	var display monitor.Display
	if cfg.Headless {
		display = ui.NewHeadless(logger)
	} else {
		display = ui.NewWindow(logger)
	}
	a.onClose(display)

	clips := animation.LoadSet(cfg.AnimationDir, logger)

	m, err := monitor.New(sensor, display, a.newCues(), monitor.Options{
		Tolerances: focus.DefaultTolerances(),
		Animation:  cfg.Animation(),
		Clips:      clips,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}
	a.monitor = m

	if cfg.DashboardAddr != "" {
		srv := web.NewServer(cfg.DashboardAddr, logger)
		m.AddObserver(srv)
		a.keys = append(a.keys, srv.Keys())
		if a.tracker != nil {
			a.tracker.FrameSink = srv.SendCameraFrame
		}
		if a.player != nil {
			srv.TrackCues(a.player.Playing)
			a.player.OnPlaybackStart = srv.CueStarted
			a.player.OnPlaybackEnd = srv.CueEnded
		}

		// A quit key ends Run without cancelling ctx
		dctx, stop := context.WithCancel(ctx)
		done := srv.StartAsync(dctx)
		a.onClose(closerFunc(func() error {
			stop()
			<-done
			return nil
		}))
	}

	if cfg.MQTTBroker != "" {
		pub, err := publish.Connect(cfg.MQTTBroker, "poliscope-"+m.Session(), cfg.MQTTPrefix, logger)
		if err != nil {
			logger.Warn("MQTT disabled", "error", err)
		} else {
			m.AddObserver(pub)
			a.onClose(pub)
		}
	}

	if keys := mergeKeys(ctx, a.keys...); keys != nil {
		m.SetRemoteKeys(keys)
	}
	return a, nil
}

func (a *app) newSensor() (monitor.Sensor, error) {
	if a.cfg.Mock {
		return a.newMockSensor(), nil
	}

	dev, err := camera.Open(a.cfg.Camera(), a.logger)
	if err != nil {
		return nil, fmt.Errorf("open camera %d: %w", a.cfg.CameraDevice, err)
	}
	a.onClose(dev)

	provider, err := newProvider(a.cfg.Landmark(), a.logger)
	if err != nil {
		return nil, err
	}

	a.tracker = vision.NewTracker(dev, provider, a.logger)
	a.onClose(provider)
	return a.tracker, nil
}

func (a *app) newMockSensor() monitor.Sensor {
	interval := time.Second / mockFPS
	a.logger.Info("using synthetic sensor", "script", a.cfg.MockScript, "fps", mockFPS)
	if a.cfg.MockScript == config.MockWander {
		w := sim.NewWander(interval, time.Now().UnixNano())
		a.onClose(w)
		return w
	}
	s := sim.NewScripted(sim.Demo(mockFPS), sim.WithInterval(interval), sim.WithLoop())
	a.keys = append(a.keys, s.Keys())
	a.onClose(s)
	return s
}

func (a *app) newCues() monitor.Cues {
	player, err := audio.New(audio.Config{
		Dir:     a.cfg.AudioDir,
		Command: strings.Fields(a.cfg.AudioCmd),
	}, a.logger)
	if err != nil {
		a.logger.Warn("audio cues disabled", "error", err)
		return audio.Silent{Logger: a.logger}
	}
	a.onClose(player)
	a.player = player
	return player
}

func newProvider(cfg landmark.Config, logger *slog.Logger) (landmark.Provider, error) {
	switch cfg.Backend {
	case landmark.BackendYuNet:
		return yunet.New(cfg)
	case landmark.BackendMesh:
		return landmark.NewMeshWorker(cfg, logger)
	default:
		return nil, fmt.Errorf("%w: %q", landmark.ErrUnknownBackend, cfg.Backend)
	}
}

// mergeKeys fans several key channels into one. It returns nil for no input.
func mergeKeys(ctx context.Context, chans ...<-chan monitor.Key) <-chan monitor.Key {
	switch len(chans) {
	case 0:
		return nil
	case 1:
		return chans[0]
	}
	out := make(chan monitor.Key, 8)
	for _, ch := range chans {
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case k, ok := <-ch:
					if !ok {
						return
					}
					select {
					case out <- k:
					case <-ctx.Done():
						return
					}
				}
			}
		}()
	}
	return out
}

// Run runs the session and returns its summary.
func (a *app) Run(ctx context.Context) (monitor.Report, error) {
	report, err := a.monitor.Run(ctx)
	if a.tracker != nil {
		a.logger.Info("capture finished", "frames", report.Frames, "detect_errors", a.tracker.DetectErrors())
	}
	return report, err
}
