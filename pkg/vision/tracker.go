// Package vision turns camera frames into pose observations for the monitor.
package vision

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/teslashibe/poliscope/pkg/camera"
	"github.com/teslashibe/poliscope/pkg/debug"
	"github.com/teslashibe/poliscope/pkg/landmark"
	"github.com/teslashibe/poliscope/pkg/monitor"
	"github.com/teslashibe/poliscope/pkg/pose"
	"gocv.io/x/gocv"
)

// FrameSource is a capture device. Read blocks until a frame is available.
type FrameSource interface {
	Read() (*camera.Frame, error)
	Close() error
}

// MatDetector is implemented by providers that can detect on a decoded frame
// directly, skipping the JPEG round trip.
type MatDetector interface {
	DetectMat(img gocv.Mat) (*landmark.Face, error)
}

// Tracker combines a frame source and a landmark provider into a monitor.Sensor.
type Tracker struct {
	source   FrameSource
	provider landmark.Provider
	logger   *slog.Logger

	// FrameSink, if set, receives every SinkEvery-th frame as JPEG (dashboard preview).
	// It is called on the loop goroutine and must not block.
	FrameSink func(jpeg []byte)
	SinkEvery int

	frames       int
	detectErrors int
}

// NewTracker creates a tracker. It owns source and provider and closes both.
func NewTracker(source FrameSource, provider landmark.Provider, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		source:    source,
		provider:  provider,
		logger:    logger,
		SinkEvery: 3,
	}
}

// Next captures a frame and derives its pose. A failed detection is logged and
// treated as "no face"; only capture failures are returned as errors.
func (t *Tracker) Next(ctx context.Context) (monitor.Observation, error) {
	if err := ctx.Err(); err != nil {
		return monitor.Observation{}, err
	}

	frame, err := t.source.Read()
	if err != nil {
		return monitor.Observation{}, fmt.Errorf("capture: %w", err)
	}
	t.frames++

	face, err := t.detect(frame)
	if err != nil {
		t.detectErrors++
		if t.detectErrors == 1 || t.detectErrors%100 == 0 {
			t.logger.Warn("landmark detection failed", "error", err, "count", t.detectErrors)
		}
		face = nil
	}

	sample := pose.FromFace(face)
	debug.FrameLog("pose", "frame", t.frames, "sample", sample.String())

	if t.FrameSink != nil && t.SinkEvery > 0 && t.frames%t.SinkEvery == 0 {
		if jpeg, err := frame.JPEG(); err == nil {
			t.FrameSink(jpeg)
		}
	}

	return monitor.Observation{Sample: sample, Face: face, Frame: frame}, nil
}

func (t *Tracker) detect(frame *camera.Frame) (*landmark.Face, error) {
	if md, ok := t.provider.(MatDetector); ok {
		return md.DetectMat(frame.Mat)
	}
	jpeg, err := frame.JPEG()
	if err != nil {
		return nil, err
	}
	return t.provider.Detect(jpeg)
}

// DetectErrors returns the number of frames whose detection failed.
func (t *Tracker) DetectErrors() int {
	return t.detectErrors
}

// Close releases the provider and the frame source.
func (t *Tracker) Close() error {
	perr := t.provider.Close()
	serr := t.source.Close()
	if perr != nil {
		return perr
	}
	return serr
}
