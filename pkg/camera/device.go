package camera

import (
	"fmt"
	"log/slog"
	"sync"

	"gocv.io/x/gocv"
)

// Frame is one captured BGR image. The caller owns it and must Close it.
type Frame struct {
	Mat     gocv.Mat
	quality int
}

// NewFrame wraps an existing Mat. The frame takes ownership of mat.
func NewFrame(mat gocv.Mat, quality int) *Frame {
	return &Frame{Mat: mat, quality: quality}
}

// Width returns the frame width in pixels.
func (f *Frame) Width() int { return f.Mat.Cols() }

// Height returns the frame height in pixels.
func (f *Frame) Height() int { return f.Mat.Rows() }

// JPEG encodes the frame.
func (f *Frame) JPEG() ([]byte, error) {
	quality := f.quality
	if quality <= 0 {
		quality = DefaultConfig().Quality
	}
	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, f.Mat, []int{gocv.IMWriteJpegQuality, quality})
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	// GetBytes aliases C memory released by Close
	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}

// Close releases the underlying Mat.
func (f *Frame) Close() error {
	return f.Mat.Close()
}

// Device is an open capture device.
type Device struct {
	mu     sync.Mutex
	cap    *gocv.VideoCapture
	config Config
	raw    gocv.Mat
	closed bool
	logger *slog.Logger
}

// Open opens the capture device described by cfg.
func Open(cfg Config, logger *slog.Logger) (*Device, error) {
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("camera config: %v", errs)
	}
	if logger == nil {
		logger = slog.Default()
	}

	vc, err := gocv.OpenVideoCapture(cfg.DeviceID)
	if err != nil {
		return nil, fmt.Errorf("%w: device %d: %v", ErrDeviceUnavailable, cfg.DeviceID, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("%w: device %d", ErrDeviceUnavailable, cfg.DeviceID)
	}

	vc.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	if cfg.Framerate > 0 {
		vc.Set(gocv.VideoCaptureFPS, float64(cfg.Framerate))
	}
	if cfg.BufferSize > 0 {
		vc.Set(gocv.VideoCaptureBufferSize, float64(cfg.BufferSize))
	}

	logger.Info("camera opened",
		"device", cfg.DeviceID,
		"width", int(vc.Get(gocv.VideoCaptureFrameWidth)),
		"height", int(vc.Get(gocv.VideoCaptureFrameHeight)),
		"mirror", cfg.Mirror)

	return &Device{
		cap:    vc,
		config: cfg,
		raw:    gocv.NewMat(),
		logger: logger,
	}, nil
}

// Config returns the configuration the device was opened with.
func (d *Device) Config() Config {
	return d.config
}

// Read blocks until the next frame is available.
func (d *Device) Read() (*Frame, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, ErrClosed
	}
	if ok := d.cap.Read(&d.raw); !ok || d.raw.Empty() {
		return nil, ErrReadFailed
	}

	out := gocv.NewMat()
	if d.config.Mirror {
		gocv.Flip(d.raw, &out, 1)
	} else {
		d.raw.CopyTo(&out)
	}
	return NewFrame(out, d.config.Quality), nil
}

// Close releases the device. It is safe to call Close multiple times.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true
	d.raw.Close()
	return d.cap.Close()
}
