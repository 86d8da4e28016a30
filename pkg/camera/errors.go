package camera

import "errors"

var (
	// ErrDeviceUnavailable is returned when the capture device cannot be opened.
	ErrDeviceUnavailable = errors.New("capture device unavailable")

	// ErrReadFailed is returned when the device stops delivering frames.
	ErrReadFailed = errors.New("capture read failed")

	// ErrClosed is returned when reading from a closed device.
	ErrClosed = errors.New("capture device closed")
)
