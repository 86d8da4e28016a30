// Package camera opens the local capture device and yields mirrored BGR frames.
package camera

import "fmt"

// Config holds capture device parameters.
type Config struct {
	DeviceID   int  `json:"device_id"`   // OS device index (0 = default webcam)
	Width      int  `json:"width"`       // Requested frame width in pixels
	Height     int  `json:"height"`      // Requested frame height in pixels
	Framerate  int  `json:"framerate"`   // Requested FPS (0 = driver default)
	Quality    int  `json:"quality"`     // JPEG quality 1-100 for encoded frames
	Mirror     bool `json:"mirror"`      // Flip horizontally so the preview acts as a mirror
	BufferSize int  `json:"buffer_size"` // Driver frame queue (1 keeps latency low)
}

// Capture limits accepted by Validate.
const (
	MinWidth  = 160
	MinHeight = 120
	MaxWidth  = 3840
	MaxHeight = 2160
)

// DefaultConfig returns the recommended webcam configuration.
// 640x480 keeps landmark detection well above display rate on a laptop CPU.
func DefaultConfig() Config {
	return Config{
		DeviceID:   0,
		Width:      640,
		Height:     480,
		Framerate:  30,
		Quality:    80,
		Mirror:     true,
		BufferSize: 1,
	}
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	if c.DeviceID < 0 {
		errors = append(errors, "device_id must not be negative")
	}
	if c.Width < MinWidth || c.Width > MaxWidth {
		errors = append(errors, fmt.Sprintf("width must be between %d and %d", MinWidth, MaxWidth))
	}
	if c.Height < MinHeight || c.Height > MaxHeight {
		errors = append(errors, fmt.Sprintf("height must be between %d and %d", MinHeight, MaxHeight))
	}
	if c.Framerate < 0 || c.Framerate > 120 {
		errors = append(errors, "framerate must be between 0 and 120")
	}
	if c.Quality < 1 || c.Quality > 100 {
		errors = append(errors, "quality must be between 1 and 100")
	}
	if c.BufferSize < 0 {
		errors = append(errors, "buffer_size must not be negative")
	}

	return errors
}
