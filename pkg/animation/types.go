// Package animation provides the companion avatar animations shown next to the camera.
//
// Each attention state has a Clip: an ordered sequence of frames with per-frame display
// durations. Clips are loaded from GIF files, or drawn procedurally when no asset is
// available. A Timeline advances the active clip against wall-clock time.
package animation

import (
	"fmt"
	"image"
	"time"

	"golang.org/x/image/draw"
)

// DefaultFrameDelay is used for GIF frames that carry no delay.
const DefaultFrameDelay = 100 * time.Millisecond

// Clip is a playable animation.
type Clip struct {
	// Name identifies the clip in logs (usually the file name).
	Name string

	// Frames are fully composited images, all the same size.
	Frames []image.Image

	// Delays holds the display duration of each frame.
	Delays []time.Duration
}

// Len returns the number of frames.
func (c *Clip) Len() int {
	return len(c.Frames)
}

// Duration returns the length of one pass through the clip.
func (c *Clip) Duration() time.Duration {
	var total time.Duration
	for _, d := range c.Delays {
		total += d
	}
	return total
}

// Bounds returns the frame bounds, or an empty rectangle for an empty clip.
func (c *Clip) Bounds() image.Rectangle {
	if len(c.Frames) == 0 {
		return image.Rectangle{}
	}
	return c.Frames[0].Bounds()
}

// Delay returns the display duration of frame i, falling back to DefaultFrameDelay.
func (c *Clip) Delay(i int) time.Duration {
	if i < 0 || i >= len(c.Delays) || c.Delays[i] <= 0 {
		return DefaultFrameDelay
	}
	return c.Delays[i]
}

// Validate checks that the clip has frames and one delay per frame.
func (c *Clip) Validate() error {
	if len(c.Frames) == 0 {
		return fmt.Errorf("%w: %s", ErrNoFrames, c.Name)
	}
	if len(c.Delays) != len(c.Frames) {
		return fmt.Errorf("clip %s: %d frames but %d delays", c.Name, len(c.Frames), len(c.Delays))
	}
	return nil
}

// Scaled returns a copy of the clip resized to w x h with Catmull-Rom resampling.
func (c *Clip) Scaled(w, h int) *Clip {
	out := &Clip{
		Name:   c.Name,
		Frames: make([]image.Image, len(c.Frames)),
		Delays: append([]time.Duration(nil), c.Delays...),
	}
	for i, src := range c.Frames {
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
		out.Frames[i] = dst
	}
	return out
}
