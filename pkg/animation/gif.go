package animation

import (
	"fmt"
	"image"
	"image/color/palette"
	"image/gif"
	"io"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/image/draw"
)

// LoadGIF loads every frame of a GIF file.
func LoadGIF(path string) (*Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open animation: %w", err)
	}
	defer f.Close()

	clip, err := DecodeGIF(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	clip.Name = filepath.Base(path)
	return clip, nil
}

// DecodeGIF decodes a GIF stream into a clip.
//
// GIF frames may only cover part of the logical screen, so each frame is composited
// onto a full-size canvas honouring the previous frame's disposal method.
func DecodeGIF(r io.Reader) (*Clip, error) {
	g, err := gif.DecodeAll(r)
	if err != nil {
		return nil, fmt.Errorf("decode gif: %w", err)
	}
	if len(g.Image) == 0 {
		return nil, ErrNoFrames
	}

	bounds := image.Rect(0, 0, g.Config.Width, g.Config.Height)
	if bounds.Empty() {
		bounds = g.Image[0].Bounds()
	}

	canvas := image.NewRGBA(bounds)
	clip := &Clip{
		Frames: make([]image.Image, 0, len(g.Image)),
		Delays: make([]time.Duration, 0, len(g.Image)),
	}

	for i, frame := range g.Image {
		var saved *image.RGBA
		disposal := byte(0)
		if i < len(g.Disposal) {
			disposal = g.Disposal[i]
		}
		if disposal == gif.DisposalPrevious {
			saved = cloneRGBA(canvas)
		}

		draw.Draw(canvas, frame.Bounds(), frame, frame.Bounds().Min, draw.Over)
		clip.Frames = append(clip.Frames, cloneRGBA(canvas))

		delay := DefaultFrameDelay
		if i < len(g.Delay) && g.Delay[i] > 0 {
			delay = time.Duration(g.Delay[i]) * 10 * time.Millisecond
		}
		clip.Delays = append(clip.Delays, delay)

		switch disposal {
		case gif.DisposalBackground:
			draw.Draw(canvas, frame.Bounds(), image.Transparent, image.Point{}, draw.Src)
		case gif.DisposalPrevious:
			canvas = saved
		}
	}

	return clip, nil
}

// EncodeGIF writes the clip as a looping GIF using the Plan 9 palette.
func EncodeGIF(w io.Writer, clip *Clip) error {
	if err := clip.Validate(); err != nil {
		return err
	}

	out := &gif.GIF{LoopCount: 0}
	for i, frame := range clip.Frames {
		b := frame.Bounds()
		p := image.NewPaletted(b, palette.Plan9)
		draw.FloydSteinberg.Draw(p, b, frame, b.Min)
		out.Image = append(out.Image, p)
		out.Delay = append(out.Delay, int(clip.Delay(i)/(10*time.Millisecond)))
	}
	return gif.EncodeAll(w, out)
}

// SaveGIF writes the clip to path.
func SaveGIF(path string, clip *Clip) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := EncodeGIF(f, clip); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

func cloneRGBA(src *image.RGBA) *image.RGBA {
	dst := image.NewRGBA(src.Bounds())
	copy(dst.Pix, src.Pix)
	return dst
}
