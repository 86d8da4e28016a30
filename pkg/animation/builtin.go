package animation

import (
	"image"
	"image/color"
	"math"
	"time"

	"github.com/teslashibe/poliscope/pkg/focus"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// BuiltinSize is the edge length of the procedurally drawn avatar.
const BuiltinSize = 320

const builtinFrames = 12

var (
	avatarBody   = color.RGBA{60, 64, 72, 255}
	avatarFace   = color.RGBA{24, 26, 30, 255}
	avatarShadow = color.RGBA{18, 18, 18, 255}
)

// eye colour per state, RGB
var avatarEyes = map[focus.State]color.RGBA{
	focus.Engaged:    {120, 230, 140, 255},
	focus.Distracted: {240, 190, 90, 255},
	focus.Inactive:   {120, 130, 150, 255},
}

var avatarCaptions = map[focus.State]string{
	focus.Engaged:    "focused",
	focus.Distracted: "hey, over here",
	focus.Inactive:   "z z z",
}

// Builtin draws the companion avatar for a state. It is used when no GIF asset is
// available and by the export-avatars command.
func Builtin(state focus.State) *Clip {
	clip := &Clip{
		Name:   "builtin-" + state.String(),
		Frames: make([]image.Image, 0, builtinFrames),
		Delays: make([]time.Duration, 0, builtinFrames),
	}
	for i := 0; i < builtinFrames; i++ {
		clip.Frames = append(clip.Frames, drawAvatar(state, i))
		clip.Delays = append(clip.Delays, DefaultFrameDelay)
	}
	return clip
}

func drawAvatar(state focus.State, frame int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, BuiltinSize, BuiltinSize))
	draw.Draw(img, img.Bounds(), image.NewUniform(avatarShadow), image.Point{}, draw.Src)

	phase := float64(frame) / builtinFrames * 2 * math.Pi
	bob := 0
	if state != focus.Inactive {
		bob = int(math.Round(4 * math.Sin(phase)))
	}

	// Head and antenna
	fillRect(img, image.Rect(60, 70+bob, 260, 250+bob), avatarBody)
	fillRect(img, image.Rect(80, 90+bob, 240, 230+bob), avatarFace)
	fillRect(img, image.Rect(157, 40+bob, 163, 70+bob), avatarBody)
	fillCircle(img, 160, 36+bob, 8, avatarEyes[state])

	eye := avatarEyes[state]
	leftX, rightX, eyeY := 125, 195, 150+bob

	switch state {
	case focus.Engaged:
		if frame == builtinFrames/2 {
			// Blink
			fillRect(img, image.Rect(leftX-16, eyeY-2, leftX+16, eyeY+2), eye)
			fillRect(img, image.Rect(rightX-16, eyeY-2, rightX+16, eyeY+2), eye)
		} else {
			fillCircle(img, leftX, eyeY, 16, eye)
			fillCircle(img, rightX, eyeY, 16, eye)
		}
		fillRect(img, image.Rect(135, 195+bob, 185, 200+bob), eye)

	case focus.Distracted:
		// Pupils glance left and right
		shift := int(math.Round(8 * math.Sin(phase)))
		fillCircle(img, leftX, eyeY, 16, eye)
		fillCircle(img, rightX, eyeY, 16, eye)
		fillCircle(img, leftX+shift, eyeY, 6, avatarFace)
		fillCircle(img, rightX+shift, eyeY, 6, avatarFace)
		fillRect(img, image.Rect(140, 198+bob, 180, 202+bob), eye)

	case focus.Inactive:
		fillRect(img, image.Rect(leftX-16, eyeY-2, leftX+16, eyeY+2), eye)
		fillRect(img, image.Rect(rightX-16, eyeY-2, rightX+16, eyeY+2), eye)
		fillRect(img, image.Rect(150, 198, 170, 201), eye)
	}

	drawCaption(img, avatarCaptions[state], frame, state, eye)
	return img
}

func drawCaption(img *image.RGBA, text string, frame int, state focus.State, c color.RGBA) {
	if state == focus.Inactive {
		// Reveal the z's one at a time
		n := (frame/3)%3 + 1
		text = text[:2*n-1]
	}

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
	}
	width := d.MeasureString(text).Ceil()
	d.Dot = fixed.P((BuiltinSize-width)/2, 290)
	d.DrawString(text)
}

func fillRect(img *image.RGBA, r image.Rectangle, c color.Color) {
	draw.Draw(img, r, image.NewUniform(c), image.Point{}, draw.Src)
}

func fillCircle(img *image.RGBA, cx, cy, r int, c color.RGBA) {
	for y := cy - r; y <= cy+r; y++ {
		for x := cx - r; x <= cx+r; x++ {
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= r*r {
				img.SetRGBA(x, y, c)
			}
		}
	}
}
