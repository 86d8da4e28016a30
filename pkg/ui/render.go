package ui

import (
	"fmt"
	"image"
	"image/color"
	"time"

	"github.com/teslashibe/poliscope/pkg/focus"
	"github.com/teslashibe/poliscope/pkg/landmark"
	"github.com/teslashibe/poliscope/pkg/monitor"
	"gocv.io/x/gocv"
)

// eyeBoxPad widens the eye boxes by this fraction of their size on each side.
const eyeBoxPad = 0.6

// Renderer draws views onto a canvas Mat. Avatar frames are converted, scaled and
// dimmed once and cached by AvatarKey.
type Renderer struct {
	layout  Layout
	avatars map[monitor.AvatarKey]gocv.Mat
}

// NewRenderer creates a renderer for the default layout.
func NewRenderer() *Renderer {
	return &Renderer{
		layout:  DefaultLayout(),
		avatars: make(map[monitor.AvatarKey]gocv.Mat),
	}
}

// NewCanvas allocates a window-sized BGR canvas.
func NewCanvas() gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(scalar(bgColor), WindowH, WindowW, gocv.MatTypeCV8UC3)
}

// Render draws v onto canvas, which must be WindowH x WindowW BGR.
func (r *Renderer) Render(canvas *gocv.Mat, v monitor.View) error {
	canvas.SetTo(scalar(bgColor))

	if err := r.drawUserPanel(canvas, v); err != nil {
		return err
	}
	if err := r.drawAvatarPanel(canvas, v); err != nil {
		return err
	}
	drawTopBar(canvas, v)
	return nil
}

func (r *Renderer) drawUserPanel(canvas *gocv.Mat, v monitor.View) error {
	panel := r.layout.UserPanel()

	if v.Frame == nil || v.Frame.Mat.Empty() {
		gocv.Rectangle(canvas, panel, panelBG, -1)
		gocv.PutText(canvas, "NO CAMERA", image.Pt(panel.Min.X+panel.Dx()/2-80, panel.Min.Y+panel.Dy()/2),
			gocv.FontHersheySimplex, 1.0, hintColor, 2)
	} else {
		resized := gocv.NewMat()
		defer resized.Close()
		gocv.Resize(v.Frame.Mat, &resized, panel.Size(), 0, 0, gocv.InterpolationLinear)

		roi := canvas.Region(panel)
		defer roi.Close()
		if err := resized.CopyTo(&roi); err != nil {
			return fmt.Errorf("draw camera panel: %w", err)
		}
	}

	if v.Overlay && v.Face != nil {
		r.drawOverlay(canvas, v.Face, panel)
		if v.Calibrated {
			drawFocusBar(canvas, panel, v.FocusLevel, v.State)
		}
	}
	return nil
}

func (r *Renderer) drawOverlay(canvas *gocv.Mat, face *landmark.Face, panel image.Rectangle) {
	toPanel := func(x, y float64) image.Point {
		return image.Pt(panel.Min.X+int(x*float64(panel.Dx())), panel.Min.Y+int(y*float64(panel.Dy())))
	}

	minX, minY, maxX, maxY := face.Bounds()
	gocv.Rectangle(canvas, image.Rectangle{Min: toPanel(minX, minY), Max: toPanel(maxX, maxY)}, overlayColor, 1)

	if len(face.Eyes) >= 2 {
		half := len(face.Eyes) / 2
		for _, eye := range [][]landmark.Point{face.Eyes[:half], face.Eyes[half:]} {
			gocv.Rectangle(canvas, eyeBox(eye, panel), overlayColor, 1)
		}
	}
}

// eyeBox returns the padded box around eye points, clipped to the panel.
func eyeBox(eye []landmark.Point, panel image.Rectangle) image.Rectangle {
	f := &landmark.Face{Points: eye}
	minX, minY, maxX, maxY := f.Bounds()

	w, h := float64(panel.Dx()), float64(panel.Dy())
	bw, bh := (maxX-minX)*w, (maxY-minY)*h
	if bw < 6 {
		bw = 6
	}
	if bh < 6 {
		bh = 6
	}

	box := image.Rect(
		panel.Min.X+int(minX*w-bw*eyeBoxPad),
		panel.Min.Y+int(minY*h-bh*eyeBoxPad),
		panel.Min.X+int(maxX*w+bw*eyeBoxPad),
		panel.Min.Y+int(maxY*h+bh*eyeBoxPad),
	)
	return box.Intersect(panel)
}

func drawFocusBar(canvas *gocv.Mat, panel image.Rectangle, level float64, state focus.State) {
	track := image.Rect(panel.Min.X+10, panel.Max.Y-22, panel.Max.X-10, panel.Max.Y-12)
	gocv.Rectangle(canvas, track, dividerColor, -1)

	fill := track
	fill.Max.X = track.Min.X + int(float64(track.Dx())*level)
	if fill.Dx() > 0 {
		gocv.Rectangle(canvas, fill, StateColors[state], -1)
	}
	gocv.PutText(canvas, fmt.Sprintf("focus %3.0f%%", level*100), image.Pt(track.Min.X, track.Min.Y-6),
		gocv.FontHersheySimplex, 0.5, textSoft, 1)
}

func (r *Renderer) drawAvatarPanel(canvas *gocv.Mat, v monitor.View) error {
	panel := r.layout.AvatarPanel()
	gocv.Rectangle(canvas, panel, panelBG, -1)

	// Divider
	gocv.Line(canvas, image.Pt(panel.Min.X-10, panel.Min.Y), image.Pt(panel.Min.X-10, panel.Max.Y), dividerColor, 1)

	if v.Avatar == nil {
		return nil
	}

	avatar, err := r.avatar(v)
	if err != nil {
		return err
	}

	roi := canvas.Region(r.layout.AvatarRect())
	defer roi.Close()
	if err := avatar.CopyTo(&roi); err != nil {
		return fmt.Errorf("draw avatar: %w", err)
	}
	return nil
}

// avatar returns the scaled, dimmed avatar Mat for the view, converting it on first use.
func (r *Renderer) avatar(v monitor.View) (gocv.Mat, error) {
	if m, ok := r.avatars[v.AvatarKey]; ok {
		return m, nil
	}

	src, err := gocv.ImageToMatRGB(v.Avatar)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("convert avatar: %w", err)
	}
	defer src.Close()

	rect := r.layout.AvatarRect()
	scaled := gocv.NewMat()
	gocv.Resize(src, &scaled, rect.Size(), 0, 0, gocv.InterpolationArea)

	if opacity := AvatarOpacity[v.AvatarKey.State]; opacity < 1 {
		black := gocv.Zeros(scaled.Rows(), scaled.Cols(), scaled.Type())
		gocv.AddWeighted(scaled, opacity, black, 1-opacity, 0, &scaled)
		black.Close()
	}

	r.avatars[v.AvatarKey] = scaled
	return scaled, nil
}

func drawTopBar(canvas *gocv.Mat, v monitor.View) {
	gocv.Rectangle(canvas, image.Rect(0, 0, WindowW, TopBarH), StateColors[v.State], -1)

	// Left
	gocv.PutText(canvas, "Poliscope", image.Pt(20, 34), gocv.FontHersheySimplex, 1.15, white, 2)
	gocv.PutText(canvas, "Behavior-Based Focus Monitor", image.Pt(20, 62), gocv.FontHersheySimplex, 0.65, textDim, 1)

	// Centre
	gocv.Circle(canvas, image.Pt(WindowW/2-120, 45), 7, white, -1)
	gocv.PutText(canvas, v.State.String(), image.Pt(WindowW/2-95, 52), gocv.FontHersheySimplex, 1.0, white, 2)
	gocv.PutText(canvas, StateExplanation[v.State], image.Pt(WindowW/2-120, 78), gocv.FontHersheySimplex, 0.55, textSoft, 1)

	// Right
	gocv.PutText(canvas, "Session "+FormatElapsed(v.Elapsed), image.Pt(WindowW-240, 34), gocv.FontHersheySimplex, 0.9, white, 2)
	status := "NOT CALIBRATED"
	if v.Calibrated {
		status = "CALIBRATED"
	}
	gocv.PutText(canvas, status, image.Pt(WindowW-240, 62), gocv.FontHersheySimplex, 0.7, textSoft, 1)
}

// RenderSummary draws the session summary screen onto canvas.
func RenderSummary(canvas *gocv.Mat, r monitor.Report) {
	canvas.SetTo(scalar(bgColor))

	gocv.PutText(canvas, "Session Summary", image.Pt(WindowW/2-180, 120), gocv.FontHersheySimplex, 1.4, white, 2)

	y := 220
	lines := r.Summary.Lines()
	for i, st := range focus.States() {
		gocv.PutText(canvas, lines[i], image.Pt(WindowW/2-120, y), gocv.FontHersheySimplex, 1.0, StateColors[st], 2)
		y += 60
	}

	gocv.PutText(canvas, "Press any key to exit", image.Pt(WindowW/2-160, y+60), gocv.FontHersheySimplex, 0.7, hintColor, 1)
}

// FormatElapsed formats a duration as mm:ss; minutes keep counting past an hour.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

// Close releases cached avatar frames.
func (r *Renderer) Close() {
	for k, m := range r.avatars {
		m.Close()
		delete(r.avatars, k)
	}
}

// scalar converts a colour to a BGR scalar.
func scalar(c color.RGBA) gocv.Scalar {
	return gocv.NewScalar(float64(c.B), float64(c.G), float64(c.R), 0)
}
