// Package ui renders the monitor: a gocv window with the camera and avatar panels,
// and a headless display for runs without a screen.
package ui

import (
	"image"
	"image/color"

	"github.com/teslashibe/poliscope/pkg/focus"
	"github.com/teslashibe/poliscope/pkg/monitor"
)

// Window geometry.
const (
	WindowW     = 1280
	WindowH     = 800
	TopBarH     = 90
	Padding     = 20
	AvatarScale = 0.9
)

var (
	bgColor      = color.RGBA{28, 28, 28, 255}
	panelBG      = color.RGBA{18, 18, 18, 255}
	dividerColor = color.RGBA{40, 40, 40, 255}
	overlayColor = color.RGBA{80, 180, 180, 255}
	white        = color.RGBA{255, 255, 255, 255}
	textDim      = color.RGBA{235, 235, 235, 255}
	textSoft     = color.RGBA{240, 240, 240, 255}
	hintColor    = color.RGBA{200, 200, 200, 255}
)

// StateColors are the top bar and summary colours per state.
var StateColors = map[focus.State]color.RGBA{
	focus.Engaged:    {90, 180, 90, 255},
	focus.Distracted: {80, 160, 220, 255},
	focus.Inactive:   {80, 80, 200, 255},
}

// StateExplanation is the one-line description under the state label.
var StateExplanation = map[focus.State]string{
	focus.Engaged:    "Eyes aligned with screen",
	focus.Distracted: "Gaze or head turned away",
	focus.Inactive:   "User not detected",
}

// AvatarOpacity dims the avatar as attention drops.
var AvatarOpacity = map[focus.State]float64{
	focus.Engaged:    1.0,
	focus.Distracted: 0.85,
	focus.Inactive:   0.6,
}

// Layout holds the derived panel geometry.
type Layout struct {
	ContentH int
	PanelW   int
	Y0       int
}

// DefaultLayout computes the panel geometry for the default window.
func DefaultLayout() Layout {
	return Layout{
		ContentH: WindowH - TopBarH - Padding*2,
		PanelW:   (WindowW - Padding*3) / 2,
		Y0:       TopBarH + Padding,
	}
}

// UserPanel is the camera panel rectangle.
func (l Layout) UserPanel() image.Rectangle {
	return image.Rect(Padding, l.Y0, Padding+l.PanelW, l.Y0+l.ContentH)
}

// AvatarPanel is the avatar panel rectangle.
func (l Layout) AvatarPanel() image.Rectangle {
	x1 := Padding*2 + l.PanelW
	return image.Rect(x1, l.Y0, x1+l.PanelW, l.Y0+l.ContentH)
}

// AvatarRect is where the scaled avatar is placed, centred in its panel.
func (l Layout) AvatarRect() image.Rectangle {
	p := l.AvatarPanel()
	w := int(float64(l.PanelW) * AvatarScale)
	h := int(float64(l.ContentH) * AvatarScale)
	x := p.Min.X + (l.PanelW-w)/2
	y := p.Min.Y + (l.ContentH-h)/2
	return image.Rect(x, y, x+w, y+h)
}

// MapKey converts a WaitKey code to an input event.
func MapKey(code int) monitor.Key {
	if code < 0 {
		return monitor.KeyNone
	}
	switch code & 0xFF {
	case 'c':
		return monitor.KeyCalibrate
	case 'd':
		return monitor.KeyToggleOverlay
	case 'q', 27:
		return monitor.KeyQuit
	}
	return monitor.KeyNone
}
