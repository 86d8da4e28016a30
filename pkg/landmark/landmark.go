// Package landmark defines the facial landmark collaborator: the face representation the
// pose derivation consumes and the Provider interface that detection backends implement.
package landmark

import "math"

// Point is a landmark in normalized image coordinates (0-1). Z is backend specific
// and may be zero.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Face is a single detected face.
//
// Points holds every landmark the backend produced. The anchors are resolved by the
// backend so pose derivation does not depend on a particular landmark layout:
// Left/Right are the outer face edges, Top/Bottom the forehead and chin, Eyes the
// contour points of both eyes.
type Face struct {
	Points []Point
	Score  float64

	Left   Point
	Right  Point
	Top    Point
	Bottom Point
	Eyes   []Point
}

// Bounds returns the bounding box of all points (normalized).
func (f *Face) Bounds() (minX, minY, maxX, maxY float64) {
	if f == nil || len(f.Points) == 0 {
		return 0, 0, 0, 0
	}
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, p := range f.Points {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return minX, minY, maxX, maxY
}

// Area returns the area of the bounding box
func (f *Face) Area() float64 {
	minX, minY, maxX, maxY := f.Bounds()
	return (maxX - minX) * (maxY - minY)
}

// Provider is the interface for landmark detection backends.
type Provider interface {
	// Detect finds the face in a JPEG frame.
	// Returns (nil, nil) when no face is present.
	Detect(jpeg []byte) (*Face, error)

	// Close releases resources
	Close() error
}

// SelectBest picks the face to track when a backend reports several.
// Priority: confidence * 0.7 + relative area * 0.3
func SelectBest(faces []*Face) *Face {
	if len(faces) == 0 {
		return nil
	}
	if len(faces) == 1 {
		return faces[0]
	}

	// Find max area for normalization
	maxArea := 0.0
	for _, f := range faces {
		if a := f.Area(); a > maxArea {
			maxArea = a
		}
	}

	bestScore := -1.0
	var best *Face
	for _, f := range faces {
		score := f.Score * 0.7
		if maxArea > 0 {
			score += (f.Area() / maxArea) * 0.3
		}
		if score > bestScore {
			bestScore = score
			best = f
		}
	}
	return best
}
