// Package pose derives the per-frame head pose sample from detected facial landmarks.
//
// The values are proxies, not Euler angles: yaw is the horizontal distance between the
// face's left and right edges, pitch the vertical distance between forehead and chin,
// and eye height the mean vertical position of the eye contour points. All three are in
// normalized image coordinates (0-1).
package pose

import (
	"fmt"

	"github.com/teslashibe/poliscope/pkg/landmark"
)

// Sample is the pose of the user in a single frame.
type Sample struct {
	FacePresent bool    `json:"face_present"`
	Yaw         float64 `json:"yaw"`
	Pitch       float64 `json:"pitch"`
	EyeY        float64 `json:"eye_y"`
}

// NoFace returns the sample used when no face was detected.
func NoFace() Sample {
	return Sample{}
}

// FromFace derives a sample from a detected face. A nil face yields NoFace.
func FromFace(f *landmark.Face) Sample {
	if f == nil {
		return NoFace()
	}
	return Sample{
		FacePresent: true,
		Yaw:         f.Right.X - f.Left.X,
		Pitch:       f.Top.Y - f.Bottom.Y,
		EyeY:        EyeHeight(f.Eyes),
	}
}

// EyeHeight returns the mean y coordinate of the given eye points, or 0 for none.
func EyeHeight(eyes []landmark.Point) float64 {
	if len(eyes) == 0 {
		return 0
	}
	var sum float64
	for _, p := range eyes {
		sum += p.Y
	}
	return sum / float64(len(eyes))
}

// String implements fmt.Stringer for log output.
func (s Sample) String() string {
	if !s.FacePresent {
		return "no-face"
	}
	return fmt.Sprintf("yaw=%.4f pitch=%.4f eye_y=%.4f", s.Yaw, s.Pitch, s.EyeY)
}
