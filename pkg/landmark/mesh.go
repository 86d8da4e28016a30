package landmark

import "fmt"

// Face mesh landmark indices following the MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/face_landmarker
const (
	MeshFaceLeft   = 234
	MeshFaceRight  = 454
	MeshForehead   = 10
	MeshChin       = 152
	MeshPointCount = 468
)

// MeshLeftEye and MeshRightEye are the eye contour indices averaged for eye height.
var (
	MeshLeftEye  = []int{33, 160, 158, 133, 153, 144}
	MeshRightEye = []int{362, 385, 387, 263, 373, 380}
)

// FromMesh builds a Face from a full face mesh. Refined meshes (478 points, with
// irises) are accepted; anything shorter than MeshPointCount is rejected.
func FromMesh(points []Point, score float64) (*Face, error) {
	if len(points) < MeshPointCount {
		return nil, fmt.Errorf("%w: got %d points, need %d", ErrShortMesh, len(points), MeshPointCount)
	}

	eyes := make([]Point, 0, len(MeshLeftEye)+len(MeshRightEye))
	for _, i := range MeshLeftEye {
		eyes = append(eyes, points[i])
	}
	for _, i := range MeshRightEye {
		eyes = append(eyes, points[i])
	}

	return &Face{
		Points: points,
		Score:  score,
		Left:   points[MeshFaceLeft],
		Right:  points[MeshFaceRight],
		Top:    points[MeshForehead],
		Bottom: points[MeshChin],
		Eyes:   eyes,
	}, nil
}
