package landmark

import (
	"errors"
	"testing"
)

func testMesh() []Point {
	points := make([]Point, MeshPointCount)
	for i := range points {
		points[i] = Point{X: 0.5, Y: 0.5}
	}
	points[MeshFaceLeft] = Point{X: 0.3, Y: 0.5}
	points[MeshFaceRight] = Point{X: 0.7, Y: 0.5}
	points[MeshForehead] = Point{X: 0.5, Y: 0.2}
	points[MeshChin] = Point{X: 0.5, Y: 0.8}
	for _, i := range MeshLeftEye {
		points[i] = Point{X: 0.4, Y: 0.4}
	}
	for _, i := range MeshRightEye {
		points[i] = Point{X: 0.6, Y: 0.42}
	}
	return points
}

func TestFromMesh(t *testing.T) {
	face, err := FromMesh(testMesh(), 0.9)
	if err != nil {
		t.Fatalf("FromMesh failed: %v", err)
	}

	if face.Left.X != 0.3 || face.Right.X != 0.7 {
		t.Errorf("edges: got left=%v right=%v", face.Left, face.Right)
	}
	if face.Top.Y != 0.2 || face.Bottom.Y != 0.8 {
		t.Errorf("forehead/chin: got top=%v bottom=%v", face.Top, face.Bottom)
	}
	if len(face.Eyes) != 12 {
		t.Fatalf("Eyes: got %d points, want 12", len(face.Eyes))
	}
	if face.Eyes[0].Y != 0.4 || face.Eyes[11].Y != 0.42 {
		t.Errorf("eye order: got first=%v last=%v", face.Eyes[0], face.Eyes[11])
	}
}

func TestFromMesh_Refined(t *testing.T) {
	points := append(testMesh(), make([]Point, 10)...)
	if _, err := FromMesh(points, 1); err != nil {
		t.Errorf("478-point mesh rejected: %v", err)
	}
}

func TestFromMesh_Short(t *testing.T) {
	_, err := FromMesh(make([]Point, 100), 1)
	if !errors.Is(err, ErrShortMesh) {
		t.Errorf("expected ErrShortMesh, got %v", err)
	}
}

func TestFace_Bounds(t *testing.T) {
	face := &Face{Points: []Point{{X: 0.2, Y: 0.3}, {X: 0.6, Y: 0.1}, {X: 0.4, Y: 0.9}}}
	minX, minY, maxX, maxY := face.Bounds()
	if minX != 0.2 || minY != 0.1 || maxX != 0.6 || maxY != 0.9 {
		t.Errorf("Bounds: got (%v,%v,%v,%v)", minX, minY, maxX, maxY)
	}

	var empty *Face
	if a := empty.Area(); a != 0 {
		t.Errorf("nil face area: got %v", a)
	}
}

func box(x, y, w, h, score float64) *Face {
	return &Face{
		Score:  score,
		Points: []Point{{X: x, Y: y}, {X: x + w, Y: y + h}},
	}
}

func TestSelectBest(t *testing.T) {
	tests := []struct {
		name      string
		faces     []*Face
		expectNil bool
		expectIdx int
	}{
		{
			name:      "empty list",
			faces:     nil,
			expectNil: true,
		},
		{
			name:      "single face",
			faces:     []*Face{box(0.4, 0.4, 0.2, 0.2, 0.9)},
			expectIdx: 0,
		},
		{
			name: "high confidence beats larger area",
			faces: []*Face{
				box(0, 0, 0.4, 0.4, 0.5),
				box(0.3, 0.3, 0.2, 0.2, 0.95),
			},
			expectIdx: 1, // 0.95*0.7 + 0.25*0.3 = 0.74 vs 0.5*0.7 + 1.0*0.3 = 0.65
		},
		{
			name: "similar confidence picks larger",
			faces: []*Face{
				box(0, 0, 0.5, 0.5, 0.8),
				box(0.3, 0.3, 0.1, 0.1, 0.8),
			},
			expectIdx: 0,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			best := SelectBest(tc.faces)
			if tc.expectNil {
				if best != nil {
					t.Errorf("SelectBest: expected nil, got %+v", best)
				}
				return
			}
			if best != tc.faces[tc.expectIdx] {
				t.Errorf("SelectBest: got %+v, want index %d", best, tc.expectIdx)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Backend != BackendYuNet {
		t.Errorf("Backend: got %q, want %q", cfg.Backend, BackendYuNet)
	}
	if cfg.ConfidenceThresh <= 0 || cfg.ConfidenceThresh > 1 {
		t.Errorf("ConfidenceThresh should be 0-1, got %f", cfg.ConfidenceThresh)
	}
	if len(cfg.WorkerCommand) == 0 {
		t.Error("WorkerCommand should not be empty")
	}
}
