// Package yunet is an in-process landmark backend built on OpenCV's FaceDetectorYN.
//
// YuNet reports a bounding box and five keypoints per face rather than a full mesh, so
// the pose anchors are taken from the box edges and the two eye keypoints.
package yunet

import (
	"fmt"
	"image"
	"os"
	"sync"

	"github.com/teslashibe/poliscope/pkg/debug"
	"github.com/teslashibe/poliscope/pkg/landmark"
	"gocv.io/x/gocv"
)

// Detector uses OpenCV's FaceDetectorYN for face detection
type Detector struct {
	detector gocv.FaceDetectorYN
	config   landmark.Config
	mu       sync.Mutex // Protects inference
	closed   bool
}

// New creates a YuNet detector. The model file must exist.
func New(cfg landmark.Config) (*Detector, error) {
	if _, err := os.Stat(cfg.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("model file not found: %s", cfg.ModelPath)
	}

	// Initial size is replaced per frame
	detector := gocv.NewFaceDetectorYNWithParams(
		cfg.ModelPath,
		"",
		image.Pt(cfg.InputWidth, cfg.InputHeight),
		float32(cfg.ConfidenceThresh),
		0.3,  // NMS threshold
		5000, // Top K
		int(gocv.NetBackendDefault),
		int(gocv.NetTargetCPU),
	)

	return &Detector{
		detector: detector,
		config:   cfg,
	}, nil
}

// Detect finds the best face in a JPEG frame.
func (d *Detector) Detect(jpeg []byte) (*landmark.Face, error) {
	img, err := gocv.IMDecode(jpeg, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	defer img.Close()

	return d.DetectMat(img)
}

// DetectMat finds the best face in an already decoded BGR frame, skipping the JPEG
// round trip when the caller owns a Mat.
func (d *Detector) DetectMat(img gocv.Mat) (*landmark.Face, error) {
	if img.Empty() {
		return nil, fmt.Errorf("empty image")
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, landmark.ErrWorkerClosed
	}

	imgW := float64(img.Cols())
	imgH := float64(img.Rows())

	d.detector.SetInputSize(image.Pt(img.Cols(), img.Rows()))

	out := gocv.NewMat()
	defer out.Close()
	d.detector.Detect(img, &out)

	faces := make([]*landmark.Face, 0, out.Rows())
	for r := 0; r < out.Rows(); r++ {
		row := make([]float64, 15)
		for c := range row {
			row[c] = float64(out.GetFloatAt(r, c))
		}
		faces = append(faces, faceFromRow(row, imgW, imgH))
	}

	if len(faces) > 0 {
		debug.Log("yunet detection", "faces", len(faces))
	}

	return landmark.SelectBest(faces), nil
}

// faceFromRow converts one YuNet output row to a normalized Face.
//
// Row layout (15 columns):
//
//	0-3:   x, y, w, h (bounding box in pixels)
//	4-5:   right eye
//	6-7:   left eye
//	8-9:   nose tip
//	10-13: mouth corners (right, left)
//	14:    score
func faceFromRow(row []float64, imgW, imgH float64) *landmark.Face {
	pt := func(x, y float64) landmark.Point {
		return landmark.Point{X: x / imgW, Y: y / imgH}
	}

	x, y, w, h := row[0], row[1], row[2], row[3]
	rightEye := pt(row[4], row[5])
	leftEye := pt(row[6], row[7])

	points := []landmark.Point{
		rightEye,
		leftEye,
		pt(row[8], row[9]),
		pt(row[10], row[11]),
		pt(row[12], row[13]),
		pt(x, y),
		pt(x+w, y+h),
	}

	return &landmark.Face{
		Points: points,
		Score:  row[14],
		Left:   pt(x, y+h/2),
		Right:  pt(x+w, y+h/2),
		Top:    pt(x+w/2, y),
		Bottom: pt(x+w/2, y+h),
		Eyes:   []landmark.Point{leftEye, rightEye},
	}
}

// Close releases the detector resources. Later calls are no-ops.
func (d *Detector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	d.detector.Close()
	return nil
}
