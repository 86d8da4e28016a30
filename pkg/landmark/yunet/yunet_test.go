package yunet

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/teslashibe/poliscope/pkg/landmark"
	"github.com/teslashibe/poliscope/pkg/pose"
)

func testConfig(t *testing.T) landmark.Config {
	t.Helper()
	modelPath := findModelPath()
	if modelPath == "" {
		t.Skip("YuNet model not found, skipping test")
	}
	cfg := landmark.DefaultConfig()
	cfg.ModelPath = modelPath
	cfg.ConfidenceThresh = 0.5
	return cfg
}

func TestNew_InvalidPath(t *testing.T) {
	cfg := landmark.DefaultConfig()
	cfg.ModelPath = "/nonexistent/path/model.onnx"

	if _, err := New(cfg); err == nil {
		t.Error("Expected error for invalid model path")
	}
}

func TestFaceFromRow(t *testing.T) {
	// 100x100 box at (200,100) in a 400x400 frame, eyes at y=130/134
	row := []float64{
		200, 100, 100, 100,
		270, 134, // right eye
		230, 130, // left eye
		250, 160,
		265, 180, 235, 180,
		0.92,
	}
	face := faceFromRow(row, 400, 400)

	approx := func(name string, got, want float64) {
		t.Helper()
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("%s: got %v, want %v", name, got, want)
		}
	}

	approx("score", face.Score, 0.92)
	approx("left.x", face.Left.X, 0.5)
	approx("right.x", face.Right.X, 0.75)
	approx("top.y", face.Top.Y, 0.25)
	approx("bottom.y", face.Bottom.Y, 0.5)

	if len(face.Eyes) != 2 {
		t.Fatalf("Eyes: got %d, want 2", len(face.Eyes))
	}

	s := pose.FromFace(face)
	approx("yaw", s.Yaw, 0.25)
	approx("pitch", s.Pitch, -0.25)
	approx("eye_y", s.EyeY, 0.33)

	minX, minY, maxX, maxY := face.Bounds()
	approx("bounds minX", minX, 0.5)
	approx("bounds minY", minY, 0.25)
	approx("bounds maxX", maxX, 0.75)
	approx("bounds maxY", maxY, 0.5)
}

func TestDetect_InvalidImage(t *testing.T) {
	d, err := New(testConfig(t))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer d.Close()

	if _, err := d.Detect([]byte{}); err == nil {
		t.Error("Expected error for empty image")
	}
	if _, err := d.Detect([]byte("not a jpeg")); err == nil {
		t.Error("Expected error for invalid JPEG")
	}
}

func TestDetect_SolidImage(t *testing.T) {
	d, err := New(testConfig(t))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer d.Close()

	face, err := d.Detect(createSolidJPEG(320, 240, color.RGBA{0, 0, 255, 255}))
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if face != nil {
		t.Errorf("Expected no face in solid color image, got %+v", face)
	}
}

func TestDetect_Concurrent(t *testing.T) {
	d, err := New(testConfig(t))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer d.Close()

	jpeg := createSolidJPEG(320, 240, color.RGBA{100, 100, 100, 255})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := d.Detect(jpeg); err != nil {
				t.Errorf("Concurrent detection failed: %v", err)
			}
		}()
	}
	wg.Wait()
}

func findModelPath() string {
	paths := []string{
		"../../../models/face_detection_yunet.onnx",
		"../../models/face_detection_yunet.onnx",
		"models/face_detection_yunet.onnx",
	}
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			continue
		}
		if _, err := os.Stat(abs); err == nil {
			return abs
		}
	}
	return ""
}

func createSolidJPEG(width, height int, c color.Color) []byte {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90})
	return buf.Bytes()
}
