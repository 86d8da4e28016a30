package landmark

// Backend names.
const (
	BackendYuNet = "yunet"
	BackendMesh  = "mesh"
)

// Config holds landmark backend configuration
type Config struct {
	Backend          string   // "yunet" (in-process) or "mesh" (worker process)
	ModelPath        string   // Path to YuNet ONNX model
	ConfidenceThresh float64  // Minimum face confidence
	InputWidth       int      // YuNet initial input width
	InputHeight      int      // YuNet initial input height
	WorkerCommand    []string // argv of the face mesh worker
}

// DefaultConfig returns production defaults
func DefaultConfig() Config {
	return Config{
		Backend:          BackendYuNet,
		ModelPath:        "models/face_detection_yunet.onnx",
		ConfidenceThresh: 0.6,
		InputWidth:       320,
		InputHeight:      320,
		WorkerCommand:    []string{"python3", "-u", "scripts/facemesh_worker.py"},
	}
}
