// Package config assembles poliscope's runtime configuration.
//
// Precedence, lowest first: Default(), a .env file, POLISCOPE_* environment
// variables, command-line flags. Validate runs last.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/teslashibe/poliscope/pkg/animation"
	"github.com/teslashibe/poliscope/pkg/camera"
	"github.com/teslashibe/poliscope/pkg/landmark"
)

// EnvPrefix prefixes every environment variable.
const EnvPrefix = "POLISCOPE_"

// Synthetic sensors for --mock.
const (
	MockDemo   = "demo"   // scripted calibrate, drift and step-away loop
	MockWander = "wander" // endless random drift
)

// Config holds everything the run and check commands need.
// It is data only; the cmd package builds components from it.
type Config struct {
	// Camera
	CameraDevice int
	CameraPreset string
	Width        int // 0 = preset resolution
	Height       int
	Mirror       bool

	// Landmarks
	Backend      string // "yunet" or "mesh"
	ModelPath    string
	WorkerCmd    string // space separated argv
	MinFaceScore float64

	// Assets
	AnimationDir string
	AudioDir     string
	AudioCmd     string // empty = platform default
	Speed        float64

	// Optional outputs; empty disables them
	DashboardAddr string
	MQTTBroker    string
	MQTTPrefix    string

	// Logging
	LogLevel    string
	LogFile     string
	DebugFrames bool

	Headless   bool
	Mock       bool
	MockScript string // "demo" or "wander"
}

// Default returns the built-in defaults.
func Default() Config {
	cam := camera.DefaultConfig()
	lm := landmark.DefaultConfig()
	return Config{
		CameraDevice: cam.DeviceID,
		CameraPreset: camera.PresetDefault,
		Mirror:       cam.Mirror,
		Backend:      lm.Backend,
		ModelPath:    lm.ModelPath,
		WorkerCmd:    strings.Join(lm.WorkerCommand, " "),
		MinFaceScore: lm.ConfidenceThresh,
		AnimationDir: "animations",
		AudioDir:     "audio",
		Speed:        animation.DefaultOptions().Speed,
		MQTTPrefix:   "poliscope",
		LogLevel:     "info",
		MockScript:   MockDemo,
	}
}

// Load returns the defaults overlaid with .env and POLISCOPE_* variables.
// A missing .env file is not an error.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	cfg := Default()
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	e := envReader{}
	e.int("CAMERA", &c.CameraDevice)
	e.str("CAMERA_PRESET", &c.CameraPreset)
	e.int("WIDTH", &c.Width)
	e.int("HEIGHT", &c.Height)
	e.bool("MIRROR", &c.Mirror)
	e.str("BACKEND", &c.Backend)
	e.str("MODEL", &c.ModelPath)
	e.str("WORKER_CMD", &c.WorkerCmd)
	e.float("MIN_FACE_SCORE", &c.MinFaceScore)
	e.str("ANIMATION_DIR", &c.AnimationDir)
	e.str("AUDIO_DIR", &c.AudioDir)
	e.str("AUDIO_CMD", &c.AudioCmd)
	e.float("SPEED", &c.Speed)
	e.str("DASHBOARD", &c.DashboardAddr)
	e.str("MQTT_BROKER", &c.MQTTBroker)
	e.str("MQTT_PREFIX", &c.MQTTPrefix)
	e.str("LOG_LEVEL", &c.LogLevel)
	e.str("LOG_FILE", &c.LogFile)
	e.bool("DEBUG_FRAMES", &c.DebugFrames)
	e.bool("HEADLESS", &c.Headless)
	e.bool("MOCK", &c.Mock)
	e.str("MOCK_SCRIPT", &c.MockScript)
	return e.err
}

// envReader collects the first parse failure.
type envReader struct {
	err error
}

func (e *envReader) lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + key)
	return strings.TrimSpace(v), ok
}

func (e *envReader) fail(key, v, kind string) {
	if e.err == nil {
		e.err = &ConfigError{Field: EnvPrefix + key, Message: fmt.Sprintf("%s%s=%q is not a valid %s", EnvPrefix, key, v, kind)}
	}
}

func (e *envReader) str(key string, dst *string) {
	if v, ok := e.lookup(key); ok {
		*dst = v
	}
}

func (e *envReader) int(key string, dst *int) {
	if v, ok := e.lookup(key); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			e.fail(key, v, "integer")
			return
		}
		*dst = n
	}
}

func (e *envReader) float(key string, dst *float64) {
	if v, ok := e.lookup(key); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			e.fail(key, v, "number")
			return
		}
		*dst = f
	}
}

func (e *envReader) bool(key string, dst *bool) {
	if v, ok := e.lookup(key); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			e.fail(key, v, "boolean")
			return
		}
		*dst = b
	}
}

// BindFlags registers the capture, detection, asset and output flags for c on
// fs. Flag defaults are c's current values, so call it after Load; parsed flags
// then override the environment.
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	fs.IntVar(&c.CameraDevice, "camera", c.CameraDevice, "camera device index")
	fs.StringVar(&c.CameraPreset, "preset", c.CameraPreset, "camera preset ("+strings.Join(camera.PresetNames(), ", ")+")")
	fs.IntVar(&c.Width, "width", c.Width, "capture width (overrides preset)")
	fs.IntVar(&c.Height, "height", c.Height, "capture height (overrides preset)")
	fs.BoolVar(&c.Mirror, "mirror", c.Mirror, "mirror the camera image")
	fs.StringVar(&c.Backend, "backend", c.Backend, "landmark backend (yunet, mesh)")
	fs.StringVar(&c.ModelPath, "model", c.ModelPath, "YuNet ONNX model path")
	fs.StringVar(&c.WorkerCmd, "worker", c.WorkerCmd, "face mesh worker command")
	fs.Float64Var(&c.MinFaceScore, "min-face-score", c.MinFaceScore, "minimum face detection confidence")
	fs.StringVar(&c.AnimationDir, "animations", c.AnimationDir, "directory with engaged.gif, distracted.gif, inactive.gif")
	fs.StringVar(&c.AudioDir, "audio", c.AudioDir, "directory with engaged.wav, distracted.wav, inactive.wav")
	fs.StringVar(&c.AudioCmd, "audio-cmd", c.AudioCmd, "audio player command (default: afplay or aplay)")
	fs.Float64Var(&c.Speed, "speed", c.Speed, "animation speed factor (higher is slower)")
	fs.StringVar(&c.DashboardAddr, "dashboard", c.DashboardAddr, "dashboard listen address, e.g. :8080 (empty disables)")
	fs.StringVar(&c.MQTTBroker, "mqtt", c.MQTTBroker, "MQTT broker URL, e.g. tcp://localhost:1883 (empty disables)")
	fs.StringVar(&c.MQTTPrefix, "mqtt-prefix", c.MQTTPrefix, "MQTT topic prefix")
	fs.BoolVar(&c.Headless, "headless", c.Headless, "no window; log state changes instead")
	fs.BoolVar(&c.Mock, "mock", c.Mock, "use a synthetic sensor instead of the camera")
	fs.StringVar(&c.MockScript, "mock-script", c.MockScript, "synthetic sensor with --mock (demo, wander)")
}

// BindLogFlags registers the logging flags, usually as persistent flags.
func (c *Config) BindLogFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level (debug, info, warn, error)")
	fs.StringVar(&c.LogFile, "log-file", c.LogFile, "also write logs to this rotated file")
	fs.BoolVar(&c.DebugFrames, "debug-frames", c.DebugFrames, "log per-frame pose and focus")
}

// Camera returns the capture configuration.
func (c Config) Camera() camera.Config {
	cfg := camera.DefaultConfig()
	if p := camera.GetPreset(c.CameraPreset); p != nil {
		cfg = *p
	}
	cfg.DeviceID = c.CameraDevice
	if c.Width > 0 {
		cfg.Width = c.Width
	}
	if c.Height > 0 {
		cfg.Height = c.Height
	}
	cfg.Mirror = c.Mirror
	return cfg
}

// Landmark returns the detector configuration.
func (c Config) Landmark() landmark.Config {
	cfg := landmark.DefaultConfig()
	cfg.Backend = c.Backend
	cfg.ModelPath = c.ModelPath
	cfg.WorkerCommand = strings.Fields(c.WorkerCmd)
	cfg.ConfidenceThresh = c.MinFaceScore
	return cfg
}

// Animation returns the timeline options.
func (c Config) Animation() animation.Options {
	opts := animation.DefaultOptions()
	opts.Speed = c.Speed
	return opts
}

// Validate reports the first invalid setting as a *ConfigError.
func (c Config) Validate() error {
	if camera.GetPreset(c.CameraPreset) == nil {
		return &ConfigError{Field: "CameraPreset", Message: fmt.Sprintf("unknown camera preset %q", c.CameraPreset)}
	}
	cam := c.Camera()
	if problems := cam.Validate(); len(problems) > 0 {
		return &ConfigError{Field: "Camera", Message: "camera: " + strings.Join(problems, "; ")}
	}
	switch c.Backend {
	case landmark.BackendYuNet:
		if c.ModelPath == "" {
			return &ConfigError{Field: "ModelPath", Message: "yunet backend needs a model path"}
		}
	case landmark.BackendMesh:
		if len(strings.Fields(c.WorkerCmd)) == 0 {
			return &ConfigError{Field: "WorkerCmd", Message: "mesh backend needs a worker command"}
		}
	default:
		return &ConfigError{Field: "Backend", Message: fmt.Sprintf("unknown landmark backend %q", c.Backend)}
	}
	if c.MinFaceScore <= 0 || c.MinFaceScore > 1 {
		return &ConfigError{Field: "MinFaceScore", Message: "min face score must be in (0, 1]"}
	}
	if c.Speed <= 0 {
		return &ConfigError{Field: "Speed", Message: "animation speed must be positive"}
	}
	switch c.MockScript {
	case MockDemo, MockWander:
	default:
		return &ConfigError{Field: "MockScript", Message: fmt.Sprintf("unknown mock script %q", c.MockScript)}
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return &ConfigError{Field: "LogLevel", Message: fmt.Sprintf("unknown log level %q", c.LogLevel)}
	}
	if c.MQTTBroker != "" && c.MQTTPrefix == "" {
		return &ConfigError{Field: "MQTTPrefix", Message: "MQTT prefix must not be empty"}
	}
	return nil
}

// ConfigError is a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}
