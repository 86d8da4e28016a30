// Package debug provides global debug logging flags
package debug

import "log/slog"

// Enabled controls whether debug logging is active
var Enabled bool

// Frames controls whether per-frame trace logs are shown (pose, deltas, focus level).
// Use --debug-frames to enable these very verbose logs
var Frames bool

// Log emits a debug record only if debug mode is enabled
func Log(msg string, args ...any) {
	if Enabled {
		slog.Debug(msg, args...)
	}
}

// FrameLog emits a per-frame trace record only if frame tracing is enabled.
// Frame traces are logged at info so they show without lowering the global level.
func FrameLog(msg string, args ...any) {
	if Frames {
		slog.Info(msg, args...)
	}
}
