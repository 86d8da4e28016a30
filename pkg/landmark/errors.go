package landmark

import (
	"errors"
	"fmt"
)

var (
	// ErrShortMesh is returned when a mesh has fewer points than the layout requires.
	ErrShortMesh = errors.New("landmark: mesh too short")

	// ErrWorkerClosed is returned when detecting on a closed provider.
	ErrWorkerClosed = errors.New("landmark: worker closed")

	// ErrUnknownBackend is returned for an unsupported backend name.
	ErrUnknownBackend = errors.New("landmark: unknown backend")
)

// WorkerError is an error reported by the mesh worker process itself.
type WorkerError struct {
	// Message is the error the worker returned.
	Message string

	// Stderr holds the tail of the worker's stderr, if captured.
	Stderr string
}

// Error implements the error interface.
func (e *WorkerError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("landmark worker: %s (stderr: %s)", e.Message, e.Stderr)
	}
	return "landmark worker: " + e.Message
}
