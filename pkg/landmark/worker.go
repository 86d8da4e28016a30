package landmark

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
)

// maxResponseSize bounds a single worker response (a refined mesh is ~30 KB of JSON).
const maxResponseSize = 16 * 1024 * 1024

// MeshWorker runs a face mesh model in a long-lived child process.
//
// Protocol, both directions big-endian length prefixed:
//
//	request  (stdin): [uint32 length][JPEG bytes]
//	response (FD 3):  [uint32 length][JSON]
//
// The JSON is {"faces":[{"score":0.9,"points":[[x,y,z],...]}]} or {"error":"..."}.
// Responses travel on a side-channel pipe so library prints on stdout cannot corrupt
// the stream.
type MeshWorker struct {
	mu     sync.Mutex
	cmd    *exec.Cmd
	stderr *tailBuffer
	stdin  io.WriteCloser
	data   io.ReadCloser
	closed bool
	logger *slog.Logger
}

type meshResponse struct {
	Faces []struct {
		Score  float64     `json:"score"`
		Points [][]float64 `json:"points"`
	} `json:"faces"`
	Error string `json:"error"`
}

// NewMeshWorker starts the worker process described by cfg.WorkerCommand.
func NewMeshWorker(cfg Config, logger *slog.Logger) (*MeshWorker, error) {
	if len(cfg.WorkerCommand) == 0 {
		return nil, fmt.Errorf("mesh worker: empty command")
	}
	if logger == nil {
		logger = slog.Default()
	}

	cmd := exec.Command(cfg.WorkerCommand[0], cfg.WorkerCommand[1:]...)
	stderr := newTailBuffer(stderrLimit)
	cmd.Stderr = stderr

	// Side-channel pipe; the child sees the write end as FD 3
	r, w, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("mesh worker: create pipe: %w", err)
	}
	cmd.ExtraFiles = []*os.File{w}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		w.Close()
		r.Close()
		return nil, fmt.Errorf("mesh worker: stdin pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		w.Close()
		r.Close()
		return nil, fmt.Errorf("mesh worker: start %q: %w", cfg.WorkerCommand[0], err)
	}

	// Only the child holds the write end from here on
	w.Close()

	logger.Info("mesh worker started", "command", cfg.WorkerCommand, "pid", cmd.Process.Pid)

	return &MeshWorker{
		cmd:    cmd,
		stderr: stderr,
		stdin:  stdin,
		data:   r,
		logger: logger,
	}, nil
}

// newMeshWorkerFromPipes wires a worker to existing pipes, without a process.
func newMeshWorkerFromPipes(stdin io.WriteCloser, data io.ReadCloser) *MeshWorker {
	return &MeshWorker{
		stdin:  stdin,
		data:   data,
		logger: slog.Default(),
	}
}

// Detect sends one frame to the worker and returns the best face, or nil.
func (w *MeshWorker) Detect(jpeg []byte) (*Face, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, ErrWorkerClosed
	}

	body, err := w.communicate(jpeg)
	if err != nil {
		return nil, w.wrap(err)
	}

	var resp meshResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("mesh worker: decode response: %w", err)
	}
	if resp.Error != "" {
		return nil, &WorkerError{Message: resp.Error, Stderr: w.stderrText()}
	}

	faces := make([]*Face, 0, len(resp.Faces))
	for _, rf := range resp.Faces {
		points := make([]Point, len(rf.Points))
		for i, p := range rf.Points {
			if len(p) < 2 {
				return nil, fmt.Errorf("mesh worker: point %d has %d coordinates", i, len(p))
			}
			points[i] = Point{X: p[0], Y: p[1]}
			if len(p) > 2 {
				points[i].Z = p[2]
			}
		}
		face, err := FromMesh(points, rf.Score)
		if err != nil {
			return nil, err
		}
		faces = append(faces, face)
	}

	return SelectBest(faces), nil
}

// communicate performs one request/response exchange (must hold mu).
func (w *MeshWorker) communicate(payload []byte) ([]byte, error) {
	if err := binary.Write(w.stdin, binary.BigEndian, uint32(len(payload))); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	if _, err := w.stdin.Write(payload); err != nil {
		return nil, fmt.Errorf("write frame: %w", err)
	}

	header := make([]byte, 4)
	if _, err := io.ReadFull(w.data, header); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	n := binary.BigEndian.Uint32(header)
	if n > maxResponseSize {
		return nil, fmt.Errorf("response of %d bytes exceeds limit", n)
	}

	body := make([]byte, n)
	if _, err := io.ReadFull(w.data, body); err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// wrap attaches captured stderr to transport errors; a crashed worker usually
// explains itself there.
func (w *MeshWorker) wrap(err error) error {
	if s := w.stderrText(); s != "" {
		return &WorkerError{Message: err.Error(), Stderr: s}
	}
	return fmt.Errorf("mesh worker: %w", err)
}

func (w *MeshWorker) stderrText() string {
	if w.stderr == nil {
		return ""
	}
	return w.stderr.String()
}

// Close stops the worker. It is safe to call Close multiple times.
func (w *MeshWorker) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	w.stdin.Close()
	w.data.Close()
	if w.cmd != nil {
		if err := w.cmd.Wait(); err != nil {
			w.logger.Debug("mesh worker exited", "error", err)
		}
	}
	return nil
}
