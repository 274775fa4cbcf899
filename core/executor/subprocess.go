package executor

import (
	"fmt"
	"io"
	"os/exec"
	"sync"

	"github.com/neonlabsorg/neon-proxy-go/internal/wireframe"
)

// subprocessBackend runs one worker as a child process, sending one
// ExecRequest frame per call and reading back one ExecResult frame.
// Requests are serialized per-worker: the pool owns concurrency by
// spreading requests across multiple subprocessBackends, not by pipelining
// within one.
type subprocessBackend struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser

	mu sync.Mutex
}

// spawnWorker starts binary with args as a fresh OS subprocess wired for
// wireframe-framed request/response over stdin/stdout.
func spawnWorker(binary string, args ...string) (*subprocessBackend, error) {
	cmd := exec.Command(binary, args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("executor: stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("executor: stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("executor: start worker: %w", err)
	}

	return &subprocessBackend{cmd: cmd, stdin: stdin, stdout: stdout}, nil
}

func (w *subprocessBackend) Execute(req ExecRequest) (ExecResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := wireframe.WriteFrame(w.stdin, req); err != nil {
		return ExecResult{}, fmt.Errorf("executor: send request: %w", err)
	}

	var res ExecResult
	if err := wireframe.ReadFrame(w.stdout, &res); err != nil {
		return ExecResult{}, fmt.Errorf("executor: receive result: %w", err)
	}
	return res, nil
}

// SubprocessFactory returns a WorkerFactory spawning binary with args as
// a fresh subprocess on every call — the production factory AsyncInit
// and OnWorkerExit use to start and replace workers.
func SubprocessFactory(binary string, args ...string) WorkerFactory {
	return func() (Backend, error) {
		return spawnWorker(binary, args...)
	}
}

func (w *subprocessBackend) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	_ = w.stdin.Close()
	_ = w.stdout.Close()
	if w.cmd.Process == nil {
		return nil
	}
	_ = w.cmd.Process.Kill()
	return w.cmd.Wait()
}
