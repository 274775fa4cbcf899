// Package execfake is an in-process Backend double for core/executor
// tests: no subprocess, no wireframe round-trip, just programmable
// responses so pool dispatch/replace logic can be exercised deterministically.
package execfake

import (
	"errors"
	"sync"

	"github.com/neonlabsorg/neon-proxy-go/core/executor"
)

// Backend is a scriptable executor.Backend. Calls is every ExecRequest
// seen, in order, for assertions. If Err is set, Execute returns it
// (simulating a crashed worker) instead of a result.
type Backend struct {
	mu    sync.Mutex
	Calls []executor.ExecRequest

	Result executor.ExecResult
	Err    error
	Closed bool
}

// New builds a fake worker whose factory always succeeds — suitable as an
// executor.WorkerFactory via New().Factory.
func New() *Backend {
	return &Backend{Result: executor.ExecResult{Ok: true}}
}

// Factory adapts this fake into an executor.WorkerFactory for AsyncInit:
// every call returns the same instance, so tests can assert on its Calls
// slice directly.
func (b *Backend) Factory() (executor.Backend, error) {
	return b, nil
}

func (b *Backend) Execute(req executor.ExecRequest) (executor.ExecResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Calls = append(b.Calls, req)
	if b.Err != nil {
		return executor.ExecResult{}, b.Err
	}
	return b.Result, nil
}

func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Closed = true
	return nil
}

// ErrWorkerCrashed is a convenience sentinel for tests simulating a dead
// worker.
var ErrWorkerCrashed = errors.New("execfake: worker crashed")

// FactoryPool hands out a fresh Backend on every factory call and keeps
// every instance it created, so a test can reach into a specific worker
// slot after AsyncInit (e.g. to make worker 2 start failing) and still
// assert on the replacement the pool spawns after OnWorkerExit.
type FactoryPool struct {
	mu      sync.Mutex
	Created []*Backend
}

func (fp *FactoryPool) Factory() (executor.Backend, error) {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	b := New()
	fp.Created = append(fp.Created, b)
	return b, nil
}
