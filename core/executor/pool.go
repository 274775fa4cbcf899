package executor

import (
	"context"
	"fmt"
	"sync"

	gwtypes "github.com/neonlabsorg/neon-proxy-go/core/types"
	"golang.org/x/sync/errgroup"
)

// WorkerFactory builds one fresh Backend, used both at AsyncInit and when
// OnWorkerExit replaces a dead worker. Production wiring spawns a
// subprocessBackend; tests inject an execfake factory.
type WorkerFactory func() (Backend, error)

// Pool is a fixed-size set of workers dispatched round-robin. Grounded on
// the errgroup-fronted worker/group pattern used by the pack's miner
// worker pools (group+ctx+cancel fields, errgroup.Group fan-out at start).
type Pool struct {
	factory WorkerFactory

	mu      sync.Mutex
	workers []Backend
	next    int
}

// AsyncInit spawns n workers concurrently via errgroup, matching spec.md
// §4.4's requirement that pool startup not block on workers one at a time.
// If any worker fails to start, already-started workers are closed and the
// first error is returned.
func AsyncInit(ctx context.Context, n int, factory WorkerFactory) (*Pool, error) {
	workers := make([]Backend, n)
	g, _ := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			b, err := factory()
			if err != nil {
				return fmt.Errorf("executor: start worker %d: %w", i, err)
			}
			workers[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		for _, b := range workers {
			if b != nil {
				_ = b.Close()
			}
		}
		return nil, err
	}
	return &Pool{factory: factory, workers: workers}, nil
}

// Submit runs req on the next worker in round-robin order. If the worker
// backend itself errors (crash, broken pipe), the worker is replaced via
// OnWorkerExit and gwtypes.ErrExecutorUnavailable is returned so the
// caller can retry against a healthy worker.
func (p *Pool) Submit(req ExecRequest) (ExecResult, error) {
	p.mu.Lock()
	idx := p.next
	p.next = (p.next + 1) % len(p.workers)
	worker := p.workers[idx]
	p.mu.Unlock()

	res, err := worker.Execute(req)
	if err != nil {
		p.OnWorkerExit(idx)
		return ExecResult{}, gwtypes.ErrExecutorUnavailable
	}
	return res, nil
}

// OnWorkerExit closes and replaces the worker at idx with a fresh one from
// the factory. In-flight requests pinned to the dead worker have already
// failed their Submit call with ErrExecutorUnavailable; this only repairs
// the pool for future submissions.
func (p *Pool) OnWorkerExit(idx int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	old := p.workers[idx]
	replacement, err := p.factory()
	if err != nil {
		// Leave the dead worker in place; the next Submit routed to idx
		// will fail the same way and retry replacement.
		return
	}
	if old != nil {
		_ = old.Close()
	}
	p.workers[idx] = replacement
}

// Size returns the number of worker slots in the pool.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.workers)
}

// Close shuts down every worker in the pool.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	for _, b := range p.workers {
		if b == nil {
			continue
		}
		if err := b.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
