// Package resource implements the lease pool over a fixed set of operator
// resources (signing identities with on-chain funds) that every execution
// must hold for its duration (spec.md §4.3).
//
// Grounded on the RWMutex-guarded pool style of
// NethermindEth-rollup-geth's core/txpool/tx_vectorfee_pool.go, with the
// capacity gate itself delegated to golang.org/x/sync/semaphore so
// acquisition blocks cooperatively instead of spinning.
package resource

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/semaphore"
)

// Outcome is what the scheduler reports back about a completed lease, used
// only for logging/metrics hooks today but kept as a distinct type so a
// future backoff policy has somewhere to attach.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeFailure
)

// Manager is a fixed-size pool of N resource identities. At most N leases
// are held concurrently; no signature holds more than one lease at a time
// (spec.md §4.3 invariant).
type Manager struct {
	sem *semaphore.Weighted

	mu      sync.Mutex
	free    []int                // free resource ids, oldest-released first (round-robin tie-break)
	holders map[int]common.Hash  // resource id -> holding signature
	bySig   map[common.Hash]int  // signature -> held resource id
}

// NewManager builds a pool of n resource identities numbered [0, n).
func NewManager(n int) *Manager {
	free := make([]int, n)
	for i := range free {
		free[i] = i
	}
	return &Manager{
		sem:     semaphore.NewWeighted(int64(n)),
		free:    free,
		holders: make(map[int]common.Hash, n),
		bySig:   make(map[common.Hash]int, n),
	}
}

// TryAcquire attempts to lease a resource for signature without blocking.
// Returns (id, true) on success, (0, false) if the pool is exhausted or
// signature already holds a lease.
func (m *Manager) TryAcquire(signature common.Hash) (int, bool) {
	m.mu.Lock()
	if _, already := m.bySig[signature]; already {
		m.mu.Unlock()
		return 0, false
	}
	m.mu.Unlock()

	if !m.sem.TryAcquire(1) {
		return 0, false
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.free[0]
	m.free = m.free[1:]
	m.holders[id] = signature
	m.bySig[signature] = id
	return id, true
}

// Acquire leases a resource for signature, blocking until one is free or
// ctx is done.
func (m *Manager) Acquire(ctx context.Context, signature common.Hash) (int, error) {
	m.mu.Lock()
	if _, already := m.bySig[signature]; already {
		m.mu.Unlock()
		return 0, fmt.Errorf("resource: signature %s already holds a lease", signature)
	}
	m.mu.Unlock()

	if err := m.sem.Acquire(ctx, 1); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.free[0]
	m.free = m.free[1:]
	m.holders[id] = signature
	m.bySig[signature] = id
	return id, nil
}

// Release returns a resource to the free pool. Release is a no-op if the
// resource is not currently held — callers that race a failed executor
// replacement against an in-flight release must not double-free.
func (m *Manager) Release(id int) {
	m.mu.Lock()
	sig, held := m.holders[id]
	if !held {
		m.mu.Unlock()
		return
	}
	delete(m.holders, id)
	delete(m.bySig, sig)
	m.free = append(m.free, id)
	m.mu.Unlock()

	m.sem.Release(1)
}

// OnUsed records the outcome of a completed lease and releases it. Outcome
// carries no policy today beyond being a hook future backoff/penalty logic
// can read.
func (m *Manager) OnUsed(id int, _ Outcome) {
	m.Release(id)
}

// HolderOf reports which resource id a signature currently holds, if any.
func (m *Manager) HolderOf(signature common.Hash) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.bySig[signature]
	return id, ok
}

// InUse returns the number of currently leased resources.
func (m *Manager) InUse() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.holders)
}
