// Package executor runs the fixed-size pool of OS-subprocess workers that
// execute admitted transactions against the foreign ledger's on-chain
// program (spec.md §4.4). Workers speak internal/wireframe over their
// stdin/stdout pipes instead of the original implementation's Python
// pickle (spec.md §9 design note).
package executor

import (
	gwtypes "github.com/neonlabsorg/neon-proxy-go/core/types"
)

// ExecRequest is the wire request sent to a worker for one transaction.
type ExecRequest struct {
	Signature      [32]byte
	SenderResource int
	Raw            []byte
}

// ExecResult is the wire response a worker returns for one ExecRequest.
type ExecResult struct {
	Ok    bool
	Logs  []string
	Error *gwtypes.DomainError
}

// Backend is the contract between ExecutorPool and whatever actually runs
// a transaction. Production wiring is a subprocess worker
// (subprocessBackend); tests use execfake's in-process stand-in so the
// pool's dispatch/replace logic is exercised without spawning real
// processes.
type Backend interface {
	// Execute runs req and returns its result. A non-nil error means the
	// worker itself is unusable (crashed, broken pipe) and should be
	// replaced; a result with Ok == false is a normal execution failure,
	// not a backend error.
	Execute(req ExecRequest) (ExecResult, error)

	// Close releases the backend's resources (kills the subprocess, closes
	// pipes).
	Close() error
}
