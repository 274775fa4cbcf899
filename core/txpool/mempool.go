package txpool

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"
	"github.com/neonlabsorg/neon-proxy-go/core/executor"
	"github.com/neonlabsorg/neon-proxy-go/core/resource"
	gwtypes "github.com/neonlabsorg/neon-proxy-go/core/types"
)

// replacementBumpNumerator/Denominator encode the 10% gas-price bump a
// replacement tx at the same (sender, nonce) must clear (spec.md §4.5
// admission check (e), glossary "Replacement rule"). ceil-rounded, matching
// the glossary's "⌈1.10 × incumbent⌉" wording (spec.md §8 property 7).
const (
	replacementBumpNumerator   = 11
	replacementBumpDenominator = 10
)

// Mempool owns admission control, per-sender ordering, and scheduling
// against an ExecutorPool under a ResourceManager lease (spec.md §4.5).
// All mutable state — the sender queues, suspended flag, in-flight
// dispatch bookkeeping — is touched only from the single goroutine run by
// Start, so none of it needs a lock (spec.md §5's cooperative event-loop
// model); public methods hand a closure to that goroutine over actions
// and block for its result.
type Mempool struct {
	cache     *TxCache
	queue     *senderQueue
	chain     ChainState
	gasSource GasPriceSource
	verifier  SignatureVerifier
	resources *resource.Manager
	executors *executor.Pool
	repl      *Replicator

	// expectedNonce is the next nonce the scheduler will treat as ready for
	// each sender. Seeded from chain.NonceAt on first touch and advanced by
	// one on every dispatch — not on executor completion — so a sender's
	// queued txs pipeline through the executor pool back-to-back instead of
	// stalling for on-chain confirmation of each one (spec.md §8 scenario
	// S5: nonces {3,4,6} at on-chain nonce 3 dispatch 3 then 4 immediately).
	// chain.NonceAt stays authoritative for the NonceTooLow admission
	// check, which must see the real confirmed nonce.
	expectedNonce map[common.Address]uint64

	suspended bool

	actions chan func()
	stop    chan struct{}
	log     log.Logger
}

// Config bundles Mempool's collaborators at construction time — the
// rewrite's answer to the original's global singleton model instance
// (spec.md §9 design note): everything is an explicit dependency.
type Config struct {
	Chain     ChainState
	GasSource GasPriceSource
	Verifier  SignatureVerifier
	Resources *resource.Manager
	Executors *executor.Pool
	CacheTTL  time.Duration
}

// New builds a Mempool. Call Start to begin processing; Submit and the
// other public methods block until Start's goroutine is running.
func New(cfg Config) *Mempool {
	m := &Mempool{
		cache:         NewTxCache(cfg.CacheTTL),
		queue:         newSenderQueue(),
		chain:         cfg.Chain,
		gasSource:     cfg.GasSource,
		verifier:      cfg.Verifier,
		resources:     cfg.Resources,
		executors:     cfg.Executors,
		expectedNonce: make(map[common.Address]uint64),
		actions:       make(chan func(), 64),
		stop:          make(chan struct{}),
		log:           log.New("component", "mempool"),
	}
	m.repl = NewReplicator(m.Submit, nil)
	return m
}

// SetReplicator overrides the default no-dial Replicator built in New,
// used once a real peer dialer is available.
func (m *Mempool) SetReplicator(r *Replicator) {
	m.repl = r
}

// Start runs the single-goroutine event loop until Stop is called.
func (m *Mempool) Start() {
	ticker := time.NewTicker(200 * time.Millisecond)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case fn := <-m.actions:
				fn()
			case <-ticker.C:
				m.cache.Sweep()
				m.schedulerPass()
			case <-m.stop:
				return
			}
		}
	}()
}

// Stop terminates the event loop goroutine.
func (m *Mempool) Stop() {
	close(m.stop)
}

// do runs fn on the event-loop goroutine and blocks until it completes.
func (m *Mempool) do(fn func()) {
	done := make(chan struct{})
	m.actions <- func() {
		fn()
		close(done)
	}
	<-done
}

// Submit runs the admission pipeline for tx (spec.md §4.5 checks (a)-(f))
// and, if accepted, enqueues it and triggers a scheduler pass.
func (m *Mempool) Submit(tx gwtypes.MempoolTx) gwtypes.SubmitResult {
	var result gwtypes.SubmitResult
	m.do(func() {
		result = m.submitLocked(tx)
	})
	return result
}

func (m *Mempool) submitLocked(tx gwtypes.MempoolTx) gwtypes.SubmitResult {
	m.cache.Sweep()

	// (a) duplicate check.
	if _, _, ok := m.cache.Get(tx.Signature); ok {
		return gwtypes.SubmitResult{Outcome: gwtypes.DuplicateKnown}
	}
	if _, ok := m.queue.findBySignature(tx.Signature); ok {
		return gwtypes.SubmitResult{Outcome: gwtypes.DuplicateKnown}
	}

	// (b) price floor.
	minGasPrice := m.gasSource.Snapshot().Minimum
	if tx.GasPrice == nil || tx.GasPrice.Lt(uint256.NewInt(minGasPrice)) {
		return gwtypes.SubmitResult{
			Outcome: gwtypes.Rejected,
			Reason:  gwtypes.NewDomainError(gwtypes.CodeUnderpriced, "gas price below the configured minimum", nil),
		}
	}

	// (c) signature recovery.
	if m.verifier != nil {
		sender, _, _, _, ok := m.verifier.Verify(tx.Raw)
		if !ok || sender != tx.Sender {
			return gwtypes.SubmitResult{
				Outcome: gwtypes.Rejected,
				Reason:  gwtypes.NewDomainError(gwtypes.CodeBadSignature, "signature does not recover to the claimed sender", nil),
			}
		}
	}

	// (d) nonce too low against on-chain state.
	onChain := m.chain.NonceAt(tx.Sender)
	if tx.Nonce < onChain {
		return gwtypes.SubmitResult{
			Outcome: gwtypes.NonceTooLow,
			Reason:  gwtypes.NonceMismatchError(tx.Nonce, onChain),
		}
	}

	// (e) replacement-by-bump at a colliding (sender, nonce).
	if incumbent, ok := m.queue.lookup(tx.Sender, tx.Nonce); ok {
		if !clearsReplacementBump(tx.GasPrice, incumbent.GasPrice) {
			return gwtypes.SubmitResult{Outcome: gwtypes.UnderpricedReplacement}
		}
	}

	// (f) enqueue.
	base := m.expectedNonceFor(tx.Sender)
	pendingNext := m.queue.contiguousPrefixEnd(tx.Sender, base)
	if pendingNext < base {
		pendingNext = base
	}
	m.queue.insert(tx)

	outcome := gwtypes.Accepted
	if tx.Nonce > pendingNext {
		outcome = gwtypes.NonceGap
	}

	m.schedulerPass()
	return gwtypes.SubmitResult{Outcome: outcome}
}

// clearsReplacementBump reports whether candidate's gas price meets the
// 10%-bump-or-better rule against incumbent (spec.md §8 property 7):
// candidate >= ceil(1.10 * incumbent).
func clearsReplacementBump(candidate, incumbent *uint256.Int) bool {
	if candidate == nil || incumbent == nil {
		return false
	}
	num := uint256.NewInt(replacementBumpNumerator)
	den := uint256.NewInt(replacementBumpDenominator)

	product := new(uint256.Int).Mul(incumbent, num)
	threshold := new(uint256.Int).Div(product, den)
	rem := new(uint256.Int).Mod(product, den)
	if !rem.IsZero() {
		threshold.AddUint64(threshold, 1)
	}
	return candidate.Cmp(threshold) >= 0
}

// GetPendingNonce returns max(on_chain_nonce, 1 + highest contiguous
// queued nonce) for sender (spec.md §4.5), generalized to start from the
// sender's expected-nonce tracker so already-dispatched-but-unconfirmed
// txs still count toward the pending nonce (see the expectedNonce field
// doc).
func (m *Mempool) GetPendingNonce(sender common.Address) uint64 {
	var nonce uint64
	m.do(func() {
		base := m.expectedNonceFor(sender)
		nonce = m.queue.contiguousPrefixEnd(sender, base)
		if nonce < base {
			nonce = base
		}
	})
	return nonce
}

// expectedNonceFor returns the sender's tracked next-ready nonce, seeding
// it from chain.NonceAt on first reference. Must only run on the
// event-loop goroutine.
func (m *Mempool) expectedNonceFor(sender common.Address) uint64 {
	if n, ok := m.expectedNonce[sender]; ok {
		return n
	}
	n := m.chain.NonceAt(sender)
	m.expectedNonce[sender] = n
	return n
}

// GetPendingTxByHash consults the queue then the cache for signature.
func (m *Mempool) GetPendingTxByHash(signature common.Hash) (gwtypes.MempoolTx, bool) {
	var tx gwtypes.MempoolTx
	var ok bool
	m.do(func() {
		if tx, ok = m.queue.findBySignature(signature); ok {
			return
		}
		tx, _, ok = m.cache.Get(signature)
	})
	return tx, ok
}

// GetGasPrice returns the current minimum/suggested gas price snapshot.
// Read-only against an independently-synchronized source, so it bypasses
// the event loop.
func (m *Mempool) GetGasPrice() gwtypes.GasPriceSnapshot {
	return m.gasSource.Snapshot()
}

// Suspend stops the scheduler from dispatching new work; in-flight
// executions complete normally (spec.md §4.5).
func (m *Mempool) Suspend() {
	m.do(func() { m.suspended = true })
}

// Resume re-enables dispatch and immediately runs a scheduler pass.
func (m *Mempool) Resume() {
	m.do(func() {
		m.suspended = false
		m.schedulerPass()
	})
}

// OnResourceReleased re-runs the scheduler pass; it is the callback the
// ResourceManager (or a caller releasing a lease out of band) uses to
// wake the loop (spec.md §4.3/§4.5).
func (m *Mempool) OnResourceReleased() {
	m.do(m.schedulerPass)
}

// schedulerPass implements spec.md §4.5's scheduler pass. Must only run
// on the event-loop goroutine.
func (m *Mempool) schedulerPass() {
	if m.suspended {
		return
	}
	for {
		candidates := m.queue.readyHeads(m.expectedNonceFor)
		best, ok := pickBest(candidates)
		if !ok {
			return
		}
		resID, ok := m.resources.TryAcquire(best.Signature)
		if !ok {
			return
		}
		m.queue.removeHead(best.Sender)
		m.expectedNonce[best.Sender] = best.Nonce + 1
		m.dispatch(best, resID)
	}
}

// dispatch hands best to the executor pool on its own goroutine — the
// ExecutorPool round-trip is the one genuinely concurrent operation the
// event loop delegates out (spec.md §5) — and reports completion back
// onto actions so the release/cache-insert/broadcast/rescheduling all
// still happen without locking.
func (m *Mempool) dispatch(tx gwtypes.MempoolTx, resourceID int) {
	go func() {
		res, err := m.executors.Submit(executor.ExecRequest{
			Signature:      tx.Signature,
			SenderResource: resourceID,
			Raw:            tx.Raw,
		})
		m.actions <- func() {
			m.onExecutionComplete(tx, resourceID, res, err)
		}
	}()
}

func (m *Mempool) onExecutionComplete(tx gwtypes.MempoolTx, resourceID int, res executor.ExecResult, err error) {
	outcome := resource.OutcomeSuccess
	var cacheErr error
	switch {
	case err != nil:
		outcome = resource.OutcomeFailure
		cacheErr = err
		m.log.Warn("executor unavailable for dispatched tx", "sig", tx.Signature, "err", err)
	case !res.Ok:
		outcome = resource.OutcomeFailure
		cacheErr = &gwtypes.BackendError{Logs: res.Logs, RawResult: res.Error}
	}

	m.resources.OnUsed(resourceID, outcome)
	m.cache.Add(tx.Signature, tx, cacheErr)

	if cacheErr == nil && m.repl != nil {
		m.repl.Broadcast(tx)
	}

	m.schedulerPass()
}
