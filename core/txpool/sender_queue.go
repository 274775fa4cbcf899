package txpool

import (
	"sort"

	"github.com/ethereum/go-ethereum/common"
	gwtypes "github.com/neonlabsorg/neon-proxy-go/core/types"
)

// senderQueue holds every sender's queued (not yet dispatched)
// transactions, nonce-ordered per sender. Dispatched transactions leave
// the queue entirely — their subsequent Committed/Failed state lives in
// TxCache once the scheduler hands them to the executor (spec.md §4.5).
type senderQueue struct {
	bySender map[common.Address][]gwtypes.MempoolTx
}

func newSenderQueue() *senderQueue {
	return &senderQueue{bySender: make(map[common.Address][]gwtypes.MempoolTx)}
}

// insert adds tx to its sender's queue in nonce order, or replaces an
// existing tx at the same nonce (the caller is responsible for having
// already applied the replacement-bump rule).
func (q *senderQueue) insert(tx gwtypes.MempoolTx) {
	list := q.bySender[tx.Sender]
	for i, existing := range list {
		if existing.Nonce == tx.Nonce {
			list[i] = tx
			return
		}
	}
	list = append(list, tx)
	sort.Slice(list, func(i, j int) bool { return list[i].Nonce < list[j].Nonce })
	q.bySender[tx.Sender] = list
}

// lookup finds a queued tx at (sender, nonce), if any.
func (q *senderQueue) lookup(sender common.Address, nonce uint64) (gwtypes.MempoolTx, bool) {
	for _, tx := range q.bySender[sender] {
		if tx.Nonce == nonce {
			return tx, true
		}
	}
	return gwtypes.MempoolTx{}, false
}

// findBySignature scans every sender's queue for a tx with the given
// signature (used by GetPendingTxByHash).
func (q *senderQueue) findBySignature(sig common.Hash) (gwtypes.MempoolTx, bool) {
	for _, list := range q.bySender {
		for _, tx := range list {
			if tx.Signature == sig {
				return tx, true
			}
		}
	}
	return gwtypes.MempoolTx{}, false
}

// removeHead removes the lowest-nonce queued tx for sender,
// used once the scheduler dispatches it.
func (q *senderQueue) removeHead(sender common.Address) {
	list := q.bySender[sender]
	if len(list) == 0 {
		return
	}
	if len(list) == 1 {
		delete(q.bySender, sender)
		return
	}
	q.bySender[sender] = list[1:]
}

// contiguousPrefixEnd returns 1 + the nonce of the longest contiguous run
// of queued nonces starting at startNonce — the basis for
// get_pending_nonce (spec.md §4.5).
func (q *senderQueue) contiguousPrefixEnd(sender common.Address, startNonce uint64) uint64 {
	list := q.bySender[sender]
	next := startNonce
	for _, tx := range list {
		if tx.Nonce != next {
			break
		}
		next++
	}
	return next
}

// readyHeads returns, for every sender with a non-empty queue whose head
// nonce equals onChainNonce(sender), that head transaction. The scheduler
// passes Mempool.expectedNonceFor here, not the raw on-chain nonce. Used by
// the scheduler pass to pick the highest-gas-price ready head across
// senders (spec.md §4.5).
func (q *senderQueue) readyHeads(onChainNonce func(common.Address) uint64) []gwtypes.MempoolTx {
	var ready []gwtypes.MempoolTx
	for sender, list := range q.bySender {
		if len(list) == 0 {
			continue
		}
		head := list[0]
		if head.Nonce == onChainNonce(sender) {
			ready = append(ready, head)
		}
	}
	return ready
}

// pickBest selects the highest-gas-price candidate, earliest submit time
// as tie-break (spec.md §4.5's scheduler pass).
func pickBest(candidates []gwtypes.MempoolTx) (gwtypes.MempoolTx, bool) {
	if len(candidates) == 0 {
		return gwtypes.MempoolTx{}, false
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		switch {
		case c.GasPrice.Cmp(best.GasPrice) > 0:
			best = c
		case c.GasPrice.Cmp(best.GasPrice) == 0 && c.SubmittedAt.Before(best.SubmittedAt):
			best = c
		}
	}
	return best, true
}
