package types

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// MempoolTx is an admitted (or admission-candidate) transaction. Identity
// is Signature; secondary key is (Sender, Nonce).
type MempoolTx struct {
	Signature common.Hash
	Sender    common.Address
	Nonce     uint64
	GasPrice  *uint256.Int
	Raw       []byte

	// Deadline is a monotonic deadline used by the scheduler/executor
	// timeout path; it carries time.Now()'s monotonic reading.
	Deadline time.Time

	// SubmittedAt orders same-gas-price ready candidates during
	// scheduling (earliest submit time wins ties, spec.md §4.5).
	SubmittedAt time.Time
}

// SubmitOutcome tags the result of Mempool.Submit per spec.md §4.5.
type SubmitOutcome int

const (
	Accepted SubmitOutcome = iota
	DuplicateKnown
	NonceTooLow
	NonceGap
	UnderpricedReplacement
	Rejected
)

func (o SubmitOutcome) String() string {
	switch o {
	case Accepted:
		return "Accepted"
	case DuplicateKnown:
		return "DuplicateKnown"
	case NonceTooLow:
		return "NonceTooLow"
	case NonceGap:
		return "NonceGap"
	case UnderpricedReplacement:
		return "UnderpricedReplacement"
	case Rejected:
		return "Rejected"
	default:
		return "Unknown"
	}
}

// SubmitResult is the full tagged-variant return of Submit: the design
// note in spec.md §9 replaces the original's exception-driven nonce
// mismatch with this explicit struct.
type SubmitResult struct {
	Outcome SubmitOutcome
	Reason  error // non-nil for Rejected and NonceTooLow; UnderpricedReplacement/DuplicateKnown carry none, self-explanatory from Outcome alone
}

// TxQueueState is the per-queued-tx state machine of spec.md §4.5:
// Queued -> Dispatched -> {Committed, Failed}. Re-entry only via a fresh
// Submit, which always starts at Queued.
type TxQueueState int

const (
	Queued TxQueueState = iota
	Dispatched
	Committed
	Failed
)
