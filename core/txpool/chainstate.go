package txpool

import (
	"github.com/ethereum/go-ethereum/common"
	gwtypes "github.com/neonlabsorg/neon-proxy-go/core/types"
	"github.com/holiman/uint256"
)

// ChainState is Mempool's view of on-chain account state, backed in
// production by internal/foreignrpc's client against the foreign ledger.
type ChainState interface {
	// NonceAt returns the next nonce the foreign ledger expects from
	// sender — the basis for the NonceTooLow admission check and for
	// get_pending_nonce's lower bound (spec.md §4.5).
	NonceAt(sender common.Address) uint64
}

// GasPriceSource supplies the minimum/suggested gas price pair
// (spec.md §4.5.1 supplement — original_source leaves the concrete price
// source external). Implementations are expected to internally
// TTL-refresh; Mempool treats Snapshot as cheap to call on every submit.
type GasPriceSource interface {
	Snapshot() gwtypes.GasPriceSnapshot
}

// StaticGasPriceSource reads a fixed floor from configuration — the one
// concrete implementation SPEC_FULL.md §4.5.1 calls for pending a real
// price oracle.
type StaticGasPriceSource struct {
	Minimum   uint64
	Suggested uint64
	now       func() int64
}

// NewStaticGasPriceSource builds a GasPriceSource with a fixed floor and
// suggested price, both in the foreign ledger's native gas units.
func NewStaticGasPriceSource(minimum, suggested uint64) *StaticGasPriceSource {
	return &StaticGasPriceSource{Minimum: minimum, Suggested: suggested}
}

func (s *StaticGasPriceSource) Snapshot() gwtypes.GasPriceSnapshot {
	return gwtypes.GasPriceSnapshot{Minimum: s.Minimum, Suggested: s.Suggested}
}

// SignatureVerifier validates that raw encodes a transaction validly
// signed by sender — the admission check (c) in spec.md §4.5. Production
// wiring recovers the signer via go-ethereum's crypto.SigToPub/Ecrecover
// against the decoded types.Transaction; tests substitute a stub.
type SignatureVerifier interface {
	Verify(raw []byte) (sender common.Address, nonce uint64, gasPrice *uint256.Int, signature common.Hash, ok bool)
}
