package txpool

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
)

// EthSigner recovers the sender of a raw RLP-encoded Ethereum transaction
// using go-ethereum's own signer machinery — the production
// SignatureVerifier (spec.md §4.5 admission check (c)), in the spirit of
// the original's eth_proto.Trx.sender() EIP-155 recovery but against
// go-ethereum's real transaction types instead of a hand-rolled decoder.
type EthSigner struct {
	signer gethtypes.Signer
}

// NewEthSigner builds an EthSigner for the given chain id, accepting any
// transaction type go-ethereum's LatestSignerForChainID recognizes
// (legacy EIP-155, EIP-2930, EIP-1559, EIP-4844).
func NewEthSigner(chainID uint64) *EthSigner {
	return &EthSigner{signer: gethtypes.LatestSignerForChainID(new(big.Int).SetUint64(chainID))}
}

// Verify decodes raw as a go-ethereum transaction (RLP or typed envelope)
// and recovers its sender, nonce, gas price, and transaction hash.
func (s *EthSigner) Verify(raw []byte) (sender common.Address, nonce uint64, gasPrice *uint256.Int, signature common.Hash, ok bool) {
	var tx gethtypes.Transaction
	if err := tx.UnmarshalBinary(raw); err != nil {
		return common.Address{}, 0, nil, common.Hash{}, false
	}

	from, err := gethtypes.Sender(s.signer, &tx)
	if err != nil {
		return common.Address{}, 0, nil, common.Hash{}, false
	}

	gp, overflow := uint256.FromBig(tx.GasPrice())
	if overflow {
		return common.Address{}, 0, nil, common.Hash{}, false
	}

	return from, tx.Nonce(), gp, tx.Hash(), true
}
