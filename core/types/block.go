// Package types holds the data model shared by the block store, mempool
// and RPC dispatcher: slot-indexed blocks, pooled transactions, resource
// leases and the error taxonomy they all raise.
package types

import "github.com/ethereum/go-ethereum/common"

// Block is a stored row of the slot-indexed foreign ledger. Identity is
// Slot. A row only becomes Active either immediately on Finalize or via
// ActivateList (branch switch); IsFinalized implies IsActive.
type Block struct {
	Slot          uint64
	Hash          common.Hash
	Time          int64
	ParentSlot    uint64
	IsFinalized   bool
	IsActive      bool
}

// BlockInfo is the reconciled view returned to callers. Hash and
// ParentHash are always populated — synthesized when the underlying row
// doesn't carry a materialized value.
type BlockInfo struct {
	Slot        uint64
	Hash        common.Hash
	Time        int64
	ParentHash  common.Hash
	IsFinalized bool

	// Stub reports a slot above the indexer's current tip: only Slot is
	// meaningful, matching spec.md §4.1 scenario S1.
	Stub bool
}
