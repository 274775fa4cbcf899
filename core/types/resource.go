package types

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// ResourceLease is an exclusive reservation of one operator resource
// (a signing identity with on-chain funds) for the duration of one
// executor run. At most one active lease per ResourceID and per
// Signature (spec.md §3).
type ResourceLease struct {
	ResourceID int
	Holder     common.Hash // tx signature; zero value means unheld
	AcquiredAt time.Time
}
