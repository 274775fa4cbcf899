package types

import "time"

// GasPriceSnapshot is a TTL-refreshed pair of gas price floors, sourced
// from an external price feed (spec.md §3).
type GasPriceSnapshot struct {
	Minimum     uint64
	Suggested   uint64
	RefreshedAt time.Time
}
