// Package txpool implements mempool admission, per-sender ordering,
// scheduling against the executor pool, and best-effort replication
// (spec.md §4.2, §4.5, §4.6).
package txpool

import (
	"container/list"
	"time"

	"github.com/ethereum/go-ethereum/common"
	gwtypes "github.com/neonlabsorg/neon-proxy-go/core/types"
)

// cacheTTL is the default lifetime of a MempoolTxCache entry, matching
// MPTxDict's 15-second `_life_time` in
// original_source/proxy/mempool/mempool_neon_tx_dict.go.py.
const cacheTTL = 15 * time.Second

// cacheItem is the value stored in a TxCache, frozen at insertion time —
// signature, the transaction as submitted, and an optional terminal error.
type cacheItem struct {
	insertedAt time.Time
	signature  common.Hash
	tx         gwtypes.MempoolTx
	err        error

	elem *list.Element // position in the expiry order, for O(1) removal
}

// TxCache is an append-on-accept, timed-expiry registry of completed
// submissions. Ported from MPTxDict: a map for O(1) lookup and an ordered
// list for O(1) expiry from the front — both always reference the same
// item identity (spec.md §4.2 invariant).
type TxCache struct {
	ttl   time.Duration
	items map[common.Hash]*cacheItem
	order *list.List // front = oldest
	now   func() time.Time
}

// NewTxCache builds a cache with the given TTL. ttl <= 0 uses cacheTTL.
func NewTxCache(ttl time.Duration) *TxCache {
	if ttl <= 0 {
		ttl = cacheTTL
	}
	return &TxCache{
		ttl:   ttl,
		items: make(map[common.Hash]*cacheItem),
		order: list.New(),
		now:   time.Now,
	}
}

// Add records tx as resolved, with an optional terminal error (nil on
// success). Timestamps at whole-second resolution, matching the source's
// math.ceil(time.time()) rounding.
func (c *TxCache) Add(signature common.Hash, tx gwtypes.MempoolTx, err error) {
	now := c.now()
	ts := now.Truncate(time.Second)
	if ts.Before(now) {
		ts = ts.Add(time.Second)
	}
	item := &cacheItem{insertedAt: ts, signature: signature, tx: tx, err: err}
	item.elem = c.order.PushBack(item)
	c.items[signature] = item
}

// Get returns the cached transaction and its terminal error (if any), or
// ok=false if signature isn't present.
func (c *TxCache) Get(signature common.Hash) (gwtypes.MempoolTx, error, bool) {
	item, ok := c.items[signature]
	if !ok {
		return gwtypes.MempoolTx{}, nil, false
	}
	return item.tx, item.err, true
}

// Sweep drains items older than the TTL from the front of the order list.
// Called opportunistically on every submit and on a periodic tick.
func (c *TxCache) Sweep() {
	if c.order.Len() == 0 {
		return
	}
	cutoff := c.now().Add(-c.ttl)
	for c.order.Len() > 0 {
		front := c.order.Front()
		item := front.Value.(*cacheItem)
		if !item.insertedAt.Before(cutoff) {
			break
		}
		c.order.Remove(front)
		delete(c.items, item.signature)
	}
}

// Len reports how many entries are currently cached (test/diagnostic use).
func (c *TxCache) Len() int {
	return len(c.items)
}
