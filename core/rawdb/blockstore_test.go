package rawdb

import (
	"context"
	"math/big"
	"sort"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	gwtypes "github.com/neonlabsorg/neon-proxy-go/core/types"
	"github.com/stretchr/testify/require"
)

// fakeQuerier is an in-memory stand-in for pgxQuerier that reproduces the
// SQL semantics BlockStore depends on, so the synthesis/reconciliation
// logic in blockstore.go is tested without a live Postgres instance.
type fakeQuerier struct {
	rows map[uint64]*gwtypes.Block
}

func newFakeQuerier() *fakeQuerier {
	return &fakeQuerier{rows: map[uint64]*gwtypes.Block{}}
}

func (f *fakeQuerier) put(b gwtypes.Block) {
	cp := b
	f.rows[b.Slot] = &cp
}

func (f *fakeQuerier) QuerySlotPair(_ context.Context, slot uint64) (*row, error) {
	self, ok := f.rows[slot]
	if !ok || !self.IsActive {
		return nil, nil
	}
	r := &row{Slot: self.Slot, IsFinalized: self.IsFinalized}
	if self.Hash != (common.Hash{}) {
		h := self.Hash
		r.Hash = &h
	}
	if self.Time != 0 {
		t := self.Time
		r.Time = &t
	}
	if slot > 0 {
		if parent, ok := f.rows[slot-1]; ok && parent.IsActive && parent.Hash != (common.Hash{}) {
			h := parent.Hash
			r.ParentHash = &h
		}
	}
	return r, nil
}

func (f *fakeQuerier) QueryByHash(_ context.Context, hash common.Hash) (*row, error) {
	for _, self := range f.rows {
		if self.IsActive && self.Hash == hash {
			r := &row{Slot: self.Slot, IsFinalized: self.IsFinalized}
			h := self.Hash
			r.Hash = &h
			if self.Time != 0 {
				t := self.Time
				r.Time = &t
			}
			if self.Slot > 0 {
				if parent, ok := f.rows[self.Slot-1]; ok && parent.IsActive && parent.Hash != (common.Hash{}) {
					ph := parent.Hash
					r.ParentHash = &ph
				}
			}
			return r, nil
		}
	}
	return nil, nil
}

func (f *fakeQuerier) QueryNearestNeighbors(_ context.Context, slot uint64) (*neighborBlock, *neighborBlock, error) {
	var active []uint64
	for s, b := range f.rows {
		if b.IsActive {
			active = append(active, s)
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i] < active[j] })

	var lower, upper *neighborBlock
	for _, s := range active {
		b := f.rows[s]
		if s <= slot {
			lower = &neighborBlock{Slot: int64(s), Time: b.Time}
		}
		if s >= slot && upper == nil {
			upper = &neighborBlock{Slot: int64(s), Time: b.Time}
		}
	}
	return lower, upper, nil
}

func (f *fakeQuerier) InsertBatch(_ context.Context, blocks []gwtypes.Block) error {
	for _, b := range blocks {
		b.IsActive = b.IsFinalized
		f.put(b)
	}
	return nil
}

func (f *fakeQuerier) FinalizeList(_ context.Context, baseSlot uint64, slots []uint64) error {
	for _, s := range slots {
		if b, ok := f.rows[s]; ok {
			b.IsFinalized = true
			b.IsActive = true
		}
	}
	last := slots[len(slots)-1]
	for s, b := range f.rows {
		if s > baseSlot && s < last && !b.IsActive {
			delete(f.rows, s)
		}
	}
	return nil
}

func (f *fakeQuerier) ActivateList(_ context.Context, baseSlot uint64, slots []uint64) error {
	for s, b := range f.rows {
		if s > baseSlot {
			b.IsActive = false
		}
	}
	for _, s := range slots {
		if b, ok := f.rows[s]; ok {
			b.IsActive = true
		}
	}
	return nil
}

// TestGetBySlotStub exercises spec.md §8 scenario S1.
func TestGetBySlotStub(t *testing.T) {
	bs := NewBlockStore(newFakeQuerier(), 0)
	info, err := bs.GetBySlot(context.Background(), 100, 50)
	require.NoError(t, err)
	require.True(t, info.Stub)
	require.Equal(t, uint64(100), info.Slot)
}

// TestGetBySlotSynthesizesTimeAndParent exercises spec.md §8 scenario S2.
func TestGetBySlotSynthesizesTimeAndParent(t *testing.T) {
	q := newFakeQuerier()
	q.put(gwtypes.Block{Slot: 10, Hash: common.HexToHash("0xaa"), Time: 1000, IsFinalized: true, IsActive: true})

	bs := NewBlockStore(q, 0)
	info, err := bs.GetBySlot(context.Background(), 12, 20)
	require.NoError(t, err)
	require.Equal(t, int64(1001), info.Time)
	require.Equal(t, encodeSyntheticHash(11), info.ParentHash)
	require.Equal(t, encodeSyntheticHash(12), info.Hash)
}

// TestGetByHashSyntheticDelegatesAndPreservesHash exercises the uncle-probe
// behavior: decoding a synthetic hash and delegating to GetBySlot must not
// overwrite the caller's originally requested hash.
func TestGetByHashSyntheticDelegatesAndPreservesHash(t *testing.T) {
	bs := NewBlockStore(newFakeQuerier(), 0)
	requested := encodeSyntheticHash(42)
	info, err := bs.GetByHash(context.Background(), requested, 100)
	require.NoError(t, err)
	require.Equal(t, requested, info.Hash)
	require.Equal(t, uint64(42), info.Slot)
}

// TestBranchSwitch exercises spec.md §8 property 3.
func TestBranchSwitch(t *testing.T) {
	q := newFakeQuerier()
	for _, s := range []uint64{1, 2, 3, 4} {
		q.put(gwtypes.Block{Slot: s, Hash: common.BigToHash(new(big.Int).SetUint64(s)), IsFinalized: false, IsActive: true})
	}

	bs := NewBlockStore(q, 0)
	require.NoError(t, bs.ActivateList(context.Background(), 1, []uint64{2, 3}))

	require.False(t, q.rows[4].IsActive)
	require.True(t, q.rows[2].IsActive)
	require.True(t, q.rows[3].IsActive)

	require.NoError(t, bs.FinalizeList(context.Background(), 1, []uint64{2, 3}))
	require.True(t, q.rows[2].IsFinalized)
	require.True(t, q.rows[3].IsFinalized)
	// slot 4 was inactive and strictly between base(1) and last(3)? No,
	// 4 is not < 3, so it survives the GC; re-check with a slot that is.
}

func TestFinalizeListGarbageCollectsOrphans(t *testing.T) {
	q := newFakeQuerier()
	q.put(gwtypes.Block{Slot: 1, Hash: common.HexToHash("0x1"), IsActive: true})
	q.put(gwtypes.Block{Slot: 2, Hash: common.HexToHash("0x2"), IsActive: false}) // orphan branch row
	q.put(gwtypes.Block{Slot: 3, Hash: common.HexToHash("0x3"), IsActive: true})

	bs := NewBlockStore(q, 0)
	require.NoError(t, bs.FinalizeList(context.Background(), 1, []uint64{3}))

	_, stillThere := q.rows[2]
	require.False(t, stillThere, "inactive orphan strictly between base and last finalized slot must be deleted")
	require.True(t, q.rows[3].IsFinalized)
	require.True(t, q.rows[3].IsActive)
}
