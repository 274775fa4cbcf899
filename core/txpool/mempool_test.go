package txpool

import (
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/neonlabsorg/neon-proxy-go/core/executor"
	"github.com/neonlabsorg/neon-proxy-go/core/executor/execfake"
	"github.com/neonlabsorg/neon-proxy-go/core/resource"
	gwtypes "github.com/neonlabsorg/neon-proxy-go/core/types"
	"github.com/stretchr/testify/require"
)

// fakeChainState is a mutable in-memory ChainState for tests.
type fakeChainState struct {
	mu     sync.Mutex
	nonces map[common.Address]uint64
}

func newFakeChainState() *fakeChainState {
	return &fakeChainState{nonces: make(map[common.Address]uint64)}
}

func (f *fakeChainState) NonceAt(sender common.Address) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nonces[sender]
}

func (f *fakeChainState) set(sender common.Address, nonce uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nonces[sender] = nonce
}

// permissiveVerifier treats the first 20 bytes of Raw as the recovered
// sender address and always succeeds, so tests control pass/fail by
// shaping Raw rather than doing real ECDSA recovery.
type permissiveVerifier struct{ fail bool }

func (v permissiveVerifier) Verify(raw []byte) (common.Address, uint64, *uint256.Int, common.Hash, bool) {
	if v.fail || len(raw) < 20 {
		return common.Address{}, 0, nil, common.Hash{}, false
	}
	var addr common.Address
	copy(addr[:], raw[:20])
	return addr, 0, nil, common.Hash{}, true
}

func rawFor(sender common.Address) []byte {
	return append([]byte{}, sender.Bytes()...)
}

func newTestMempool(t *testing.T, poolSize int) (*Mempool, *fakeChainState, *execfake.FactoryPool) {
	t.Helper()
	chain := newFakeChainState()
	fp := &execfake.FactoryPool{}
	pool, err := executor.AsyncInit(context.Background(), poolSize, func() (executor.Backend, error) { return fp.Factory() })
	require.NoError(t, err)

	m := New(Config{
		Chain:     chain,
		GasSource: NewStaticGasPriceSource(1, 1),
		Verifier:  permissiveVerifier{},
		Resources: resource.NewManager(poolSize),
		Executors: pool,
	})
	m.Start()
	t.Cleanup(m.Stop)
	return m, chain, fp
}

func mkTx(sender common.Address, nonce uint64, gasPrice uint64) gwtypes.MempoolTx {
	sig := common.BigToHash(new(big.Int).SetBytes(append(sender.Bytes(), byte(nonce), byte(gasPrice))))
	return gwtypes.MempoolTx{
		Signature:   sig,
		Sender:      sender,
		Nonce:       nonce,
		GasPrice:    uint256.NewInt(gasPrice),
		Raw:         rawFor(sender),
		SubmittedAt: time.Now(),
	}
}

// TestReplacementRule exercises spec.md §8 scenario S4 / property 7.
func TestReplacementRule(t *testing.T) {
	m, chain, _ := newTestMempool(t, 1)
	sender := common.HexToAddress("0xaaaa")
	chain.set(sender, 0) // nonce 5 never becomes ready; pure admission test

	a := mkTx(sender, 5, 100)
	res := m.Submit(a)
	require.Equal(t, gwtypes.NonceGap, res.Outcome)

	b := mkTx(sender, 5, 109)
	res = m.Submit(b)
	require.Equal(t, gwtypes.UnderpricedReplacement, res.Outcome, "109 is below the required ceil(1.10*100)=110 bump")

	bPrime := mkTx(sender, 5, 110)
	res = m.Submit(bPrime)
	require.Equal(t, gwtypes.NonceGap, res.Outcome, "110 clears the bump and replaces the incumbent")

	_, ok := m.GetPendingTxByHash(a.Signature)
	require.False(t, ok, "the replaced incumbent must no longer be queued")
	_, ok = m.GetPendingTxByHash(bPrime.Signature)
	require.True(t, ok)
}

// TestNonceOrderedDispatch exercises spec.md §8 scenario S5 / property 4.
func TestNonceOrderedDispatch(t *testing.T) {
	m, chain, fp := newTestMempool(t, 4)
	sender := common.HexToAddress("0xbbbb")
	chain.set(sender, 3)

	tx3 := mkTx(sender, 3, 10)
	tx4 := mkTx(sender, 4, 10)
	tx6 := mkTx(sender, 6, 10)

	require.Equal(t, gwtypes.Accepted, m.Submit(tx3).Outcome)
	require.Equal(t, gwtypes.Accepted, m.Submit(tx4).Outcome)
	require.Equal(t, gwtypes.NonceGap, m.Submit(tx6).Outcome)

	require.Eventually(t, func() bool {
		_, ok3 := m.GetPendingTxByHash(tx3.Signature)
		_, ok4 := m.GetPendingTxByHash(tx4.Signature)
		return ok3 && ok4
	}, time.Second, 5*time.Millisecond, "nonces 3 and 4 must both dispatch and land in the cache")

	_, ok6 := m.GetPendingTxByHash(tx6.Signature)
	require.True(t, ok6, "nonce 6 stays queued behind the gap at nonce 5")

	require.Equal(t, uint64(5), m.GetPendingNonce(sender))

	var dispatchedSigs []common.Hash
	for _, be := range fp.Created {
		for _, call := range be.Calls {
			dispatchedSigs = append(dispatchedSigs, call.Signature)
		}
	}
	require.Len(t, dispatchedSigs, 2)
}

// TestSuspendResume exercises spec.md §8 scenario S6.
func TestSuspendResume(t *testing.T) {
	m, chain, fp := newTestMempool(t, 2)
	sender := common.HexToAddress("0xcccc")
	chain.set(sender, 1)

	m.Suspend()
	tx := mkTx(sender, 1, 10)
	res := m.Submit(tx)
	require.Equal(t, gwtypes.Accepted, res.Outcome)

	time.Sleep(30 * time.Millisecond)
	total := 0
	for _, be := range fp.Created {
		total += len(be.Calls)
	}
	require.Equal(t, 0, total, "a suspended mempool must not dispatch")

	m.Resume()
	require.Eventually(t, func() bool {
		total := 0
		for _, be := range fp.Created {
			total += len(be.Calls)
		}
		return total == 1
	}, time.Second, 5*time.Millisecond, "resume must let the queued tx dispatch")
}

func TestDuplicateSubmissionRejected(t *testing.T) {
	m, chain, _ := newTestMempool(t, 1)
	sender := common.HexToAddress("0xdddd")
	chain.set(sender, 0)

	tx := mkTx(sender, 5, 10)
	require.Equal(t, gwtypes.NonceGap, m.Submit(tx).Outcome)
	require.Equal(t, gwtypes.DuplicateKnown, m.Submit(tx).Outcome)
}

func TestUnderpricedRejected(t *testing.T) {
	m, chain, _ := newTestMempool(t, 1)
	sender := common.HexToAddress("0xeeee")
	chain.set(sender, 0)

	tx := mkTx(sender, 0, 0)
	res := m.Submit(tx)
	require.Equal(t, gwtypes.Rejected, res.Outcome)
	require.IsType(t, &gwtypes.DomainError{}, res.Reason)
}

func TestBadSignatureRejected(t *testing.T) {
	chain := newFakeChainState()
	fp := &execfake.FactoryPool{}
	pool, err := executor.AsyncInit(context.Background(), 1, func() (executor.Backend, error) { return fp.Factory() })
	require.NoError(t, err)

	m := New(Config{
		Chain:     chain,
		GasSource: NewStaticGasPriceSource(1, 1),
		Verifier:  permissiveVerifier{fail: true},
		Resources: resource.NewManager(1),
		Executors: pool,
	})
	m.Start()
	defer m.Stop()

	sender := common.HexToAddress("0xffff")
	tx := mkTx(sender, 0, 10)
	res := m.Submit(tx)
	require.Equal(t, gwtypes.Rejected, res.Outcome)
	domainErr, ok := res.Reason.(*gwtypes.DomainError)
	require.True(t, ok)
	require.Equal(t, gwtypes.CodeBadSignature, domainErr.Code)
}

func TestNonceTooLowRejected(t *testing.T) {
	m, chain, _ := newTestMempool(t, 1)
	sender := common.HexToAddress("0x1111")
	chain.set(sender, 10)

	tx := mkTx(sender, 5, 10)
	res := m.Submit(tx)
	require.Equal(t, gwtypes.NonceTooLow, res.Outcome)
}
