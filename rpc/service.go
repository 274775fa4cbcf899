package rpc

import (
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	gwtypes "github.com/neonlabsorg/neon-proxy-go/core/types"
)

// chainGasLimit is the fixed block gas limit advertised in every block
// JSON shape (spec.md §6: gasLimit:"0x6691b7").
const chainGasLimit = "0x6691b7"

// emptyLogsBloom is the fixed 256-byte (512 hex char) all-zero bloom
// filter every block/receipt carries (spec.md §6), since log indexing is
// out of scope for block assembly itself. Built with strings.Repeat
// rather than a hand-counted literal so its length can't silently drift
// from real Ethereum's 256-byte logsBloom width.
var emptyLogsBloom = "0x" + strings.Repeat("0", 512)

// ChainReader is the BlockStore view the RPC dispatcher needs: block
// lookup by slot/hash. core/rawdb.BlockStore implements it directly; the
// indexer's current tip comes separately through LatestSlotSource, since
// tracking the indexer's
// write-side tip is out of scope here (spec.md §1.1 "chain-config
// fetching" / out-of-scope writer internals).
type ChainReader interface {
	GetBySlot(ctx context.Context, slot, latestSlot uint64) (*gwtypes.BlockInfo, error)
	GetByHash(ctx context.Context, hash common.Hash, latestSlot uint64) (*gwtypes.BlockInfo, error)
}

// LatestSlotSource reports the indexer's current tip slot, i.e. the
// foreign-ledger block height underlying eth_blockNumber/"latest".
type LatestSlotSource interface {
	LatestSlot(ctx context.Context) (uint64, error)
}

// MempoolFacade is the subset of core/txpool.Mempool the RPC layer calls.
// Declared as an interface so tests substitute a stub instead of wiring a
// full executor/resource pool.
type MempoolFacade interface {
	Submit(tx gwtypes.MempoolTx) gwtypes.SubmitResult
	GetPendingNonce(sender common.Address) uint64
	GetPendingTxByHash(signature common.Hash) (gwtypes.MempoolTx, bool)
	GetGasPrice() gwtypes.GasPriceSnapshot
}

// ConfirmedNonceSource is the on-chain (non-pending) nonce view, backed in
// production by the same collaborator core/txpool.ChainState uses.
type ConfirmedNonceSource interface {
	NonceAt(sender common.Address) uint64
}

// TransactionSource is the indexer's transaction/receipt store — named
// out of scope by spec.md §1 ("the wire encoding of the foreign ledger's
// own transactions" / indexer internals); the dispatcher only needs a
// narrow read path, so it is reached through this interface instead of a
// concrete dependency (spec.md §4.1.1 supplement).
type TransactionSource interface {
	TransactionByHash(ctx context.Context, hash common.Hash) (*TxRecord, error)
	ReceiptByHash(ctx context.Context, hash common.Hash) (*ReceiptRecord, error)
	TransactionsForSlot(ctx context.Context, slot uint64) ([]TxRecord, error)
	Logs(ctx context.Context, filter LogFilter) ([]LogEntry, error)
}

// ForeignLedger is the narrow read/execute surface the dispatcher needs
// against the foreign base ledger itself: balances, code, and emulated
// call/estimate execution. Wiring this against the real chain is
// explicitly out of scope (spec.md §1: "signing key loading internals",
// "the executor's on-chain program semantics"); production deployments
// supply an internal/foreignrpc implementation.
type ForeignLedger interface {
	BalanceAt(ctx context.Context, addr common.Address) (*big.Int, error)
	CodeAt(ctx context.Context, addr common.Address) ([]byte, error)
	Call(ctx context.Context, call CallRequest) ([]byte, error)
	EstimateGas(ctx context.Context, call CallRequest) (uint64, error)
}

// TxDecoder recovers the fields eth_sendRawTransaction must populate on a
// MempoolTx before handing it to Mempool.Submit (sender, nonce, gas
// price, transaction hash) — the same shape core/txpool.SignatureVerifier
// exposes (and core/txpool.EthSigner implements), duck-typed here so rpc
// doesn't need to import core/txpool for the interface alone.
type TxDecoder interface {
	Verify(raw []byte) (sender common.Address, nonce uint64, gasPrice *uint256.Int, signature common.Hash, ok bool)
}

// Config bundles every collaborator plus the static chain facts the
// dispatcher reports (chain id, net version, client version string).
type Config struct {
	Chain          ChainReader
	LatestSlot     LatestSlotSource
	Mempool        MempoolFacade
	ConfirmedNonce ConfirmedNonceSource
	Txs            TransactionSource
	Ledger         ForeignLedger
	Decoder        TxDecoder

	ChainID       uint64
	NetVersion    string
	ClientVersion string

	// UnknownCodePlaceholder is returned by the eth_getCode stub for
	// accounts assumed to carry code, in place of the original's
	// hardcoded "0x01" (spec.md §9 Open Questions / SPEC_FULL §4.7.1).
	UnknownCodePlaceholder string
}

// Service holds the wired collaborators and builds request handlers
// against them.
type Service struct {
	cfg Config
}

// NewService builds a Service from cfg.
func NewService(cfg Config) *Service {
	return &Service{cfg: cfg}
}

// Dispatcher builds a Dispatcher with every method named in spec.md §6
// registered against this Service.
func (s *Service) Dispatcher() *Dispatcher {
	d := NewDispatcher()
	s.registerMisc(d)
	s.registerEth(d)
	return d
}
