// Package foreignrpc is the production bridge to the foreign base ledger
// (spec.md §1's "foreign ledger" — the chain this proxy fronts, reached
// over its own JSON-RPC endpoint). It implements rpc.ForeignLedger,
// core/txpool.ChainState, and rpc.ConfirmedNonceSource against a real
// go-ethereum ethclient.Client, the way the deleted node_rollup.go dialed
// an L1 RPC endpoint and stashed the client on the node for later use —
// the dial-and-log idiom survives even though that rollup-specific
// overlay doesn't (see DESIGN.md).
package foreignrpc

import (
	"context"
	"math/big"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/log"

	"github.com/neonlabsorg/neon-proxy-go/rpc"
)

// Client wraps an ethclient.Client with the narrow read surface the RPC
// dispatcher and mempool need from the foreign ledger: balances, code,
// call/estimate emulation, and confirmed nonces.
type Client struct {
	eth     *ethclient.Client
	timeout time.Duration
	log     log.Logger
}

// Dial connects to endpoint (e.g. "http://127.0.0.1:8545") and wraps the
// resulting client. timeout bounds every call made through Client; zero
// disables the bound.
func Dial(endpoint string, timeout time.Duration) (*Client, error) {
	eth, err := ethclient.Dial(endpoint)
	if err != nil {
		log.Error("foreign ledger RPC dial failed", "endpoint", endpoint, "err", err)
		return nil, err
	}
	log.Info("foreign ledger RPC client initialized", "endpoint", endpoint)
	return &Client{eth: eth, timeout: timeout, log: log.New("component", "foreignrpc")}, nil
}

func (c *Client) ctx(parent context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return parent, func() {}
	}
	return context.WithTimeout(parent, c.timeout)
}

// LatestSlot implements rpc.LatestSlotSource: the foreign ledger's own
// block height is the indexer's tip (spec.md §1.1 names tip-tracking as
// out of scope for the indexer's write side, but the RPC layer still
// needs a number for "latest"/eth_blockNumber).
func (c *Client) LatestSlot(ctx context.Context) (uint64, error) {
	ctx, cancel := c.ctx(ctx)
	defer cancel()
	return c.eth.BlockNumber(ctx)
}

// BalanceAt implements rpc.ForeignLedger.
func (c *Client) BalanceAt(ctx context.Context, addr common.Address) (*big.Int, error) {
	ctx, cancel := c.ctx(ctx)
	defer cancel()
	return c.eth.BalanceAt(ctx, addr, nil)
}

// CodeAt implements rpc.ForeignLedger.
func (c *Client) CodeAt(ctx context.Context, addr common.Address) ([]byte, error) {
	ctx, cancel := c.ctx(ctx)
	defer cancel()
	return c.eth.CodeAt(ctx, addr, nil)
}

// Call implements rpc.ForeignLedger, emulating eth_call against the
// foreign ledger's own JSON-RPC.
func (c *Client) Call(ctx context.Context, call rpc.CallRequest) ([]byte, error) {
	ctx, cancel := c.ctx(ctx)
	defer cancel()
	return c.eth.CallContract(ctx, toCallMsg(call), nil)
}

// EstimateGas implements rpc.ForeignLedger.
func (c *Client) EstimateGas(ctx context.Context, call rpc.CallRequest) (uint64, error) {
	ctx, cancel := c.ctx(ctx)
	defer cancel()
	return c.eth.EstimateGas(ctx, toCallMsg(call))
}

// NonceAt implements core/txpool.ChainState and rpc.ConfirmedNonceSource.
// Errors are logged and folded to 0 rather than propagated — Mempool and
// the dispatcher treat this as a best-effort lower bound, not a hard
// failure (spec.md §4.5: admission must not wedge on a foreign-ledger
// hiccup).
func (c *Client) NonceAt(sender common.Address) uint64 {
	ctx, cancel := c.ctx(context.Background())
	defer cancel()
	nonce, err := c.eth.NonceAt(ctx, sender, nil)
	if err != nil {
		c.log.Warn("NonceAt failed, treating as 0", "sender", sender, "err", err)
		return 0
	}
	return nonce
}

func toCallMsg(call rpc.CallRequest) ethereum.CallMsg {
	msg := ethereum.CallMsg{To: call.To, Data: call.Data}
	if call.From != nil {
		msg.From = *call.From
	}
	if call.Gas != nil {
		msg.Gas = uint64(*call.Gas)
	}
	if call.GasPrice != nil {
		msg.GasPrice = call.GasPrice.ToBig()
	}
	if call.Value != nil {
		msg.Value = call.Value.ToBig()
	}
	return msg
}
