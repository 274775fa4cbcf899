// Package server implements the two external sockets of spec.md §6: the
// service socket (0.0.0.0:9091, transaction submission and reads) and the
// maintenance socket (0.0.0.0:9092, suspend/resume/replication commands).
// Framing is internal/wireframe's versioned, gob-encoded protocol — a
// typed replacement for the original implementation's pickled objects
// (spec.md §9 design note), carried over the same length-prefixed wire
// shape.
package server

import (
	"github.com/ethereum/go-ethereum/common"
	gwtypes "github.com/neonlabsorg/neon-proxy-go/core/types"
	"github.com/neonlabsorg/neon-proxy-go/core/txpool"
)

// ServiceRequest is one service-socket request. Exactly one of the
// variant fields is populated — gob encodes the nil ones as absent,
// avoiding an interface{} field (which gob cannot decode without upfront
// type registration per concrete request kind).
type ServiceRequest struct {
	ReqID string

	SendTransaction *SendTransactionArgs
	GetLastTxNonce  *GetLastTxNonceArgs
	GetTxByHash     *GetTxByHashArgs
	GetGasPrice     *GetGasPriceArgs
}

type SendTransactionArgs struct{ Raw []byte }
type GetLastTxNonceArgs struct{ Sender common.Address }
type GetTxByHashArgs struct{ Hash common.Hash }
type GetGasPriceArgs struct{}

// ServiceResponse carries the domain object the original returns for the
// matching request variant, or a Result with a short status string on
// failure: a panic during handling or an empty request becomes
// Result{"Request failed"} (spec.md §4 "Failure semantics"), and a
// rejected SendTransaction carries "bad signature", "known transaction",
// "replacement transaction underpriced", or "Request failed: <reason>".
type ServiceResponse struct {
	ReqID string

	Result *Result

	Signature *common.Hash
	Nonce     *uint64
	Tx        *gwtypes.MempoolTx
	Found     bool
	GasPrice  *gwtypes.GasPriceSnapshot
}

// Result is the short status wrapper spec.md §6 names for both sockets.
type Result struct {
	Status string
}

// MaintenanceRequest is one maintenance-socket command.
type MaintenanceRequest struct {
	ReqID string

	SuspendMemPool    *SuspendMemPoolArgs
	ResumeMemPool     *ResumeMemPoolArgs
	ReplicateRequests *ReplicateRequestsArgs
	ReplicateTxsBunch *ReplicateTxsBunchArgs
}

type SuspendMemPoolArgs struct{}
type ResumeMemPoolArgs struct{}
type ReplicateRequestsArgs struct{ Peers []txpool.Peer }
type ReplicateTxsBunchArgs struct {
	Sender common.Address
	Txs    []gwtypes.MempoolTx
}

// MaintenanceResponse always carries a Result (spec.md §6: "Responses: a
// Result wrapper carrying a short status string").
type MaintenanceResponse struct {
	ReqID  string
	Result Result
}
