package server

import (
	"fmt"
	"net"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"
	"github.com/holiman/uint256"
	gwtypes "github.com/neonlabsorg/neon-proxy-go/core/types"
	"github.com/neonlabsorg/neon-proxy-go/internal/wireframe"
)

// MempoolFacade is the subset of core/txpool.Mempool the service socket
// calls — declared as an interface so tests substitute a stub instead of
// wiring a full executor/resource pool (mirrors rpc.MempoolFacade).
type MempoolFacade interface {
	Submit(tx gwtypes.MempoolTx) gwtypes.SubmitResult
	GetPendingNonce(sender common.Address) uint64
	GetPendingTxByHash(signature common.Hash) (gwtypes.MempoolTx, bool)
	GetGasPrice() gwtypes.GasPriceSnapshot
}

// TxDecoder recovers a raw transaction's sender/nonce/gas price/transaction
// hash — the same shape core/txpool.SignatureVerifier exposes, duck-typed
// here so server doesn't import core/txpool for the interface alone
// (mirrors rpc.TxDecoder).
type TxDecoder interface {
	Verify(raw []byte) (sender common.Address, nonce uint64, gasPrice *uint256.Int, signature common.Hash, ok bool)
}

// ServiceServer answers the service socket (spec.md §6, default
// 0.0.0.0:9091): SendTransaction, GetLastTxNonce, GetTxByHash,
// GetGasPrice.
type ServiceServer struct {
	mempool MempoolFacade
	decoder TxDecoder
	log     log.Logger
}

// NewServiceServer wires a ServiceServer against mempool and decoder.
func NewServiceServer(mempool MempoolFacade, decoder TxDecoder) *ServiceServer {
	return &ServiceServer{mempool: mempool, decoder: decoder, log: log.New("component", "service-socket")}
}

// Serve accepts connections on ln until it is closed.
func (s *ServiceServer) Serve(ln net.Listener) {
	serveFrames(ln, s.log, s.handleConn)
}

func (s *ServiceServer) handleConn(conn net.Conn) {
	defer conn.Close()
	for {
		var req ServiceRequest
		if err := wireframe.ReadFrame(conn, &req); err != nil {
			return
		}
		resp := s.handleOne(req)
		if err := wireframe.WriteFrame(conn, resp); err != nil {
			s.log.Warn("service socket: write response failed", "req_id", resp.ReqID, "err", err)
			return
		}
	}
}

// handleOne dispatches one request and recovers from a panic inside
// handling into a generic Result("Request failed"), logged with the
// request id — spec.md §4's failure semantics: the loop does not crash on
// a per-request error.
func (s *ServiceServer) handleOne(req ServiceRequest) (resp ServiceResponse) {
	reqID := req.ReqID
	if reqID == "" {
		reqID = uuid.NewString()
	}
	resp.ReqID = reqID

	defer func() {
		if r := recover(); r != nil {
			s.log.Error("service socket: request failed", "req_id", reqID, "panic", r)
			resp = ServiceResponse{ReqID: reqID, Result: &Result{Status: "Request failed"}}
		}
	}()

	switch {
	case req.SendTransaction != nil:
		return s.sendTransaction(reqID, req.SendTransaction)
	case req.GetLastTxNonce != nil:
		nonce := s.mempool.GetPendingNonce(req.GetLastTxNonce.Sender)
		return ServiceResponse{ReqID: reqID, Nonce: &nonce}
	case req.GetTxByHash != nil:
		tx, ok := s.mempool.GetPendingTxByHash(req.GetTxByHash.Hash)
		return ServiceResponse{ReqID: reqID, Tx: &tx, Found: ok}
	case req.GetGasPrice != nil:
		snap := s.mempool.GetGasPrice()
		return ServiceResponse{ReqID: reqID, GasPrice: &snap}
	default:
		s.log.Warn("service socket: empty request", "req_id", reqID)
		return ServiceResponse{ReqID: reqID, Result: &Result{Status: "Request failed"}}
	}
}

// sendTransaction mirrors rpc's eth_sendRawTransaction admission flow:
// recover sender/nonce/gas price/signature from raw, populate a
// MempoolTx, and submit it.
func (s *ServiceServer) sendTransaction(reqID string, args *SendTransactionArgs) ServiceResponse {
	sender, nonce, gasPrice, signature, ok := s.decoder.Verify(args.Raw)
	if !ok {
		return ServiceResponse{ReqID: reqID, Result: &Result{Status: "bad signature"}}
	}

	tx := gwtypes.MempoolTx{
		Signature:   signature,
		Sender:      sender,
		Nonce:       nonce,
		GasPrice:    gasPrice,
		Raw:         args.Raw,
		SubmittedAt: time.Now(),
	}
	result := s.mempool.Submit(tx)

	switch result.Outcome {
	case gwtypes.Accepted, gwtypes.NonceGap:
		return ServiceResponse{ReqID: reqID, Signature: &signature}
	case gwtypes.DuplicateKnown:
		return ServiceResponse{ReqID: reqID, Result: &Result{Status: "known transaction"}}
	case gwtypes.UnderpricedReplacement:
		return ServiceResponse{ReqID: reqID, Result: &Result{Status: "replacement transaction underpriced"}}
	default:
		msg := "Request failed"
		if result.Reason != nil {
			msg = fmt.Sprintf("Request failed: %v", result.Reason)
		}
		return ServiceResponse{ReqID: reqID, Result: &Result{Status: msg}}
	}
}
