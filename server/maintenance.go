package server

import (
	"net"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"
	gwtypes "github.com/neonlabsorg/neon-proxy-go/core/types"
	"github.com/neonlabsorg/neon-proxy-go/core/txpool"
	"github.com/neonlabsorg/neon-proxy-go/internal/wireframe"
)

// SuspendResumer is the Mempool.Suspend/Resume pair the maintenance
// socket drives.
type SuspendResumer interface {
	Suspend()
	Resume()
}

// BundleReplicator is the subset of core/txpool.Replicator the
// maintenance socket drives — registering peers and absorbing a
// replicated bunch of transactions from another instance (spec.md §4.6).
type BundleReplicator interface {
	Replicate(peers []txpool.Peer)
	OnBundle(sender common.Address, txs []gwtypes.MempoolTx)
}

// MaintenanceServer answers the maintenance socket (spec.md §6, default
// 0.0.0.0:9092): SuspendMemPool, ResumeMemPool, ReplicateRequests,
// ReplicateTxsBunch.
type MaintenanceServer struct {
	mempool SuspendResumer
	repl    BundleReplicator
	log     log.Logger
}

// NewMaintenanceServer wires a MaintenanceServer against mempool and repl.
func NewMaintenanceServer(mempool SuspendResumer, repl BundleReplicator) *MaintenanceServer {
	return &MaintenanceServer{mempool: mempool, repl: repl, log: log.New("component", "maintenance-socket")}
}

// Serve accepts connections on ln until it is closed.
func (s *MaintenanceServer) Serve(ln net.Listener) {
	serveFrames(ln, s.log, s.handleConn)
}

func (s *MaintenanceServer) handleConn(conn net.Conn) {
	defer conn.Close()
	for {
		var req MaintenanceRequest
		if err := wireframe.ReadFrame(conn, &req); err != nil {
			return
		}
		resp := s.handleOne(req)
		if err := wireframe.WriteFrame(conn, resp); err != nil {
			s.log.Warn("maintenance socket: write response failed", "req_id", resp.ReqID, "err", err)
			return
		}
	}
}

func (s *MaintenanceServer) handleOne(req MaintenanceRequest) (resp MaintenanceResponse) {
	reqID := req.ReqID
	if reqID == "" {
		reqID = uuid.NewString()
	}
	resp.ReqID = reqID

	defer func() {
		if r := recover(); r != nil {
			s.log.Error("maintenance socket: request failed", "req_id", reqID, "panic", r)
			resp = MaintenanceResponse{ReqID: reqID, Result: Result{Status: "Request failed"}}
		}
	}()

	switch {
	case req.SuspendMemPool != nil:
		s.mempool.Suspend()
		return MaintenanceResponse{ReqID: reqID, Result: Result{Status: "ok"}}
	case req.ResumeMemPool != nil:
		s.mempool.Resume()
		return MaintenanceResponse{ReqID: reqID, Result: Result{Status: "ok"}}
	case req.ReplicateRequests != nil:
		s.repl.Replicate(req.ReplicateRequests.Peers)
		return MaintenanceResponse{ReqID: reqID, Result: Result{Status: "ok"}}
	case req.ReplicateTxsBunch != nil:
		s.repl.OnBundle(req.ReplicateTxsBunch.Sender, req.ReplicateTxsBunch.Txs)
		return MaintenanceResponse{ReqID: reqID, Result: Result{Status: "ok"}}
	default:
		s.log.Warn("maintenance socket: empty request", "req_id", reqID)
		return MaintenanceResponse{ReqID: reqID, Result: Result{Status: "Request failed"}}
	}
}
