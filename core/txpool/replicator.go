package txpool

import (
	"net"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	gwtypes "github.com/neonlabsorg/neon-proxy-go/core/types"
	"github.com/neonlabsorg/neon-proxy-go/internal/wireframe"
)

// Peer is a replication target: a maintenance-socket address on another
// proxy instance.
type Peer struct {
	Addr string
}

// peerConn is a fire-and-forget FIFO push queue to one peer. Grounded on
// MemPoolReplicator in spec.md §4.6 — best-effort, no acknowledgement, no
// backpressure beyond the channel's buffer.
type peerConn struct {
	peer  Peer
	queue chan gwtypes.MempoolTx
}

// Replicator pushes locally-accepted transactions to a registered peer
// set and absorbs replicated bundles from other instances back into the
// local Mempool (spec.md §4.6).
type Replicator struct {
	submit func(tx gwtypes.MempoolTx) gwtypes.SubmitResult
	dial   func(addr string) (net.Conn, error)

	peers []*peerConn
	log   log.Logger
}

// NewReplicator wires a Replicator to the function that feeds a
// replicated tx into Mempool.Submit, and a dialer used to open
// connections to registered peers.
func NewReplicator(submit func(gwtypes.MempoolTx) gwtypes.SubmitResult, dial func(string) (net.Conn, error)) *Replicator {
	return &Replicator{submit: submit, dial: dial, log: log.New("component", "replicator")}
}

// Replicate registers the given peer set, replacing whatever was
// registered before. Each peer gets its own buffered FIFO queue and
// pusher goroutine.
func (r *Replicator) Replicate(peers []Peer) {
	for _, pc := range r.peers {
		close(pc.queue)
	}
	r.peers = make([]*peerConn, 0, len(peers))
	for _, p := range peers {
		pc := &peerConn{peer: p, queue: make(chan gwtypes.MempoolTx, 256)}
		r.peers = append(r.peers, pc)
		go r.pump(pc)
	}
}

// Broadcast pushes tx to every registered peer's queue. Non-blocking: a
// full peer queue drops the tx rather than stalling the caller, since
// replication is explicitly best-effort.
func (r *Replicator) Broadcast(tx gwtypes.MempoolTx) {
	for _, pc := range r.peers {
		select {
		case pc.queue <- tx:
		default:
			r.log.Warn("replication queue full, dropping tx", "peer", pc.peer.Addr, "sig", tx.Signature)
		}
	}
}

func (r *Replicator) pump(pc *peerConn) {
	for tx := range pc.queue {
		conn, err := r.dial(pc.peer.Addr)
		if err != nil {
			r.log.Warn("replication dial failed", "peer", pc.peer.Addr, "err", err)
			continue
		}
		if err := wireframe.WriteFrame(conn, tx); err != nil {
			r.log.Warn("replication push failed", "peer", pc.peer.Addr, "err", err)
		}
		conn.Close()
	}
}

// OnBundle feeds every tx in a replicated bundle into the local Mempool as
// if it had been submitted locally. Results are discarded — duplicates
// are absorbed silently by the cache check inside Submit (spec.md §4.6).
func (r *Replicator) OnBundle(sender common.Address, txs []gwtypes.MempoolTx) {
	for _, tx := range txs {
		tx.Sender = sender
		r.submit(tx)
	}
}
