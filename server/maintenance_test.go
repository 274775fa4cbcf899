package server

import (
	"net"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	gwtypes "github.com/neonlabsorg/neon-proxy-go/core/types"
	"github.com/neonlabsorg/neon-proxy-go/core/txpool"
)

type fakeSuspendResumer struct {
	suspended bool
	resumed   bool
}

func (f *fakeSuspendResumer) Suspend() { f.suspended = true }
func (f *fakeSuspendResumer) Resume()  { f.resumed = true }

type fakeReplicator struct {
	replicatedPeers []txpool.Peer
	bundleSender    common.Address
	bundleTxs       []gwtypes.MempoolTx
}

func (f *fakeReplicator) Replicate(peers []txpool.Peer) { f.replicatedPeers = peers }
func (f *fakeReplicator) OnBundle(sender common.Address, txs []gwtypes.MempoolTx) {
	f.bundleSender = sender
	f.bundleTxs = txs
}

func startMaintenanceServer(t *testing.T, mp *fakeSuspendResumer, repl *fakeReplicator) net.Conn {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	srv := NewMaintenanceServer(mp, repl)
	go srv.Serve(ln)

	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestMaintenanceSuspendResume(t *testing.T) {
	mp := &fakeSuspendResumer{}
	conn := startMaintenanceServer(t, mp, &fakeReplicator{})

	var resp MaintenanceResponse
	roundTrip(t, conn, MaintenanceRequest{SuspendMemPool: &SuspendMemPoolArgs{}}, &resp)
	require.Equal(t, "ok", resp.Result.Status)
	require.True(t, mp.suspended)

	roundTrip(t, conn, MaintenanceRequest{ResumeMemPool: &ResumeMemPoolArgs{}}, &resp)
	require.Equal(t, "ok", resp.Result.Status)
	require.True(t, mp.resumed)
}

func TestMaintenanceReplicateRequests(t *testing.T) {
	repl := &fakeReplicator{}
	conn := startMaintenanceServer(t, &fakeSuspendResumer{}, repl)

	peers := []txpool.Peer{{Addr: "10.0.0.1:9092"}, {Addr: "10.0.0.2:9092"}}
	var resp MaintenanceResponse
	roundTrip(t, conn, MaintenanceRequest{ReplicateRequests: &ReplicateRequestsArgs{Peers: peers}}, &resp)

	require.Equal(t, "ok", resp.Result.Status)
	require.Equal(t, peers, repl.replicatedPeers)
}

func TestMaintenanceReplicateTxsBunch(t *testing.T) {
	repl := &fakeReplicator{}
	conn := startMaintenanceServer(t, &fakeSuspendResumer{}, repl)

	sender := common.HexToAddress("0x01")
	txs := []gwtypes.MempoolTx{{Signature: common.HexToHash("0xaa"), Nonce: 1}}
	var resp MaintenanceResponse
	roundTrip(t, conn, MaintenanceRequest{ReplicateTxsBunch: &ReplicateTxsBunchArgs{Sender: sender, Txs: txs}}, &resp)

	require.Equal(t, "ok", resp.Result.Status)
	require.Equal(t, sender, repl.bundleSender)
	require.Len(t, repl.bundleTxs, 1)
}

func TestMaintenanceEmptyRequestFails(t *testing.T) {
	conn := startMaintenanceServer(t, &fakeSuspendResumer{}, &fakeReplicator{})

	var resp MaintenanceResponse
	roundTrip(t, conn, MaintenanceRequest{}, &resp)

	require.Equal(t, "Request failed", resp.Result.Status)
}
