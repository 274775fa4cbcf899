package server

import (
	"net"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	gwtypes "github.com/neonlabsorg/neon-proxy-go/core/types"
	"github.com/neonlabsorg/neon-proxy-go/internal/wireframe"
)

type fakeMempool struct {
	submitResult gwtypes.SubmitResult
	submitted    *gwtypes.MempoolTx
	pendingNonce uint64
	pendingTx    *gwtypes.MempoolTx
	gas          gwtypes.GasPriceSnapshot
}

func (f *fakeMempool) Submit(tx gwtypes.MempoolTx) gwtypes.SubmitResult {
	f.submitted = &tx
	return f.submitResult
}
func (f *fakeMempool) GetPendingNonce(common.Address) uint64 { return f.pendingNonce }
func (f *fakeMempool) GetPendingTxByHash(sig common.Hash) (gwtypes.MempoolTx, bool) {
	if f.pendingTx != nil && f.pendingTx.Signature == sig {
		return *f.pendingTx, true
	}
	return gwtypes.MempoolTx{}, false
}
func (f *fakeMempool) GetGasPrice() gwtypes.GasPriceSnapshot { return f.gas }

type fakeDecoder struct {
	sender    common.Address
	nonce     uint64
	gasPrice  *uint256.Int
	signature common.Hash
	ok        bool
}

func (f *fakeDecoder) Verify([]byte) (common.Address, uint64, *uint256.Int, common.Hash, bool) {
	return f.sender, f.nonce, f.gasPrice, f.signature, f.ok
}

func startServiceServer(t *testing.T, mp *fakeMempool, dec *fakeDecoder) net.Conn {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	srv := NewServiceServer(mp, dec)
	go srv.Serve(ln)

	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func roundTrip(t *testing.T, conn net.Conn, req, resp any) {
	t.Helper()
	require.NoError(t, wireframe.WriteFrame(conn, req))
	require.NoError(t, wireframe.ReadFrame(conn, resp))
}

func TestServiceGetGasPrice(t *testing.T) {
	mp := &fakeMempool{gas: gwtypes.GasPriceSnapshot{Minimum: 1, Suggested: 2}}
	conn := startServiceServer(t, mp, &fakeDecoder{})

	var resp ServiceResponse
	roundTrip(t, conn, ServiceRequest{ReqID: "r1", GetGasPrice: &GetGasPriceArgs{}}, &resp)

	require.Equal(t, "r1", resp.ReqID)
	require.Nil(t, resp.Result)
	require.NotNil(t, resp.GasPrice)
	require.Equal(t, uint64(1), resp.GasPrice.Minimum)
	require.Equal(t, uint64(2), resp.GasPrice.Suggested)
}

func TestServiceGetLastTxNonce(t *testing.T) {
	mp := &fakeMempool{pendingNonce: 7}
	conn := startServiceServer(t, mp, &fakeDecoder{})

	var resp ServiceResponse
	roundTrip(t, conn, ServiceRequest{GetLastTxNonce: &GetLastTxNonceArgs{Sender: common.HexToAddress("0x01")}}, &resp)

	require.NotNil(t, resp.Nonce)
	require.Equal(t, uint64(7), *resp.Nonce)
}

func TestServiceGetTxByHashNotFound(t *testing.T) {
	mp := &fakeMempool{}
	conn := startServiceServer(t, mp, &fakeDecoder{})

	var resp ServiceResponse
	roundTrip(t, conn, ServiceRequest{GetTxByHash: &GetTxByHashArgs{Hash: common.HexToHash("0xabc")}}, &resp)

	require.False(t, resp.Found)
}

func TestServiceSendTransactionAccepted(t *testing.T) {
	mp := &fakeMempool{submitResult: gwtypes.SubmitResult{Outcome: gwtypes.Accepted}}
	dec := &fakeDecoder{
		ok:        true,
		sender:    common.HexToAddress("0xaaaa000000000000000000000000000000aaaa"),
		nonce:     5,
		gasPrice:  uint256.NewInt(1000),
		signature: common.HexToHash("0x1111"),
	}
	conn := startServiceServer(t, mp, dec)

	var resp ServiceResponse
	roundTrip(t, conn, ServiceRequest{SendTransaction: &SendTransactionArgs{Raw: []byte{0xde, 0xad}}}, &resp)

	require.NotNil(t, resp.Signature)
	require.Equal(t, dec.signature, *resp.Signature)
	require.NotNil(t, mp.submitted)
	require.Equal(t, dec.sender, mp.submitted.Sender)
}

func TestServiceSendTransactionBadSignature(t *testing.T) {
	mp := &fakeMempool{}
	dec := &fakeDecoder{ok: false}
	conn := startServiceServer(t, mp, dec)

	var resp ServiceResponse
	roundTrip(t, conn, ServiceRequest{SendTransaction: &SendTransactionArgs{Raw: []byte{0xde, 0xad}}}, &resp)

	require.Nil(t, resp.Signature)
	require.NotNil(t, resp.Result)
	require.Equal(t, "bad signature", resp.Result.Status)
}

func TestServiceEmptyRequestFails(t *testing.T) {
	mp := &fakeMempool{}
	conn := startServiceServer(t, mp, &fakeDecoder{})

	var resp ServiceResponse
	roundTrip(t, conn, ServiceRequest{}, &resp)

	require.NotNil(t, resp.Result)
	require.Equal(t, "Request failed", resp.Result.Status)
}
