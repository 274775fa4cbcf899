package txpool

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"
)

func TestEthSignerRecoversSender(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	want := crypto.PubkeyToAddress(key.PublicKey)

	chainID := big.NewInt(111)
	tx := gethtypes.NewTx(&gethtypes.LegacyTx{
		Nonce:    7,
		GasPrice: big.NewInt(12345),
		Gas:      21000,
		To:       nil,
		Value:    big.NewInt(0),
		Data:     nil,
	})
	signer := gethtypes.NewEIP155Signer(chainID)
	signedTx, err := gethtypes.SignTx(tx, signer, key)
	require.NoError(t, err)

	raw, err := signedTx.MarshalBinary()
	require.NoError(t, err)

	verifier := NewEthSigner(chainID.Uint64())
	sender, nonce, gasPrice, sig, ok := verifier.Verify(raw)
	require.True(t, ok)
	require.Equal(t, want, sender)
	require.Equal(t, uint64(7), nonce)
	require.Equal(t, uint64(12345), gasPrice.Uint64())
	require.Equal(t, signedTx.Hash(), sig)
}

func TestEthSignerRejectsGarbage(t *testing.T) {
	verifier := NewEthSigner(111)
	_, _, _, _, ok := verifier.Verify([]byte{0xde, 0xad, 0xbe, 0xef})
	require.False(t, ok)
}
