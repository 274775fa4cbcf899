package rpc

import (
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
)

// hexUint64 and friends wrap go-ethereum's hexutil types so every handler
// produces the same "0x"-prefixed, no-leading-zero encoding the original
// Python `hex(...)` calls did (spec.md §6 Block JSON shape).
func hexUint64(v uint64) hexutil.Uint64 { return hexutil.Uint64(v) }

func hexBig(v *uint256.Int) *hexutil.Big {
	if v == nil {
		return nil
	}
	b := v.ToBig()
	return (*hexutil.Big)(b)
}

func hexBytes(b []byte) hexutil.Bytes { return hexutil.Bytes(b) }
