package rpc

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
)

// TxRecord is one indexed transaction, as the external TransactionSource
// reports it — enough to build both the block transaction list and the
// eth_getTransactionByHash response (original_source's
// solana_rest_api.py.eth_getTransactionByHash). It and ReceiptRecord below
// are built by the TransactionSource collaborator, never unmarshaled from
// JSON themselves — wire shaping goes through the txJSON/receiptJSON/
// logJSON envelopes in blockjson.go.
type TxRecord struct {
	Hash        common.Hash
	BlockHash   common.Hash
	BlockNumber uint64
	Index       uint64
	From        common.Address
	To          *common.Address
	Nonce       uint64
	GasPrice    *uint256.Int
	Gas         uint64
	Value       *uint256.Int
	Input       []byte
	V, R, S     *uint256.Int
}

// ReceiptRecord is one indexed transaction receipt.
type ReceiptRecord struct {
	TxHash          common.Hash
	BlockHash       common.Hash
	BlockNumber     uint64
	Index           uint64
	From            common.Address
	To              *common.Address
	ContractAddress *common.Address
	GasUsed         uint64
	Status          uint64
	Logs            []LogEntry
}

// LogEntry is one emitted event log, as the TransactionSource reports it;
// ethGetLogs shapes it to logJSON before returning it to the caller.
type LogEntry struct {
	Address     common.Address
	Topics      []common.Hash
	Data        []byte
	BlockNumber uint64
	BlockHash   common.Hash
	TxHash      common.Hash
	TxIndex     uint64
	Index       uint64
	Removed     bool
}

// LogFilter mirrors original_source's eth_getLogs parameter object
// (solana_rest_api.py's EthereumModel.eth_getLogs): optional from/to block
// tags (validated through processBlockTag, since the original passes them
// through process_block_tag before querying; the TransactionSource
// resolves them itself), plus address, topic and block-hash filters.
type LogFilter struct {
	FromBlock *string          `json:"fromBlock"`
	ToBlock   *string          `json:"toBlock"`
	Address   []common.Address `json:"address"`
	Topics    [][]common.Hash  `json:"topics"`
	BlockHash *common.Hash     `json:"blockHash"`
}

// CallRequest mirrors the eth_call/eth_estimateGas transaction-call
// object (spec.md §6). Gas/Data use hexutil's wire types since the raw
// fields (uint64/[]byte) would decode a quantity/byte string the wrong
// way: encoding/json treats []byte as base64 and has no hex-quantity
// support for uint64 on its own.
type CallRequest struct {
	From     *common.Address `json:"from"`
	To       *common.Address `json:"to"`
	Gas      *hexutil.Uint64 `json:"gas"`
	GasPrice *uint256.Int    `json:"gasPrice"`
	Value    *uint256.Int    `json:"value"`
	Data     hexutil.Bytes   `json:"data"`
}
