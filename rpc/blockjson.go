package rpc

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	gwtypes "github.com/neonlabsorg/neon-proxy-go/core/types"
)

// blockJSON is the Ethereum-shaped block envelope of spec.md §6:
// {hash, number, parentHash, timestamp, transactions[], gasUsed,
// gasLimit:"0x6691b7", logsBloom: 128 zero bytes}. Grounded on
// original_source's EthereumModel.getBlockBySlot.
type blockJSON struct {
	Hash         common.Hash     `json:"hash"`
	Number       hexutil.Uint64  `json:"number"`
	ParentHash   common.Hash     `json:"parentHash"`
	Timestamp    hexutil.Uint64  `json:"timestamp"`
	Transactions []any           `json:"transactions"`
	GasUsed      hexutil.Uint64  `json:"gasUsed"`
	GasLimit     string          `json:"gasLimit"`
	LogsBloom    string          `json:"logsBloom"`
}

// buildBlockJSON assembles blockJSON for info from records (the external
// TransactionSource's per-slot transaction list; nil/empty if
// unavailable — an unindexed slot has no transactions to report) and
// gasUsed (the caller's sum of each record's receipt gas, mirroring
// original_source's getBlockBySlot accumulation loop). full selects
// whether each list entry is a bare hash or the full tx object.
func buildBlockJSON(info *gwtypes.BlockInfo, records []TxRecord, gasUsed uint64, full bool) *blockJSON {
	b := &blockJSON{
		Hash:       info.Hash,
		Number:     hexUint64(info.Slot),
		ParentHash: info.ParentHash,
		Timestamp:  hexUint64(uint64(info.Time)),
		GasUsed:    hexUint64(gasUsed),
		GasLimit:   chainGasLimit,
		LogsBloom:  emptyLogsBloom,
	}

	b.Transactions = make([]any, 0, len(records))
	for i, rec := range records {
		if full {
			tx := txToJSON(rec)
			tx.TransactionIndex = hexUint64(uint64(i))
			b.Transactions = append(b.Transactions, tx)
		} else {
			b.Transactions = append(b.Transactions, rec.Hash)
		}
	}
	return b
}

// txJSON is the Ethereum-shaped transaction envelope
// (original_source's EthereumModel.eth_getTransactionByHash).
type txJSON struct {
	BlockHash        common.Hash     `json:"blockHash"`
	BlockNumber      hexutil.Uint64  `json:"blockNumber"`
	Hash             common.Hash     `json:"hash"`
	TransactionIndex hexutil.Uint64  `json:"transactionIndex"`
	From             common.Address  `json:"from"`
	Nonce            hexutil.Uint64  `json:"nonce"`
	GasPrice         *hexutil.Big    `json:"gasPrice"`
	Gas              hexutil.Uint64  `json:"gas"`
	To               *common.Address `json:"to"`
	Value            *hexutil.Big    `json:"value"`
	Input            hexutil.Bytes   `json:"input"`
	V                *hexutil.Big    `json:"v"`
	R                *hexutil.Big    `json:"r"`
	S                *hexutil.Big    `json:"s"`
}

func txToJSON(rec TxRecord) *txJSON {
	return &txJSON{
		BlockHash:        rec.BlockHash,
		BlockNumber:      hexUint64(rec.BlockNumber),
		Hash:             rec.Hash,
		TransactionIndex: hexUint64(rec.Index),
		From:             rec.From,
		Nonce:            hexUint64(rec.Nonce),
		GasPrice:         hexBig(rec.GasPrice),
		Gas:              hexUint64(rec.Gas),
		To:               rec.To,
		Value:            hexBig(rec.Value),
		Input:            hexBytes(rec.Input),
		V:                hexBig(rec.V),
		R:                hexBig(rec.R),
		S:                hexBig(rec.S),
	}
}

// receiptJSON is the Ethereum-shaped receipt envelope
// (original_source's EthereumModel.eth_getTransactionReceipt).
type receiptJSON struct {
	TransactionHash   common.Hash     `json:"transactionHash"`
	TransactionIndex  hexutil.Uint64  `json:"transactionIndex"`
	BlockHash         common.Hash     `json:"blockHash"`
	BlockNumber       hexutil.Uint64  `json:"blockNumber"`
	From              common.Address  `json:"from"`
	To                *common.Address `json:"to"`
	GasUsed           hexutil.Uint64  `json:"gasUsed"`
	CumulativeGasUsed hexutil.Uint64  `json:"cumulativeGasUsed"`
	ContractAddress   *common.Address `json:"contractAddress"`
	Logs              []logJSON       `json:"logs"`
	Status            hexutil.Uint64  `json:"status"`
	LogsBloom         string          `json:"logsBloom"`
}

type logJSON struct {
	Address          common.Address `json:"address"`
	Topics           []common.Hash  `json:"topics"`
	Data             hexutil.Bytes  `json:"data"`
	BlockNumber      hexutil.Uint64 `json:"blockNumber"`
	BlockHash        common.Hash    `json:"blockHash"`
	TransactionHash  common.Hash    `json:"transactionHash"`
	TransactionIndex hexutil.Uint64 `json:"transactionIndex"`
	LogIndex         hexutil.Uint64 `json:"logIndex"`
	Removed          bool           `json:"removed"`
}

func logEntryToJSON(l LogEntry) logJSON {
	return logJSON{
		Address:          l.Address,
		Topics:           l.Topics,
		Data:             hexBytes(l.Data),
		BlockNumber:      hexUint64(l.BlockNumber),
		BlockHash:        l.BlockHash,
		TransactionHash:  l.TxHash,
		TransactionIndex: hexUint64(l.TxIndex),
		LogIndex:         hexUint64(l.Index),
		Removed:          l.Removed,
	}
}

func receiptToJSON(rec *ReceiptRecord) *receiptJSON {
	logs := make([]logJSON, len(rec.Logs))
	for i, l := range rec.Logs {
		logs[i] = logEntryToJSON(l)
	}
	return &receiptJSON{
		TransactionHash:   rec.TxHash,
		TransactionIndex:  hexUint64(rec.Index),
		BlockHash:         rec.BlockHash,
		BlockNumber:       hexUint64(rec.BlockNumber),
		From:              rec.From,
		To:                rec.To,
		GasUsed:           hexUint64(rec.GasUsed),
		CumulativeGasUsed: hexUint64(rec.GasUsed),
		ContractAddress:   rec.ContractAddress,
		Logs:              logs,
		Status:            hexUint64(rec.Status),
		LogsBloom:         emptyLogsBloom,
	}
}
