package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	gwtypes "github.com/neonlabsorg/neon-proxy-go/core/types"
)

// registerEth wires the full eth_*/net_*/web3_* method surface named in
// spec.md §6, grounded on original_source/proxy/plugin/
// solana_rest_api.py's EthereumModel (one method body per handler).
func (s *Service) registerEth(d *Dispatcher) {
	d.Register("eth_blockNumber", s.ethBlockNumber)
	d.Register("eth_gasPrice", s.ethGasPrice)
	d.Register("eth_getBalance", s.ethGetBalance)
	d.Register("eth_getTransactionCount", s.ethGetTransactionCount)
	d.Register("eth_getBlockByHash", s.ethGetBlockByHash)
	d.Register("eth_getBlockByNumber", s.ethGetBlockByNumber)
	d.Register("eth_getTransactionByHash", s.ethGetTransactionByHash)
	d.Register("eth_getTransactionReceipt", s.ethGetTransactionReceipt)
	d.Register("eth_sendRawTransaction", s.ethSendRawTransaction)
	d.Register("eth_sendTransaction", s.ethSendTransaction)
	d.Register("eth_call", s.ethCall)
	d.Register("eth_estimateGas", s.ethEstimateGas)
	d.Register("eth_getLogs", s.ethGetLogs)
	d.Register("eth_getCode", s.ethGetCode)
}

func (s *Service) ethBlockNumber(json.RawMessage) (any, error) {
	slot, err := s.cfg.LatestSlot.LatestSlot(context.Background())
	if err != nil {
		return nil, err
	}
	return hexUint64(slot), nil
}

func (s *Service) ethGasPrice(json.RawMessage) (any, error) {
	snap := s.cfg.Mempool.GetGasPrice()
	return hexUint64(snap.Suggested), nil
}

func (s *Service) ethGetBalance(params json.RawMessage) (any, error) {
	var addr common.Address
	var tag string
	if err := unmarshalParams(params, &addr, &tag); err != nil {
		return nil, err
	}
	bal, err := s.cfg.Ledger.BalanceAt(context.Background(), addr)
	if err != nil {
		return nil, err
	}
	return (*hexutil.Big)(bal), nil
}

func (s *Service) ethGetTransactionCount(params json.RawMessage) (any, error) {
	var addr common.Address
	var tag string
	if err := unmarshalParams(params, &addr, &tag); err != nil {
		return nil, err
	}
	if tag == "pending" {
		return hexUint64(s.cfg.Mempool.GetPendingNonce(addr)), nil
	}
	return hexUint64(s.cfg.ConfirmedNonce.NonceAt(addr)), nil
}

func (s *Service) ethGetBlockByHash(params json.RawMessage) (any, error) {
	var hash common.Hash
	var full bool
	if err := unmarshalParams(params, &hash, &full); err != nil {
		return nil, err
	}
	ctx := context.Background()
	latest, err := s.cfg.LatestSlot.LatestSlot(ctx)
	if err != nil {
		return nil, err
	}
	info, err := s.cfg.Chain.GetByHash(ctx, hash, latest)
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, nil
	}
	return s.assembleBlock(ctx, info, full)
}

func (s *Service) ethGetBlockByNumber(params json.RawMessage) (any, error) {
	var tag string
	var full bool
	if err := unmarshalParams(params, &tag, &full); err != nil {
		return nil, err
	}
	ctx := context.Background()
	latest, err := s.cfg.LatestSlot.LatestSlot(ctx)
	if err != nil {
		return nil, err
	}
	slot, err := s.processBlockTag(tag, latest)
	if err != nil {
		return nil, err
	}
	info, err := s.cfg.Chain.GetBySlot(ctx, slot, latest)
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, nil
	}
	return s.assembleBlock(ctx, info, full)
}

// assembleBlock fetches info's transaction list from the TransactionSource
// (if wired) and shapes the result per spec.md §6, summing each tx's
// receipt gas exactly as original_source's getBlockBySlot does.
func (s *Service) assembleBlock(ctx context.Context, info *gwtypes.BlockInfo, full bool) (any, error) {
	if s.cfg.Txs == nil {
		return buildBlockJSON(info, nil, 0, full), nil
	}
	records, err := s.cfg.Txs.TransactionsForSlot(ctx, info.Slot)
	if err != nil {
		return nil, err
	}
	var gasUsed uint64
	for _, rec := range records {
		if receipt, err := s.cfg.Txs.ReceiptByHash(ctx, rec.Hash); err == nil && receipt != nil {
			gasUsed += receipt.GasUsed
		}
	}
	return buildBlockJSON(info, records, gasUsed, full), nil
}

// processBlockTag implements original_source's EthereumModel.process_block_tag:
// "latest" resolves to the indexer tip; "earliest"/"pending" and any
// unparseable tag are rejected as a DomainError (spec.md §6/§9).
func (s *Service) processBlockTag(tag string, latest uint64) (uint64, error) {
	switch tag {
	case "latest", "":
		return latest, nil
	case "earliest", "pending":
		return 0, gwtypes.NewDomainError(gwtypes.CodeUnsupported, fmt.Sprintf("invalid tag %s", tag), nil)
	}
	if strings.HasPrefix(tag, "0x") {
		n, err := hexutil.DecodeUint64(tag)
		if err != nil {
			return 0, gwtypes.NewDomainError(gwtypes.CodeUnsupported, fmt.Sprintf("failed to parse block tag: %s", tag), nil)
		}
		return n, nil
	}
	return 0, gwtypes.NewDomainError(gwtypes.CodeUnsupported, fmt.Sprintf("failed to parse block tag: %s", tag), nil)
}

func (s *Service) ethGetTransactionByHash(params json.RawMessage) (any, error) {
	var hash common.Hash
	if err := unmarshalParams(params, &hash); err != nil {
		return nil, err
	}

	if tx, ok := s.cfg.Mempool.GetPendingTxByHash(hash); ok {
		return pendingTxToJSON(tx), nil
	}

	if s.cfg.Txs == nil {
		return nil, nil
	}
	rec, err := s.cfg.Txs.TransactionByHash(context.Background(), hash)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}
	return txToJSON(*rec), nil
}

func (s *Service) ethGetTransactionReceipt(params json.RawMessage) (any, error) {
	var hash common.Hash
	if err := unmarshalParams(params, &hash); err != nil {
		return nil, err
	}
	if s.cfg.Txs == nil {
		return nil, nil
	}
	rec, err := s.cfg.Txs.ReceiptByHash(context.Background(), hash)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}
	return receiptToJSON(rec), nil
}

func (s *Service) ethSendRawTransaction(params json.RawMessage) (any, error) {
	var rawHex string
	if err := unmarshalParams(params, &rawHex); err != nil {
		return nil, err
	}
	raw, err := hexutil.Decode(rawHex)
	if err != nil {
		return nil, gwtypes.NewValidationError("invalid raw transaction hex: %v", err)
	}

	sender, nonce, gasPrice, signature, ok := s.cfg.Decoder.Verify(raw)
	if !ok {
		return nil, gwtypes.NewDomainError(gwtypes.CodeBadSignature, "failed to decode or recover signer of raw transaction", nil)
	}

	tx := gwtypes.MempoolTx{
		Signature:   signature,
		Sender:      sender,
		Nonce:       nonce,
		GasPrice:    gasPrice,
		Raw:         raw,
		SubmittedAt: time.Now(),
	}
	result := s.cfg.Mempool.Submit(tx)

	switch result.Outcome {
	case gwtypes.Accepted, gwtypes.NonceGap:
		return signature, nil
	case gwtypes.DuplicateKnown:
		return nil, gwtypes.NewValidationError("known transaction")
	case gwtypes.UnderpricedReplacement:
		return nil, gwtypes.NewDomainError(gwtypes.CodeUnderpriced, "replacement transaction underpriced", nil)
	default:
		return nil, result.Reason
	}
}

func (s *Service) ethSendTransaction(json.RawMessage) (any, error) {
	return nil, gwtypes.NewValidationError("eth_sendTransaction is not supported, use eth_sendRawTransaction")
}

func (s *Service) ethCall(params json.RawMessage) (any, error) {
	var call CallRequest
	var tag string
	if err := unmarshalParams(params, &call, &tag); err != nil {
		return nil, err
	}
	out, err := s.cfg.Ledger.Call(context.Background(), call)
	if err != nil {
		return nil, err
	}
	return hexBytes(out), nil
}

func (s *Service) ethEstimateGas(params json.RawMessage) (any, error) {
	var call CallRequest
	if err := unmarshalParams(params, &call); err != nil {
		return nil, err
	}
	gas, err := s.cfg.Ledger.EstimateGas(context.Background(), call)
	if err != nil {
		return nil, err
	}
	return hexUint64(gas), nil
}

func (s *Service) ethGetLogs(params json.RawMessage) (any, error) {
	var filter LogFilter
	if err := unmarshalParams(params, &filter); err != nil {
		return nil, err
	}
	if s.cfg.Txs == nil {
		return []logJSON{}, nil
	}

	ctx := context.Background()
	latest, err := s.cfg.LatestSlot.LatestSlot(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.resolveBlockTag(filter.FromBlock, latest); err != nil {
		return nil, err
	}
	if err := s.resolveBlockTag(filter.ToBlock, latest); err != nil {
		return nil, err
	}

	logs, err := s.cfg.Txs.Logs(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]logJSON, len(logs))
	for i, l := range logs {
		out[i] = logEntryToJSON(l)
	}
	return out, nil
}

// resolveBlockTag validates tag (if present) against processBlockTag's
// rules without mutating filter — ethGetLogs's TransactionSource resolves
// the tag itself, but a malformed tag must still fail the same way
// eth_getBlockByNumber's does (original_source's process_block_tag).
func (s *Service) resolveBlockTag(tag *string, latest uint64) error {
	if tag == nil {
		return nil
	}
	_, err := s.processBlockTag(*tag, latest)
	return err
}

// ethGetCode is an explicit stub (spec.md §9 Open Questions / SPEC_FULL
// §4.7.1): returns "0x" for an address with no code; for an address with
// code, the configured placeholder when one is set, else the code itself —
// never the original's hardcoded "0x01".
func (s *Service) ethGetCode(params json.RawMessage) (any, error) {
	var addr common.Address
	var tag string
	if err := unmarshalParams(params, &addr, &tag); err != nil {
		return nil, err
	}
	code, err := s.cfg.Ledger.CodeAt(context.Background(), addr)
	if err != nil {
		return nil, err
	}
	if len(code) == 0 {
		return "0x", nil
	}
	if s.cfg.UnknownCodePlaceholder != "" {
		return s.cfg.UnknownCodePlaceholder, nil
	}
	return hexBytes(code), nil
}

func pendingTxToJSON(tx gwtypes.MempoolTx) *txJSON {
	return &txJSON{
		Hash:     tx.Signature,
		From:     tx.Sender,
		Nonce:    hexUint64(tx.Nonce),
		GasPrice: hexBig(tx.GasPrice),
		Input:    hexBytes(nil),
	}
}
