package rpc

import (
	"encoding/json"
)

// registerMisc wires the chain-identity methods (original_source's
// EthereumModel.web3_clientVersion/net_version/eth_chainId — all pure
// reads of static configuration, no collaborator round-trip needed).
func (s *Service) registerMisc(d *Dispatcher) {
	d.Register("web3_clientVersion", func(json.RawMessage) (any, error) {
		return s.cfg.ClientVersion, nil
	})
	d.Register("net_version", func(json.RawMessage) (any, error) {
		return s.cfg.NetVersion, nil
	})
	d.Register("eth_chainId", func(json.RawMessage) (any, error) {
		return hexUint64(s.cfg.ChainID), nil
	})
}
