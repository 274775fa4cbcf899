package rpc

import (
	"encoding/json"

	gwtypes "github.com/neonlabsorg/neon-proxy-go/core/types"
)

// unmarshalParams decodes a JSON-RPC params array positionally into outs,
// mirroring the loose arity original_source's handlers accept (a trailing
// tag/flag argument may simply be omitted, e.g. eth_getBalance's "latest"
// default). Missing trailing elements leave the corresponding out at its
// zero value; params absent or "null" leaves every out untouched.
func unmarshalParams(params json.RawMessage, outs ...any) error {
	if len(params) == 0 || string(params) == "null" {
		return nil
	}

	var arr []json.RawMessage
	if err := json.Unmarshal(params, &arr); err != nil {
		return gwtypes.NewValidationError("params must be a JSON array: %v", err)
	}

	for i, out := range outs {
		if i >= len(arr) {
			break
		}
		if err := json.Unmarshal(arr[i], out); err != nil {
			return gwtypes.NewValidationError("invalid argument %d: %v", i, err)
		}
	}
	return nil
}
