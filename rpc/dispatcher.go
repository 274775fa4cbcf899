// Package rpc implements the JSON-RPC 2.0 front end (spec.md §4.7): a
// dynamic method registry, single/batch request handling, and the
// domain/back-end/generic error shaping of spec.md §7.
//
// Grounded on original_source/proxy/plugin/solana_rest_api.py's
// EthereumModel + SolanaProxyPlugin.process_request/handle_request: one
// method per JSON-RPC name, looked up dynamically, with batch handling
// and a three-way error type switch. Go replaces the Python
// getattr(self.model, name) dispatch with an explicit map[string]Handler
// registry (spec.md §9 design note: explicit wiring over reflection).
package rpc

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/log"
)

// Request is one JSON-RPC 2.0 request object.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      json.RawMessage `json:"id,omitempty"`
}

// Response is one JSON-RPC 2.0 response object. Result and Error are
// mutually exclusive.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  any             `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Handler is one registered JSON-RPC method. params is the raw params
// array/object from the request, left to the handler to unmarshal so
// each handler controls its own argument shape.
type Handler func(params json.RawMessage) (any, error)

// Dispatcher holds the method registry and runs the single/batch
// envelope logic of spec.md §4.7.
type Dispatcher struct {
	handlers map[string]Handler
	log      log.Logger
}

// NewDispatcher builds an empty registry. Use Register to add methods, or
// build one pre-wired via NewService(...).Dispatcher().
func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string]Handler), log: log.New("component", "rpc")}
}

// Register adds or replaces the handler for method.
func (d *Dispatcher) Register(method string, h Handler) {
	d.handlers[method] = h
}

// Dispatch parses body as either a single JSON-RPC request object or a
// batch array, and returns the raw JSON bytes of the corresponding
// response (object or array) per spec.md §4.7. A malformed body or an
// empty batch array maps to a single error response, never an array.
func (d *Dispatcher) Dispatch(body []byte) []byte {
	trimmed := skipLeadingSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return d.dispatchBatch(body)
	}
	return d.dispatchSingleBytes(body)
}

func (d *Dispatcher) dispatchBatch(body []byte) []byte {
	var reqs []Request
	if err := json.Unmarshal(body, &reqs); err != nil {
		return mustMarshal(errorResponse(nil, invalidRequest("malformed batch request: "+err.Error())))
	}
	if len(reqs) == 0 {
		return mustMarshal(errorResponse(nil, invalidRequest("empty batch request")))
	}

	responses := make([]Response, len(reqs))
	for i, req := range reqs {
		responses[i] = d.dispatchOne(req)
	}
	return mustMarshal(responses)
}

func (d *Dispatcher) dispatchSingleBytes(body []byte) []byte {
	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		return mustMarshal(errorResponse(nil, invalidRequest("malformed request: "+err.Error())))
	}
	return mustMarshal(d.dispatchOne(req))
}

func (d *Dispatcher) dispatchOne(req Request) Response {
	h, ok := d.handlers[req.Method]
	if !ok {
		return errorResponse(req.ID, methodNotFound(req.Method))
	}

	result, err := h(req.Params)
	if err != nil {
		d.log.Debug("rpc handler error", "method", req.Method, "err", err)
		return errorResponse(req.ID, toRPCError(err))
	}
	return Response{JSONRPC: "2.0", ID: req.ID, Result: result}
}

func errorResponse(id json.RawMessage, e *Error) Response {
	return Response{JSONRPC: "2.0", ID: id, Error: e}
}

func skipLeadingSpace(b []byte) []byte {
	i := 0
	for i < len(b) && (b[i] == ' ' || b[i] == '\t' || b[i] == '\n' || b[i] == '\r') {
		i++
	}
	return b[i:]
}

func mustMarshal(v any) []byte {
	out, err := json.Marshal(v)
	if err != nil {
		// Marshaling our own Response/[]Response types never fails; a
		// panic here means a handler returned an unmarshalable result.
		panic("rpc: response marshal failed: " + err.Error())
	}
	return out
}
