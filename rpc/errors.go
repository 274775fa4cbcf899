package rpc

import (
	gwtypes "github.com/neonlabsorg/neon-proxy-go/core/types"
)

// Error is the JSON-RPC 2.0 error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Standard JSON-RPC 2.0 codes (spec.md §4.7/§7).
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeGeneric        = -32000
)

func invalidRequest(msg string) *Error {
	return &Error{Code: codeInvalidRequest, Message: msg}
}

func methodNotFound(method string) *Error {
	return &Error{Code: codeMethodNotFound, Message: "the method " + method + " does not exist/is not available"}
}

// toRPCError narrows any error returned by a handler to a JSON-RPC error
// envelope, per spec.md §4.7/§7: a *DomainError preserves its
// code/message/data verbatim; a *BackendError surfaces its structured
// payload; a *ValidationError maps to -32602; anything else maps to the
// generic -32000 "stringify the error" fallback.
func toRPCError(err error) *Error {
	switch e := err.(type) {
	case *gwtypes.DomainError:
		return &Error{Code: e.Code, Message: e.Message, Data: e.Data}
	case *gwtypes.BackendError:
		return &Error{
			Code:    codeGeneric,
			Message: e.Error(),
			Data:    map[string]any{"logs": normalizeLogs(e.Logs), "result": e.RawResult},
		}
	case *gwtypes.ValidationError:
		return &Error{Code: codeInvalidParams, Message: e.Message}
	default:
		return &Error{Code: codeGeneric, Message: err.Error()}
	}
}

// normalizeLogs strips the literal "\n\t" escapes BackendError.Logs may
// carry from the executor, for human-readable display — the wire form in
// RawResult is left untouched (spec.md §7).
func normalizeLogs(logs []string) []string {
	out := make([]string, len(logs))
	for i, l := range logs {
		out[i] = stripEscapes(l)
	}
	return out
}

func stripEscapes(s string) string {
	out := make([]rune, 0, len(s))
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		if runes[i] == '\\' && i+1 < len(runes) && (runes[i+1] == 'n' || runes[i+1] == 't') {
			i++
			continue
		}
		out = append(out, runes[i])
	}
	return string(out)
}
