package rpc

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestServeHTTPDispatchesPost(t *testing.T) {
	d := NewDispatcher()
	d.Register("ping", func(params json.RawMessage) (any, error) { return "pong", nil })

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"jsonrpc":"2.0","method":"ping","id":1}`))
	rec := httptest.NewRecorder()

	d.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"jsonrpc":"2.0","id":1,"result":"pong"}`, rec.Body.String())
}

func TestServeHTTPRejectsNonPost(t *testing.T) {
	d := NewDispatcher()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	d.ServeHTTP(rec, req)

	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
