package main

import (
	"net"
	"net/http"
)

// serveHTTP runs the JSON-RPC HTTP transport on ln until it is closed.
func serveHTTP(ln net.Listener, handler http.Handler) error {
	srv := &http.Server{Handler: handler}
	err := srv.Serve(ln)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}
