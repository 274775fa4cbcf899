package server

import (
	"errors"
	"net"

	"github.com/ethereum/go-ethereum/log"
)

// serveFrames accepts connections on ln until it is closed, running
// handle on each in its own goroutine. One connection carries a stream of
// frames — the caller's handle loop reads until the peer disconnects.
func serveFrames(ln net.Listener, log log.Logger, handle func(net.Conn)) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			log.Warn("accept failed", "err", err)
			continue
		}
		go handle(conn)
	}
}
