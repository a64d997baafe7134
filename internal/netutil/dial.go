// Package netutil provides the TCP socket setup FTCP senders and
// receivers share: TCP_NODELAY on every connection, SO_REUSEADDR on
// listening sockets, and exponential-backoff connect retry.
package netutil

import (
	"context"
	"net"
	"time"

	"github.com/aeldrin/ftcp/protocol"
)

// Dial opens a TCP connection to addr with TCP_NODELAY enabled, per spec
// §6.2: FTCP streams many small framed messages and Nagle's algorithm would
// otherwise coalesce them and stall the lock-step chunk exchange.
func Dial(ctx context.Context, addr string) (*net.TCPConn, error) {
	d := net.Dialer{Timeout: protocol.TimeoutSeconds * time.Second}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, protocol.NewError(protocol.KindSend, "dial %s: %v", addr, err)
	}

	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		conn.Close()
		return nil, protocol.NewError(protocol.KindSend, "dial %s: not a TCP connection", addr)
	}

	if err := tcpConn.SetNoDelay(true); err != nil {
		tcpConn.Close()
		return nil, protocol.NewError(protocol.KindSend, "set TCP_NODELAY: %v", err)
	}

	return tcpConn, nil
}
