package netutil

import (
	"net"

	"github.com/aeldrin/ftcp/protocol"
)

// Accept wraps ln.Accept, enabling TCP_NODELAY on the accepted connection
// for the same reason Dial does on the client side.
func Accept(ln net.Listener) (*net.TCPConn, error) {
	conn, err := ln.Accept()
	if err != nil {
		return nil, protocol.NewError(protocol.KindAccept, "accept: %v", err)
	}

	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		conn.Close()
		return nil, protocol.NewError(protocol.KindAccept, "accept: not a TCP connection")
	}

	if err := tcpConn.SetNoDelay(true); err != nil {
		tcpConn.Close()
		return nil, protocol.NewError(protocol.KindAccept, "set TCP_NODELAY: %v", err)
	}

	return tcpConn, nil
}
