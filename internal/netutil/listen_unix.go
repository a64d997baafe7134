//go:build unix

package netutil

import (
	"context"
	"net"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/aeldrin/ftcp/protocol"
)

// Listen opens a TCP listening socket on addr with SO_REUSEADDR set, per
// spec §6.2, so a receiver can be restarted immediately after a crash
// without waiting out the previous socket's TIME_WAIT state.
func Listen(ctx context.Context, addr string) (net.Listener, error) {
	lc := net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			var sockErr error
			err := c.Control(func(fd uintptr) {
				sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
			})
			if err != nil {
				return err
			}
			return sockErr
		},
	}

	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, protocol.NewError(protocol.KindListen, "listen %s: %v", addr, err)
	}
	return ln, nil
}
