//go:build !unix

package netutil

import (
	"context"
	"net"

	"github.com/aeldrin/ftcp/protocol"
)

// Listen opens a TCP listening socket on addr. SO_REUSEADDR is a unix
// socket option; on other platforms we fall back to the net package's
// default listen behavior.
func Listen(ctx context.Context, addr string) (net.Listener, error) {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, protocol.NewError(protocol.KindListen, "listen %s: %v", addr, err)
	}
	return ln, nil
}
