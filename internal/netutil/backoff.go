package netutil

import (
	"context"
	"net"
	"time"

	"github.com/aeldrin/ftcp/logger"
	"github.com/aeldrin/ftcp/protocol"
)

// DialWithBackoff retries Dial with exponentially increasing delay (1000ms,
// doubling, capped at protocol.BackoffCapMillis), per spec §6.2, until ctx
// is cancelled.
func DialWithBackoff(ctx context.Context, addr string, cid logger.Context) (*net.TCPConn, error) {
	delay := time.Second

	for {
		conn, err := Dial(ctx, addr)
		if err == nil {
			return conn, nil
		}

		logger.W(cid, "connect to", addr, "failed:", err, "- retrying in", delay)

		select {
		case <-ctx.Done():
			return nil, protocol.NewError(protocol.KindSend, "dial %s: %v", addr, ctx.Err())
		case <-time.After(delay):
		}

		delay *= 2
		if delay > time.Duration(protocol.BackoffCapMillis)*time.Millisecond {
			delay = time.Duration(protocol.BackoffCapMillis) * time.Millisecond
		}
	}
}
