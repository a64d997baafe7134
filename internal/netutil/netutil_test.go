package netutil

import (
	"context"
	"testing"
	"time"
)

func TestListenDialAccept(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ln, err := Listen(ctx, "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: unexpected error: %v", err)
	}
	defer ln.Close()

	acceptErrCh := make(chan error, 1)
	go func() {
		conn, err := Accept(ln)
		if conn != nil {
			conn.Close()
		}
		acceptErrCh <- err
	}()

	conn, err := Dial(ctx, ln.Addr().String())
	if err != nil {
		t.Fatalf("Dial: unexpected error: %v", err)
	}
	conn.Close()

	if err := <-acceptErrCh; err != nil {
		t.Fatalf("Accept: unexpected error: %v", err)
	}
}

func TestDialWithBackoffGivesUpWhenContextCancelled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	// Nothing listens on this port, so every dial attempt fails and the
	// loop should exit once ctx is done rather than retry forever.
	_, err := DialWithBackoff(ctx, "127.0.0.1:1", nil)
	if err == nil {
		t.Fatal("expected DialWithBackoff to fail once ctx is cancelled")
	}
}
