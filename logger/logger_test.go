package logger_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/aeldrin/ftcp/logger"
)

// session is a minimal Context implementation, the way a transfer session
// tags its log lines with a connection id.
type session string

func (s session) Cid() string { return string(s) }

func TestLoggerWithoutContext(t *testing.T) {
	var buf bytes.Buffer
	logger.Switch(&buf)
	defer logger.Close()

	logger.Trace.Println(nil, "hello")

	if !strings.Contains(buf.String(), "hello") {
		t.Fatalf("log output %q does not contain message", buf.String())
	}
}

func TestLoggerConnectionBased(t *testing.T) {
	var buf bytes.Buffer
	logger.Switch(&buf)
	defer logger.Close()

	ctx := session("conn-100")
	logger.Trace.Println(ctx, "streaming chunk")
	logger.Warn.Println(ctx, "retrying chunk")
	logger.Error.Println(ctx, "gave up")

	out := buf.String()
	if !strings.Contains(out, "conn-100") {
		t.Fatalf("log output %q does not contain connection id", out)
	}
}

func TestLoggerCloseDiscardsOutput(t *testing.T) {
	var buf bytes.Buffer
	logger.Switch(&buf)
	if err := logger.Close(); err != nil {
		t.Fatalf("Close: unexpected error: %v", err)
	}

	logger.Trace.Println(nil, "should not appear")
	if buf.Len() != 0 {
		t.Fatalf("expected no further writes after Close, got %q", buf.String())
	}
}
