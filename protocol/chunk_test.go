package protocol

import "testing"

func TestChunkHeaderRoundTrip(t *testing.T) {
	c := ChunkHeader{ChunkID: 7, ChunkOffset: 7 * DefaultChunkSize, ChunkSize: DefaultChunkSize, ChunkCRC32: 0xDEADBEEF}
	got := DecodeChunkHeader(EncodeChunkHeader(c))
	if got != c {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, c)
	}
}

func TestChunkAckRoundTrip(t *testing.T) {
	cases := []ChunkAck{
		{ChunkID: 0, Status: ChunkStatusOK},
		{ChunkID: 1000, Status: ChunkStatusRetry},
	}
	for _, a := range cases {
		got := DecodeChunkAck(EncodeChunkAck(a))
		if got != a {
			t.Fatalf("round trip mismatch: got %+v, want %+v", got, a)
		}
	}
}

func TestFileAckRoundTrip(t *testing.T) {
	diskFull := ErrDiskFull
	cases := []FileAck{
		{Status: FileAckReady, ErrorCode: 0},
		{Status: FileAckError, ErrorCode: byte(int8(diskFull))},
	}
	for _, a := range cases {
		got := DecodeFileAck(EncodeFileAck(a))
		if got != a {
			t.Fatalf("round trip mismatch: got %+v, want %+v", got, a)
		}
	}
}

func TestErrorMessageRoundTrip(t *testing.T) {
	e := ErrorMessage{Code: ErrChecksum, ChunkID: 42, Message: "chunk checksum mismatch"}
	got := DecodeErrorMessage(EncodeErrorMessage(e))
	if got != e {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, e)
	}
}

func TestErrorMessageTruncatesOverlongText(t *testing.T) {
	long := make([]byte, errMsgTextLen+50)
	for i := range long {
		long[i] = 'a'
	}
	e := ErrorMessage{Code: ErrProtocol, Message: string(long)}

	got := DecodeErrorMessage(EncodeErrorMessage(e))
	if len(got.Message) != errMsgTextLen-1 {
		t.Fatalf("truncated message length = %d, want %d", len(got.Message), errMsgTextLen-1)
	}
}

func TestHandshakePayloadRoundTrip(t *testing.T) {
	h := HandshakePayload{HandshakeVersion: Version, Capabilities: 0x00000001}
	got := DecodeHandshake(EncodeHandshake(h))
	if got != h {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, h)
	}
}
