package protocol

import "testing"

func TestHeaderRoundTrip(t *testing.T) {
	h := NewHeader(MsgChunkData, 42, 1500)
	h.Flags = 0x0007

	buf := EncodeHeader(h)
	// EncodeHeader stores the CRC of bytes 0..23 in the checksum slot.
	h.Checksum = CRC32(buf[0:24])

	decoded := DecodeHeader(buf)
	if decoded != h {
		t.Fatalf("DecodeHeader(EncodeHeader(h)) = %+v, want %+v", decoded, h)
	}

	validated, err := ValidateHeader(buf)
	if err != nil {
		t.Fatalf("ValidateHeader: unexpected error: %v", err)
	}
	if validated != h {
		t.Fatalf("ValidateHeader(EncodeHeader(h)) = %+v, want %+v", validated, h)
	}
}

func TestHeaderValidateBadMagic(t *testing.T) {
	h := NewHeader(MsgHandshakeReq, 0, 0)
	buf := EncodeHeader(h)
	buf[0] ^= 0xFF

	if _, err := ValidateHeader(buf); !IsKind(err, KindProtocol) {
		t.Fatalf("expected KindProtocol error for bad magic, got %v", err)
	}
}

func TestHeaderValidateBadVersion(t *testing.T) {
	h := NewHeader(MsgHandshakeReq, 0, 0)
	buf := EncodeHeader(h)
	buf[4] = Version + 1

	if _, err := ValidateHeader(buf); !IsKind(err, KindVersion) {
		t.Fatalf("expected KindVersion error for bad version, got %v", err)
	}
}

func TestHeaderValidateUnknownMessageType(t *testing.T) {
	h := NewHeader(MsgHandshakeReq, 0, 0)
	buf := EncodeHeader(h)
	buf[5] = 0x7A

	if _, err := ValidateHeader(buf); !IsKind(err, KindInvalidMsg) {
		t.Fatalf("expected KindInvalidMsg error for unknown message type, got %v", err)
	}
}

func TestHeaderValidateChecksumMismatch(t *testing.T) {
	h := NewHeader(MsgFileInfo, 1, 1024)
	buf := EncodeHeader(h)
	buf[9] ^= 0x01 // corrupt a sequence-number byte covered by the checksum

	if _, err := ValidateHeader(buf); !IsKind(err, KindProtocol) {
		t.Fatalf("expected KindProtocol error for checksum mismatch, got %v", err)
	}
}
