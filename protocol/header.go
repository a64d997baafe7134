package protocol

import "encoding/binary"

// MessageHeader is the fixed 32-byte prefix of every FTCP wire message.
// Field layout and sizes are fixed by spec §3 and must not change without a
// new protocol version.
type MessageHeader struct {
	Magic       uint32
	Version     uint8
	MsgType     MessageType
	Flags       uint16
	SequenceNum uint64
	PayloadSize uint64
	Checksum    uint32
	Reserved    uint32
}

// NewHeader builds a header for an outbound message; the checksum is filled
// in by EncodeHeader.
func NewHeader(msgType MessageType, seq uint64, payloadSize uint64) MessageHeader {
	return MessageHeader{
		Magic:       Magic,
		Version:     Version,
		MsgType:     msgType,
		SequenceNum: seq,
		PayloadSize: payloadSize,
	}
}

// EncodeHeader writes h in network byte order into the returned 32-byte
// array, computing the checksum over bytes 0..23 with the checksum field
// itself treated as zero, per spec §3/§4.2.
func EncodeHeader(h MessageHeader) [HeaderSize]byte {
	var buf [HeaderSize]byte

	binary.BigEndian.PutUint32(buf[0:4], h.Magic)
	buf[4] = h.Version
	buf[5] = byte(h.MsgType)
	binary.BigEndian.PutUint16(buf[6:8], h.Flags)
	binary.BigEndian.PutUint64(buf[8:16], h.SequenceNum)
	binary.BigEndian.PutUint64(buf[16:24], h.PayloadSize)
	// buf[24:28] (checksum) left zero for the checksum computation below.
	binary.BigEndian.PutUint32(buf[28:32], h.Reserved)

	checksum := CRC32(buf[0:24])
	binary.BigEndian.PutUint32(buf[24:28], checksum)

	return buf
}

// DecodeHeader parses a 32-byte header without validating it; call
// ValidateHeader on the result before trusting it.
func DecodeHeader(buf [HeaderSize]byte) MessageHeader {
	return MessageHeader{
		Magic:       binary.BigEndian.Uint32(buf[0:4]),
		Version:     buf[4],
		MsgType:     MessageType(buf[5]),
		Flags:       binary.BigEndian.Uint16(buf[6:8]),
		SequenceNum: binary.BigEndian.Uint64(buf[8:16]),
		PayloadSize: binary.BigEndian.Uint64(buf[16:24]),
		Checksum:    binary.BigEndian.Uint32(buf[24:28]),
		Reserved:    binary.BigEndian.Uint32(buf[28:32]),
	}
}

// ValidateHeader checks h against the invariants of spec §3/§4.2: magic,
// version, known message type, and the header checksum recomputed over the
// zeroed-checksum form of the original wire bytes.
func ValidateHeader(buf [HeaderSize]byte) (MessageHeader, error) {
	h := DecodeHeader(buf)

	if h.Magic != Magic {
		return h, NewError(KindProtocol, "bad magic %#x", h.Magic)
	}
	if h.Version != Version {
		return h, NewError(KindVersion, "unsupported version %d", h.Version)
	}
	if !KnownMessageType(h.MsgType) {
		return h, NewError(KindInvalidMsg, "unknown message type %#x", byte(h.MsgType))
	}

	zeroed := buf
	binary.BigEndian.PutUint32(zeroed[24:28], 0)
	if want := CRC32(zeroed[0:24]); want != h.Checksum {
		return h, NewError(KindProtocol, "header checksum mismatch: got %#x want %#x", h.Checksum, want)
	}

	return h, nil
}
