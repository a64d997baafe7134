package protocol

import "encoding/binary"

// ChunkHeader precedes the chunk bytes inside a CHUNK_DATA payload. Fixed
// 24-byte layout, per spec §3.
type ChunkHeader struct {
	ChunkID     uint64
	ChunkOffset uint64
	ChunkSize   uint32
	ChunkCRC32  uint32
}

// EncodeChunkHeader serializes c into its fixed 24-byte wire form.
func EncodeChunkHeader(c ChunkHeader) [ChunkHeaderSize]byte {
	var buf [ChunkHeaderSize]byte
	binary.BigEndian.PutUint64(buf[0:8], c.ChunkID)
	binary.BigEndian.PutUint64(buf[8:16], c.ChunkOffset)
	binary.BigEndian.PutUint32(buf[16:20], c.ChunkSize)
	binary.BigEndian.PutUint32(buf[20:24], c.ChunkCRC32)
	return buf
}

// DecodeChunkHeader parses a 24-byte ChunkHeader.
func DecodeChunkHeader(buf [ChunkHeaderSize]byte) ChunkHeader {
	return ChunkHeader{
		ChunkID:     binary.BigEndian.Uint64(buf[0:8]),
		ChunkOffset: binary.BigEndian.Uint64(buf[8:16]),
		ChunkSize:   binary.BigEndian.Uint32(buf[16:20]),
		ChunkCRC32:  binary.BigEndian.Uint32(buf[20:24]),
	}
}

// ChunkAckStatus values for ChunkAck.Status.
const (
	ChunkStatusOK    = 0
	ChunkStatusRetry = 1
)

// ChunkAck acknowledges one CHUNK_DATA message. Wire form is 12 bytes
// (3 reserved zero bytes after the status byte), per spec §3.
type ChunkAck struct {
	ChunkID uint64
	Status  uint8
}

// EncodeChunkAck serializes a to its 12-byte wire form.
func EncodeChunkAck(a ChunkAck) [ChunkAckSize]byte {
	var buf [ChunkAckSize]byte
	binary.BigEndian.PutUint64(buf[0:8], a.ChunkID)
	buf[8] = a.Status
	return buf
}

// DecodeChunkAck parses a 12-byte ChunkAck payload.
func DecodeChunkAck(buf [ChunkAckSize]byte) ChunkAck {
	return ChunkAck{
		ChunkID: binary.BigEndian.Uint64(buf[0:8]),
		Status:  buf[8],
	}
}

// FileAckStatus values for FileAck.Status.
const (
	FileAckReady = 0
	FileAckError = 1
)

// FileAck responds to FILE_INFO. Fixed 4-byte layout, per spec §3.
type FileAck struct {
	Status    uint8
	ErrorCode uint8
}

// EncodeFileAck serializes a to its 4-byte wire form.
func EncodeFileAck(a FileAck) [FileAckSize]byte {
	var buf [FileAckSize]byte
	buf[0] = a.Status
	buf[1] = a.ErrorCode
	return buf
}

// DecodeFileAck parses a 4-byte FileAck payload.
func DecodeFileAck(buf [FileAckSize]byte) FileAck {
	return FileAck{Status: buf[0], ErrorCode: buf[1]}
}

// ErrorMessage carries a protocol-level error report. Fixed 256-byte
// layout, per spec §3: a 1-byte code, an 8-byte chunk id, and a
// 247-byte NUL-terminated UTF-8 message.
type ErrorMessage struct {
	Code    ErrorCode
	ChunkID uint64
	Message string
}

const errMsgTextLen = ErrorMessageSize - 1 - 8 // 247

// EncodeErrorMessage serializes e, truncating Message to fit the
// NUL-terminated 247-byte field if necessary.
func EncodeErrorMessage(e ErrorMessage) [ErrorMessageSize]byte {
	var buf [ErrorMessageSize]byte
	buf[0] = byte(int8(e.Code))
	binary.BigEndian.PutUint64(buf[1:9], e.ChunkID)

	msg := []byte(e.Message)
	if len(msg) > errMsgTextLen-1 {
		msg = msg[:errMsgTextLen-1]
	}
	copy(buf[9:9+len(msg)], msg)
	// Remaining bytes, including the terminating NUL, are already zero.

	return buf
}

// DecodeErrorMessage parses a 256-byte ErrorMessage payload.
func DecodeErrorMessage(buf [ErrorMessageSize]byte) ErrorMessage {
	code := ErrorCode(int8(buf[0]))
	chunkID := binary.BigEndian.Uint64(buf[1:9])

	text := buf[9:ErrorMessageSize]
	nul := indexNUL(text)
	if nul < 0 {
		nul = len(text)
	}

	return ErrorMessage{Code: code, ChunkID: chunkID, Message: string(text[:nul])}
}

// HandshakePayload is exchanged during the handshake. Its wire layout isn't
// named as a top-level §3 structure in the spec (the spec only names the
// fields exchanged: version and capabilities); we fix it at 8 bytes so it
// fits comfortably within a single read and leaves room for future
// capability bits.
type HandshakePayload struct {
	HandshakeVersion uint8
	Capabilities     uint32
}

const handshakePayloadSize = 8

// EncodeHandshake serializes h to its 8-byte wire form.
func EncodeHandshake(h HandshakePayload) [handshakePayloadSize]byte {
	var buf [handshakePayloadSize]byte
	buf[0] = h.HandshakeVersion
	binary.BigEndian.PutUint32(buf[4:8], h.Capabilities)
	return buf
}

// DecodeHandshake parses an 8-byte HandshakePayload.
func DecodeHandshake(buf [handshakePayloadSize]byte) HandshakePayload {
	return HandshakePayload{
		HandshakeVersion: buf[0],
		Capabilities:      binary.BigEndian.Uint32(buf[4:8]),
	}
}
