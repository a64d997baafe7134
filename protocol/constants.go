// Package protocol implements the FTCP wire format: fixed-layout message
// headers and payloads, CRC-32 integrity checks, and a blocking framed I/O
// adapter over a byte stream. See the sibling transfer package for the
// sender/receiver state machines built on top of it.
package protocol

// Magic identifies an FTCP message header. "FTCP" in ASCII.
const Magic uint32 = 0x46544350

// Version is the only protocol version this package understands.
const Version uint8 = 0x01

// Wire size constants, per the fixed layouts of the protocol.
const (
	HeaderSize      = 32
	FileInfoSize    = 1024
	ChunkHeaderSize = 24
	ChunkAckSize    = 12
	FileAckSize     = 4
	ErrorMessageSize = 256

	MaxFilenameLen = 256
	SHA256Size     = 32
)

// DefaultChunkSize is the size of a full chunk; the final chunk of a file
// may be smaller.
const DefaultChunkSize = 524288

// DefaultPort is the TCP port both ends listen/dial on unless overridden.
const DefaultPort = 8080

// MaxRetries bounds the number of consecutive resends for a single chunk.
const MaxRetries = 3

// TimeoutSeconds bounds one whole SendMessage or RecvMessage call.
const TimeoutSeconds = 60

// BackoffCapMillis bounds the exponential connect-retry backoff.
const BackoffCapMillis = 16000

// MessageType identifies the kind of message following a header.
type MessageType uint8

const (
	MsgHandshakeReq    MessageType = 0x01
	MsgHandshakeAck    MessageType = 0x02
	MsgFileInfo        MessageType = 0x03
	MsgFileAck         MessageType = 0x04
	MsgChunkData       MessageType = 0x05
	MsgChunkAck        MessageType = 0x06
	MsgTransferComplete MessageType = 0x07 // reserved, never emitted
	MsgVerifyRequest   MessageType = 0x08 // reserved, never emitted
	MsgVerifyResponse  MessageType = 0x09 // reserved, never emitted
	MsgError           MessageType = 0xFF
)

func (t MessageType) String() string {
	switch t {
	case MsgHandshakeReq:
		return "HANDSHAKE_REQ"
	case MsgHandshakeAck:
		return "HANDSHAKE_ACK"
	case MsgFileInfo:
		return "FILE_INFO"
	case MsgFileAck:
		return "FILE_ACK"
	case MsgChunkData:
		return "CHUNK_DATA"
	case MsgChunkAck:
		return "CHUNK_ACK"
	case MsgTransferComplete:
		return "TRANSFER_COMPLETE"
	case MsgVerifyRequest:
		return "VERIFY_REQUEST"
	case MsgVerifyResponse:
		return "VERIFY_RESPONSE"
	case MsgError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// KnownMessageType reports whether t is one of the codes named above.
func KnownMessageType(t MessageType) bool {
	switch t {
	case MsgHandshakeReq, MsgHandshakeAck, MsgFileInfo, MsgFileAck,
		MsgChunkData, MsgChunkAck, MsgTransferComplete,
		MsgVerifyRequest, MsgVerifyResponse, MsgError:
		return true
	default:
		return false
	}
}

// ChecksumType names the whole-file checksum algorithm recorded in FileInfo.
// Only ChecksumCRC32 is ever produced; the field exists for forward
// compatibility (see spec §9 / DESIGN.md Open Questions).
type ChecksumType uint8

const (
	ChecksumCRC32  ChecksumType = 0
	ChecksumMD5    ChecksumType = 1
	ChecksumSHA256 ChecksumType = 2
)

// maxPayloadFor returns the maximum payload size a recipient should accept
// for a given message type, per spec §4.3's recv_message(max_payload) bound.
func maxPayloadFor(t MessageType) int {
	switch t {
	case MsgHandshakeReq, MsgHandshakeAck:
		return 8
	case MsgFileInfo:
		return FileInfoSize
	case MsgFileAck:
		return FileAckSize
	case MsgChunkData:
		return ChunkHeaderSize + DefaultChunkSize
	case MsgChunkAck:
		return ChunkAckSize
	case MsgError:
		return ErrorMessageSize
	default:
		return 0
	}
}

// MaxPayloadFor is the exported form of maxPayloadFor, used by callers that
// need to size a recv_message buffer before they know the header's type.
func MaxPayloadFor(t MessageType) int {
	return maxPayloadFor(t)
}
