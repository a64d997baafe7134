package transfer

import (
	"io"
	"os"
	"sync/atomic"

	"github.com/aeldrin/ftcp/logger"
	"github.com/aeldrin/ftcp/protocol"
)

// SenderState names the position of a Sender within its state machine, per
// spec §4.4: Init -> Handshake -> FileInfoSent -> AwaitFileAck ->
// Streaming -> Done, with Failed reachable from every other state.
type SenderState int

const (
	SenderInit SenderState = iota
	SenderHandshake
	SenderFileInfoSent
	SenderAwaitFileAck
	SenderStreaming
	SenderDone
	SenderFailed
)

func (s SenderState) String() string {
	switch s {
	case SenderInit:
		return "Init"
	case SenderHandshake:
		return "Handshake"
	case SenderFileInfoSent:
		return "FileInfoSent"
	case SenderAwaitFileAck:
		return "AwaitFileAck"
	case SenderStreaming:
		return "Streaming"
	case SenderDone:
		return "Done"
	case SenderFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Sender drives one outbound transfer over an already-established
// connection: handshake, file metadata exchange, and lock-step chunk
// streaming with bounded per-chunk retry.
type Sender struct {
	conn      *protocol.Conn
	file      *os.File
	filename  string
	fileSize  uint64
	chunkSize uint32
	cid       string

	state SenderState
	seq   uint64
	sent  uint64 // atomic: bytes acknowledged so far
}

// NewSender builds a Sender that streams file over rw using chunkSize-byte
// chunks. filename is the name advertised to the receiver (not necessarily
// file's path on disk). cid tags this sender's log lines.
func NewSender(rw io.ReadWriter, file *os.File, filename string, fileSize uint64, chunkSize uint32, cid string) *Sender {
	return &Sender{
		conn:      protocol.NewConn(rw),
		file:      file,
		filename:  filename,
		fileSize:  fileSize,
		chunkSize: chunkSize,
		cid:       cid,
		state:     SenderInit,
	}
}

// Cid implements logger.Context.
func (s *Sender) Cid() string { return s.cid }

// NbBytes implements ThroughputSource: bytes the receiver has acknowledged
// so far.
func (s *Sender) NbBytes() uint64 { return atomic.LoadUint64(&s.sent) }

// State returns the sender's current position in its state machine.
func (s *Sender) State() SenderState { return s.state }

// nextSeq returns the next sequence number, starting at 0 per spec §4.4.1.
func (s *Sender) nextSeq() uint64 {
	seq := s.seq
	s.seq++
	return seq
}

// Run executes the whole transfer: handshake, file info, and every chunk,
// blocking until the file has been fully acknowledged or an error occurs.
func (s *Sender) Run() error {
	if err := s.handshake(); err != nil {
		s.state = SenderFailed
		return err
	}

	if err := s.sendFileInfo(); err != nil {
		s.state = SenderFailed
		return err
	}

	if err := s.awaitFileAck(); err != nil {
		s.state = SenderFailed
		return err
	}

	if err := s.streamChunks(); err != nil {
		s.state = SenderFailed
		return err
	}

	s.state = SenderDone
	logger.T(s, "transfer complete:", s.filename)
	return nil
}

func (s *Sender) handshake() error {
	s.state = SenderHandshake

	payload := protocol.EncodeHandshake(protocol.HandshakePayload{HandshakeVersion: protocol.Version})
	if err := s.conn.SendMessage(protocol.MsgHandshakeReq, s.nextSeq(), payload[:]); err != nil {
		return err
	}

	h, body, err := s.conn.RecvMessage(protocol.MaxPayloadFor(protocol.MsgHandshakeAck))
	if err != nil {
		return err
	}
	if h.MsgType != protocol.MsgHandshakeAck {
		return protocol.NewError(protocol.KindProtocol, "expected HANDSHAKE_ACK, got %v", h.MsgType)
	}

	var buf [8]byte
	copy(buf[:], body)
	ack := protocol.DecodeHandshake(buf)
	if ack.HandshakeVersion != protocol.Version {
		return protocol.NewError(protocol.KindVersion, "receiver reported version %d, want %d", ack.HandshakeVersion, protocol.Version)
	}

	return nil
}

func (s *Sender) sendFileInfo() error {
	s.state = SenderFileInfoSent

	var mode uint32
	var timestamp uint64
	if stat, err := s.file.Stat(); err == nil {
		mode = uint32(stat.Mode().Perm())
		timestamp = uint64(stat.ModTime().Unix())
	}

	info := protocol.FileInfo{
		Filename:     s.filename,
		FileSize:     s.fileSize,
		TotalChunks:  protocol.TotalChunksFor(s.fileSize, s.chunkSize),
		ChunkSize:    s.chunkSize,
		ChecksumType: protocol.ChecksumCRC32,
		FileMode:     mode,
		Timestamp:    timestamp,
	}

	buf, err := protocol.EncodeFileInfo(info)
	if err != nil {
		return err
	}

	return s.conn.SendMessage(protocol.MsgFileInfo, s.nextSeq(), buf[:])
}

// awaitFileAck reads the receiver's response to FILE_INFO: either a ready
// FILE_ACK, a rejecting FILE_ACK, or a MSG_ERROR (spec §4.4.2 requires the
// sender to surface an inbound MSG_ERROR's embedded code).
func (s *Sender) awaitFileAck() error {
	s.state = SenderAwaitFileAck

	h, body, err := s.conn.RecvMessage(protocol.MaxPayloadFor(protocol.MsgError))
	if err != nil {
		return err
	}

	switch h.MsgType {
	case protocol.MsgFileAck:
		var buf [protocol.FileAckSize]byte
		copy(buf[:], body)
		ack := protocol.DecodeFileAck(buf)
		if ack.Status != protocol.FileAckReady {
			return protocol.NewError(protocol.KindProtocol, "receiver rejected file info, error code %d", ack.ErrorCode)
		}
		return nil
	case protocol.MsgError:
		var buf [protocol.ErrorMessageSize]byte
		copy(buf[:], body)
		em := protocol.DecodeErrorMessage(buf)
		return protocol.NewError(protocol.KindProtocol, "receiver rejected file info: %v (%s)", em.Code, em.Message)
	default:
		return protocol.NewError(protocol.KindProtocol, "expected FILE_ACK or ERROR, got %v", h.MsgType)
	}
}

func (s *Sender) streamChunks() error {
	s.state = SenderStreaming

	total := protocol.TotalChunksFor(s.fileSize, s.chunkSize)
	chunkBuf := make([]byte, s.chunkSize)

	for id := uint64(0); id < total; id++ {
		size := protocol.ChunkSizeFor(id, total, s.fileSize, s.chunkSize)
		data := chunkBuf[:size]
		if _, err := io.ReadFull(s.file, data); err != nil {
			return protocol.NewError(protocol.KindRecv, "reading chunk %d from source file: %v", id, err)
		}

		if err := s.sendChunkWithRetry(id, id*uint64(s.chunkSize), data); err != nil {
			return err
		}

		atomic.AddUint64(&s.sent, uint64(size))
	}

	return nil
}

func (s *Sender) sendChunkWithRetry(id, offset uint64, data []byte) error {
	header := protocol.ChunkHeader{
		ChunkID:     id,
		ChunkOffset: offset,
		ChunkSize:   uint32(len(data)),
		ChunkCRC32:  protocol.CRC32(data),
	}

	var lastErr error
	for attempt := 0; attempt <= protocol.MaxRetries; attempt++ {
		if attempt > 0 {
			logger.W(s, "retrying chunk", id, "attempt", attempt)
		}

		if err := s.sendOneChunk(header, data); err != nil {
			lastErr = err
			continue
		}

		ack, err := s.awaitChunkAck(id)
		if err != nil {
			lastErr = err
			continue
		}
		if ack.Status == protocol.ChunkStatusOK {
			return nil
		}
		lastErr = protocol.NewError(protocol.KindChecksum, "receiver asked to retry chunk %d", id)
	}

	return protocol.NewError(protocol.KindProtocol, "chunk %d exhausted retries: %v", id, lastErr)
}

func (s *Sender) sendOneChunk(header protocol.ChunkHeader, data []byte) error {
	hdr := protocol.EncodeChunkHeader(header)
	payload := make([]byte, len(hdr)+len(data))
	copy(payload, hdr[:])
	copy(payload[len(hdr):], data)

	return s.conn.SendMessage(protocol.MsgChunkData, s.nextSeq(), payload)
}

// awaitChunkAck reads one CHUNK_ACK. A mismatched chunk id is logged and
// tolerated: the lock-step design of spec §4.4/§5 means the receiver can only
// ever be acknowledging the chunk we just sent.
func (s *Sender) awaitChunkAck(expect uint64) (protocol.ChunkAck, error) {
	h, body, err := s.conn.RecvMessage(protocol.MaxPayloadFor(protocol.MsgChunkAck))
	if err != nil {
		return protocol.ChunkAck{}, err
	}
	if h.MsgType != protocol.MsgChunkAck {
		return protocol.ChunkAck{}, protocol.NewError(protocol.KindProtocol, "expected CHUNK_ACK, got %v", h.MsgType)
	}

	var buf [protocol.ChunkAckSize]byte
	copy(buf[:], body)
	ack := protocol.DecodeChunkAck(buf)

	if ack.ChunkID != expect {
		logger.W(s, "chunk ack id", ack.ChunkID, "does not match outstanding chunk", expect, "- treating as current-chunk ack")
	}

	return ack, nil
}
