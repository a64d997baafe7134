package transfer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/aeldrin/ftcp/logger"
	"github.com/aeldrin/ftcp/protocol"
)

// ReceiverState names the position of a Receiver within its state machine,
// per spec §4.5: Listening -> Handshake -> AwaitFileInfo -> Writing ->
// Finalizing -> Done, with Failed reachable from every other state. The
// Listening state itself belongs to the caller that accepts a connection
// before constructing a Receiver; a Receiver starts at Handshake.
type ReceiverState int

const (
	ReceiverHandshake ReceiverState = iota
	ReceiverAwaitFileInfo
	ReceiverWriting
	ReceiverFinalizing
	ReceiverDone
	ReceiverFailed
)

func (s ReceiverState) String() string {
	switch s {
	case ReceiverHandshake:
		return "Handshake"
	case ReceiverAwaitFileInfo:
		return "AwaitFileInfo"
	case ReceiverWriting:
		return "Writing"
	case ReceiverFinalizing:
		return "Finalizing"
	case ReceiverDone:
		return "Done"
	case ReceiverFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Receiver drives one inbound transfer over an already-accepted
// connection: handshake, file metadata exchange, and lock-step chunk
// receipt, finishing with an atomic rename into destDir.
type Receiver struct {
	conn    *protocol.Conn
	destDir string
	cid     string

	state   ReceiverState
	info    protocol.FileInfo
	written uint64 // atomic: bytes written to the temp file so far

	// diskFree, when non-nil, is consulted before accepting a file; it
	// reports bytes available in destDir. Being a field, it can be replaced
	// by a fake that exercises the disk-full path without filling a volume.
	diskFree func(dir string) (uint64, error)
}

// NewReceiver builds a Receiver that writes an inbound file into destDir.
// cid tags this receiver's log lines.
func NewReceiver(rw io.ReadWriter, destDir string, cid string) *Receiver {
	return &Receiver{
		conn:     protocol.NewConn(rw),
		destDir:  destDir,
		cid:      cid,
		state:    ReceiverHandshake,
		diskFree: diskFreeBytes,
	}
}

// Cid implements logger.Context.
func (r *Receiver) Cid() string { return r.cid }

// NbBytes implements ThroughputSource: bytes written to the temp file so
// far.
func (r *Receiver) NbBytes() uint64 { return atomic.LoadUint64(&r.written) }

// State returns the receiver's current position in its state machine.
func (r *Receiver) State() ReceiverState { return r.state }

// Run executes the whole transfer: handshake, file info, every chunk, and
// the final atomic rename, blocking until the file is fully written or an
// error occurs.
func (r *Receiver) Run() error {
	if err := r.handshake(); err != nil {
		r.state = ReceiverFailed
		return err
	}

	if err := r.recvFileInfo(); err != nil {
		r.state = ReceiverFailed
		return err
	}

	tmpPath, finalPath, err := r.receiveChunks()
	if err != nil {
		r.state = ReceiverFailed
		return err
	}

	r.state = ReceiverFinalizing
	if err := finalizeFile(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		r.state = ReceiverFailed
		return err
	}

	r.state = ReceiverDone
	logger.T(r, "transfer complete:", finalPath)
	return nil
}

func (r *Receiver) handshake() error {
	h, body, err := r.conn.RecvMessage(protocol.MaxPayloadFor(protocol.MsgHandshakeReq))
	if err != nil {
		return err
	}
	if h.MsgType != protocol.MsgHandshakeReq {
		return protocol.NewError(protocol.KindProtocol, "expected HANDSHAKE_REQ, got %v", h.MsgType)
	}

	var buf [8]byte
	copy(buf[:], body)
	req := protocol.DecodeHandshake(buf)

	ack := protocol.EncodeHandshake(protocol.HandshakePayload{HandshakeVersion: protocol.Version})
	if err := r.conn.SendMessage(protocol.MsgHandshakeAck, h.SequenceNum+1, ack[:]); err != nil {
		return err
	}

	if req.HandshakeVersion != protocol.Version {
		return protocol.NewError(protocol.KindVersion, "sender proposed version %d, want %d", req.HandshakeVersion, protocol.Version)
	}

	return nil
}

func (r *Receiver) recvFileInfo() error {
	r.state = ReceiverAwaitFileInfo

	h, body, err := r.conn.RecvMessage(protocol.MaxPayloadFor(protocol.MsgFileInfo))
	if err != nil {
		return err
	}
	if h.MsgType != protocol.MsgFileInfo {
		return protocol.NewError(protocol.KindProtocol, "expected FILE_INFO, got %v", h.MsgType)
	}

	var buf [protocol.FileInfoSize]byte
	copy(buf[:], body)
	info, err := protocol.DecodeFileInfo(buf)
	if err != nil {
		return r.rejectFileInfo(h.SequenceNum, protocol.ErrProtocol, err)
	}

	if _, err := SanitizeFilename(info.Filename); err != nil {
		return r.rejectFileInfo(h.SequenceNum, protocol.ErrInvalidArg, err)
	}

	if r.diskFree != nil {
		if free, ferr := r.diskFree(r.destDir); ferr == nil && free < info.FileSize {
			return r.rejectFileInfo(h.SequenceNum, protocol.ErrDiskFull, protocol.NewError(protocol.KindProtocol, "insufficient disk space"))
		}
	}

	r.info = info

	ack := protocol.EncodeFileAck(protocol.FileAck{Status: protocol.FileAckReady})
	return r.conn.SendMessage(protocol.MsgFileAck, h.SequenceNum, ack[:])
}

// rejectFileInfo reports cause to the sender as MSG_ERROR (spec §4.5.2/
// §4.5.3) and returns cause so the caller's Run fails the same way.
func (r *Receiver) rejectFileInfo(seq uint64, code protocol.ErrorCode, cause error) error {
	if err := r.sendError(seq, code, 0, cause.Error()); err != nil {
		return err
	}
	return cause
}

// sendError reports a failure to the sender as a MSG_ERROR carrying code and
// chunkID (0 when the failure isn't chunk-specific), per spec §4.4.2/§4.5.5.
func (r *Receiver) sendError(seq uint64, code protocol.ErrorCode, chunkID uint64, msg string) error {
	em := protocol.EncodeErrorMessage(protocol.ErrorMessage{Code: code, ChunkID: chunkID, Message: msg})
	return r.conn.SendMessage(protocol.MsgError, seq, em[:])
}

// rejectChunk reports a malformed chunk to the sender as MSG_ERROR and
// returns a local protocol error describing the same failure.
func (r *Receiver) rejectChunk(seq, chunkID uint64, format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	if err := r.sendError(seq, protocol.ErrInvalidArg, chunkID, msg); err != nil {
		return err
	}
	return protocol.NewError(protocol.KindProtocol, "%s", msg)
}

// receiveChunks writes every chunk to a hidden temp file in destDir and
// returns its path alongside the sanitized final path. On any failure the
// temp file is removed before returning, per spec §3/§4.5.6.
func (r *Receiver) receiveChunks() (tmpPath, finalPath string, err error) {
	r.state = ReceiverWriting

	name, err := SanitizeFilename(r.info.Filename)
	if err != nil {
		return "", "", err
	}
	finalPath = filepath.Join(r.destDir, name)
	tmpPath = filepath.Join(r.destDir, "."+name+".tmp")

	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return "", "", protocol.NewError(protocol.KindProtocol, "creating temp file: %v", err)
	}

	for id := uint64(0); id < r.info.TotalChunks; {
		before := atomic.LoadUint64(&r.written)
		if err := r.receiveOneChunk(f, id); err != nil {
			f.Close()
			os.Remove(tmpPath)
			return "", "", err
		}
		// A chunk that failed its CRC check was not written and will be
		// resent, so only a written chunk moves on to the next id.
		if atomic.LoadUint64(&r.written) != before {
			id++
		}
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return "", "", protocol.NewError(protocol.KindProtocol, "closing temp file: %v", err)
	}

	return tmpPath, finalPath, nil
}

func (r *Receiver) receiveOneChunk(f *os.File, expectID uint64) error {
	maxPayload := protocol.ChunkHeaderSize + int(r.info.ChunkSize)

	h, body, err := r.conn.RecvMessage(maxPayload)
	if err != nil {
		return err
	}
	if h.MsgType != protocol.MsgChunkData {
		return protocol.NewError(protocol.KindProtocol, "expected CHUNK_DATA, got %v", h.MsgType)
	}
	if len(body) < protocol.ChunkHeaderSize {
		return protocol.NewError(protocol.KindProtocol, "chunk payload shorter than its header")
	}

	var hdrBuf [protocol.ChunkHeaderSize]byte
	copy(hdrBuf[:], body[:protocol.ChunkHeaderSize])
	hdr := protocol.DecodeChunkHeader(hdrBuf)
	data := body[protocol.ChunkHeaderSize:]

	if hdr.ChunkID != expectID {
		logger.W(r, "chunk id", hdr.ChunkID, "does not match expected", expectID, "- treating as current chunk")
	}

	// Reject a chunk whose header claims an offset/size outside what this
	// transfer's FileInfo promised, per spec §3/§4.5: chunk_offset must be
	// chunk_id*chunk_size and must not run past file_size. Without this, an
	// attacker-controlled offset drives an arbitrary sparse WriteAt below.
	if hdr.ChunkSize != uint32(len(data)) {
		return r.rejectChunk(h.SequenceNum, hdr.ChunkID, "chunk_size %d does not match payload length %d", hdr.ChunkSize, len(data))
	}
	if hdr.ChunkOffset != hdr.ChunkID*uint64(r.info.ChunkSize) {
		return r.rejectChunk(h.SequenceNum, hdr.ChunkID, "chunk_offset %d is not chunk_id*chunk_size", hdr.ChunkOffset)
	}
	if hdr.ChunkOffset+uint64(len(data)) > r.info.FileSize {
		return r.rejectChunk(h.SequenceNum, hdr.ChunkID, "chunk_offset %d + size %d exceeds file_size %d", hdr.ChunkOffset, len(data), r.info.FileSize)
	}

	if protocol.CRC32(data) != hdr.ChunkCRC32 {
		logger.W(r, "chunk", hdr.ChunkID, "failed crc check, requesting retry")
		ack := protocol.EncodeChunkAck(protocol.ChunkAck{ChunkID: hdr.ChunkID, Status: protocol.ChunkStatusRetry})
		return r.conn.SendMessage(protocol.MsgChunkAck, h.SequenceNum, ack[:])
	}

	if _, err := f.WriteAt(data, int64(hdr.ChunkOffset)); err != nil {
		writeErr := protocol.NewError(protocol.KindProtocol, "writing chunk %d to disk: %v", hdr.ChunkID, err)
		if sendErr := r.sendError(h.SequenceNum, protocol.ErrFileWrite, hdr.ChunkID, err.Error()); sendErr != nil {
			return sendErr
		}
		return writeErr
	}
	atomic.AddUint64(&r.written, uint64(len(data)))

	ack := protocol.EncodeChunkAck(protocol.ChunkAck{ChunkID: hdr.ChunkID, Status: protocol.ChunkStatusOK})
	return r.conn.SendMessage(protocol.MsgChunkAck, h.SequenceNum, ack[:])
}

// finalizeFile atomically publishes tmpPath as finalPath. os.Rename is
// already atomic on the platforms FTCP targets; the remove-then-rename
// fallback only matters on filesystems where rename cannot overwrite an
// existing destination.
func finalizeFile(tmpPath, finalPath string) error {
	if err := os.Rename(tmpPath, finalPath); err != nil {
		if os.IsExist(err) {
			if rmErr := os.Remove(finalPath); rmErr != nil {
				return protocol.NewError(protocol.KindProtocol, "removing existing destination: %v", rmErr)
			}
			if err := os.Rename(tmpPath, finalPath); err != nil {
				return protocol.NewError(protocol.KindProtocol, "renaming temp file: %v", err)
			}
			return nil
		}
		return protocol.NewError(protocol.KindProtocol, "renaming temp file: %v", err)
	}
	return nil
}

// SanitizeFilename turns a sender-supplied name into one safe to join under
// a destination directory: rejects path traversal, absolute paths, and
// drive-letter forms, keeps only [A-Za-z0-9._-], and folds path separators
// to underscores.
func SanitizeFilename(name string) (string, error) {
	if name == "" {
		return "", protocol.NewError(protocol.KindProtocol, "empty filename")
	}
	if name == "." || name == ".." {
		return "", protocol.NewError(protocol.KindProtocol, "invalid filename %q", name)
	}
	if strings.HasPrefix(name, "/") || strings.HasPrefix(name, "\\") {
		return "", protocol.NewError(protocol.KindProtocol, "absolute filename %q rejected", name)
	}
	if len(name) >= 2 && name[1] == ':' {
		return "", protocol.NewError(protocol.KindProtocol, "drive-letter filename %q rejected", name)
	}
	if strings.Contains(name, "..") {
		return "", protocol.NewError(protocol.KindProtocol, "path traversal in filename %q rejected", name)
	}

	var b strings.Builder
	for _, c := range name {
		switch {
		case c == '/' || c == '\\':
			b.WriteByte('_')
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '.', c == '_', c == '-':
			b.WriteRune(c)
		}
	}

	sanitized := b.String()
	if sanitized == "" {
		return "", protocol.NewError(protocol.KindProtocol, "filename %q sanitizes to empty string", name)
	}

	return sanitized, nil
}

func diskFreeBytes(dir string) (uint64, error) {
	return diskFreeBytesOS(dir)
}
