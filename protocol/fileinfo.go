package protocol

import "encoding/binary"

// FileInfo is the metadata exchanged before streaming begins. Its wire
// layout is fixed at exactly FileInfoSize (1024) bytes, per spec §3.
type FileInfo struct {
	FilenameLen   uint16
	Filename      string // decoded, NUL-trimmed; <= MaxFilenameLen bytes
	FileSize      uint64
	TotalChunks   uint64
	ChunkSize     uint32
	ChecksumType  ChecksumType
	FileChecksum  [SHA256Size]byte // always zero in this implementation; see spec §9
	FileMode      uint32
	Timestamp     uint64
}

// Layout offsets within the 1024-byte FileInfo payload.
const (
	fiFilenameLenOff = 0
	fiFilenameOff    = fiFilenameLenOff + 2
	fiFileSizeOff    = fiFilenameOff + MaxFilenameLen
	fiTotalChunksOff = fiFileSizeOff + 8
	fiChunkSizeOff   = fiTotalChunksOff + 8
	fiChecksumTypeOff = fiChunkSizeOff + 4
	fiFileChecksumOff = fiChecksumTypeOff + 1
	fiFileModeOff     = fiFileChecksumOff + SHA256Size
	fiTimestampOff    = fiFileModeOff + 4
	fiReservedOff     = fiTimestampOff + 8
)

// fiReservedLen is the size of the trailing zero-padding, computed so the
// whole structure sums to exactly FileInfoSize. (The literal arithmetic in
// spec §3 advertises a 669-byte reserved tail, but summing the field sizes
// it lists leaves 701 bytes to FileInfoSize; we size the reserved region to
// make the struct exactly 1024 bytes rather than propagate that off-by-32.)
const fiReservedLen = FileInfoSize - fiReservedOff

func init() {
	if fiReservedOff+fiReservedLen != FileInfoSize {
		panic("protocol: FileInfo layout does not sum to FileInfoSize")
	}
}

// EncodeFileInfo serializes f into the fixed 1024-byte FileInfo layout.
// The filename is NUL-padded to MaxFilenameLen bytes.
func EncodeFileInfo(f FileInfo) ([FileInfoSize]byte, error) {
	var buf [FileInfoSize]byte

	name := []byte(f.Filename)
	if len(name) > MaxFilenameLen {
		return buf, NewError(KindProtocol, "filename too long: %d bytes", len(name))
	}

	binary.BigEndian.PutUint16(buf[fiFilenameLenOff:fiFilenameLenOff+2], uint16(len(name)))
	copy(buf[fiFilenameOff:fiFilenameOff+MaxFilenameLen], name)
	binary.BigEndian.PutUint64(buf[fiFileSizeOff:fiFileSizeOff+8], f.FileSize)
	binary.BigEndian.PutUint64(buf[fiTotalChunksOff:fiTotalChunksOff+8], f.TotalChunks)
	binary.BigEndian.PutUint32(buf[fiChunkSizeOff:fiChunkSizeOff+4], f.ChunkSize)
	buf[fiChecksumTypeOff] = byte(f.ChecksumType)
	copy(buf[fiFileChecksumOff:fiFileChecksumOff+SHA256Size], f.FileChecksum[:])
	binary.BigEndian.PutUint32(buf[fiFileModeOff:fiFileModeOff+4], f.FileMode)
	binary.BigEndian.PutUint64(buf[fiTimestampOff:fiTimestampOff+8], f.Timestamp)
	// buf[fiReservedOff:] left zero.

	return buf, nil
}

// DecodeFileInfo parses a 1024-byte FileInfo payload. The filename must be
// NUL-terminated within its 256-byte field, per spec §4.2.
func DecodeFileInfo(buf [FileInfoSize]byte) (FileInfo, error) {
	var f FileInfo

	f.FilenameLen = binary.BigEndian.Uint16(buf[fiFilenameLenOff : fiFilenameLenOff+2])
	if int(f.FilenameLen) > MaxFilenameLen {
		return f, NewError(KindProtocol, "filename_len %d exceeds %d", f.FilenameLen, MaxFilenameLen)
	}

	nameField := buf[fiFilenameOff : fiFilenameOff+MaxFilenameLen]
	nul := indexNUL(nameField)
	if nul < 0 {
		return f, NewError(KindProtocol, "filename field is not NUL-terminated")
	}
	if nul != int(f.FilenameLen) {
		return f, NewError(KindProtocol, "filename_len %d does not match NUL offset %d", f.FilenameLen, nul)
	}
	f.Filename = string(nameField[:nul])

	f.FileSize = binary.BigEndian.Uint64(buf[fiFileSizeOff : fiFileSizeOff+8])
	f.TotalChunks = binary.BigEndian.Uint64(buf[fiTotalChunksOff : fiTotalChunksOff+8])
	f.ChunkSize = binary.BigEndian.Uint32(buf[fiChunkSizeOff : fiChunkSizeOff+4])
	f.ChecksumType = ChecksumType(buf[fiChecksumTypeOff])
	copy(f.FileChecksum[:], buf[fiFileChecksumOff:fiFileChecksumOff+SHA256Size])
	f.FileMode = binary.BigEndian.Uint32(buf[fiFileModeOff : fiFileModeOff+4])
	f.Timestamp = binary.BigEndian.Uint64(buf[fiTimestampOff : fiTimestampOff+8])

	return f, nil
}

func indexNUL(b []byte) int {
	for i, c := range b {
		if c == 0 {
			return i
		}
	}
	return -1
}

// TotalChunksFor computes total_chunks = ceil(fileSize / chunkSize), per
// spec §3. fileSize == 0 yields 0 chunks.
func TotalChunksFor(fileSize uint64, chunkSize uint32) uint64 {
	if fileSize == 0 {
		return 0
	}
	cs := uint64(chunkSize)
	return (fileSize + cs - 1) / cs
}

// ChunkSizeFor returns the byte size of chunk chunkID given the file's total
// size and nominal chunk size: the default for every chunk except the
// final one, which may be smaller, per spec §3.
func ChunkSizeFor(chunkID, totalChunks uint64, fileSize uint64, chunkSize uint32) uint32 {
	if chunkID+1 < totalChunks {
		return chunkSize
	}
	offset := chunkID * uint64(chunkSize)
	return uint32(fileSize - offset)
}
