package protocol

import "hash/crc32"

// ieeeTable is the standard IEEE/zlib/Ethernet CRC-32 table: polynomial
// 0xEDB88320 reflected, init 0xFFFFFFFF, final XOR 0xFFFFFFFF. crc32.IEEE
// in the standard library is exactly this table; we name our own var so
// call sites read as protocol-domain code rather than a stdlib passthrough.
var ieeeTable = crc32.MakeTable(crc32.IEEE)

// CRC32 computes the IEEE CRC-32 checksum used throughout the wire format:
// header checksums (over the first 24 header bytes) and chunk payload
// checksums. Senders and receivers built independently must agree on this
// value bit-for-bit, which is exactly what the standard library's
// zlib-compatible implementation guarantees.
func CRC32(b []byte) uint32 {
	return crc32.Checksum(b, ieeeTable)
}
