//go:build !unix

package transfer

import "math"

// diskFreeBytesOS has no portable implementation outside unix; it reports
// math.MaxUint64 free bytes, so recvFileInfo's free-space check never
// rejects a file.
func diskFreeBytesOS(dir string) (uint64, error) {
	return math.MaxUint64, nil
}
