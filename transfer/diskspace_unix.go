//go:build unix

package transfer

import "golang.org/x/sys/unix"

// diskFreeBytesOS reports free space on the filesystem backing dir, used to
// fail a transfer early with ErrDiskFull instead of discovering the
// condition mid-stream via a failed write.
func diskFreeBytesOS(dir string) (uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(dir, &stat); err != nil {
		return 0, err
	}
	return stat.Bavail * uint64(stat.Bsize), nil
}
