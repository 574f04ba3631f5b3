package install

import (
	"errors"
	"syscall"
)

// isDiskFull reports whether err is (or wraps) ENOSPC.
func isDiskFull(err error) bool {
	return errors.Is(err, syscall.ENOSPC)
}

// freeBytes returns the free space available on the filesystem backing
// dir, or 0 if it cannot be determined.
func freeBytes(dir string) int64 {
	var st syscall.Statfs_t
	if err := syscall.Statfs(dir, &st); err != nil {
		return 0
	}
	return int64(st.Bavail) * int64(st.Bsize)
}
