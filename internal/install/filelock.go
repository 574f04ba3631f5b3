package install

import (
	"os"
	"syscall"
)

// acquireFileLock takes an exclusive advisory lock on path, creating it if
// needed, so concurrent processes (not just goroutines) serialize on the
// same (modelId, version) install (§4.1 "Single-flight": "a file lock on
// {cacheDir}/{modelId}/{version}/.lock"). No third-party flock wrapper
// appears anywhere in the retrieved corpus, so this uses syscall.Flock
// directly — one of the few deliberate standard-library choices, noted
// here rather than silently.
func acquireFileLock(path string) (unlock func(), err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		f.Close()
		return nil, err
	}
	return func() {
		syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
		f.Close()
	}, nil
}
