package fsstore

import (
	"os"
	"syscall"
)

// withFileLock runs fn while holding an exclusive advisory lock on
// path, created if necessary. This guards the deploy swap against a
// concurrent deploy from another process on the same host; in-process
// callers are already serialized by Store.mu.
func withFileLock(path string, fn func() error) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		return err
	}
	defer syscall.Flock(int(f.Fd()), syscall.LOCK_UN)

	return fn()
}
