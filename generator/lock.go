package generator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// LockFile is the name of the lock file kept in the migrations directory.
const LockFile = ".automigrate.lock"

// Locker serializes migration generation.
type Locker interface {
	// Acquire blocks until the lock is held or ctx is done. The returned
	// release function must be called to give the lock back.
	Acquire(ctx context.Context) (release func(), err error)
}

// FileLock is a Locker backed by an OS file lock on a file in the
// migrations directory. The kernel drops the lock when its holder exits, so
// a leftover file from a killed run does not block.
type FileLock struct {
	path     string
	interval time.Duration
}

// NewFileLock creates a lock for the migrations directory dir.
func NewFileLock(dir string) *FileLock {
	return &FileLock{path: filepath.Join(dir, LockFile), interval: 100 * time.Millisecond}
}

// Path returns the lock file location.
func (l *FileLock) Path() string {
	return l.path
}

// Acquire takes the lock, retrying while another process holds it. One
// attempt is always made, even when ctx is already done.
func (l *FileLock) Acquire(ctx context.Context) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return nil, fmt.Errorf("creating lock directory: %w", err)
	}

	fl := flock.New(l.path)
	locked, err := fl.TryLock()
	if err == nil && !locked {
		locked, err = fl.TryLockContext(ctx, l.interval)
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("acquire lock %s (held by another run): %w", l.path, err)
		}
		return nil, fmt.Errorf("acquire lock %s: %w", l.path, err)
	}
	if !locked {
		return nil, fmt.Errorf("acquire lock %s: held by another run", l.path)
	}

	return func() { _ = fl.Unlock() }, nil
}
