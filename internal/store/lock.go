package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// FileLock is a cross-process exclusive lock guarding an index directory
// against a second writer.
type FileLock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

// NewFileLock creates the lock for an index directory. The lock file sits
// next to the directory at <index>.lock so clearing the index never
// removes it.
func NewFileLock(indexPath string) *FileLock {
	lockPath := filepath.Clean(indexPath) + ".lock"
	return &FileLock{
		path:  lockPath,
		flock: flock.New(lockPath),
	}
}

// TryLock attempts to acquire the lock without blocking.
// Returns false if another process holds it.
func (l *FileLock) TryLock() (bool, error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return false, fmt.Errorf("failed to create lock directory: %w", err)
	}

	acquired, err := l.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if acquired {
		l.locked = true
	}
	return acquired, nil
}

// Unlock releases the lock. Safe to call on an unlocked FileLock.
func (l *FileLock) Unlock() error {
	if !l.locked {
		return nil
	}
	l.locked = false
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}

// Path returns the path to the lock file.
func (l *FileLock) Path() string {
	return l.path
}

// IsLocked reports whether this handle holds the lock.
func (l *FileLock) IsLocked() bool {
	return l.locked
}

// HeldElsewhere reports whether another process holds the lock. A missing
// lock file means no writer ever ran.
func (l *FileLock) HeldElsewhere() (bool, error) {
	if l.locked {
		return false, nil
	}
	if _, err := os.Stat(l.path); os.IsNotExist(err) {
		return false, nil
	}
	acquired, err := l.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("failed to probe lock: %w", err)
	}
	if acquired {
		_ = l.flock.Unlock()
		return false, nil
	}
	return true, nil
}
