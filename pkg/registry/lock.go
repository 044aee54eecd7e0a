package registry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"syscall"
)

// LockMode is the mode a devices-file lock is held in.
type LockMode int

const (
	LockNone LockMode = iota
	LockShared
	LockExclusive
)

// ErrLockModeConflict is returned when a caller tries to re-acquire an
// already-held lock in a different mode. Spec section 4.4: "Attempting a
// different mode while held is an internal error."
var ErrLockModeConflict = errors.New("registry: lock already held in a different mode")

// ErrLockDenied is returned by Acquire with blocking=false when the lock is held by
// another process and non-blocking acquisition was requested.
var ErrLockDenied = errors.New("registry: lock denied (held by another process)")

// Lock is the advisory whole-file lock on a sibling path
// "<lockdir>/D_<basename>" (spec section 6), implemented with flock(2)
// the way the pack's sandbox filesystem store locks a directory fd —
// generalised here to a dedicated lock file rather than the registry
// file itself, so a reader never blocks on the writer's atomic rename.
type Lock struct {
	mu   sync.Mutex
	path string
	fd   *os.File
	mode LockMode
}

// NewLock returns a Lock for the devices file at registryPath, using
// lockDir as the directory for the sibling lock file.
func NewLock(lockDir, registryPath string) *Lock {
	name := "D_" + filepath.Base(registryPath)
	return &Lock{path: filepath.Join(lockDir, name)}
}

// Acquire takes the lock in the given mode. Re-entering the same mode on
// an already-held lock is idempotent; the returned alreadyHeld flag
// tells the caller not to release a lock it doesn't actually own the
// outermost claim on. Acquiring LockExclusive with blocking=false
// returns ErrLockDenied instead of waiting when another process holds
// it.
func (l *Lock) Acquire(mode LockMode, blocking bool) (alreadyHeld bool, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.mode != LockNone {
		if l.mode != mode {
			return false, fmt.Errorf("%w: held as %v, requested %v", ErrLockModeConflict, l.mode, mode)
		}
		return true, nil
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0o700); err != nil {
		return false, fmt.Errorf("registry: create lock directory: %w", err)
	}
	fd, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return false, fmt.Errorf("registry: open lock file %s: %w", l.path, err)
	}

	how := syscall.LOCK_SH
	if mode == LockExclusive {
		how = syscall.LOCK_EX
	}
	if !blocking {
		how |= syscall.LOCK_NB
	}

	if err := syscall.Flock(int(fd.Fd()), how); err != nil {
		fd.Close()
		if !blocking && errors.Is(err, syscall.EWOULDBLOCK) {
			return false, ErrLockDenied
		}
		return false, fmt.Errorf("registry: flock %s: %w", l.path, err)
	}

	l.fd = fd
	l.mode = mode
	return false, nil
}

// Release drops the lock and closes the underlying file descriptor.
// Calling Release when the lock isn't held is a no-op.
func (l *Lock) Release() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.fd == nil {
		return nil
	}
	err := syscall.Flock(int(l.fd.Fd()), syscall.LOCK_UN)
	closeErr := l.fd.Close()
	l.fd = nil
	l.mode = LockNone
	if err != nil {
		return fmt.Errorf("registry: unlock %s: %w", l.path, err)
	}
	return closeErr
}

// Mode reports the lock's current mode.
func (l *Lock) Mode() LockMode {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.mode
}
