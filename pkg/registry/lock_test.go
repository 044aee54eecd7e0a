package registry

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func TestLockSharedThenExclusiveNonBlockingDenied(t *testing.T) {
	dir := t.TempDir()
	registryPath := filepath.Join(dir, "system.devices")

	a := NewLock(dir, registryPath)
	if _, err := a.Acquire(LockShared, true); err != nil {
		t.Fatalf("a.Acquire(shared): %v", err)
	}
	defer a.Release()

	b := NewLock(dir, registryPath)
	_, err := b.Acquire(LockExclusive, false)
	if !errors.Is(err, ErrLockDenied) {
		t.Fatalf("b.Acquire(exclusive, non-blocking) = %v, want ErrLockDenied", err)
	}
}

func TestLockReentrantSameModeIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	registryPath := filepath.Join(dir, "system.devices")

	l := NewLock(dir, registryPath)
	alreadyHeld, err := l.Acquire(LockExclusive, true)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if alreadyHeld {
		t.Fatal("first Acquire should report alreadyHeld=false")
	}
	defer l.Release()

	alreadyHeld, err = l.Acquire(LockExclusive, true)
	if err != nil {
		t.Fatalf("re-Acquire same mode: %v", err)
	}
	if !alreadyHeld {
		t.Fatal("re-Acquire same mode should report alreadyHeld=true")
	}
}

func TestLockModeConflictIsInternalError(t *testing.T) {
	dir := t.TempDir()
	registryPath := filepath.Join(dir, "system.devices")

	l := NewLock(dir, registryPath)
	if _, err := l.Acquire(LockShared, true); err != nil {
		t.Fatalf("Acquire(shared): %v", err)
	}
	defer l.Release()

	_, err := l.Acquire(LockExclusive, true)
	if !errors.Is(err, ErrLockModeConflict) {
		t.Fatalf("Acquire(exclusive) while held shared = %v, want ErrLockModeConflict", err)
	}
}

func TestLockReleaseThenReacquireDifferentMode(t *testing.T) {
	dir := t.TempDir()
	registryPath := filepath.Join(dir, "system.devices")

	l := NewLock(dir, registryPath)
	if _, err := l.Acquire(LockShared, true); err != nil {
		t.Fatal(err)
	}
	if err := l.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if l.Mode() != LockNone {
		t.Fatalf("Mode() after Release = %v, want LockNone", l.Mode())
	}
	if _, err := l.Acquire(LockExclusive, true); err != nil {
		t.Fatalf("Acquire(exclusive) after release: %v", err)
	}
	_ = l.Release()
}

func TestLockBlockingWaitsForRelease(t *testing.T) {
	dir := t.TempDir()
	registryPath := filepath.Join(dir, "system.devices")

	a := NewLock(dir, registryPath)
	if _, err := a.Acquire(LockExclusive, true); err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	b := NewLock(dir, registryPath)
	go func() {
		_, err := b.Acquire(LockExclusive, true)
		done <- err
	}()

	// Give the goroutine a moment to actually block before releasing.
	time.Sleep(50 * time.Millisecond)
	if err := a.Release(); err != nil {
		t.Fatal(err)
	}

	if err := <-done; err != nil {
		t.Fatalf("blocking Acquire after release: %v", err)
	}
	_ = b.Release()
}
