package database

import (
	"os"

	"golang.org/x/sys/unix"
)

// The lock block is a small fixed region immediately following the header.
// It reserves byte ranges used as OS advisory file-range locks: one for the
// single writer-at-a-time transaction lock, one for the vacuum (compaction)
// lock. Neither range holds any persisted data; only its presence as a lock
// target matters.
const (
	lockBlockOffset = HeaderSize
	writerLockByte  = lockBlockOffset
	vacuumLockByte  = lockBlockOffset + 1

	// LockBlockSize is the fixed size of the lock block; the generation-0
	// trailer begins immediately after it.
	LockBlockSize = 16
)

// rangeLock takes an advisory POSIX file-range lock covering a single byte,
// blocking until it is available, and returns a function that releases it.
func rangeLock(file *os.File, offset int64, writable bool) (func() error, error) {
	lockType := int16(unix.F_RDLCK)
	if writable {
		lockType = unix.F_WRLCK
	}
	lock := unix.Flock_t{
		Type:   lockType,
		Whence: int16(os.SEEK_SET),
		Start:  offset,
		Len:    1,
	}
	if err := unix.FcntlFlock(file.Fd(), unix.F_SETLKW, &lock); err != nil {
		return nil, err
	}
	return func() error {
		unlock := unix.Flock_t{
			Type:   unix.F_UNLCK,
			Whence: int16(os.SEEK_SET),
			Start:  offset,
			Len:    1,
		}
		return unix.FcntlFlock(file.Fd(), unix.F_SETLK, &unlock)
	}, nil
}

// lockWriter acquires the store's single writer-transaction lock. It blocks
// until a writer in another process releases it (the lock is held per
// process, so it never blocks against this process); any number of readers
// may proceed concurrently.
func lockWriter(file *os.File) (func() error, error) {
	return rangeLock(file, writerLockByte, true)
}

// lockVacuum acquires the lock used to serialize compaction against both
// writers and other vacuum runs.
func lockVacuum(file *os.File) (func() error, error) {
	return rangeLock(file, vacuumLockByte, true)
}
