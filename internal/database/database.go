// Package database implements the transactional storage engine: the file
// header and lock block, revision trailers linked newest-to-oldest, the
// writer range-lock and commit/rollback protocol, and multi-revision sync.
package database

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iamNilotpal/pstore/internal/addr"
	"github.com/iamNilotpal/pstore/internal/base32"
	"github.com/iamNilotpal/pstore/internal/storage"
	"github.com/iamNilotpal/pstore/internal/uint128"
	"github.com/iamNilotpal/pstore/pkg/errors"
)

// Config carries the parameters needed to open or create a store.
type Config struct {
	Path       string
	RegionSize uint64
	Logger     *zap.SugaredLogger
}

// Database is an open store file: the memory-mapped storage backend plus
// the file header, the current trailer, and the locking needed to run
// transactions against it.
type Database struct {
	mu sync.Mutex

	path     string
	storage  *storage.Storage
	lockFile *os.File
	log      *zap.SugaredLogger

	header header
	footer Trailer

	// footerPos is the address of the current trailer; firstWritable is
	// the address immediately past it, the boundary below which every
	// byte is part of a committed, immutable revision.
	footerPos     addr.Address
	firstWritable addr.Address

	closed bool
}

// uuidToUint128 reinterprets a UUID's 16 bytes as a big-endian 128-bit value,
// giving every store a base32 sync name derived from its identity.
func uuidToUint128(id uuid.UUID) uint128.Value {
	var high, low uint64
	for i := 0; i < 8; i++ {
		high = high<<8 | uint64(id[i])
	}
	for i := 8; i < 16; i++ {
		low = low<<8 | uint64(id[i])
	}
	return uint128.New(high, low)
}

// Create builds a brand-new store file at path: a valid header, lock block,
// and generation-0 trailer. Following the original's approach, the content
// is assembled in a temporary file in the same directory and then renamed
// into place, so that a reader never observes a partially written store.
func Create(path string, logger *zap.SugaredLogger) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".pstore-tmp-*")
	if err != nil {
		return errors.ClassifyFileOpenError(err, path)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := writeNewStore(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return errors.NewDatabaseError(err, errors.ErrorCodeIO, "failed to close temporary store file").
			WithPath(tmpPath)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return errors.NewDatabaseError(err, errors.ErrorCodeIO, "failed to install new store file").
			WithPath(path)
	}
	logger.Infow("created store file", "path", path)
	return nil
}

// writeNewStore writes the initial header, lock block, and generation-0
// trailer to file, which must be empty.
func writeNewStore(file *os.File) error {
	total := HeaderSize + LockBlockSize + TrailerSize
	buf := make([]byte, total)

	id := uuid.New()
	trailerPos := addr.Address(HeaderSize + LockBlockSize)
	encodeHeader(buf[:HeaderSize], id, trailerPos)

	trailer := Trailer{
		PrevGeneration: addr.Null,
		Generation:     0,
		Time:           uint64(time.Now().UnixMilli()),
	}
	encodeTrailer(buf[trailerPos:trailerPos+TrailerSize], &trailer)

	if _, err := file.WriteAt(buf, 0); err != nil {
		return errors.NewDatabaseError(err, errors.ErrorCodeIO, "failed to write initial store contents")
	}
	return nil
}

// Open opens an existing store file, validating its header and current
// trailer.
func Open(config *Config) (*Database, error) {
	if config == nil || config.Logger == nil {
		return nil, fmt.Errorf("database: invalid configuration")
	}

	lockFile, err := os.OpenFile(config.Path, os.O_RDWR, 0644)
	if err != nil {
		return nil, errors.ClassifyFileOpenError(err, config.Path)
	}

	st, err := storage.New(&storage.Config{
		Path:       config.Path,
		RegionSize: config.RegionSize,
		Writable:   true,
		Logger:     config.Logger,
	})
	if err != nil {
		lockFile.Close()
		return nil, err
	}

	db := &Database{
		path:     config.Path,
		storage:  st,
		lockFile: lockFile,
		log:      config.Logger,
	}
	if err := db.loadHeaderAndTrailer(); err != nil {
		st.Close()
		lockFile.Close()
		return nil, err
	}
	config.Logger.Infow("opened store", "path", config.Path, "generation", db.footer.Generation,
		"uuid", db.header.UUID)
	return db, nil
}

func (db *Database) loadHeaderAndTrailer() error {
	raw, err := db.storage.RawBytes(addr.Null, HeaderSize)
	if err != nil {
		return errors.NewDatabaseError(err, errors.ErrorCodeFooterCorrupt, "failed to read header")
	}
	hdr, err := decodeHeader(raw)
	if err != nil {
		return errors.NewDatabaseError(err, errors.ErrorCodeFooterCorrupt, err.Error()).WithPath(db.path)
	}
	db.header = hdr

	footerPos := loadFooterPos(raw)
	return db.adoptFooter(footerPos)
}

// adoptFooter validates and installs the trailer at pos as the database's
// current revision, growing the mapping to cover it first if necessary.
func (db *Database) adoptFooter(pos addr.Address) error {
	need := uint64(pos) + TrailerSize
	if err := db.storage.MapBytes(need); err != nil {
		return err
	}
	raw, err := db.storage.RawBytes(pos, TrailerSize)
	if err != nil {
		return errors.NewDatabaseError(err, errors.ErrorCodeFooterCorrupt, "trailer address out of range").
			WithPath(db.path).WithOffset(uint64(pos))
	}
	trailer, ok := decodeTrailer(raw)
	if !ok {
		return errors.ErrFooterCorrupt
	}

	db.footer = trailer
	db.footerPos = pos
	db.firstWritable = pos + TrailerSize
	db.storage.SetFooterPos(db.firstWritable)
	return nil
}

// Generation returns the generation number of the currently adopted
// revision.
func (db *Database) Generation() uint32 {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.footer.Generation
}

// UUID returns the store's identity.
func (db *Database) UUID() uuid.UUID {
	return db.header.UUID
}

// SyncName returns a name derived from the store's UUID, stable for the
// store's lifetime, suitable for use as a cross-process lock or shared
// memory object name.
func (db *Database) SyncName() string {
	return base32.Encode128(uuidToUint128(db.header.UUID))
}

// IndexRoot returns the root address of the i'th named index as of the
// currently adopted revision.
func (db *Database) IndexRoot(i int) addr.Address {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.footer.IndexRecords[i]
}

// SyncToHead adopts whatever revision the header's footer pointer currently
// names. It is a no-op if that revision is already adopted.
func (db *Database) SyncToHead() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return errors.ErrStoreClosed
	}

	raw, err := db.storage.RawBytes(addr.Null, HeaderSize)
	if err != nil {
		return err
	}
	head := loadFooterPos(raw)
	if head == db.footerPos {
		return nil
	}
	return db.adoptFooter(head)
}

// SyncToRevision adopts the trailer with generation rev, first syncing to
// head if rev is newer than the currently adopted revision, then walking
// backwards through prev_generation pointers.
func (db *Database) SyncToRevision(rev uint32) error {
	db.mu.Lock()
	if db.closed {
		db.mu.Unlock()
		return errors.ErrStoreClosed
	}
	current := db.footer.Generation
	db.mu.Unlock()

	if rev > current {
		if err := db.SyncToHead(); err != nil {
			return err
		}
	}

	db.mu.Lock()
	defer db.mu.Unlock()
	pos := db.footerPos
	trailer := db.footer
	for trailer.Generation > rev {
		if trailer.PrevGeneration.IsNull() && trailer.Generation > 0 {
			return fmt.Errorf("%w: revision %d", errors.ErrUnknownRevision, rev)
		}
		if trailer.Generation == 0 {
			return fmt.Errorf("%w: revision %d", errors.ErrUnknownRevision, rev)
		}
		pos = trailer.PrevGeneration
		raw, err := db.storage.RawBytes(pos, TrailerSize)
		if err != nil {
			return errors.NewDatabaseError(err, errors.ErrorCodeFooterCorrupt, "trailer address out of range").
				WithOffset(uint64(pos))
		}
		var ok bool
		trailer, ok = decodeTrailer(raw)
		if !ok {
			return errors.ErrFooterCorrupt
		}
	}
	if trailer.Generation != rev {
		return fmt.Errorf("%w: revision %d", errors.ErrUnknownRevision, rev)
	}

	db.footer = trailer
	db.footerPos = pos
	db.firstWritable = pos + TrailerSize
	return nil
}

// Get returns a view over n bytes at address a. Writable views below the
// current commit boundary are refused; reads past the logical size are
// refused.
func (db *Database) Get(a addr.Address, n uint64, writable bool) (*storage.Span, error) {
	db.mu.Lock()
	if db.closed {
		db.mu.Unlock()
		return nil, errors.ErrStoreClosed
	}
	firstWritable := db.firstWritable
	db.mu.Unlock()

	if writable && a < firstWritable {
		return nil, fmt.Errorf("%w: address %s", errors.ErrReadOnlyAddress, a)
	}
	logicalSize := db.storage.LogicalSize()
	start := uint64(a)
	if start > logicalSize || n > logicalSize-start {
		return nil, fmt.Errorf("%w: address %s size %d", errors.ErrBadAddress, a, n)
	}
	return db.storage.GetSpanning(a, n, writable)
}

// Close unmaps the store and releases its file handles. It does not flush
// anything: every commit is already durable by the time it returns.
func (db *Database) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return nil
	}
	db.closed = true
	var firstErr error
	if err := db.storage.Close(); err != nil {
		firstErr = err
	}
	if err := db.lockFile.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
