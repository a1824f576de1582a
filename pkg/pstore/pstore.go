// Package pstore is the public facade: opening or creating a store,
// running transactions, and writing/loading fragments and compilations
// through them.
package pstore

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/iamNilotpal/pstore/internal/addr"
	"github.com/iamNilotpal/pstore/internal/database"
	"github.com/iamNilotpal/pstore/internal/index"
	"github.com/iamNilotpal/pstore/internal/mcrepo"
	"github.com/iamNilotpal/pstore/internal/uint128"
	pstoreerrors "github.com/iamNilotpal/pstore/pkg/errors"
	"github.com/iamNilotpal/pstore/pkg/filesys"
	"github.com/iamNilotpal/pstore/pkg/options"
)

// indexFragments and indexCompilations name the trailer's IndexRecords
// slots for the fragment and compilation indexes (the third, the
// out-of-scope name index, is reserved). This facade does not write any of
// them; see Commit.
const (
	indexFragments    = 0
	indexCompilations = 1
)

// Store is an open pstore file together with the in-memory stand-ins for
// its digest indexes (see internal/index — persisting a real HAMT-backed
// index into store-allocated space is out of scope).
type Store struct {
	db            *database.Database
	fragments     index.Index
	compilations  index.Index
	checkSigs     bool
	log           *zap.SugaredLogger
}

// Open opens path, creating its data directory and a fresh store file there
// first if either does not exist yet.
func Open(path string, opts options.Options, log *zap.SugaredLogger) (*Store, error) {
	if opts.RegionSize != 0 && (opts.RegionSize < options.MinRegionSize || opts.RegionSize > options.MaxRegionSize) {
		return nil, pstoreerrors.NewFieldRangeError(
			"RegionSize", opts.RegionSize, options.MinRegionSize, options.MaxRegionSize,
		)
	}

	dir := opts.DataDir
	if dir == "" {
		dir = filepath.Dir(path)
	}
	if err := filesys.CreateDir(dir, 0755, true); err != nil {
		return nil, pstoreerrors.ClassifyDirectoryCreationError(err, dir)
	}

	exists, err := filesys.Exists(path)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := database.Create(path, log); err != nil {
			return nil, err
		}
	}

	db, err := database.Open(&database.Config{
		Path:       path,
		RegionSize: opts.RegionSize,
		Logger:     log,
	})
	if err != nil {
		return nil, err
	}

	return &Store{
		db:           db,
		fragments:    index.NewMemory(),
		compilations: index.NewMemory(),
		checkSigs:    opts.CheckSignatures,
		log:          log,
	}, nil
}

// Close releases every resource held by the store.
func (s *Store) Close() error {
	return s.db.Close()
}

// Generation returns the generation number of the currently adopted
// revision.
func (s *Store) Generation() uint32 {
	return s.db.Generation()
}

// SyncName returns the store's stable, UUID-derived name.
func (s *Store) SyncName() string {
	return s.db.SyncName()
}

// SyncToHead adopts the latest committed revision.
func (s *Store) SyncToHead() error {
	return s.db.SyncToHead()
}

// SyncToRevision adopts a specific past revision.
func (s *Store) SyncToRevision(rev uint32) error {
	return s.db.SyncToRevision(rev)
}

// FindFragment returns the extent of the fragment stored under digest.
func (s *Store) FindFragment(digest uint128.Value) (addr.Extent, bool) {
	return s.fragments.Find(digest)
}

// FindCompilation returns the extent of the compilation stored under
// digest.
func (s *Store) FindCompilation(digest uint128.Value) (addr.Extent, bool) {
	return s.compilations.Find(digest)
}

// LoadFragment reads and validates the fragment at extent.
func (s *Store) LoadFragment(extent addr.Extent) (*mcrepo.Fragment, error) {
	span, err := s.db.Get(extent.Addr, extent.Size, false)
	if err != nil {
		return nil, err
	}
	defer span.Release()
	return mcrepo.Load(span.Bytes(), s.checkSigs)
}

// LoadCompilation reads and validates the compilation at extent.
func (s *Store) LoadCompilation(extent addr.Extent) (*mcrepo.Compilation, error) {
	span, err := s.db.Get(extent.Addr, extent.Size, false)
	if err != nil {
		return nil, err
	}
	defer span.Release()
	return mcrepo.LoadCompilation(span.Bytes())
}

// Transaction is a single writer's view of the store, wrapping a database
// transaction with fragment/compilation write helpers.
type Transaction struct {
	store *Store
	tx    *database.Transaction
}

// Begin starts a transaction, blocking until the store's writer lock is
// available.
func (s *Store) Begin() (*Transaction, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	return &Transaction{store: s, tx: tx}, nil
}

// AddFragment allocates and writes a new fragment built from contents,
// records it in the in-memory fragment index under digest, and returns its
// extent. The write is not visible to other readers until Commit.
func (t *Transaction) AddFragment(digest uint128.Value, contents map[mcrepo.Kind]any) (addr.Extent, error) {
	raw, err := mcrepo.Alloc(contents)
	if err != nil {
		return addr.Extent{}, err
	}
	extent, err := t.write(raw, 16)
	if err != nil {
		return addr.Extent{}, err
	}
	t.store.fragments.Insert(digest, extent)
	return extent, nil
}

// AddCompilation allocates and writes a new compilation, records it in the
// in-memory compilation index under digest, and returns its extent.
func (t *Transaction) AddCompilation(digest uint128.Value, tripleNameAddress addr.Address, members []mcrepo.Definition) (addr.Extent, error) {
	raw, err := mcrepo.AllocCompilation(tripleNameAddress, members)
	if err != nil {
		return addr.Extent{}, err
	}
	extent, err := t.write(raw, 16)
	if err != nil {
		return addr.Extent{}, err
	}
	t.store.compilations.Insert(digest, extent)
	return extent, nil
}

// write allocates len(raw) bytes aligned to align and copies raw into them.
func (t *Transaction) write(raw []byte, align uint64) (addr.Extent, error) {
	a, err := t.tx.Allocate(uint64(len(raw)), align)
	if err != nil {
		return addr.Extent{}, err
	}
	span, err := t.store.db.Get(a, uint64(len(raw)), true)
	if err != nil {
		return addr.Extent{}, fmt.Errorf("pstore: failed to map newly allocated extent: %w", err)
	}
	copy(span.Bytes(), raw)
	if err := span.Release(); err != nil {
		return addr.Extent{}, err
	}
	return addr.Extent{Addr: a, Size: uint64(len(raw))}, nil
}

// Commit writes the new trailer, carrying the index roots of the revision
// the transaction began against, and performs the atomic footer-pointer
// commit.
//
// The in-memory indexes built in this session are not themselves persisted
// into store-allocated space (see internal/index); the trailer's index
// root fields are left at their inherited value rather than pointing at a
// serialized structure, since no such structure exists in this
// implementation's scope.
func (t *Transaction) Commit() error {
	return t.tx.Commit()
}

// Rollback discards every allocation made in this transaction.
func (t *Transaction) Rollback() error {
	return t.tx.Rollback()
}
