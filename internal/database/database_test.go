package database

import (
	"errors"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/iamNilotpal/pstore/internal/addr"
	pstoreerrors "github.com/iamNilotpal/pstore/pkg/errors"
)

func newTestDatabase(t *testing.T) *Database {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "store.db")
	logger := zap.NewNop().Sugar()

	if err := Create(path, logger); err != nil {
		t.Fatal(err)
	}
	db, err := Open(&Config{Path: path, RegionSize: 4096, Logger: logger})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestCreateProducesGenerationZero(t *testing.T) {
	t.Parallel()
	db := newTestDatabase(t)
	if g := db.Generation(); g != 0 {
		t.Fatalf("generation = %d, want 0", g)
	}
}

func TestRevisionLinkedList(t *testing.T) {
	t.Parallel()
	db := newTestDatabase(t)

	const commits = 3
	for i := 0; i < commits; i++ {
		tx, err := db.Begin()
		if err != nil {
			t.Fatal(err)
		}
		if _, err := tx.Allocate(16, 8); err != nil {
			t.Fatal(err)
		}
		if err := tx.Commit(); err != nil {
			t.Fatal(err)
		}
	}
	if g := db.Generation(); g != commits {
		t.Fatalf("generation = %d, want %d", g, commits)
	}

	// Walking backwards from head should yield commits, commits-1, ..., 0.
	for want := uint32(commits); ; want-- {
		if err := db.SyncToRevision(want); err != nil {
			t.Fatalf("sync to revision %d: %v", want, err)
		}
		if db.Generation() != want {
			t.Fatalf("after sync, generation = %d, want %d", db.Generation(), want)
		}
		if want == 0 {
			break
		}
	}
}

func TestSyncToUnknownRevisionFails(t *testing.T) {
	t.Parallel()
	db := newTestDatabase(t)
	err := db.SyncToRevision(99)
	if !errors.Is(err, pstoreerrors.ErrUnknownRevision) {
		t.Fatalf("err = %v, want ErrUnknownRevision", err)
	}
}

func TestWriteBelowFooterRefused(t *testing.T) {
	t.Parallel()
	db := newTestDatabase(t)
	_, err := db.Get(addr.Address(HeaderSize), 1, true)
	if !errors.Is(err, pstoreerrors.ErrReadOnlyAddress) {
		t.Fatalf("err = %v, want ErrReadOnlyAddress", err)
	}
}

func TestRollbackDiscardsAllocation(t *testing.T) {
	t.Parallel()
	db := newTestDatabase(t)

	sizeBefore := db.storage.LogicalSize()
	tx, err := db.Begin()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tx.Allocate(1000, 8); err != nil {
		t.Fatal(err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatal(err)
	}
	if db.storage.LogicalSize() != sizeBefore {
		t.Fatalf("logical size = %d, want unchanged %d", db.storage.LogicalSize(), sizeBefore)
	}
	if db.Generation() != 0 {
		t.Fatalf("generation changed after rollback")
	}
}

func TestSyncNameStableAcrossOpen(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "store.db")
	logger := zap.NewNop().Sugar()

	if err := Create(path, logger); err != nil {
		t.Fatal(err)
	}
	db1, err := Open(&Config{Path: path, RegionSize: 4096, Logger: logger})
	if err != nil {
		t.Fatal(err)
	}
	name1 := db1.SyncName()
	db1.Close()

	db2, err := Open(&Config{Path: path, RegionSize: 4096, Logger: logger})
	if err != nil {
		t.Fatal(err)
	}
	defer db2.Close()
	if name2 := db2.SyncName(); name1 != name2 {
		t.Fatalf("sync name changed across reopen: %q vs %q", name1, name2)
	}
}
