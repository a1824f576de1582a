package storage

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/iamNilotpal/pstore/internal/addr"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	dir := t.TempDir()
	logger := zap.NewNop().Sugar()
	s, err := New(&Config{
		Path:       filepath.Join(dir, "store.db"),
		RegionSize: 4096,
		Writable:   true,
		Logger:     logger,
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAllocateNeverOverlaps(t *testing.T) {
	t.Parallel()
	s := newTestStorage(t)

	a1, err := s.Allocate(100, 8)
	if err != nil {
		t.Fatal(err)
	}
	a2, err := s.Allocate(200, 8)
	if err != nil {
		t.Fatal(err)
	}
	if uint64(a2) < uint64(a1)+100 {
		t.Fatalf("second allocation %v overlaps first (%v, size 100)", a2, a1)
	}
}

func TestAllocateRespectsAlignment(t *testing.T) {
	t.Parallel()
	s := newTestStorage(t)

	if _, err := s.Allocate(1, 1); err != nil {
		t.Fatal(err)
	}
	a, err := s.Allocate(16, 16)
	if err != nil {
		t.Fatal(err)
	}
	if uint64(a)%16 != 0 {
		t.Fatalf("address %v not aligned to 16", a)
	}
}

func TestSpanningReadWrite(t *testing.T) {
	t.Parallel()
	s := newTestStorage(t)

	a, err := s.Allocate(4096+32, 8)
	if err != nil {
		t.Fatal(err)
	}
	// This range straddles the 4096-byte region boundary.
	target := addr.Address(uint64(a) + 4096 - 16)

	span, err := s.GetSpanning(target, 32, true)
	if err != nil {
		t.Fatal(err)
	}
	copy(span.Bytes(), []byte("0123456789abcdef0123456789abcdef"))
	if err := span.Release(); err != nil {
		t.Fatal(err)
	}

	readBack, err := s.GetSpanning(target, 32, false)
	if err != nil {
		t.Fatal(err)
	}
	if string(readBack.Bytes()) != "0123456789abcdef0123456789abcdef" {
		t.Fatalf("readBack = %q, want the written pattern", readBack.Bytes())
	}
}

func TestTruncateRefusesBelowFooter(t *testing.T) {
	t.Parallel()
	s := newTestStorage(t)

	if _, err := s.Allocate(1000, 8); err != nil {
		t.Fatal(err)
	}
	s.SetFooterPos(500)
	if err := s.Truncate(400); err == nil {
		t.Fatal("expected truncate below footer to fail")
	}
	if err := s.Truncate(600); err != nil {
		t.Fatalf("truncate above footer should succeed: %v", err)
	}
}

func TestAllocateGrowsStoreFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "store.db")
	logger := zap.NewNop().Sugar()

	s1, err := New(&Config{Path: path, RegionSize: 4096, Writable: true, Logger: logger})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s1.Allocate(100, 8); err != nil {
		t.Fatal(err)
	}
	if err := s1.Close(); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() == 0 {
		t.Fatal("expected store file to have grown")
	}
}
