package index

import (
	"testing"

	"github.com/iamNilotpal/pstore/internal/addr"
	"github.com/iamNilotpal/pstore/internal/uint128"
)

func TestMemoryInsertAndFind(t *testing.T) {
	t.Parallel()
	idx := NewMemory()
	key := uint128.New(1, 2)
	extent := addr.Extent{Addr: addr.Address(100), Size: 16}

	if _, ok := idx.Find(key); ok {
		t.Fatal("expected miss before insert")
	}
	idx.Insert(key, extent)
	got, ok := idx.Find(key)
	if !ok || got != extent {
		t.Fatalf("Find = %v, %v, want %v, true", got, ok, extent)
	}
	if idx.Size() != 1 {
		t.Fatalf("Size() = %d, want 1", idx.Size())
	}
}

func TestMemoryInsertReplacesExisting(t *testing.T) {
	t.Parallel()
	idx := NewMemory()
	key := uint128.New(1, 2)
	idx.Insert(key, addr.Extent{Addr: addr.Address(1), Size: 1})
	idx.Insert(key, addr.Extent{Addr: addr.Address(2), Size: 2})

	got, _ := idx.Find(key)
	if got.Addr != addr.Address(2) {
		t.Fatalf("expected second insert to win, got %v", got)
	}
	if idx.Size() != 1 {
		t.Fatalf("Size() = %d, want 1 (replace, not add)", idx.Size())
	}
}
