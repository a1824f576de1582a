// Package index defines the abstract digest-to-extent index the storage
// engine consumes. The hash-array-mapped-trie and name index that the
// original implements are out of scope (spec.md's Non-goals); this package
// only carries the interface the trailer's index roots point at, plus a
// minimal in-memory implementation standing in for them in tests and
// single-process use.
package index

import (
	"sync"

	"github.com/iamNilotpal/pstore/internal/addr"
	"github.com/iamNilotpal/pstore/internal/uint128"
)

// Index maps a 128-bit digest to the extent of the record stored under it
// (a fragment or a compilation, depending on which named index this is).
type Index interface {
	// Find returns the extent stored under key, if any.
	Find(key uint128.Value) (addr.Extent, bool)
	// Insert associates key with extent, replacing any prior association.
	Insert(key uint128.Value, extent addr.Extent)
	// Size returns the number of entries.
	Size() int
}

// Memory is a minimal in-memory Index. It does not persist anything to the
// store file; a real named index would additionally serialize its nodes
// into store-allocated space and record its root in the trailer, which is
// out of this package's scope.
type Memory struct {
	mu      sync.RWMutex
	entries map[uint128.Value]addr.Extent
}

// NewMemory creates an empty in-memory index.
func NewMemory() *Memory {
	return &Memory{entries: make(map[uint128.Value]addr.Extent)}
}

func (m *Memory) Find(key uint128.Value) (addr.Extent, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key]
	return e, ok
}

func (m *Memory) Insert(key uint128.Value, extent addr.Extent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = extent
}

func (m *Memory) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

var _ Index = (*Memory)(nil)
