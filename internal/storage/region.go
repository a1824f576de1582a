// Package storage implements the store's logical, contiguous, byte-addressed
// view over a growing file: a list of fixed-size memory-mapped regions, an
// address<->pointer translation, append-only allocation, and spanning reads
// that may cross a region boundary.
package storage

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// region is one fixed-size memory mapping backing a slice of the store's
// logical address space. Regions are never unmapped or moved once created;
// the region list only ever grows.
type region struct {
	base uint64 // logical address of the first byte of this region
	data []byte // the mmap'd bytes
}

func mapRegion(fd int, offset int64, size int, writable bool) (region, error) {
	prot := unix.PROT_READ
	if writable {
		prot |= unix.PROT_WRITE
	}
	data, err := unix.Mmap(fd, offset, size, prot, unix.MAP_SHARED)
	if err != nil {
		return region{}, fmt.Errorf("storage: mmap offset %d size %d: %w", offset, size, err)
	}
	return region{data: data}, nil
}

func (r region) unmap() error {
	return unix.Munmap(r.data)
}

// contains reports whether logical address a falls within this region.
func (r region) contains(a uint64) bool {
	return a >= r.base && a < r.base+uint64(len(r.data))
}

// end returns the logical address immediately past this region.
func (r region) end() uint64 {
	return r.base + uint64(len(r.data))
}
