package mcrepo

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/iamNilotpal/pstore/internal/sparsearray"
)

// FragmentSignature is the 8-byte magic every fragment blob starts with.
var FragmentSignature = [8]byte{'F', 'r', 'a', 'g', 'm', 'e', 'n', 't'}

// fragmentHeaderSize is the signature plus the zero padding word preceding
// the sparse section index.
const fragmentHeaderSize = 16

const sparseValueSize = 8 // one uint64 offset per present kind

// Fragment is a self-contained, content-addressed container of one
// translation unit's sections. It is loaded as a plain byte slice plus a
// parsed sparse index; per-section data is read lazily through
// ReadDispatcher rather than copied out in bulk.
type Fragment struct {
	raw   []byte
	index *sparsearray.Array[uint64, uint64]
}

// Alloc builds a fragment blob from an ordered set of section contents, one
// creation dispatcher per distinct kind. Sections are written in ascending
// kind order regardless of the order content is supplied in, matching the
// sorted-sparse-index invariant every loader then checks.
func Alloc(contents map[Kind]any) ([]byte, error) {
	kinds := make([]Kind, 0, len(contents))
	for k := range contents {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	dispatchers := make([]CreationDispatcher, len(kinds))
	for i, k := range kinds {
		d, err := NewCreationDispatcher(k, contents[k])
		if err != nil {
			return nil, err
		}
		dispatchers[i] = d
	}

	// The bitmap word plus one value per present kind — exactly what
	// encodeSparseU64 below writes, and what decodeSparseU64 expects back
	// (sparsearray.SizeBytes models the C++ type's own struct size, which
	// folds in one reserved slot even when empty; this wire encoding has no
	// such reservation, so it is computed directly instead).
	sparseSize := 8 + len(kinds)*sparseValueSize

	offsets := make([]uint64, len(kinds))
	offset := fragmentHeaderSize + sparseSize
	for i, d := range dispatchers {
		offset = d.Aligned(offset)
		offsets[i] = uint64(offset)
		offset += d.SizeBytes()
	}

	intIndices := make([]int, len(kinds))
	for i, k := range kinds {
		intIndices[i] = int(k)
	}
	sparse, err := sparsearray.New[uint64, uint64](intIndices, offsets)
	if err != nil {
		return nil, fmt.Errorf("mcrepo: building fragment sparse index: %w", err)
	}

	buf := make([]byte, 0, offset)
	var hdr [fragmentHeaderSize]byte
	copy(hdr[:8], FragmentSignature[:])
	buf = append(buf, hdr[:]...)
	buf = encodeSparseU64(buf, sparse)

	for i, d := range dispatchers {
		for len(buf) < int(offsets[i]) {
			buf = append(buf, 0)
		}
		buf, err = d.Write(buf)
		if err != nil {
			return nil, err
		}
	}
	return buf, nil
}

func encodeSparseU64(buf []byte, a *sparsearray.Array[uint64, uint64]) []byte {
	var bitmapBytes [8]byte
	binary.LittleEndian.PutUint64(bitmapBytes[:], a.Bitmap())
	buf = append(buf, bitmapBytes[:]...)
	for _, idx := range a.Indices() {
		var tmp [8]byte
		binary.LittleEndian.PutUint64(tmp[:], a.Get(idx))
		buf = append(buf, tmp[:]...)
	}
	return buf
}

func decodeSparseU64(buf []byte) (*sparsearray.Array[uint64, uint64], int, error) {
	if len(buf) < 8 {
		return nil, 0, fmt.Errorf("%w: sparse index header truncated", ErrBadFragmentRecord)
	}
	bitmap := binary.LittleEndian.Uint64(buf[0:8])
	n := 0
	for b := bitmap; b != 0; b &= b - 1 {
		n++
	}
	need := 8 + n*sparseValueSize
	if len(buf) < need {
		return nil, 0, fmt.Errorf("%w: sparse index values truncated", ErrBadFragmentRecord)
	}

	indices := make([]int, 0, n)
	values := make([]uint64, 0, n)
	off := 8
	remaining := bitmap
	for remaining != 0 {
		idx := trailingZeros64(remaining)
		remaining &^= uint64(1) << uint(idx)
		indices = append(indices, idx)
		values = append(values, binary.LittleEndian.Uint64(buf[off:off+8]))
		off += 8
	}
	a, err := sparsearray.New[uint64, uint64](indices, values)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrBadFragmentRecord, err)
	}
	return a, need, nil
}

func trailingZeros64(v uint64) int {
	n := 0
	for v&1 == 0 {
		v >>= 1
		n++
	}
	return n
}

// Load validates and wraps raw as a Fragment. It requires the signature to
// match (when checkSignature is set), every sparse index entry to name a
// real kind, and offsets to be sorted, aligned, and contained within raw —
// exactly the three monotonicity/alignment/containment checks spec.md §4.3
// requires of a loader. Any violation fails with ErrBadFragmentRecord.
func Load(raw []byte, checkSignature bool) (*Fragment, error) {
	if len(raw) < fragmentHeaderSize {
		return nil, fmt.Errorf("%w: fragment shorter than header", ErrBadFragmentRecord)
	}
	if checkSignature {
		var sig [8]byte
		copy(sig[:], raw[:8])
		if sig != FragmentSignature {
			return nil, fmt.Errorf("%w: bad signature", ErrBadFragmentRecord)
		}
	}

	sparse, sparseSize, err := decodeSparseU64(raw[fragmentHeaderSize:])
	if err != nil {
		return nil, err
	}

	indices := sparse.Indices()
	prevEnd := fragmentHeaderSize + sparseSize
	for _, idx := range indices {
		kind := Kind(idx)
		if !kind.Valid() {
			return nil, fmt.Errorf("%w: sparse index names invalid kind %d", ErrBadFragmentRecord, idx)
		}
		thisOffset := int(sparse.Get(idx))
		if thisOffset < prevEnd {
			return nil, fmt.Errorf("%w: offset for %s is not monotone", ErrBadFragmentRecord, kind)
		}
		if thisOffset > len(raw) {
			return nil, fmt.Errorf("%w: offset for %s lies outside fragment", ErrBadFragmentRecord, kind)
		}
		rd, err := NewReadDispatcher(kind, raw[thisOffset:])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadFragmentRecord, err)
		}
		// Every section body is placed on an 8-byte boundary (see the
		// creation dispatchers' Aligned); the payload alignment rd.Align()
		// describes the data, not where the section body starts.
		if thisOffset%8 != 0 {
			return nil, fmt.Errorf("%w: offset for %s is misaligned", ErrBadFragmentRecord, kind)
		}
		size := rd.SizeBytes()
		if thisOffset+size > len(raw) {
			return nil, fmt.Errorf("%w: %s section overruns fragment", ErrBadFragmentRecord, kind)
		}
		prevEnd = thisOffset + size
	}

	return &Fragment{raw: raw, index: sparse}, nil
}

// Size returns the number of sections present in the fragment.
func (f *Fragment) Size() int {
	return f.index.Size()
}

// HasSection reports whether kind is present in the fragment.
func (f *Fragment) HasSection(kind Kind) bool {
	return f.index.HasIndex(int(kind))
}

// SizeBytes returns the total byte size of the fragment: for a non-empty
// fragment, the last section's end offset (offsets are relative to the
// fragment start, so this already includes the header and sparse index).
func (f *Fragment) SizeBytes() int {
	indices := f.index.Indices()
	if len(indices) == 0 {
		return fragmentHeaderSize + 8 // header plus an empty sparse array's bitmap word
	}
	last := indices[len(indices)-1]
	offset := int(f.index.Get(last))
	rd, err := NewReadDispatcher(Kind(last), f.raw[offset:])
	if err != nil {
		return offset
	}
	return offset + rd.SizeBytes()
}

// Dispatcher returns the read dispatcher for kind, or an error if kind is
// not present.
func (f *Fragment) Dispatcher(kind Kind) (ReadDispatcher, error) {
	if !f.HasSection(kind) {
		return nil, fmt.Errorf("mcrepo: fragment has no %s section", kind)
	}
	offset := f.index.Get(int(kind))
	return NewReadDispatcher(kind, f.raw[offset:])
}

// Kinds returns the section kinds present in the fragment, in ascending
// order — the order of the sparse index.
func (f *Fragment) Kinds() []Kind {
	indices := f.index.Indices()
	out := make([]Kind, len(indices))
	for i, idx := range indices {
		out[i] = Kind(idx)
	}
	return out
}
