package mcrepo

import (
	"encoding/binary"
	"fmt"
)

// bssSectionSize is the single 8-byte word a BSS section occupies: an
// alignment log2 byte followed by a 32-bit size, with no payload or fixups.
const bssSectionSize = 8

// MaxBSSSize is the largest size a BSS section may declare (its size field
// is 32 bits wide).
const MaxBSSSize = 1<<32 - 1

// BSSContent is the section content for an uninitialized-data section: no
// bytes are stored, only its size and alignment.
type BSSContent struct {
	Align uint32
	Size  uint64
}

// SizeBytes returns the fixed 8-byte size of a BSS section.
func (BSSContent) SizeBytes() int {
	return bssSectionSize
}

// Encode appends the on-disk form of c to buf. It fails with an error
// wrapping ErrBSSSectionTooLarge if c.Size exceeds MaxBSSSize.
func (c BSSContent) Encode(buf []byte) ([]byte, error) {
	if c.Size > MaxBSSSize {
		return nil, fmt.Errorf("%w: %d", ErrBSSSectionTooLarge, c.Size)
	}
	log2, err := alignLog2(c.Align)
	if err != nil {
		return nil, err
	}
	var tmp [bssSectionSize]byte
	tmp[0] = log2
	binary.LittleEndian.PutUint32(tmp[4:8], uint32(c.Size))
	return append(buf, tmp[:]...), nil
}

// BSSSection is the loaded form of a BSS section.
type BSSSection struct {
	Align uint32
	Size  uint64
}

// DecodeBSSSection reads a BSS section from the front of buf.
func DecodeBSSSection(buf []byte) (BSSSection, error) {
	if len(buf) < bssSectionSize {
		return BSSSection{}, fmt.Errorf("mcrepo: bss section truncated")
	}
	log2 := buf[0]
	size := binary.LittleEndian.Uint32(buf[4:8])
	return BSSSection{Align: uint32(1) << log2, Size: uint64(size)}, nil
}
