package mcrepo

import (
	"encoding/binary"

	"github.com/iamNilotpal/pstore/internal/addr"
)

// InternalFixupSize is the on-disk size of an InternalFixup (24 bytes,
// 8-byte aligned).
const InternalFixupSize = 24

// InternalFixup is a relocation whose target is another section of the same
// fragment.
type InternalFixup struct {
	Section        Kind
	RelocationType uint8
	Offset         uint64
	Addend         uint64
}

// Encode appends the little-endian wire form of f to buf and returns the
// extended slice.
func (f InternalFixup) Encode(buf []byte) []byte {
	var tmp [InternalFixupSize]byte
	tmp[0] = byte(f.Section)
	tmp[1] = f.RelocationType
	// bytes 2..8 are padding, left zero.
	binary.LittleEndian.PutUint64(tmp[8:16], f.Offset)
	binary.LittleEndian.PutUint64(tmp[16:24], f.Addend)
	return append(buf, tmp[:]...)
}

// DecodeInternalFixup reads an InternalFixup from the front of buf.
func DecodeInternalFixup(buf []byte) InternalFixup {
	return InternalFixup{
		Section:        Kind(buf[0]),
		RelocationType: buf[1],
		Offset:         binary.LittleEndian.Uint64(buf[8:16]),
		Addend:         binary.LittleEndian.Uint64(buf[16:24]),
	}
}

// ExternalFixupSize is the on-disk size of an ExternalFixup (32 bytes,
// 8-byte aligned).
const ExternalFixupSize = 32

// ExternalFixup is a relocation whose target is named by an indirect-string
// reference resolved at link time.
type ExternalFixup struct {
	NameAddress    addr.Address
	RelocationType uint8
	IsWeak         bool
	Offset         uint64
	Addend         uint64
}

// Encode appends the little-endian wire form of f to buf and returns the
// extended slice.
func (f ExternalFixup) Encode(buf []byte) []byte {
	var tmp [ExternalFixupSize]byte
	binary.LittleEndian.PutUint64(tmp[0:8], uint64(f.NameAddress))
	tmp[8] = f.RelocationType
	if f.IsWeak {
		tmp[9] = 1
	}
	binary.LittleEndian.PutUint64(tmp[16:24], f.Offset)
	binary.LittleEndian.PutUint64(tmp[24:32], f.Addend)
	return append(buf, tmp[:]...)
}

// DecodeExternalFixup reads an ExternalFixup from the front of buf.
func DecodeExternalFixup(buf []byte) ExternalFixup {
	return ExternalFixup{
		NameAddress:    addr.Address(binary.LittleEndian.Uint64(buf[0:8])),
		RelocationType: buf[8],
		IsWeak:         buf[9] != 0,
		Offset:         binary.LittleEndian.Uint64(buf[16:24]),
		Addend:         binary.LittleEndian.Uint64(buf[24:32]),
	}
}
