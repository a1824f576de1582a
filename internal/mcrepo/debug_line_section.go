package mcrepo

import (
	"encoding/binary"
	"fmt"

	"github.com/iamNilotpal/pstore/internal/addr"
	"github.com/iamNilotpal/pstore/internal/uint128"
)

// debugLineHeaderSize is the fixed prefix before the embedded generic
// section body: a 128-bit digest plus an extent (address, size) of the
// compile unit's header blob kept elsewhere in the store.
const debugLineHeaderSize = 16 + 8 + 8

// DebugLineContent is the section content for a debug_line section: a
// reference to the owning CU's header blob plus the generic line-table
// bytes and fixups.
type DebugLineContent struct {
	HeaderDigest uint128.Value
	HeaderExtent addr.Extent
	Generic      GenericContent
}

// SizeBytes returns the total size of the debug_line section: its fixed
// header plus the embedded generic section's size.
func (c DebugLineContent) SizeBytes() int {
	return debugLineHeaderSize + c.Generic.SizeBytes()
}

// Encode appends the on-disk form of c to buf.
func (c DebugLineContent) Encode(buf []byte) ([]byte, error) {
	var hdr [debugLineHeaderSize]byte
	binary.LittleEndian.PutUint64(hdr[0:8], c.HeaderDigest.High)
	binary.LittleEndian.PutUint64(hdr[8:16], c.HeaderDigest.Low)
	binary.LittleEndian.PutUint64(hdr[16:24], uint64(c.HeaderExtent.Addr))
	binary.LittleEndian.PutUint64(hdr[24:32], c.HeaderExtent.Size)
	buf = append(buf, hdr[:]...)
	return c.Generic.Encode(buf)
}

// DebugLineSection is the loaded form of a debug_line section.
type DebugLineSection struct {
	HeaderDigest uint128.Value
	HeaderExtent addr.Extent
	Generic      GenericSection
}

// DecodeDebugLineSection reads a debug_line section from the front of buf.
func DecodeDebugLineSection(buf []byte) (DebugLineSection, error) {
	if len(buf) < debugLineHeaderSize {
		return DebugLineSection{}, fmt.Errorf("mcrepo: debug_line section header truncated")
	}
	high := binary.LittleEndian.Uint64(buf[0:8])
	low := binary.LittleEndian.Uint64(buf[8:16])
	addrVal := addr.Address(binary.LittleEndian.Uint64(buf[16:24]))
	size := binary.LittleEndian.Uint64(buf[24:32])

	generic, err := DecodeGenericSection(buf[debugLineHeaderSize:])
	if err != nil {
		return DebugLineSection{}, err
	}
	return DebugLineSection{
		HeaderDigest: uint128.New(high, low),
		HeaderExtent: addr.Extent{Addr: addrVal, Size: size},
		Generic:      generic,
	}, nil
}
