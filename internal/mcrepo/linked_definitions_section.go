package mcrepo

import (
	"encoding/binary"
	"fmt"

	"github.com/iamNilotpal/pstore/internal/addr"
	"github.com/iamNilotpal/pstore/internal/uint128"
)

// linkedDefinitionEntrySize is the on-disk size of one linked-definitions
// entry: a 128-bit compilation digest, a definition index, padding, and a
// pointer to the owning compilation.
const linkedDefinitionEntrySize = 16 + 4 + 4 + 8

const linkedDefinitionsHeaderSize = 16 // count:u64, padding:u64

// LinkedDefinition is one entry of a linked_definitions section: a pointer
// from a fragment back to one member of a compilation that refers to it.
type LinkedDefinition struct {
	CompilationDigest       uint128.Value
	DefinitionIndex         uint32
	CompilationMemberPointer addr.Address
}

// LinkedDefinitionsContent is the section content for the metadata section
// recording which compilations reference this fragment.
type LinkedDefinitionsContent struct {
	Entries []LinkedDefinition
}

// SizeBytes returns the size of the section: an 8-byte count, 8 bytes of
// padding, then one fixed-size entry per member.
func (c LinkedDefinitionsContent) SizeBytes() int {
	return linkedDefinitionsHeaderSize + len(c.Entries)*linkedDefinitionEntrySize
}

// Encode appends the on-disk form of c to buf.
func (c LinkedDefinitionsContent) Encode(buf []byte) ([]byte, error) {
	var hdr [linkedDefinitionsHeaderSize]byte
	binary.LittleEndian.PutUint64(hdr[0:8], uint64(len(c.Entries)))
	buf = append(buf, hdr[:]...)

	for _, e := range c.Entries {
		var tmp [linkedDefinitionEntrySize]byte
		binary.LittleEndian.PutUint64(tmp[0:8], e.CompilationDigest.High)
		binary.LittleEndian.PutUint64(tmp[8:16], e.CompilationDigest.Low)
		binary.LittleEndian.PutUint32(tmp[16:20], e.DefinitionIndex)
		binary.LittleEndian.PutUint64(tmp[24:32], uint64(e.CompilationMemberPointer))
		buf = append(buf, tmp[:]...)
	}
	return buf, nil
}

// LinkedDefinitionsSection is the loaded form of a linked_definitions
// section. Per spec, only SizeBytes is a defined operation on this kind's
// read dispatcher — payload/ifixups/xfixups fail with ErrBadFragmentType.
type LinkedDefinitionsSection struct {
	Entries []LinkedDefinition
}

// SizeBytes returns the size of the loaded section.
func (s LinkedDefinitionsSection) SizeBytes() int {
	return linkedDefinitionsHeaderSize + len(s.Entries)*linkedDefinitionEntrySize
}

// DecodeLinkedDefinitionsSection reads a linked_definitions section from
// the front of buf.
func DecodeLinkedDefinitionsSection(buf []byte) (LinkedDefinitionsSection, error) {
	if len(buf) < linkedDefinitionsHeaderSize {
		return LinkedDefinitionsSection{}, fmt.Errorf("mcrepo: linked_definitions header truncated")
	}
	count := binary.LittleEndian.Uint64(buf[0:8])
	off := linkedDefinitionsHeaderSize

	entries := make([]LinkedDefinition, count)
	for i := range entries {
		if off+linkedDefinitionEntrySize > len(buf) {
			return LinkedDefinitionsSection{}, fmt.Errorf("mcrepo: linked_definitions entries truncated")
		}
		e := buf[off:]
		entries[i] = LinkedDefinition{
			CompilationDigest: uint128.New(
				binary.LittleEndian.Uint64(e[0:8]),
				binary.LittleEndian.Uint64(e[8:16]),
			),
			DefinitionIndex:          binary.LittleEndian.Uint32(e[16:20]),
			CompilationMemberPointer: addr.Address(binary.LittleEndian.Uint64(e[24:32])),
		}
		off += linkedDefinitionEntrySize
	}
	return LinkedDefinitionsSection{Entries: entries}, nil
}
