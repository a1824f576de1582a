package mcrepo

import (
	"encoding/binary"
	"fmt"

	"github.com/iamNilotpal/pstore/internal/addr"
	"github.com/iamNilotpal/pstore/internal/bits"
	"github.com/iamNilotpal/pstore/internal/uint128"
)

// CompilationSignature is the 8-byte magic every compilation blob starts
// with.
var CompilationSignature = [8]byte{'C', 'm', 'p', 'l', '8', 'i', 'o', 'n'}

const compilationHeaderSize = 32 // signature(8) + triple_name_address(8) + count(4) + padding(4) + padding(8) to 16-align
const definitionSize = 48

// Linkage is the kind of external linkage a definition has. Its value
// space must round up to a power of two matching the 4-bit field it's
// packed into (see linkageField below); that bound is checked in tests.
type Linkage uint8

const (
	InternalNoSymbol Linkage = iota
	Internal
	Append
	Common
	External
	LinkOnceAny
	LinkOnceODR
	WeakAny
	WeakODR
	numLinkages
)

// Visibility is the symbol visibility of a definition.
type Visibility uint8

const (
	Default Visibility = iota
	Hidden
	Protected
	numVisibilities
)

var (
	linkageField    = bits.Field{Index: 0, Width: 4}
	visibilityField = bits.Field{Index: 4, Width: 2}
)

func init() {
	// The linkage value space must fit the 4-bit field it's packed into,
	// and likewise visibility in its 2-bit field — the bit-field packing
	// invariant spec.md §8 calls out.
	if uint64(numLinkages) > linkageField.Max()+1 {
		panic("mcrepo: linkage values do not fit in their packed bit field")
	}
	if uint64(numVisibilities) > visibilityField.Max()+1 {
		panic("mcrepo: visibility values do not fit in their packed bit field")
	}
}

// Definition is one member of a compilation: a fragment reference plus the
// symbol name, linkage, and visibility under which it is defined.
type Definition struct {
	Digest      uint128.Value
	FragmentExt addr.Extent
	NameAddress addr.Address
	Linkage     Linkage
	Visibility  Visibility
}

func (d Definition) encode(buf []byte) []byte {
	var tmp [definitionSize]byte
	binary.LittleEndian.PutUint64(tmp[0:8], d.Digest.High)
	binary.LittleEndian.PutUint64(tmp[8:16], d.Digest.Low)
	binary.LittleEndian.PutUint64(tmp[16:24], uint64(d.FragmentExt.Addr))
	binary.LittleEndian.PutUint64(tmp[24:32], d.FragmentExt.Size)
	binary.LittleEndian.PutUint64(tmp[32:40], uint64(d.NameAddress))

	var packed uint64
	packed = linkageField.Set(packed, uint64(d.Linkage))
	packed = visibilityField.Set(packed, uint64(d.Visibility))
	tmp[40] = byte(packed)
	return append(buf, tmp[:]...)
}

func decodeDefinition(buf []byte) Definition {
	packed := uint64(buf[40])
	return Definition{
		Digest: uint128.New(
			binary.LittleEndian.Uint64(buf[0:8]),
			binary.LittleEndian.Uint64(buf[8:16]),
		),
		FragmentExt: addr.Extent{
			Addr: addr.Address(binary.LittleEndian.Uint64(buf[16:24])),
			Size: binary.LittleEndian.Uint64(buf[24:32]),
		},
		NameAddress: addr.Address(binary.LittleEndian.Uint64(buf[32:40])),
		Linkage:     Linkage(linkageField.Get(packed)),
		Visibility:  Visibility(visibilityField.Get(packed)),
	}
}

// CompilationSizeBytes returns the byte size of a compilation holding count
// definitions: the 32-byte header plus 48 bytes per definition, with one
// slot always reserved even for a zero-member compilation.
func CompilationSizeBytes(count int) int {
	n := count
	if n < 1 {
		n = 1
	}
	return compilationHeaderSize + n*definitionSize
}

// Compilation is the loaded form of a compilation record: every externally
// named definition one translation unit produced, each referencing a
// fragment.
type Compilation struct {
	TripleNameAddress addr.Address
	Members           []Definition
}

// AllocCompilation encodes a compilation from tripleNameAddress and members.
// It fails with ErrTooManyMembersInCompilation if len(members) exceeds the
// 32-bit count field's range.
func AllocCompilation(tripleNameAddress addr.Address, members []Definition) ([]byte, error) {
	if len(members) > 1<<32-1 {
		return nil, fmt.Errorf("%w: %d", ErrTooManyMembersInCompilation, len(members))
	}

	buf := make([]byte, 0, CompilationSizeBytes(len(members)))
	var hdr [compilationHeaderSize]byte
	copy(hdr[:8], CompilationSignature[:])
	binary.LittleEndian.PutUint64(hdr[8:16], uint64(tripleNameAddress))
	binary.LittleEndian.PutUint32(hdr[16:20], uint32(len(members)))
	buf = append(buf, hdr[:]...)

	for _, m := range members {
		buf = m.encode(buf)
	}
	// A zero-member compilation still reserves one definition-sized slot.
	if len(members) == 0 {
		buf = append(buf, make([]byte, definitionSize)...)
	}
	return buf, nil
}

// LoadCompilation validates and parses raw as a compilation record. It
// checks the signature and that the stored byte size matches
// CompilationSizeBytes(count); either mismatch fails with
// ErrBadCompilationRecord.
func LoadCompilation(raw []byte) (*Compilation, error) {
	if len(raw) < compilationHeaderSize {
		return nil, fmt.Errorf("%w: compilation shorter than header", ErrBadCompilationRecord)
	}
	var sig [8]byte
	copy(sig[:], raw[:8])
	if sig != CompilationSignature {
		return nil, fmt.Errorf("%w: bad signature", ErrBadCompilationRecord)
	}
	triple := addr.Address(binary.LittleEndian.Uint64(raw[8:16]))
	count := binary.LittleEndian.Uint32(raw[16:20])

	want := CompilationSizeBytes(int(count))
	if len(raw) != want {
		return nil, fmt.Errorf("%w: size %d, want %d for %d members", ErrBadCompilationRecord, len(raw), want, count)
	}

	members := make([]Definition, count)
	off := compilationHeaderSize
	for i := range members {
		members[i] = decodeDefinition(raw[off : off+definitionSize])
		off += definitionSize
	}
	return &Compilation{TripleNameAddress: triple, Members: members}, nil
}
