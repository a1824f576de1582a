// Package mcrepo implements the fragment and compilation data model: the
// heterogeneous set of section kinds a fragment packs into a single
// self-describing blob, the compilation's inline array of symbol
// definitions, and the validating loaders for both.
package mcrepo

import "fmt"

// Kind tags the category of a fragment section. Values are ordered exactly
// as the original's X-macro list, since both the fragment's sparse index
// and its on-disk section ordering depend on that order being stable.
type Kind uint8

const (
	Text Kind = iota
	Data
	BSS
	RelRO
	Mergeable1ByteCString
	Mergeable2ByteCString
	Mergeable4ByteCString
	MergeableConst4
	MergeableConst8
	MergeableConst16
	MergeableConst32
	ReadOnly
	ThreadData
	ThreadBSS
	DebugLine
	DebugString
	DebugRanges
	LinkedDefinitions
	kindLast // sentinel: always last, never a real kind.
)

// NumKinds is the number of real (non-sentinel) section kinds.
const NumKinds = int(kindLast)

// FirstMetadataKind is the first kind that is metadata rather than a target
// section: everything from here on is not machine code or data destined for
// the linked binary.
const FirstMetadataKind = LinkedDefinitions

// IsTargetSection reports whether k is a real target section (code/data)
// rather than fragment metadata.
func (k Kind) IsTargetSection() bool {
	return k < FirstMetadataKind
}

// Valid reports whether k is one of the real, non-sentinel kinds.
func (k Kind) Valid() bool {
	return k < kindLast
}

var kindNames = [...]string{
	"text", "data", "bss", "rel_ro",
	"mergeable_1_byte_c_string", "mergeable_2_byte_c_string", "mergeable_4_byte_c_string",
	"mergeable_const_4", "mergeable_const_8", "mergeable_const_16", "mergeable_const_32",
	"read_only", "thread_data", "thread_bss",
	"debug_line", "debug_string", "debug_ranges",
	"linked_definitions",
}

// String renders k using its canonical lower_snake_case name.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}
