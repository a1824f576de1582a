package mcrepo

import "fmt"

// CreationDispatcher gives a uniform way to size, align, and write a
// section of a particular kind from caller-supplied content. Section bodies
// cannot carry method tables of their own (they must be byte-for-byte
// portable on disk), so this dispatcher lives alongside the data rather
// than inside it — the same role the original's section_creation_dispatcher
// subclasses play, modeled here as one interface with one implementation
// per kind instead of a class hierarchy.
type CreationDispatcher interface {
	Kind() Kind
	// Aligned rounds offset up to the alignment this section kind's
	// instance type requires.
	Aligned(offset int) int
	// SizeBytes returns the number of bytes this section instance will
	// occupy once written.
	SizeBytes() int
	// Write appends the section's encoded bytes to out, which must
	// already be aligned per Aligned, and returns the extended slice.
	Write(out []byte) ([]byte, error)
}

type genericDispatcher struct {
	kind    Kind
	content GenericContent
}

func (d genericDispatcher) Kind() Kind             { return d.kind }
func (d genericDispatcher) Aligned(offset int) int { return alignUp(offset, 8) }
func (d genericDispatcher) SizeBytes() int         { return d.content.SizeBytes() }
func (d genericDispatcher) Write(out []byte) ([]byte, error) {
	return d.content.Encode(out)
}

type bssDispatcher struct {
	content BSSContent
}

func (d bssDispatcher) Kind() Kind             { return BSS }
func (d bssDispatcher) Aligned(offset int) int { return alignUp(offset, 8) }
func (d bssDispatcher) SizeBytes() int         { return d.content.SizeBytes() }
func (d bssDispatcher) Write(out []byte) ([]byte, error) {
	return d.content.Encode(out)
}

type debugLineDispatcher struct {
	content DebugLineContent
}

func (d debugLineDispatcher) Kind() Kind             { return DebugLine }
func (d debugLineDispatcher) Aligned(offset int) int { return alignUp(offset, 8) }
func (d debugLineDispatcher) SizeBytes() int         { return d.content.SizeBytes() }
func (d debugLineDispatcher) Write(out []byte) ([]byte, error) {
	return d.content.Encode(out)
}

type linkedDefinitionsDispatcher struct {
	content LinkedDefinitionsContent
}

func (d linkedDefinitionsDispatcher) Kind() Kind             { return LinkedDefinitions }
func (d linkedDefinitionsDispatcher) Aligned(offset int) int { return alignUp(offset, 8) }
func (d linkedDefinitionsDispatcher) SizeBytes() int         { return d.content.SizeBytes() }
func (d linkedDefinitionsDispatcher) Write(out []byte) ([]byte, error) {
	return d.content.Encode(out)
}

// NewCreationDispatcher builds the creation dispatcher for kind from
// content, which must be the GenericContent/BSSContent/DebugLineContent/
// LinkedDefinitionsContent appropriate to kind. The switch below must
// remain exhaustive over every real Kind value; adding a new section kind
// means adding a case here and to NewReadDispatcher.
func NewCreationDispatcher(kind Kind, content any) (CreationDispatcher, error) {
	switch kind {
	case BSS:
		c, ok := content.(BSSContent)
		if !ok {
			return nil, fmt.Errorf("mcrepo: bss section requires BSSContent")
		}
		return bssDispatcher{content: c}, nil
	case DebugLine:
		c, ok := content.(DebugLineContent)
		if !ok {
			return nil, fmt.Errorf("mcrepo: debug_line section requires DebugLineContent")
		}
		return debugLineDispatcher{content: c}, nil
	case LinkedDefinitions:
		c, ok := content.(LinkedDefinitionsContent)
		if !ok {
			return nil, fmt.Errorf("mcrepo: linked_definitions section requires LinkedDefinitionsContent")
		}
		return linkedDefinitionsDispatcher{content: c}, nil
	case Text, Data, RelRO, Mergeable1ByteCString, Mergeable2ByteCString, Mergeable4ByteCString,
		MergeableConst4, MergeableConst8, MergeableConst16, MergeableConst32,
		ReadOnly, ThreadData, ThreadBSS, DebugString, DebugRanges:
		c, ok := content.(GenericContent)
		if !ok {
			return nil, fmt.Errorf("mcrepo: section kind %s requires GenericContent", kind)
		}
		return genericDispatcher{kind: kind, content: c}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrBadFragmentType, kind)
	}
}

// ReadDispatcher exposes the behavior of an already-loaded section
// instance: its size, alignment, and (where defined) its fixups and
// payload. For bss the fixup containers are empty; for linked_definitions
// only SizeBytes is defined, matching spec.
type ReadDispatcher interface {
	Kind() Kind
	SizeBytes() int
	Align() uint32
	IFixups() ([]InternalFixup, error)
	XFixups() ([]ExternalFixup, error)
	Payload() ([]byte, error)
}

type genericReadDispatcher struct {
	kind    Kind
	section GenericSection
}

func (d genericReadDispatcher) Kind() Kind     { return d.kind }
func (d genericReadDispatcher) SizeBytes() int {
	n := genericHeaderSize + len(d.section.Data)
	n = alignUp(n, 8)
	n += len(d.section.IFixups) * InternalFixupSize
	n += len(d.section.XFixups) * ExternalFixupSize
	return n
}
func (d genericReadDispatcher) Align() uint32 { return d.section.Align }
func (d genericReadDispatcher) IFixups() ([]InternalFixup, error) {
	return d.section.IFixups, nil
}
func (d genericReadDispatcher) XFixups() ([]ExternalFixup, error) {
	return d.section.XFixups, nil
}
func (d genericReadDispatcher) Payload() ([]byte, error) {
	return d.section.Data, nil
}

type bssReadDispatcher struct {
	section BSSSection
}

func (d bssReadDispatcher) Kind() Kind             { return BSS }
func (d bssReadDispatcher) SizeBytes() int         { return bssSectionSize }
func (d bssReadDispatcher) Align() uint32          { return d.section.Align }
func (d bssReadDispatcher) IFixups() ([]InternalFixup, error) { return nil, nil }
func (d bssReadDispatcher) XFixups() ([]ExternalFixup, error) { return nil, nil }
func (d bssReadDispatcher) Payload() ([]byte, error)          { return nil, nil }

type debugLineReadDispatcher struct {
	section DebugLineSection
}

func (d debugLineReadDispatcher) Kind() Kind { return DebugLine }
func (d debugLineReadDispatcher) SizeBytes() int {
	return debugLineHeaderSize + genericReadDispatcher{section: d.section.Generic}.SizeBytes()
}
func (d debugLineReadDispatcher) Align() uint32 { return d.section.Generic.Align }
func (d debugLineReadDispatcher) IFixups() ([]InternalFixup, error) {
	return d.section.Generic.IFixups, nil
}
func (d debugLineReadDispatcher) XFixups() ([]ExternalFixup, error) {
	return d.section.Generic.XFixups, nil
}
func (d debugLineReadDispatcher) Payload() ([]byte, error) {
	return d.section.Generic.Data, nil
}

type linkedDefinitionsReadDispatcher struct {
	section LinkedDefinitionsSection
}

func (d linkedDefinitionsReadDispatcher) Kind() Kind     { return LinkedDefinitions }
func (d linkedDefinitionsReadDispatcher) SizeBytes() int { return d.section.SizeBytes() }
func (d linkedDefinitionsReadDispatcher) Align() uint32  { return 8 }
func (d linkedDefinitionsReadDispatcher) IFixups() ([]InternalFixup, error) {
	return nil, fmt.Errorf("%w: ifixups on %s", ErrBadFragmentType, LinkedDefinitions)
}
func (d linkedDefinitionsReadDispatcher) XFixups() ([]ExternalFixup, error) {
	return nil, fmt.Errorf("%w: xfixups on %s", ErrBadFragmentType, LinkedDefinitions)
}
func (d linkedDefinitionsReadDispatcher) Payload() ([]byte, error) {
	return nil, fmt.Errorf("%w: payload on %s", ErrBadFragmentType, LinkedDefinitions)
}

// NewReadDispatcher builds the read dispatcher for kind over buf, which
// must contain (at least) the section body starting at its first byte. The
// switch mirrors NewCreationDispatcher and must stay exhaustive.
func NewReadDispatcher(kind Kind, buf []byte) (ReadDispatcher, error) {
	switch kind {
	case BSS:
		s, err := DecodeBSSSection(buf)
		if err != nil {
			return nil, err
		}
		return bssReadDispatcher{section: s}, nil
	case DebugLine:
		s, err := DecodeDebugLineSection(buf)
		if err != nil {
			return nil, err
		}
		return debugLineReadDispatcher{section: s}, nil
	case LinkedDefinitions:
		s, err := DecodeLinkedDefinitionsSection(buf)
		if err != nil {
			return nil, err
		}
		return linkedDefinitionsReadDispatcher{section: s}, nil
	case Text, Data, RelRO, Mergeable1ByteCString, Mergeable2ByteCString, Mergeable4ByteCString,
		MergeableConst4, MergeableConst8, MergeableConst16, MergeableConst32,
		ReadOnly, ThreadData, ThreadBSS, DebugString, DebugRanges:
		s, err := DecodeGenericSection(buf)
		if err != nil {
			return nil, err
		}
		return genericReadDispatcher{kind: kind, section: s}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrBadFragmentType, kind)
	}
}
