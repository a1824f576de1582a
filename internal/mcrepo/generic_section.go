package mcrepo

import (
	"encoding/binary"
	"fmt"
)

// genericHeaderSize is the fixed 16-byte header preceding a generic
// section's data and fixup arrays.
const genericHeaderSize = 16

// GenericContent is the section content supplied by a caller building a
// target section (text, data, rel_ro, the mergeable/read-only/thread
// variants): payload bytes plus the internal and external fixups applying
// to them.
type GenericContent struct {
	Align    uint32
	Data     []byte
	IFixups  []InternalFixup
	XFixups  []ExternalFixup
}

func alignLog2(align uint32) (uint8, error) {
	if align == 0 {
		align = 1
	}
	for log2 := uint8(0); log2 < 8; log2++ {
		if uint32(1)<<log2 == align {
			return log2, nil
		}
	}
	return 0, fmt.Errorf("mcrepo: alignment %d is not a power of two in [1,128]", align)
}

// GenericSection is the loaded, validated form of a generic section body.
type GenericSection struct {
	Align   uint32
	Data    []byte
	IFixups []InternalFixup
	XFixups []ExternalFixup
}

// SizeBytes returns the number of bytes GenericContent occupies once
// written: the 16-byte header, the payload, alignment padding to 8 before
// the fixup arrays, then the fixups themselves.
func (c GenericContent) SizeBytes() int {
	n := genericHeaderSize + len(c.Data)
	n = alignUp(n, 8)
	n += len(c.IFixups) * InternalFixupSize
	n += len(c.XFixups) * ExternalFixupSize
	return n
}

func alignUp(n, align int) int {
	return (n + align - 1) &^ (align - 1)
}

// Encode appends the on-disk form of c to buf.
func (c GenericContent) Encode(buf []byte) ([]byte, error) {
	log2, err := alignLog2(c.Align)
	if err != nil {
		return nil, err
	}
	if len(c.IFixups) > 1<<24-1 {
		return nil, fmt.Errorf("mcrepo: too many internal fixups (%d)", len(c.IFixups))
	}

	var hdr [genericHeaderSize]byte
	hdr[0] = log2
	numI := uint32(len(c.IFixups))
	hdr[1] = byte(numI)
	hdr[2] = byte(numI >> 8)
	hdr[3] = byte(numI >> 16)
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(len(c.XFixups)))
	binary.LittleEndian.PutUint64(hdr[8:16], uint64(len(c.Data)))

	buf = append(buf, hdr[:]...)
	buf = append(buf, c.Data...)
	for len(buf)%8 != 0 {
		buf = append(buf, 0)
	}
	for _, f := range c.IFixups {
		buf = f.Encode(buf)
	}
	for _, f := range c.XFixups {
		buf = f.Encode(buf)
	}
	return buf, nil
}

// DecodeGenericSection reads a generic section body starting at the front
// of buf.
func DecodeGenericSection(buf []byte) (GenericSection, error) {
	if len(buf) < genericHeaderSize {
		return GenericSection{}, fmt.Errorf("mcrepo: generic section header truncated")
	}
	log2 := buf[0]
	numI := uint32(buf[1]) | uint32(buf[2])<<8 | uint32(buf[3])<<16
	numX := binary.LittleEndian.Uint32(buf[4:8])
	dataSize := binary.LittleEndian.Uint64(buf[8:16])

	off := genericHeaderSize
	if uint64(len(buf)-off) < dataSize {
		return GenericSection{}, fmt.Errorf("mcrepo: generic section data truncated")
	}
	data := buf[off : off+int(dataSize)]
	off += int(dataSize)
	off = alignUp(off, 8)

	ifixups := make([]InternalFixup, numI)
	for i := range ifixups {
		if off+InternalFixupSize > len(buf) {
			return GenericSection{}, fmt.Errorf("mcrepo: internal fixups truncated")
		}
		ifixups[i] = DecodeInternalFixup(buf[off:])
		off += InternalFixupSize
	}
	xfixups := make([]ExternalFixup, numX)
	for i := range xfixups {
		if off+ExternalFixupSize > len(buf) {
			return GenericSection{}, fmt.Errorf("mcrepo: external fixups truncated")
		}
		xfixups[i] = DecodeExternalFixup(buf[off:])
		off += ExternalFixupSize
	}

	return GenericSection{
		Align:   uint32(1) << log2,
		Data:    data,
		IFixups: ifixups,
		XFixups: xfixups,
	}, nil
}
