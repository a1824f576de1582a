package database

import (
	"encoding/binary"
	"hash/crc32"

	"github.com/iamNilotpal/pstore/internal/addr"
)

// NumIndexes is the number of named index roots carried in every trailer:
// digest-to-fragment-extent, digest-to-compilation-extent, and the name
// index. The indexes themselves live outside this package's scope; the
// trailer only reserves a root pointer slot for each.
const NumIndexes = 3

// TrailerSize is the fixed size, in bytes, of a trailer record:
// prev_generation(8) + generation(4) + padding(4) + time(8) +
// index_records(8*NumIndexes) + crc(4) + padding(4).
const TrailerSize = 8 + 4 + 4 + 8 + 8*NumIndexes + 4 + 4

// crcFieldSize is the number of leading bytes the CRC is computed over:
// every trailer field except the CRC itself and its trailing padding.
const crcFieldSize = TrailerSize - 8

// Trailer is one committed revision. Trailers form a singly linked list,
// newest to oldest, via PrevGeneration; generation 0 is the store's initial
// empty revision and has no predecessor.
type Trailer struct {
	PrevGeneration addr.Address          // address of the previous trailer, or Null for generation 0
	Generation     uint32                // this revision's number
	Time           uint64                // commit time, milliseconds since the Unix epoch
	IndexRecords   [NumIndexes]addr.Address
	CRC            uint32
}

// encodeTrailer writes t into buf[:TrailerSize], recomputing the CRC over
// the fields that precede it.
func encodeTrailer(buf []byte, t *Trailer) {
	binary.LittleEndian.PutUint64(buf[0:8], uint64(t.PrevGeneration))
	binary.LittleEndian.PutUint32(buf[8:12], t.Generation)
	binary.LittleEndian.PutUint64(buf[16:24], t.Time)
	for i, rec := range t.IndexRecords {
		off := 24 + i*8
		binary.LittleEndian.PutUint64(buf[off:off+8], uint64(rec))
	}
	crc := crc32.ChecksumIEEE(buf[:crcFieldSize])
	binary.LittleEndian.PutUint32(buf[crcFieldSize:crcFieldSize+4], crc)
}

// decodeTrailer parses a trailer from buf, which must be at least
// TrailerSize bytes, and reports whether its CRC matches.
func decodeTrailer(buf []byte) (Trailer, bool) {
	var t Trailer
	if len(buf) < TrailerSize {
		return t, false
	}
	t.PrevGeneration = addr.Address(binary.LittleEndian.Uint64(buf[0:8]))
	t.Generation = binary.LittleEndian.Uint32(buf[8:12])
	t.Time = binary.LittleEndian.Uint64(buf[16:24])
	for i := range t.IndexRecords {
		off := 24 + i*8
		t.IndexRecords[i] = addr.Address(binary.LittleEndian.Uint64(buf[off : off+8]))
	}
	t.CRC = binary.LittleEndian.Uint32(buf[crcFieldSize : crcFieldSize+4])

	want := crc32.ChecksumIEEE(buf[:crcFieldSize])
	return t, want == t.CRC
}
