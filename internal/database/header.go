package database

import (
	"encoding/binary"
	"fmt"
	"sync/atomic"
	"unsafe"

	"github.com/google/uuid"

	"github.com/iamNilotpal/pstore/internal/addr"
)

// magic identifies a pstore file. It never changes for the store's
// lifetime; Open refuses any file whose first 16 bytes don't match.
var magic = [16]byte{'p', 's', 't', 'o', 'r', 'e', 'V', '1', 'f', 'i', 'l', 'e', 'h', 'd', 'r', '\n'}

// version is written into every new store and checked on Open. It is bumped
// whenever the on-disk layout defined by this package changes incompatibly.
const version uint32 = 1

// HeaderSize is the fixed size, in bytes, of the file header: magic(16) +
// version(4) + padding(4) + UUID(16) + footer pointer(8).
const HeaderSize = 48

// footerOffset is the byte offset of the footer-pointer field within the
// header, the sole field in the header that mutates after creation.
const footerOffset = 40

// header is the in-memory view of a store's fixed file header, every field
// of which is immutable for the store's lifetime. The footer pointer is not
// held here: it is read and updated in the mapped bytes via loadFooterPos
// and storeFooterPos, once per commit via an atomic 8-byte store so that
// readers in other processes observe either the old or the new value, never
// a tear.
type header struct {
	Version uint32
	UUID    uuid.UUID
}

// encodeHeader writes a freshly created header, with UUID id and a footer
// pointer of footerPos (the generation-0 trailer's address), into
// buf[:HeaderSize].
func encodeHeader(buf []byte, id uuid.UUID, footerPos addr.Address) {
	copy(buf[0:16], magic[:])
	binary.LittleEndian.PutUint32(buf[16:20], version)
	copy(buf[24:40], id[:])
	binary.LittleEndian.PutUint64(buf[footerOffset:footerOffset+8], uint64(footerPos))
}

// decodeHeader validates and parses a header from buf, which must be at
// least HeaderSize bytes.
func decodeHeader(buf []byte) (header, error) {
	if len(buf) < HeaderSize {
		return header{}, fmt.Errorf("database: header truncated")
	}
	if [16]byte(buf[0:16]) != magic {
		return header{}, fmt.Errorf("database: bad magic")
	}
	v := binary.LittleEndian.Uint32(buf[16:20])
	if v != version {
		return header{}, fmt.Errorf("database: unsupported version %d", v)
	}
	var id uuid.UUID
	copy(id[:], buf[24:40])
	return header{Version: v, UUID: id}, nil
}

// loadFooterPos performs an atomic load of the footer-pointer field in buf,
// the same mechanism used by any other process with the file mapped.
func loadFooterPos(buf []byte) addr.Address {
	p := (*uint64)(unsafe.Pointer(&buf[footerOffset]))
	return addr.Address(atomic.LoadUint64(p))
}

// storeFooterPos performs the atomic 8-byte store that is the store's
// commit point: once it completes, every process that next loads the
// footer pointer observes the new revision.
func storeFooterPos(buf []byte, pos addr.Address) {
	p := (*uint64)(unsafe.Pointer(&buf[footerOffset]))
	atomic.StoreUint64(p, uint64(pos))
}
