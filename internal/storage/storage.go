package storage

import (
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/iamNilotpal/pstore/internal/addr"
	"github.com/iamNilotpal/pstore/pkg/errors"
)

// DefaultRegionSize is the minimum size of a single memory-mapped region,
// and the file growth granularity.
const DefaultRegionSize = 4 << 20 // 4 MiB

// Config carries the parameters needed to open a Storage over a file.
type Config struct {
	Path       string
	RegionSize uint64
	Writable   bool
	Logger     *zap.SugaredLogger
}

// Storage is the logical, contiguous, byte-addressed view over a growing
// file: a list of memory-mapped regions, the current logical size (the end
// of allocation), and the last committed footer position.
type Storage struct {
	mu sync.Mutex

	file       *os.File
	regionSize uint64
	writable   bool
	log        *zap.SugaredLogger

	regions     []region
	logicalSize uint64
	footerPos   addr.Address
}

// New opens path (creating it if necessary when config.Writable is set) and
// maps enough regions to cover its current size.
func New(config *Config) (*Storage, error) {
	if config == nil || config.Logger == nil {
		return nil, fmt.Errorf("storage: invalid configuration")
	}
	regionSize := config.RegionSize
	if regionSize == 0 {
		regionSize = DefaultRegionSize
	}

	flags := os.O_RDONLY
	if config.Writable {
		flags = os.O_RDWR | os.O_CREATE
	}
	config.Logger.Infow("opening store file", "path", config.Path, "writable", config.Writable)
	file, err := os.OpenFile(config.Path, flags, 0644)
	if err != nil {
		return nil, errors.ClassifyFileOpenError(err, config.Path)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to stat store file").
			WithPath(config.Path)
	}

	s := &Storage{
		file:        file,
		regionSize:  regionSize,
		writable:    config.Writable,
		log:         config.Logger,
		logicalSize: uint64(info.Size()),
	}
	if info.Size() > 0 {
		if err := s.mapTo(uint64(info.Size())); err != nil {
			file.Close()
			return nil, err
		}
	}
	config.Logger.Infow("store file opened", "path", config.Path, "size", info.Size())
	return s, nil
}

// LogicalSize returns the current end of allocation.
func (s *Storage) LogicalSize() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logicalSize
}

// SetFooterPos records the end of the most recently adopted trailer (the
// first writable address), the floor below which Truncate refuses to
// shrink the logical size.
func (s *Storage) SetFooterPos(a addr.Address) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.footerPos = a
}

// Close unmaps every region and closes the underlying file.
func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var firstErr error
	for _, r := range s.regions {
		if err := r.unmap(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := s.file.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// mapTo grows the region list, mapping fresh regionSize-sized windows of the
// file, until the mapped range covers [0, logicalEnd). Callers must hold
// s.mu except during New, which runs before s.mu is contended.
func (s *Storage) mapTo(logicalEnd uint64) error {
	mapped := uint64(0)
	if len(s.regions) > 0 {
		mapped = s.regions[len(s.regions)-1].end()
	}
	for mapped < logicalEnd {
		size := s.regionSize
		r, err := mapRegion(int(s.file.Fd()), int64(mapped), int(size), s.writable)
		if err != nil {
			return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to map region").
				WithDetail("offset", mapped).WithDetail("size", size)
		}
		r.base = mapped
		s.regions = append(s.regions, r)
		mapped += size
		s.log.Infow("mapped region", "base", r.base, "size", size)
	}
	return nil
}

// MapBytes extends the mapping so that [0, logicalEnd) is fully mapped,
// growing the underlying file first if it is not already that large.
func (s *Storage) MapBytes(logicalEnd uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, err := s.file.Stat()
	if err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to stat store file")
	}
	if uint64(info.Size()) < logicalEnd {
		if err := s.file.Truncate(int64(logicalEnd)); err != nil {
			return errors.ClassifyGrowError(err, s.file.Name(), int(logicalEnd))
		}
	}
	return s.mapTo(logicalEnd)
}

// addressToPointer translates a logical address into the remaining bytes of
// whatever region contains it. Callers must hold s.mu.
func (s *Storage) addressToPointer(a addr.Address) ([]byte, error) {
	target := uint64(a)
	// Regions are ordered and contiguous by construction (mapTo never
	// leaves a gap), so a bucket computed from the fixed region size
	// locates the region in O(1) rather than a search over s.regions.
	idx := int(target / s.regionSize)
	if idx < 0 || idx >= len(s.regions) {
		return nil, fmt.Errorf("%w: address %s beyond mapped regions", errors.ErrBadAddress, a)
	}
	r := s.regions[idx]
	if !r.contains(target) {
		return nil, fmt.Errorf("%w: address %s not in expected region", errors.ErrBadAddress, a)
	}
	return r.data[target-r.base:], nil
}

// RawBytes returns a direct slice into the mapped region containing address
// a, valid for n bytes. Unlike GetSpanning it has no copy-back semantics and
// fails if the range crosses a region boundary; it exists for the header's
// atomic footer-pointer field, which by construction always lies within the
// first region.
func (s *Storage) RawBytes(a addr.Address, n uint64) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ptr, err := s.addressToPointer(a)
	if err != nil {
		return nil, err
	}
	if uint64(len(ptr)) < n {
		return nil, fmt.Errorf("%w: range runs past end of mapped region", errors.ErrBadAddress)
	}
	return ptr[:n], nil
}

// RequestSpansRegions reports whether the byte range [a, a+n) crosses a
// region boundary.
func (s *Storage) RequestSpansRegions(a addr.Address, n uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := int(uint64(a) / s.regionSize)
	if idx < 0 || idx >= len(s.regions) {
		return false
	}
	return uint64(a)+n > s.regions[idx].end()
}

// Allocate rounds the current logical size up to align and reserves n
// bytes there, growing the mapping if necessary. It never reuses earlier
// space. align must be a power of two.
func (s *Storage) Allocate(n, align uint64) (addr.Address, error) {
	if align == 0 {
		align = 1
	}
	if align&(align-1) != 0 {
		return 0, fmt.Errorf("storage: alignment %d is not a power of two", align)
	}

	s.mu.Lock()
	newEnd := (s.logicalSize + align - 1) &^ (align - 1)
	result := newEnd
	newEnd += n
	s.mu.Unlock()

	if err := s.MapBytes(newEnd); err != nil {
		return 0, err
	}

	s.mu.Lock()
	s.logicalSize = newEnd
	s.mu.Unlock()
	return addr.Address(result), nil
}

// Truncate discards uncommitted allocations after a failed transaction. It
// refuses to shrink the logical size below the current footer's end.
func (s *Storage) Truncate(logicalEnd uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if logicalEnd < uint64(s.footerPos) {
		return fmt.Errorf("storage: refusing to truncate below committed footer")
	}
	s.logicalSize = logicalEnd
	return nil
}

// Span is a view over a (possibly cross-region) byte range. Release must be
// called when the caller is done with it; for a writable span it copies the
// bytes back into the mapped regions.
type Span struct {
	storage  *Storage
	addr     addr.Address
	writable bool
	spanning bool
	data     []byte
}

// Bytes returns the span's underlying bytes.
func (sp *Span) Bytes() []byte {
	return sp.data
}

// Release copies sp's buffer back into the mapped regions if it was
// requested writable, unconditionally and regardless of whether the bytes
// were actually modified — the original's get_spanning path does exactly
// this (see design notes on its destructor), rather than trying to detect
// mutation.
func (sp *Span) Release() error {
	if !sp.writable || !sp.spanning {
		return nil
	}
	return sp.storage.writeSpanning(sp.addr, sp.data)
}

// GetSpanning returns a view over the n bytes at address a, transparently
// assembling a heap copy when the range crosses a region boundary. The
// caller must call Release on the result when finished.
func (s *Storage) GetSpanning(a addr.Address, n uint64, writable bool) (*Span, error) {
	if !s.RequestSpansRegions(a, n) {
		s.mu.Lock()
		ptr, err := s.addressToPointer(a)
		s.mu.Unlock()
		if err != nil {
			return nil, err
		}
		if uint64(len(ptr)) < n {
			return nil, fmt.Errorf("%w: range runs past end of mapped region", errors.ErrBadAddress)
		}
		return &Span{storage: s, addr: a, writable: writable, spanning: false, data: ptr[:n]}, nil
	}

	buf := make([]byte, n)
	if err := s.readSpanning(a, buf); err != nil {
		return nil, err
	}
	return &Span{storage: s, addr: a, writable: writable, spanning: true, data: buf}, nil
}

func (s *Storage) readSpanning(a addr.Address, buf []byte) error {
	remaining := buf
	cur := a
	for len(remaining) > 0 {
		s.mu.Lock()
		ptr, err := s.addressToPointer(cur)
		s.mu.Unlock()
		if err != nil {
			return err
		}
		n := copy(remaining, ptr)
		remaining = remaining[n:]
		cur += addr.Address(n)
	}
	return nil
}

func (s *Storage) writeSpanning(a addr.Address, buf []byte) error {
	remaining := buf
	cur := a
	for len(remaining) > 0 {
		s.mu.Lock()
		ptr, err := s.addressToPointer(cur)
		s.mu.Unlock()
		if err != nil {
			return err
		}
		n := copy(ptr, remaining)
		remaining = remaining[n:]
		cur += addr.Address(n)
	}
	return nil
}
