package options

import "time"

const (
	// DefaultDataDir is the directory a store's file lives in when no
	// other directory is specified.
	DefaultDataDir = "/var/lib/pstore"

	// DefaultRegionSize is the minimum size, in bytes, of a single
	// memory-mapped region and the file growth granularity.
	DefaultRegionSize uint64 = 4 * 1024 * 1024 // 4 MiB

	// MinRegionSize is the smallest region size accepted.
	MinRegionSize uint64 = 64 * 1024 // 64 KiB

	// MaxRegionSize is the largest region size accepted.
	MaxRegionSize uint64 = 256 * 1024 * 1024 // 256 MiB

	// DefaultMaxResidentRegions bounds how many regions a store keeps
	// mapped before the cache would need to evict the coldest one. This
	// store never unmaps a region once mapped (§4.5), so the value is
	// presently advisory — a future eviction policy can honor it.
	DefaultMaxResidentRegions = 256

	// DefaultMaxGCWorkers is the default for Options.MaxGCWorkers. It
	// equals internal/broker's MaxProcesses, the cap the broker enforces.
	DefaultMaxGCWorkers = 50

	// DefaultWatcherPollInterval is the broker watcher's idle wait
	// bound, on the order of minutes per spec.md §4.7.
	DefaultWatcherPollInterval = 5 * time.Minute
)

// defaultOptions holds the baseline configuration every store starts from.
var defaultOptions = Options{
	DataDir:                DefaultDataDir,
	RegionSize:             DefaultRegionSize,
	MaxResidentRegions:     DefaultMaxResidentRegions,
	CheckCRC:               true,
	CheckSignatures:        true,
	MaxGCWorkers:           DefaultMaxGCWorkers,
	WatcherPollInterval:    DefaultWatcherPollInterval,
}

// NewDefaultOptions returns a copy of the baseline configuration.
func NewDefaultOptions() Options {
	return defaultOptions
}
