package engine

// Options is the single configuration record an engine is constructed
// with (§6).
type Options struct {
	// BatchSize is the granularity the resource loader's reads should use;
	// the engine itself doesn't read through a loader during Ingest (the
	// host pushes bytes in), so this governs loader.ReadRange call sizes a
	// host built atop this engine chooses to use.
	BatchSize int

	// ResolveAll turns on full field-tree collection in the ingest-time
	// dissection pass. Off by default. The trees built during ingest are
	// not kept: Frame re-dissects the frame on every call either way.
	ResolveAll bool

	// HistogramBuckets is the bucket count for statistics() time-series
	// output.
	HistogramBuckets int

	// MaxReassemblyBytesPerDirection caps buffered TCP bytes per
	// direction; exceeding it aborts that stream with warn status.
	MaxReassemblyBytesPerDirection int
}

// DefaultOptions returns §6's documented defaults.
func DefaultOptions() Options {
	return Options{
		BatchSize:                      64 * 1024,
		ResolveAll:                     false,
		HistogramBuckets:               100,
		MaxReassemblyBytesPerDirection: 8 * 1024 * 1024,
	}
}
