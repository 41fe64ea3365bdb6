package cache

import "github.com/vmihailenco/msgpack/v5"

// FallbackSize is charged against the memory budget for values that cannot
// be serialized (functions, channels, complex numbers). The Set still
// proceeds; the budget just uses this heuristic instead of a measured size.
const FallbackSize = 1024

// SizeEstimator computes an approximate byte size for a cached value. The
// estimate feeds budget enforcement only — it need not match the true
// in-memory footprint, just provide a consistent, monotonic signal.
type SizeEstimator func(v any) int64

// estimateSize is the default SizeEstimator. It serializes the value to
// msgpack and measures the resulting byte length.
func estimateSize(v any) int64 {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return FallbackSize
	}
	return int64(len(data))
}
