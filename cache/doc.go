// Package cache implements a bounded in-process cache with combined LRU and
// TTL eviction, memory-budget accounting, optional write-through persistence,
// and a background maintenance task.
//
// # Store
//
// [Store] is the central entry table. It is constructed explicitly by [New]
// and passed by reference to consumers — there is no package-level instance.
// Every entry carries a TTL (defaulting to [Config.DefaultTTL]) and an
// approximate byte size computed once at insertion. Two budgets are enforced
// after every operation: the entry count never exceeds [Config.MaxEntries]
// and the summed entry sizes never exceed [Config.MaxMemory]. When an insert
// would break either budget, entries are evicted in LRU order (oldest
// lastAccessed first, insertion order breaking ties) until the insert fits.
//
// A miss is a normal outcome, not an error: [Store.Get] returns (nil, false)
// for absent and expired keys. Expired entries are removed lazily on access
// and proactively by a janitor goroutine that runs every
// [Config.CleanupInterval] until [Store.Destroy] is called.
//
// # Size accounting
//
// Entry sizes are estimated by serializing the value to msgpack and measuring
// the resulting byte length. This is a consistent budget-enforcement signal,
// not a true in-memory footprint. Values that cannot be serialized (functions,
// channels) are charged a fixed fallback size and stored anyway.
//
// # Persistence
//
// With [WithPersistence] configured, entries whose keys match the predicate
// are mirrored to a durable [github.com/dashwise/cachekit/kv.Store] under a
// namespace prefix. Writes and deletes are applied asynchronously by a single
// worker in mutation order; failures are logged and never affect the
// in-memory result. The cache remains fully usable when the durable backend
// is unavailable.
//
// # Ownership
//
// Values are stored as-is, without copying. A caller must not mutate a value
// after passing it to [Store.Set]; treat stored values as immutable snapshots.
//
// # Typed helpers
//
// [GetAs] wraps [Store.Get] with a type assertion, and [Fetch] is a
// cache-aside helper that looks up a key and invokes a loader on a miss:
//
//	found, dash, err := cache.Fetch(s, "dashboard_1", 0,
//	    func() (Dashboard, bool, error) {
//	        return loadDashboard(id)
//	    },
//	)
package cache
