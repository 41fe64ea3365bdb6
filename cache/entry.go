package cache

import "time"

// entry is a single cached value with its bookkeeping metadata.
// Entries are owned exclusively by the Store and only touched under its lock.
type entry struct {
	key          string
	data         any
	createdAt    time.Time
	ttl          time.Duration
	accessCount  int
	lastAccessed time.Time
	sizeBytes    int64
}

// expired reports whether the entry's TTL has elapsed at now.
// Expiry is a hard boundary with no grace period.
func (e *entry) expired(now time.Time) bool {
	return now.Sub(e.createdAt) > e.ttl
}
