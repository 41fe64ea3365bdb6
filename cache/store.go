package cache

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/dashwise/cachekit/logger"
)

// Store is the bounded in-process cache. All methods are safe for
// concurrent use. Construct with New and tear down with Destroy.
type Store struct {
	config    Config
	log       logger.Logger
	clock     Clock
	estimate  SizeEstimator
	persister *bridge // nil when persistence is not configured

	mutex   sync.RWMutex
	entries map[string]*entry
	lru     *lruIndex
	usage   int64

	stats statsCollector

	ctx       context.Context
	cancel    context.CancelFunc
	waitGroup sync.WaitGroup
	once      sync.Once
}

// New returns a started Store. The janitor goroutine runs until Destroy is
// called or the parent context is cancelled. Returns an error wrapping
// ErrInvalidConfig when any configured budget is not positive.
func New(parent context.Context, log logger.Logger, opts ...Option) (*Store, error) {
	o := applyOptions(opts)
	if err := o.config.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(parent)
	s := &Store{
		config:   o.config,
		log:      log.WithPrefix("[cache]"),
		clock:    o.clock,
		estimate: o.estimate,
		entries:  make(map[string]*entry),
		lru:      newLRUIndex(),
		ctx:      ctx,
		cancel:   cancel,
	}
	if o.backend != nil {
		s.persister = newBridge(parent, log, o.backend, o.predicate, o.keyPrefix)
	}

	s.waitGroup.Add(1)
	go s.run()

	return s, nil
}

// Get returns the value stored under key. A miss — absent key or expired
// entry — returns (nil, false) and is never an error. An expired entry found
// here is removed, cascading to the durable backend.
func (s *Store) Get(key string) (any, bool) {
	start := s.clock.Now()

	s.mutex.RLock()
	e, ok := s.entries[key]
	if !ok {
		s.mutex.RUnlock()
		s.stats.miss(s.clock.Now().Sub(start))
		return nil, false
	}
	s.mutex.RUnlock()

	// Upgrade to the write lock: a hit updates access metadata and recency,
	// an expired entry must be removed. Recheck after reacquiring.
	s.mutex.Lock()
	e, ok = s.entries[key]
	if !ok || e.expired(start) {
		if ok {
			s.removeLocked(e, true)
		}
		s.mutex.Unlock()
		s.stats.miss(s.clock.Now().Sub(start))
		return nil, false
	}
	e.accessCount++
	e.lastAccessed = s.clock.Now()
	s.lru.touch(key)
	data := e.data
	s.mutex.Unlock()

	s.stats.hit(s.clock.Now().Sub(start))
	return data, true
}

// Set stores data under key. When ttl is omitted or not positive the
// configured default TTL applies. Room is made by evicting entries in LRU
// order first. Keys matching the persistence predicate are mirrored to the
// durable backend asynchronously; the caller must not mutate data afterward.
func (s *Store) Set(key string, data any, ttl ...time.Duration) {
	expires := s.config.DefaultTTL
	if len(ttl) > 0 && ttl[0] > 0 {
		expires = ttl[0]
	}
	size := s.estimate(data)
	now := s.clock.Now()

	s.mutex.Lock()
	if old, ok := s.entries[key]; ok {
		s.removeLocked(old, false)
	}
	if size > s.config.MaxMemory {
		s.mutex.Unlock()
		s.log.Warn("value for key %q (%d bytes) exceeds the memory budget, not caching", key, size)
		return
	}
	s.ensureSpaceLocked(size)
	e := &entry{
		key:          key,
		data:         data,
		createdAt:    now,
		ttl:          expires,
		lastAccessed: now,
		sizeBytes:    size,
	}
	s.entries[key] = e
	s.lru.push(key)
	s.usage += size
	if s.persister != nil && s.persister.matches(key) {
		// Enqueued under the lock so same-key writes keep mutation order.
		s.persister.write(key, data)
	}
	s.mutex.Unlock()
}

// Delete removes key and reports whether an entry was removed. The removal
// cascades to the durable backend. Idempotent.
func (s *Store) Delete(key string) bool {
	s.mutex.Lock()
	e, ok := s.entries[key]
	if ok {
		s.removeLocked(e, true)
	}
	s.mutex.Unlock()
	return ok
}

// Clear empties the store, removes every persisted key under the cache's
// namespace, and resets all statistics.
func (s *Store) Clear() {
	s.mutex.Lock()
	s.entries = make(map[string]*entry)
	s.lru.reset()
	s.usage = 0
	s.stats.reset()
	if s.persister != nil {
		s.persister.purge()
	}
	s.mutex.Unlock()
}

// Invalidate deletes every entry whose key matches the regular expression
// pattern and returns the number removed. A pattern that does not compile is
// a caller error and is returned, never swallowed.
func (s *Store) Invalidate(pattern string) (int, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return 0, fmt.Errorf("cache: invalid invalidation pattern %q: %w", pattern, err)
	}

	s.mutex.Lock()
	removed := 0
	for key, e := range s.entries {
		if re.MatchString(key) {
			s.removeLocked(e, true)
			removed++
		}
	}
	s.mutex.Unlock()

	if removed > 0 {
		s.log.Debug("invalidated %d entries matching %q", removed, pattern)
	}
	return removed, nil
}

// Stats returns a snapshot of the cache statistics with live entry and
// memory figures.
func (s *Store) Stats() Stats {
	s.mutex.RLock()
	entries := len(s.entries)
	usage := s.usage
	s.mutex.RUnlock()
	return s.stats.snapshot(entries, usage)
}

// Len returns the number of live entries.
func (s *Store) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.entries)
}

// MemoryUsage returns the summed estimated size of live entries in bytes.
func (s *Store) MemoryUsage() int64 {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.usage
}

// Optimize sweeps expired entries, evicts down to a free-space margin when
// the budget is nearly exhausted, and rebuilds the entry index. Go maps do
// not shrink their bucket arrays, so the rebuild reclaims memory after bulk
// deletions.
func (s *Store) Optimize() {
	s.mutex.Lock()
	s.sweepLocked(s.clock.Now())
	if s.config.MaxMemory-s.usage < s.targetFreeSpace() {
		s.ensureSpaceLocked(s.targetFreeSpace())
	}
	s.compactLocked()
	s.mutex.Unlock()
}

// Destroy stops the janitor and the persistence worker. No maintenance
// cycle runs after Destroy returns. Idempotent.
func (s *Store) Destroy() {
	s.once.Do(func() {
		s.cancel()
		s.waitGroup.Wait()
		if s.persister != nil {
			s.persister.close()
		}
	})
}

// targetFreeSpace is the proactive eviction goal: 10% of the memory budget.
func (s *Store) targetFreeSpace() int64 {
	return s.config.MaxMemory / 10
}

// removeLocked deletes e from the table, recency index, and usage counter.
// When cascade is set and the key is persisted, the durable copy is removed
// too. Eviction for capacity does not cascade: the durable copy outliving
// the in-memory entry is the point of selective persistence.
func (s *Store) removeLocked(e *entry, cascade bool) {
	delete(s.entries, e.key)
	s.lru.remove(e.key)
	s.usage -= e.sizeBytes
	if cascade && s.persister != nil && s.persister.matches(e.key) {
		s.persister.remove(e.key)
	}
}

// ensureSpaceLocked evicts least recently used entries until required bytes
// are free in the memory budget and the entry count admits one more insert.
func (s *Store) ensureSpaceLocked(required int64) {
	for s.usage+required > s.config.MaxMemory || len(s.entries) >= s.config.MaxEntries {
		key, ok := s.lru.oldest()
		if !ok {
			return
		}
		e := s.entries[key]
		s.log.Trace("evicting key %q (%d bytes, last accessed %s)", key, e.sizeBytes, e.lastAccessed)
		s.removeLocked(e, false)
	}
}

// sweepLocked removes every expired entry, cascading to the durable backend.
func (s *Store) sweepLocked(now time.Time) {
	removed := 0
	for _, e := range s.entries {
		if e.expired(now) {
			s.removeLocked(e, true)
			removed++
		}
	}
	if removed > 0 {
		s.log.Trace("swept %d expired entries", removed)
	}
}

// compactLocked rebuilds the entry map at its current size.
func (s *Store) compactLocked() {
	rebuilt := make(map[string]*entry, len(s.entries))
	for key, e := range s.entries {
		rebuilt[key] = e
	}
	s.entries = rebuilt
}

// GetAs returns the value stored under key asserted to type T. A stored
// value of a different type is a miss.
func GetAs[T any](s *Store, key string) (T, bool) {
	val, ok := s.Get(key)
	if !ok {
		var zero T
		return zero, false
	}
	typed, ok := val.(T)
	if !ok {
		var zero T
		return zero, false
	}
	return typed, true
}

// Loader produces a value for Fetch on a cache miss. The bool return
// distinguishes "not found" from "found a zero value"; when false, nothing
// is cached and subsequent calls invoke the loader again.
type Loader[T any] func() (T, bool, error)

// Fetch is a cache-aside helper. On a hit it returns the cached value. On a
// miss it invokes load; a found result is stored with the given TTL (zero
// means the default TTL) and returned. Loader errors are propagated.
func Fetch[T any](s *Store, key string, ttl time.Duration, load Loader[T]) (T, bool, error) {
	if val, ok := GetAs[T](s, key); ok {
		return val, true, nil
	}
	val, found, err := load()
	if err != nil || !found {
		var zero T
		return zero, false, err
	}
	s.Set(key, val, ttl)
	return val, true, nil
}
