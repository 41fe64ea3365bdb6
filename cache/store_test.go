package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dashwise/cachekit/logger"
)

type fakeClock struct {
	mutex sync.Mutex
	now   time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mutex.Lock()
	c.now = c.now.Add(d)
	c.mutex.Unlock()
}

func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	s, err := New(context.Background(), logger.NewTestLogger(), opts...)
	require.NoError(t, err)
	t.Cleanup(s.Destroy)
	return s
}

func TestConfigValidation(t *testing.T) {
	log := logger.NewTestLogger()
	for _, opt := range []Option{
		WithMaxMemory(0),
		WithMaxMemory(-1),
		WithDefaultTTL(0),
		WithCleanupInterval(-time.Second),
		WithMaxEntries(0),
	} {
		s, err := New(context.Background(), log, opt)
		assert.ErrorIs(t, err, ErrInvalidConfig)
		assert.Nil(t, s)
	}
}

func TestRoundTrip(t *testing.T) {
	s := newTestStore(t)
	val, ok := s.Get("missing")
	assert.False(t, ok)
	assert.Nil(t, val)

	s.Set("dashboard_1", map[string]string{"title": "Revenue"})
	val, ok = s.Get("dashboard_1")
	assert.True(t, ok)
	assert.Equal(t, map[string]string{"title": "Revenue"}, val)
}

func TestOverwriteReplacesEntry(t *testing.T) {
	s := newTestStore(t)
	s.Set("k", "first")
	s.Set("k", "second")
	val, ok := s.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "second", val)
	assert.Equal(t, 1, s.Len())
}

func TestTTLExpiry(t *testing.T) {
	clock := newFakeClock()
	s := newTestStore(t, WithClock(clock))
	s.Set("k", "v", 100*time.Millisecond)

	clock.Advance(99 * time.Millisecond)
	_, ok := s.Get("k")
	assert.True(t, ok)

	clock.Advance(52 * time.Millisecond)
	val, ok := s.Get("k")
	assert.False(t, ok)
	assert.Nil(t, val)
	assert.Equal(t, 0, s.Len(), "expired entry should be removed from the live count")
}

func TestDefaultTTLApplied(t *testing.T) {
	clock := newFakeClock()
	s := newTestStore(t, WithClock(clock), WithDefaultTTL(time.Minute))
	s.Set("k", "v")
	clock.Advance(59 * time.Second)
	_, ok := s.Get("k")
	assert.True(t, ok)
	clock.Advance(2 * time.Second)
	_, ok = s.Get("k")
	assert.False(t, ok)
}

func TestLRUOrder(t *testing.T) {
	s := newTestStore(t, WithMaxEntries(3))
	s.Set("A", 1)
	s.Set("B", 2)
	s.Set("C", 3)
	s.Set("D", 4)

	_, ok := s.Get("A")
	assert.False(t, ok, "A is least recently used and should have been evicted")
	for _, key := range []string{"B", "C", "D"} {
		_, ok := s.Get(key)
		assert.True(t, ok, "expected %s to survive", key)
	}
}

func TestLRUOrderFollowsAccess(t *testing.T) {
	s := newTestStore(t, WithMaxEntries(3))
	s.Set("A", 1)
	s.Set("B", 2)
	s.Set("C", 3)
	// Touch A so B becomes the eviction candidate.
	_, ok := s.Get("A")
	require.True(t, ok)
	s.Set("D", 4)

	_, ok = s.Get("B")
	assert.False(t, ok)
	_, ok = s.Get("A")
	assert.True(t, ok)
}

func TestBudgetInvariant(t *testing.T) {
	fixed := func(any) int64 { return 100 }
	s := newTestStore(t,
		WithMaxMemory(1000),
		WithMaxEntries(8),
		WithSizeEstimator(fixed),
	)
	for i := 0; i < 50; i++ {
		s.Set(fmt.Sprintf("key_%d", i), i)
		assert.LessOrEqual(t, s.Len(), 8)
		assert.LessOrEqual(t, s.MemoryUsage(), int64(1000))
	}
	assert.Equal(t, 8, s.Len())
	assert.Equal(t, int64(800), s.MemoryUsage())
}

func TestMemoryBudgetEvicts(t *testing.T) {
	fixed := func(any) int64 { return 400 }
	s := newTestStore(t, WithMaxMemory(1000), WithSizeEstimator(fixed))
	s.Set("A", 1)
	s.Set("B", 2)
	s.Set("C", 3) // 1200 bytes would exceed the budget; A goes
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, int64(800), s.MemoryUsage())
	_, ok := s.Get("A")
	assert.False(t, ok)
}

func TestOversizedValueRejected(t *testing.T) {
	fixed := func(any) int64 { return 5000 }
	s := newTestStore(t, WithMaxMemory(1000), WithSizeEstimator(fixed))
	s.Set("huge", "v")
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, int64(0), s.MemoryUsage())
}

func TestDeleteIdempotent(t *testing.T) {
	s := newTestStore(t)
	s.Set("k", "v")
	assert.True(t, s.Delete("k"))
	assert.False(t, s.Delete("k"))
	_, ok := s.Get("k")
	assert.False(t, ok)
}

func TestStatsConsistency(t *testing.T) {
	s := newTestStore(t)
	s.Set("hit", "v")
	for i := 0; i < 3; i++ {
		_, ok := s.Get("hit")
		assert.True(t, ok)
	}
	for i := 0; i < 2; i++ {
		_, ok := s.Get("miss")
		assert.False(t, ok)
	}

	stats := s.Stats()
	assert.Equal(t, int64(5), stats.TotalRequests)
	assert.InDelta(t, 0.6, stats.HitRate, 1e-9)
	assert.InDelta(t, 0.4, stats.MissRate, 1e-9)
	assert.Equal(t, 1, stats.Entries)
	assert.Greater(t, stats.MemoryUsage, int64(0))
}

func TestStatsEmpty(t *testing.T) {
	s := newTestStore(t)
	stats := s.Stats()
	assert.Equal(t, int64(0), stats.TotalRequests)
	assert.Zero(t, stats.HitRate)
	assert.Zero(t, stats.MissRate)
	assert.Zero(t, stats.AverageAccessTime)
}

func TestInvalidateByPattern(t *testing.T) {
	s := newTestStore(t)
	s.Set("dashboard_1", "a")
	s.Set("dashboard_2", "b")
	s.Set("widget_1", "c")

	removed, err := s.Invalidate("^dashboard_")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	_, ok := s.Get("dashboard_1")
	assert.False(t, ok)
	_, ok = s.Get("dashboard_2")
	assert.False(t, ok)
	val, ok := s.Get("widget_1")
	assert.True(t, ok)
	assert.Equal(t, "c", val)
}

func TestInvalidatePatternError(t *testing.T) {
	s := newTestStore(t)
	s.Set("k", "v")
	removed, err := s.Invalidate("([")
	assert.Error(t, err)
	assert.Zero(t, removed)
	_, ok := s.Get("k")
	assert.True(t, ok, "a malformed pattern must not remove anything")
}

func TestClearResetsStats(t *testing.T) {
	s := newTestStore(t)
	s.Set("k", "v")
	s.Get("k")
	s.Get("nope")

	s.Clear()
	stats := s.Stats()
	assert.Equal(t, int64(0), stats.TotalRequests)
	assert.Zero(t, stats.HitRate)
	assert.Equal(t, 0, stats.Entries)
	assert.Equal(t, int64(0), stats.MemoryUsage)
}

func TestOptimizeSweepsExpired(t *testing.T) {
	clock := newFakeClock()
	s := newTestStore(t, WithClock(clock))
	s.Set("short", "v", 10*time.Millisecond)
	s.Set("long", "v", time.Hour)
	clock.Advance(time.Minute)

	s.Optimize()
	assert.Equal(t, 1, s.Len())
	_, ok := s.Get("long")
	assert.True(t, ok)
}

func TestOptimizeEvictsToFreeMargin(t *testing.T) {
	fixed := func(any) int64 { return 100 }
	s := newTestStore(t, WithMaxMemory(1000), WithSizeEstimator(fixed))
	for i := 0; i < 10; i++ {
		s.Set(fmt.Sprintf("key_%d", i), i)
	}
	require.Equal(t, int64(1000), s.MemoryUsage())

	s.Optimize()
	// 10% of the budget must be free afterward.
	assert.LessOrEqual(t, s.MemoryUsage(), int64(900))
	_, ok := s.Get("key_0")
	assert.False(t, ok, "the oldest entry should be evicted first")
}

func TestDestroyIdempotent(t *testing.T) {
	s := newTestStore(t)
	s.Set("k", "v")
	s.Destroy()
	s.Destroy()
}

func TestDestroyStopsJanitor(t *testing.T) {
	s := newTestStore(t, WithCleanupInterval(5*time.Millisecond))
	s.Set("k", "v", time.Millisecond)
	s.Destroy()
	// No further cycles may run after Destroy returns; mutating the table
	// directly would race with a still-running janitor under -race.
	s.mutex.Lock()
	s.entries["manual"] = &entry{key: "manual", ttl: time.Nanosecond, createdAt: time.Time{}}
	s.mutex.Unlock()
	time.Sleep(20 * time.Millisecond)
	s.mutex.Lock()
	_, ok := s.entries["manual"]
	s.mutex.Unlock()
	assert.True(t, ok)
}

func TestJanitorRemovesExpired(t *testing.T) {
	s := newTestStore(t, WithCleanupInterval(10*time.Millisecond))
	s.Set("k", "v", 5*time.Millisecond)
	assert.Eventually(t, func() bool {
		return s.Len() == 0
	}, time.Second, 5*time.Millisecond)
}

func TestJanitorSafetyUnderLoad(t *testing.T) {
	fixed := func(any) int64 { return 64 }
	s := newTestStore(t,
		WithMaxMemory(64*20),
		WithMaxEntries(16),
		WithDefaultTTL(15*time.Millisecond),
		WithCleanupInterval(5*time.Millisecond),
		WithSizeEstimator(fixed),
	)

	var waitGroup sync.WaitGroup
	for g := 0; g < 8; g++ {
		waitGroup.Add(1)
		go func(g int) {
			defer waitGroup.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("key_%d_%d", g, i%20)
				s.Set(key, i)
				s.Get(key)
				if i%10 == 0 {
					s.Delete(key)
				}
			}
		}(g)
	}
	waitGroup.Wait()

	assert.LessOrEqual(t, s.Len(), 16)
	assert.GreaterOrEqual(t, s.MemoryUsage(), int64(0))
	assert.LessOrEqual(t, s.MemoryUsage(), int64(64*20))
	stats := s.Stats()
	assert.GreaterOrEqual(t, stats.Entries, 0)
	assert.GreaterOrEqual(t, stats.TotalRequests, int64(0))
}

func TestGetAs(t *testing.T) {
	s := newTestStore(t)
	s.Set("n", 42)
	n, ok := GetAs[int](s, "n")
	assert.True(t, ok)
	assert.Equal(t, 42, n)

	_, ok = GetAs[string](s, "n")
	assert.False(t, ok, "wrong type is a miss")
	_, ok = GetAs[int](s, "absent")
	assert.False(t, ok)
}

func TestFetch(t *testing.T) {
	s := newTestStore(t)
	calls := 0
	load := func() (string, bool, error) {
		calls++
		return "loaded", true, nil
	}

	val, found, err := Fetch(s, "k", 0, load)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "loaded", val)
	assert.Equal(t, 1, calls)

	// Second call is served from cache.
	val, found, err = Fetch(s, "k", 0, load)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "loaded", val)
	assert.Equal(t, 1, calls)
}

func TestFetchNotFoundNotCached(t *testing.T) {
	s := newTestStore(t)
	calls := 0
	load := func() (string, bool, error) {
		calls++
		return "", false, nil
	}
	_, found, err := Fetch(s, "k", 0, load)
	require.NoError(t, err)
	assert.False(t, found)
	_, found, err = Fetch(s, "k", 0, load)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 0, s.Len())
}

func TestFetchError(t *testing.T) {
	s := newTestStore(t)
	wantErr := fmt.Errorf("backend down")
	_, found, err := Fetch(s, "k", 0, func() (int, bool, error) {
		return 0, false, wantErr
	})
	assert.ErrorIs(t, err, wantErr)
	assert.False(t, found)
}
