package cache

import (
	"sync"
	"sync/atomic"
	"time"
)

// latencyWindow is the number of recent access latencies retained for the
// average access time calculation.
const latencyWindow = 100

// Stats is a point-in-time snapshot of cache statistics. Entries and
// MemoryUsage are read live from the store at snapshot time.
type Stats struct {
	Entries           int
	MemoryUsage       int64
	HitRate           float64
	MissRate          float64
	TotalRequests     int64
	AverageAccessTime time.Duration
}

// statsCollector tracks monotonic hit/miss counters and a fixed-capacity
// ring buffer of recent access latencies. Counters are atomics so the Get
// hot path never contends on the ring buffer mutex of other readers.
type statsCollector struct {
	hits   atomic.Int64
	misses atomic.Int64

	mutex   sync.Mutex
	samples [latencyWindow]time.Duration
	next    int
	filled  int
}

func (c *statsCollector) hit(d time.Duration) {
	c.hits.Add(1)
	c.observe(d)
}

func (c *statsCollector) miss(d time.Duration) {
	c.misses.Add(1)
	c.observe(d)
}

func (c *statsCollector) observe(d time.Duration) {
	c.mutex.Lock()
	c.samples[c.next] = d
	c.next = (c.next + 1) % latencyWindow
	if c.filled < latencyWindow {
		c.filled++
	}
	c.mutex.Unlock()
}

func (c *statsCollector) averageAccessTime() time.Duration {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.filled == 0 {
		return 0
	}
	var total time.Duration
	for i := 0; i < c.filled; i++ {
		total += c.samples[i]
	}
	return total / time.Duration(c.filled)
}

// reset zeroes all counters and samples. Called only by Store.Clear, never
// implicitly by eviction or expiration.
func (c *statsCollector) reset() {
	c.hits.Store(0)
	c.misses.Store(0)
	c.mutex.Lock()
	c.samples = [latencyWindow]time.Duration{}
	c.next = 0
	c.filled = 0
	c.mutex.Unlock()
}

func (c *statsCollector) snapshot(entries int, memoryUsage int64) Stats {
	hits := c.hits.Load()
	misses := c.misses.Load()
	total := hits + misses
	s := Stats{
		Entries:           entries,
		MemoryUsage:       memoryUsage,
		TotalRequests:     total,
		AverageAccessTime: c.averageAccessTime(),
	}
	if total > 0 {
		s.HitRate = float64(hits) / float64(total)
		s.MissRate = float64(misses) / float64(total)
	}
	return s
}
