package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatsCollectorRates(t *testing.T) {
	var c statsCollector
	for i := 0; i < 3; i++ {
		c.hit(time.Millisecond)
	}
	c.miss(time.Millisecond)

	s := c.snapshot(10, 2048)
	assert.Equal(t, int64(4), s.TotalRequests)
	assert.InDelta(t, 0.75, s.HitRate, 1e-9)
	assert.InDelta(t, 0.25, s.MissRate, 1e-9)
	assert.Equal(t, 10, s.Entries)
	assert.Equal(t, int64(2048), s.MemoryUsage)
}

func TestStatsCollectorAverageAccessTime(t *testing.T) {
	var c statsCollector
	c.hit(10 * time.Millisecond)
	c.hit(20 * time.Millisecond)
	c.miss(30 * time.Millisecond)
	assert.Equal(t, 20*time.Millisecond, c.averageAccessTime())
}

func TestStatsCollectorWindowBounded(t *testing.T) {
	var c statsCollector
	// Fill the window with large samples, then overwrite it with small ones.
	for i := 0; i < latencyWindow; i++ {
		c.hit(time.Second)
	}
	for i := 0; i < latencyWindow; i++ {
		c.hit(time.Millisecond)
	}
	assert.Equal(t, time.Millisecond, c.averageAccessTime())
	// Counters stay monotonic even as the window rolls.
	s := c.snapshot(0, 0)
	assert.Equal(t, int64(2*latencyWindow), s.TotalRequests)
}

func TestStatsCollectorReset(t *testing.T) {
	var c statsCollector
	c.hit(time.Millisecond)
	c.miss(time.Millisecond)
	c.reset()
	s := c.snapshot(0, 0)
	assert.Equal(t, int64(0), s.TotalRequests)
	assert.Zero(t, s.HitRate)
	assert.Zero(t, s.AverageAccessTime)
}
