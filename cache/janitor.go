package cache

import "time"

// run is the background maintenance loop. Each tick it sweeps expired
// entries and evicts down to the free-space margin when the budget is
// nearly exhausted, under the same writer lock as foreground mutations.
// It exits when the store context is cancelled; Destroy waits for it.
func (s *Store) run() {
	defer s.waitGroup.Done()
	ticker := time.NewTicker(s.config.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.cycle()
		}
	}
}

// cycle is one maintenance pass. A panic inside a cycle is recovered and
// logged so a transient failure never stops future ticks.
func (s *Store) cycle() {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("maintenance cycle panicked: %v", r)
		}
	}()
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.sweepLocked(s.clock.Now())
	if s.config.MaxMemory-s.usage < s.targetFreeSpace() {
		s.ensureSpaceLocked(s.targetFreeSpace())
	}
}
