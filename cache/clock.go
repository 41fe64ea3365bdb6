package cache

import "time"

// Clock provides time to the store. The default implementation uses
// time.Now; tests substitute a fake via WithClock.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}
