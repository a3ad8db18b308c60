package store

import "time"

// Clock provides the current time in whole seconds. Entries store and
// compare monotonic-second timestamps (§3), so tests can substitute a fake
// clock to assert TTL/LRU behavior deterministically instead of sleeping —
// the same role the teacher's Options.Clock plays for cache/cache.go.
type Clock interface {
	NowSeconds() int64
}

// SystemClock is the default Clock, backed by Go's monotonic clock.
type SystemClock struct{}

// clockStart anchors SystemClock readings; time.Since measures from its
// monotonic reading, so wall-clock steps never move timestamps backwards.
var clockStart = time.Now()

// NowSeconds returns the whole seconds elapsed since the process started.
func (SystemClock) NowSeconds() int64 { return int64(time.Since(clockStart) / time.Second) }
