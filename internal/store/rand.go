package store

import "math/rand"

// pickShardIndex returns a uniformly random shard index in [0, n). The
// top-level math/rand functions share a lock-protected global source, so
// this is safe to call concurrently from many connection goroutines.
func pickShardIndex(n int) int {
	if n <= 1 {
		return 0
	}
	return rand.Intn(n)
}
