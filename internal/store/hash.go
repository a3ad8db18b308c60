package store

import "github.com/cespare/xxhash/v2"

// hashKey hashes a key once on entry; the low bits of the hash select the
// shard (§3). xxhash is already present in this dependency graph (pulled in
// transitively by prometheus/common) and is faster than a hand-rolled
// FNV-1a, so it is used directly here instead.
func hashKey(key string) uint64 {
	return xxhash.Sum64String(key)
}
