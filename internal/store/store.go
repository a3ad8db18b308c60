// Package store implements the sharded, concurrent key-value engine:
// entries with TTL and approximate-LRU metadata (C1), and the N-way
// partitioned map with SET/GET/DEL/EXISTS/KEYS and batched memory
// accounting (C2). The sampling eviction engine that enforces a memory
// budget against this store lives in package eviction (C3); store only
// exposes the hooks eviction needs (sampling, forced eviction, a growth
// trigger) and the OOM fast-path for the noeviction policy.
package store

import (
	"time"

	"github.com/shaikh-shahid/redistill/internal/intpad"
)

// DefaultShards is the default shard count (§3), a power of two.
const DefaultShards = 2048

// GrowthTrigger is notified before a SET that may grow the store, so an
// eviction engine can run a bounded pass if the store is over its memory
// budget. Implemented by *eviction.Engine; nil means no eviction runs
// (acceptable when MaxMemory is 0, i.e. unlimited).
type GrowthTrigger interface {
	Trigger()
}

// Options configures a Store. Zero value is usable: unlimited memory,
// allkeys-lru policy, DefaultShards shards, system clock.
type Options struct {
	// Shards is the shard count; rounded up to the next power of two.
	// <= 0 selects DefaultShards.
	Shards int

	// Policy is the eviction policy (§4.1). Zero value is PolicyAllKeysLRU.
	Policy EvictionPolicy

	// MaxMemory is the memory budget in bytes; 0 means unlimited (§3).
	MaxMemory int64

	// Clock overrides the time source (tests). Nil uses SystemClock.
	Clock Clock
}

// Store is the sharded key-value engine (§3). All methods are safe for
// concurrent use; two operations on different keys in different shards
// proceed without mutual waiting (§4.2).
type Store struct {
	shards    []*shard
	shardMask uint64

	policy    EvictionPolicy
	maxMemory int64
	clock     Clock
	startedAt int64

	globalBytes intpad.PaddedInt64
	globalKeys  intpad.PaddedInt64
	evictedKeys intpad.PaddedUint64

	growth GrowthTrigger
}

// New constructs a Store per opt.
func New(opt Options) *Store {
	n := opt.Shards
	if n <= 0 {
		n = DefaultShards
	}
	n = roundUpToShardCount(n)

	clk := opt.Clock
	if clk == nil {
		clk = SystemClock{}
	}

	s := &Store{
		shardMask: uint64(n - 1),
		policy:    opt.Policy,
		maxMemory: opt.MaxMemory,
		clock:     clk,
		startedAt: clk.NowSeconds(),
	}
	s.shards = make([]*shard, n)
	for i := range s.shards {
		s.shards[i] = newShard(s)
	}
	return s
}

// SetGrowthTrigger wires an eviction engine's Trigger into the store's SET
// path. Must be called once, before the store is shared across goroutines.
func (s *Store) SetGrowthTrigger(t GrowthTrigger) { s.growth = t }

// roundUpToShardCount rounds n up to the next power of two, since shard
// selection uses a bitmask (shardMask) rather than a modulo. n <= 1 always
// yields 1 (a single shard is valid, if degenerate).
func roundUpToShardCount(n int) int {
	if n <= 1 {
		return 1
	}
	x := uint64(n) - 1
	x |= x >> 1
	x |= x >> 2
	x |= x >> 4
	x |= x >> 8
	x |= x >> 16
	x |= x >> 32
	return int(x + 1)
}

// NumShards returns the number of shards (always a power of two).
func (s *Store) NumShards() int { return len(s.shards) }

// Policy returns the configured eviction policy.
func (s *Store) Policy() EvictionPolicy { return s.policy }

// MaxMemory returns the configured memory budget (0 = unlimited).
func (s *Store) MaxMemory() int64 { return s.maxMemory }

// Now returns the store's current monotonic-second clock reading.
func (s *Store) Now() int64 { return s.clock.NowSeconds() }

// Uptime returns the duration since the store was constructed.
func (s *Store) Uptime() time.Duration {
	return time.Duration(s.Now()-s.startedAt) * time.Second
}

func (s *Store) shardFor(key string) *shard {
	return s.shards[hashKey(key)&s.shardMask]
}

// UsedMemory returns the approximate global byte counter (§4.2):
// eventually consistent, bounded above by roughly
// NumShards() × flushByteThreshold of lag behind the true total.
func (s *Store) UsedMemory() int64 { return s.globalBytes.Load() }

// DBSize returns the number of resident keys, summed from every shard's own
// key count so that deltas not yet flushed into the global counter are
// included. Tolerates expired-but-not-yet-reaped entries.
func (s *Store) DBSize() int64 {
	var n int64
	for _, sh := range s.shards {
		n += sh.len()
	}
	if n < 0 {
		return 0
	}
	return n
}

// EvictedKeys returns the running count of keys removed by the eviction
// engine (not DEL, not FLUSHDB, not TTL expiry).
func (s *Store) EvictedKeys() uint64 { return s.evictedKeys.Load() }

// Set inserts or replaces key with value and an optional TTL in seconds
// (<= 0 means no expiration). Returns whether the key already existed.
//
// Under PolicyNoEviction, Set rejects the write with ErrOOM if applying it
// would push used memory over MaxMemory. Under the other policies, Set
// gives the wired GrowthTrigger a chance to free space first (§4.3) and
// then always applies the write — the resulting overshoot is bounded by a
// single eviction pass, not prevented outright, matching §4.3's "evicts
// until under budget or a single-pass attempt limit is reached".
func (s *Store) Set(key string, value []byte, ttlSeconds int64) (existed bool, err error) {
	now := s.Now()
	sh := s.shardFor(key)

	if s.maxMemory > 0 {
		if s.policy == PolicyNoEviction {
			projected := s.UsedMemory() + s.projectedDelta(sh, key, value)
			if projected > s.maxMemory {
				return false, ErrOOM
			}
		} else if s.growth != nil {
			s.growth.Trigger()
		}
	}

	var expiresAt int64
	if ttlSeconds > 0 {
		expiresAt = now + ttlSeconds
	}
	e := NewEntry(value, now, expiresAt)
	return sh.set(key, e), nil
}

// projectedDelta estimates the byte-counter change Set(key, value) would
// cause, using the (possibly lagging) current entry if one is resident.
// Used only for the noeviction OOM fast-path; it is a heuristic, not an
// exact accounting — exactness would require holding the shard lock across
// the budget check and the global counter read, which would serialize SETs
// across shards.
func (s *Store) projectedDelta(sh *shard, key string, value []byte) int64 {
	newSize := int64(len(key)) + int64(len(value)) + EntryOverheadBytes
	sh.mu.RLock()
	old, ok := sh.m[key]
	sh.mu.RUnlock()
	if ok {
		return newSize - old.SizeBytes(len(key))
	}
	return newSize
}

// Get returns the value for key if present and unexpired, applying the
// probabilistic LRU touch (§4.3) on a hit.
func (s *Store) Get(key string, touch func(e *Entry, now int64)) ([]byte, bool) {
	now := s.Now()
	sh := s.shardFor(key)
	e, ok := sh.get(key, now)
	if !ok {
		return nil, false
	}
	if touch != nil {
		touch(e, now)
	}
	return e.Value, true
}

// Exists reports whether key is present and unexpired, without touching
// its last-access timestamp.
func (s *Store) Exists(key string) bool {
	return s.shardFor(key).exists(key, s.Now())
}

// Del removes each of keys if present, returning the count actually
// removed. An expired-but-not-yet-reaped key counts as already absent.
func (s *Store) Del(keys ...string) int {
	now := s.Now()
	n := 0
	for _, k := range keys {
		if s.shardFor(k).del(k, now) {
			n++
		}
	}
	return n
}

// Keys returns a snapshot of every unexpired key across all shards.
// O(N·entries); documented as unsuitable for production use (§4.2) — it
// exists only to serve KEYS *.
func (s *Store) Keys() [][]byte {
	now := s.Now()
	var out [][]byte
	for _, sh := range s.shards {
		out = sh.snapshotKeys(out, now)
	}
	return out
}

// FlushDB clears every shard and resets all counters to zero.
func (s *Store) FlushDB() {
	for _, sh := range s.shards {
		sh.flushAll()
	}
}

// EvictOne removes a single key chosen by the eviction engine and records
// it in the eviction counter. Returns true if a live entry was removed.
func (s *Store) EvictOne(shardIdx int, key string) bool {
	if shardIdx < 0 || shardIdx >= len(s.shards) {
		return false
	}
	if s.shards[shardIdx].evictKey(key) {
		s.evictedKeys.Add(1)
		return true
	}
	return false
}

// SampleCandidate is a single random draw used by the eviction engine's
// K-sampling (§4.3).
type SampleCandidate struct {
	ShardIndex int
	Key        string
	LastAccess int64
	KeyHash    uint64
}

// Sample draws k random (shard, key) candidates for the eviction engine,
// one random shard per draw. Shards with no live keys contribute nothing
// for that draw.
func (s *Store) Sample(k int) []SampleCandidate {
	out := make([]SampleCandidate, 0, k)
	n := len(s.shards)
	for i := 0; i < k; i++ {
		idx := pickShardIndex(n)
		key, lastAccess, ok := s.shards[idx].sampleOne()
		if !ok {
			continue
		}
		out = append(out, SampleCandidate{
			ShardIndex: idx,
			Key:        key,
			LastAccess: lastAccess,
			KeyHash:    hashKey(key),
		})
	}
	return out
}
