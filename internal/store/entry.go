package store

import "sync/atomic"

// EntryOverheadBytes approximates the fixed per-entry bookkeeping cost (map
// bucket slot, pointer, timestamps) added on top of key+value length when
// accounting memory usage.
const EntryOverheadBytes = 100

// Entry is a stored value plus the metadata the eviction engine and TTL
// checks need. Entries are immutable once inserted except for LastAccess,
// which is updated in place under the probabilistic-touch gate (§4.3) —
// never under a promote-to-front list operation, so a shard's RWMutex can
// stay a read lock for plain gets.
type Entry struct {
	Value []byte

	// CreatedAt is the monotonic-second timestamp the entry was inserted.
	CreatedAt int64

	// ExpiresAt is an absolute monotonic-second deadline; zero means no TTL.
	ExpiresAt int64

	// lastAccess is updated by Touch under an atomic store so concurrent
	// readers holding only the shard's read lock never race on it.
	lastAccess atomic.Int64
}

// NewEntry constructs an entry with its creation and last-access timestamps
// set to now. expiresAt is an absolute deadline; 0 means no expiration.
func NewEntry(value []byte, now int64, expiresAt int64) *Entry {
	e := &Entry{Value: value, CreatedAt: now, ExpiresAt: expiresAt}
	e.lastAccess.Store(now)
	return e
}

// IsExpired reports whether the entry's TTL (if any) has elapsed by now.
func (e *Entry) IsExpired(now int64) bool {
	return e.ExpiresAt != 0 && e.ExpiresAt <= now
}

// Touch advances the last-access timestamp. Callers gate calls to this with
// the probabilistic acceptance draw (§4.3) — Touch itself always writes.
func (e *Entry) Touch(now int64) { e.lastAccess.Store(now) }

// LastAccess returns the last-access timestamp recorded by Touch.
func (e *Entry) LastAccess() int64 { return e.lastAccess.Load() }

// SizeBytes returns the accounted size of the entry given its key's length:
// key length + value length + EntryOverheadBytes.
func (e *Entry) SizeBytes(keyLen int) int64 {
	return int64(keyLen) + int64(len(e.Value)) + EntryOverheadBytes
}
