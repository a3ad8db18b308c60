// Package eviction implements the sampling eviction engine (C3): the
// approximate-LRU / random-sampling policy that enforces a memory budget
// against an internal/store.Store, and the probabilistic last-access
// touch gate GET uses instead of an exact move-to-front list (§4.3).
package eviction

import (
	"context"
	"math/rand"
	"time"

	"github.com/shaikh-shahid/redistill/internal/store"
)

// Defaults per §4.3.
const (
	DefaultSampleSize      = 5
	DefaultMaxPerTrigger   = 32
	DefaultTouchProb       = 0.10
	DefaultTickInterval    = 100 * time.Millisecond
	defaultAttemptFactor   = 4 // single-pass attempt budget = MaxPerTrigger * this
)

// Options configures an Engine. Zero value uses the §4.3 defaults.
type Options struct {
	SampleSize    int           // K in §4.3; <= 0 uses DefaultSampleSize
	MaxPerTrigger int           // bounded keys evicted per trigger; <= 0 uses DefaultMaxPerTrigger
	TouchProb     float64       // probabilistic-touch acceptance probability; <= 0 uses DefaultTouchProb
	TickInterval  time.Duration // background tick period; <= 0 uses DefaultTickInterval
}

// Engine runs the sampling eviction policy against a Store. A single Engine
// is meant to be wired into the Store it evicts from via
// Store.SetGrowthTrigger, and its Run started as a background goroutine.
type Engine struct {
	store *store.Store
	opt   Options

	// coalesces concurrent Trigger() calls (from concurrent SETs that each
	// observe the store over budget) into a single sampling pass.
	sf passCoalescer
}

// New constructs an Engine bound to s. Call s.SetGrowthTrigger(engine) to
// wire it into the SET path, and go engine.Run(ctx) to start the periodic
// tick (§4.3's "or on a periodic tick" trigger).
func New(s *store.Store, opt Options) *Engine {
	if opt.SampleSize <= 0 {
		opt.SampleSize = DefaultSampleSize
	}
	if opt.MaxPerTrigger <= 0 {
		opt.MaxPerTrigger = DefaultMaxPerTrigger
	}
	if opt.TouchProb <= 0 {
		opt.TouchProb = DefaultTouchProb
	}
	if opt.TickInterval <= 0 {
		opt.TickInterval = DefaultTickInterval
	}
	return &Engine{store: s, opt: opt}
}

// MaybeTouch is the probabilistic LRU update GET wires in as its touch
// callback: it advances the entry's last-access timestamp with probability
// TouchProb instead of on every read, trading exact recency for avoiding a
// cache-line write on the common path (§4.3, §9).
func (e *Engine) MaybeTouch(entry *store.Entry, now int64) {
	if rand.Float64() < e.opt.TouchProb {
		entry.Touch(now)
	}
}

// Trigger runs one bounded eviction pass if the store is over its memory
// budget and the policy allows eviction. Concurrent callers collapse into a
// single pass. Safe to call from any goroutine; never blocks on I/O.
func (e *Engine) Trigger() {
	e.sf.run(e.runPass)
}

// Run ticks Trigger every TickInterval until ctx is canceled (§4.7
// background work). Intended to run as a single long-lived goroutine.
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(e.opt.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.Trigger()
		}
	}
}

// runPass evicts sampled keys until the store is under budget or
// MaxPerTrigger keys have been evicted, whichever comes first (§4.3's
// fairness bound against latency cliffs).
func (e *Engine) runPass() {
	maxMemory := e.store.MaxMemory()
	if maxMemory <= 0 || e.store.Policy() == store.PolicyNoEviction {
		return
	}

	evicted := 0
	attempts := 0
	maxAttempts := e.opt.MaxPerTrigger * defaultAttemptFactor

	for e.store.UsedMemory() > maxMemory && evicted < e.opt.MaxPerTrigger && attempts < maxAttempts {
		attempts++
		candidates := e.store.Sample(e.opt.SampleSize)
		if len(candidates) == 0 {
			return // store is empty; nothing left to evict
		}
		chosen := e.choose(candidates)
		if e.store.EvictOne(chosen.ShardIndex, chosen.Key) {
			evicted++
		}
	}
}

// choose picks the eviction candidate per the active policy: oldest
// last-access for allkeys-lru (tie-broken by shard index then key hash, a
// deterministic order given the sample, §4.3), uniformly random for
// allkeys-random.
func (e *Engine) choose(candidates []store.SampleCandidate) store.SampleCandidate {
	if e.store.Policy() == store.PolicyAllKeysRandom {
		return candidates[rand.Intn(len(candidates))]
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.LastAccess < best.LastAccess {
			best = c
			continue
		}
		if c.LastAccess == best.LastAccess {
			if c.ShardIndex < best.ShardIndex {
				best = c
				continue
			}
			if c.ShardIndex == best.ShardIndex && c.KeyHash < best.KeyHash {
				best = c
			}
		}
	}
	return best
}
