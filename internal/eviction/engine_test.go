package eviction

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/shaikh-shahid/redistill/internal/store"
)

func TestEngine_LRUEvictsUnderBudget(t *testing.T) {
	t.Parallel()

	s := store.New(store.Options{
		Shards:    4,
		Policy:    store.PolicyAllKeysLRU,
		MaxMemory: 64 * 1024,
	})
	eng := New(s, Options{MaxPerTrigger: 2000})
	s.SetGrowthTrigger(eng)

	value := make([]byte, 1024)
	for i := 0; i < 2000; i++ {
		if _, err := s.Set("k:"+strconv.Itoa(i), value, 0); err != nil {
			t.Fatalf("Set #%d: %v", i, err)
		}
	}

	if got := s.UsedMemory(); got > s.MaxMemory()+int64(s.NumShards())*flushSlack {
		t.Fatalf("used memory %d exceeds budget %d plus slack", got, s.MaxMemory())
	}
	if s.EvictedKeys() == 0 {
		t.Fatal("expected at least one eviction under sustained pressure")
	}
}

// flushSlack approximates the per-shard batching lag bound (§4.2) that the
// used-memory assertion above must tolerate.
const flushSlack = 64 * 1024

func TestEngine_NoEvictionNeverEvicts(t *testing.T) {
	t.Parallel()

	s := store.New(store.Options{
		Shards:    2,
		Policy:    store.PolicyNoEviction,
		MaxMemory: 1024,
	})
	eng := New(s, Options{})
	s.SetGrowthTrigger(eng)

	eng.Trigger()
	if s.EvictedKeys() != 0 {
		t.Fatal("noeviction must never evict")
	}
}

func TestEngine_RunStopsOnCancel(t *testing.T) {
	t.Parallel()

	s := store.New(store.Options{Shards: 2})
	eng := New(s, Options{TickInterval: 5 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		eng.Run(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestEngine_MaybeTouchRespectsProbability(t *testing.T) {
	t.Parallel()

	eng := New(store.New(store.Options{}), Options{TouchProb: 1.0})
	e := store.NewEntry([]byte("v"), 100, 0)
	eng.MaybeTouch(e, 200)
	if e.LastAccess() != 200 {
		t.Fatalf("touch probability 1.0 must always advance last access, got %d", e.LastAccess())
	}

	eng2 := New(store.New(store.Options{}), Options{TouchProb: 0.0})
	// TouchProb <= 0 is normalized to DefaultTouchProb by New, so this
	// exercises the default rather than a guaranteed no-op; assert only
	// that it never panics and leaves a sane timestamp.
	e2 := store.NewEntry([]byte("v"), 100, 0)
	eng2.MaybeTouch(e2, 200)
	if e2.LastAccess() != 100 && e2.LastAccess() != 200 {
		t.Fatalf("unexpected last access %d", e2.LastAccess())
	}
}
