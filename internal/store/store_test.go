package store

import (
	"context"
	"strconv"
	"testing"

	"golang.org/x/sync/errgroup"
)

type fakeClock struct{ t int64 }

func (f *fakeClock) NowSeconds() int64 { return f.t }
func (f *fakeClock) add(seconds int64) { f.t += seconds }

func TestStore_SetGetRoundTrip(t *testing.T) {
	t.Parallel()
	s := New(Options{Shards: 8})

	existed, err := s.Set("k", []byte("v"), 0)
	if err != nil || existed {
		t.Fatalf("Set: existed=%v err=%v", existed, err)
	}
	v, ok := s.Get("k", nil)
	if !ok || string(v) != "v" {
		t.Fatalf("Get: want v, got %q ok=%v", v, ok)
	}
}

func TestStore_SetDelGetMiss(t *testing.T) {
	t.Parallel()
	s := New(Options{Shards: 8})

	s.Set("k", []byte("v"), 0)
	if n := s.Del("k"); n != 1 {
		t.Fatalf("Del first: want 1, got %d", n)
	}
	if n := s.Del("k"); n != 0 {
		t.Fatalf("Del second: want 0, got %d", n)
	}
	if _, ok := s.Get("k", nil); ok {
		t.Fatal("Get after Del must miss")
	}
}

func TestStore_TTLExpiry_FakeClock(t *testing.T) {
	t.Parallel()
	clk := &fakeClock{t: 1000}
	s := New(Options{Shards: 4, Clock: clk})

	s.Set("k", []byte("v"), 5)
	if _, ok := s.Get("k", nil); !ok {
		t.Fatal("fresh key must be a hit")
	}
	clk.add(5) // ExpiresAt == now is already expired (strict >)
	if _, ok := s.Get("k", nil); ok {
		t.Fatal("key at exact TTL boundary must be a miss")
	}
}

func TestStore_FlushDBResetsDBSize(t *testing.T) {
	t.Parallel()
	s := New(Options{Shards: 8})
	for i := 0; i < 50; i++ {
		s.Set("k"+strconv.Itoa(i), []byte("v"), 0)
	}
	if s.DBSize() == 0 {
		t.Fatal("expected nonzero DBSize before flush")
	}
	s.FlushDB()
	if got := s.DBSize(); got != 0 {
		t.Fatalf("DBSize after FlushDB: want 0, got %d", got)
	}
	if got := s.UsedMemory(); got != 0 {
		t.Fatalf("UsedMemory after FlushDB: want 0, got %d", got)
	}
}

// Concurrent writers to the same key: after N concurrent SETs, GET returns
// some v_i and the key count is exactly one (§8).
func TestStore_ConcurrentSetSameKey(t *testing.T) {
	t.Parallel()
	s := New(Options{Shards: 8})

	g, _ := errgroup.WithContext(context.Background())
	for i := 0; i < 64; i++ {
		i := i
		g.Go(func() error {
			_, err := s.Set("hot", []byte(strconv.Itoa(i)), 0)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
	if _, ok := s.Get("hot", nil); !ok {
		t.Fatal("hot key must be present after concurrent sets")
	}
	if got := s.DBSize(); got != 1 {
		t.Fatalf("DBSize: want 1, got %d", got)
	}
}

func TestStore_KeysSnapshotExcludesExpired(t *testing.T) {
	t.Parallel()
	clk := &fakeClock{t: 0}
	s := New(Options{Shards: 8, Clock: clk})

	s.Set("live", []byte("v"), 0)
	s.Set("dying", []byte("v"), 1)
	clk.add(2)

	keys := s.Keys()
	if len(keys) != 1 || string(keys[0]) != "live" {
		t.Fatalf("Keys: want [live], got %v", keys)
	}
}

func TestStore_NoEvictionRejectsOverBudget(t *testing.T) {
	t.Parallel()
	s := New(Options{Shards: 1, Policy: PolicyNoEviction, MaxMemory: 1024})

	if _, err := s.Set("k1", []byte("small"), 0); err != nil {
		t.Fatalf("first set under budget failed: %v", err)
	}
	_, err := s.Set("k2", make([]byte, 1<<20), 0)
	if err != ErrOOM {
		t.Fatalf("want ErrOOM, got %v", err)
	}
}

func TestStore_ShardCountRoundedToPowerOfTwo(t *testing.T) {
	t.Parallel()
	s := New(Options{Shards: 5})
	if n := s.NumShards(); n != 8 {
		t.Fatalf("want 8 shards, got %d", n)
	}
}
