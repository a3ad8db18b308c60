package store

import (
	"strings"
	"testing"
)

// Fuzz basic Set/Get/Del semantics under arbitrary key/value inputs. Guards
// against panics and checks the same round-trip invariants
// TestStore_SetGetRoundTrip exercises, across whatever byte sequences the
// fuzzer discovers.
func FuzzStore_SetGet(f *testing.F) {
	f.Add("", "")
	f.Add("a", "1")
	f.Add("b", "2")
	f.Add("αβγ", "δ")
	f.Add("emoji🙂", "🙂🙂")
	f.Add("long", strings.Repeat("x", 1024))

	f.Fuzz(func(t *testing.T, k, v string) {
		const limit = 1 << 12
		if len(k) > limit {
			k = k[:limit]
		}
		if len(v) > limit {
			v = v[:limit]
		}

		s := New(Options{Shards: 8})

		if _, err := s.Set(k, []byte(v), 0); err != nil {
			t.Fatalf("Set: %v", err)
		}
		got, ok := s.Get(k, nil)
		if !ok || string(got) != v {
			t.Fatalf("after Set/Get: want %q, got %q ok=%v", v, got, ok)
		}

		if n := s.Del(k); n != 1 {
			t.Fatalf("Del must report 1 removal, got %d", n)
		}
		if _, ok := s.Get(k, nil); ok {
			t.Fatalf("key must be absent after Del")
		}
	})
}
