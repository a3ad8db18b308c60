// Package intpad provides cache-line-padded atomic counters used to avoid
// false sharing between goroutines that update independent counters.
package intpad

import (
	"sync/atomic"
	"unsafe"
)

// CacheLineSize is a reasonable default for most modern CPUs. The standard
// library's runtime/internal/sys.CacheLineSize is unexported; 64 works well
// in practice.
const CacheLineSize = 64

// PaddedInt64 is an atomic int64 padded to exactly one cache line. Use one
// per hot counter when many goroutines update different counters that would
// otherwise land on the same line.
type PaddedInt64 struct {
	atomic.Int64
	_ [CacheLineSize - 8]byte
}

// PaddedUint64 is the uint64 counterpart.
type PaddedUint64 struct {
	atomic.Uint64
	_ [CacheLineSize - 8]byte
}

// ---- compile-time size checks (must be exactly one cache line) ----
var (
	_ [CacheLineSize - int(unsafe.Sizeof(PaddedInt64{}))]byte
	_ [CacheLineSize - int(unsafe.Sizeof(PaddedUint64{}))]byte
)
