// Package conn implements the per-connection pipeline (C6): the bounded
// write-buffer pool and the read → decode → dispatch → encode → flush
// loop each accepted socket runs as its own cooperative task.
package conn

import "bytes"

// DefaultPoolSize and DefaultBufferSize are the §4.6 buffer-pool defaults:
// 2048 buffers of 16 KiB each.
const (
	DefaultPoolSize   = 2048
	DefaultBufferSize = 16 * 1024
)

// BufferPool is a bounded, channel-backed stack of reusable write buffers.
// Acquire never blocks: when the pool is exhausted it falls back to an
// ad-hoc allocation, trading a GC-visible allocation for availability
// (§4.6, §5's "acquisition is non-blocking").
type BufferPool struct {
	free    chan *bytes.Buffer
	bufSize int
}

// NewBufferPool constructs a pool of size buffers, each bufSize bytes of
// initial capacity. size or bufSize <= 0 select the §4.6 defaults.
func NewBufferPool(size, bufSize int) *BufferPool {
	if size <= 0 {
		size = DefaultPoolSize
	}
	if bufSize <= 0 {
		bufSize = DefaultBufferSize
	}
	p := &BufferPool{
		free:    make(chan *bytes.Buffer, size),
		bufSize: bufSize,
	}
	for i := 0; i < size; i++ {
		p.free <- bytes.NewBuffer(make([]byte, 0, bufSize))
	}
	return p
}

// Acquire returns a reset, ready-to-write buffer. Never blocks.
func (p *BufferPool) Acquire() *bytes.Buffer {
	select {
	case b := <-p.free:
		return b
	default:
		return bytes.NewBuffer(make([]byte, 0, p.bufSize))
	}
}

// Release returns b to the pool after resetting it. If the pool is full
// (more buffers released than Acquire pulled out, or this buffer grew from
// the fallback path) the buffer is simply dropped for the GC to reclaim.
func (p *BufferPool) Release(b *bytes.Buffer) {
	b.Reset()
	select {
	case p.free <- b:
	default:
	}
}
