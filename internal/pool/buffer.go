// Package pool provides memory management optimizations.
// This includes reuse of part-sized accumulation buffers to reduce
// allocations during multipart transfers.
package pool

import (
	"sync"
)

const (
	// SmallBufferSize defines the size for small buffers (64KB)
	SmallBufferSize = 64 * 1024
	// PartBufferSize defines the size for part accumulation buffers (5MB).
	// Matches the default minimum part size of the multipart engine so a
	// typical part accumulates without reallocating.
	PartBufferSize = 5 * 1024 * 1024
)

// BufferPool manages reusable byte buffers of different sizes.
type BufferPool struct {
	small *sync.Pool
	part  *sync.Pool
}

// NewBufferPool creates a new buffer pool with default sizes.
func NewBufferPool() *BufferPool {
	return &BufferPool{
		small: &sync.Pool{
			New: func() interface{} {
				buf := make([]byte, 0, SmallBufferSize)
				return &buf
			},
		},
		part: &sync.Pool{
			New: func() interface{} {
				buf := make([]byte, 0, PartBufferSize)
				return &buf
			},
		},
	}
}

// Get returns a zero-length buffer with at least the requested capacity.
// Requests above PartBufferSize are served from the part pool when a
// previously grown buffer is large enough, and allocated fresh otherwise.
func (bp *BufferPool) Get(size int) []byte {
	if size <= SmallBufferSize {
		bufPtr := bp.small.Get().(*[]byte)
		return (*bufPtr)[:0]
	}

	bufPtr := bp.part.Get().(*[]byte)
	if cap(*bufPtr) >= size {
		return (*bufPtr)[:0]
	}
	bp.part.Put(bufPtr)
	return make([]byte, 0, size)
}

// Put returns a buffer to the appropriate pool based on its capacity.
// Accumulation buffers grow past their initial capacity before carving, so
// buckets match on a minimum capacity rather than an exact size.
// The buffer must not be used after calling Put.
func (bp *BufferPool) Put(buf []byte) {
	buf = buf[:0]
	switch {
	case cap(buf) >= PartBufferSize:
		bp.part.Put(&buf)
	case cap(buf) >= SmallBufferSize:
		bp.small.Put(&buf)
		// Undersized buffers are dropped rather than pooled
	}
}

// Global buffer pool instance for use throughout the module.
var globalBufferPool = NewBufferPool()

// Get returns a buffer from the global pool with at least the requested capacity.
func Get(size int) []byte {
	return globalBufferPool.Get(size)
}

// Put returns a buffer to the global pool.
func Put(buf []byte) {
	globalBufferPool.Put(buf)
}
