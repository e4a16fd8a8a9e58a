package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetCapacity(t *testing.T) {
	bp := NewBufferPool()

	for _, size := range []int{1, SmallBufferSize, SmallBufferSize + 1, PartBufferSize, PartBufferSize + 1} {
		buf := bp.Get(size)
		assert.Empty(t, buf, "size %d", size)
		assert.GreaterOrEqual(t, cap(buf), size, "size %d", size)
	}
}

func TestPutPoolsGrownPartBuffers(t *testing.T) {
	bp := NewBufferPool()

	// An accumulation buffer that grew past the pool's base size, as happens
	// whenever the configured minimum part size exceeds PartBufferSize.
	grown := make([]byte, 0, 8*1024*1024)
	bp.Put(grown)

	buf := bp.Get(6 * 1024 * 1024)
	require.GreaterOrEqual(t, cap(buf), 6*1024*1024)
	assert.Equal(t, 8*1024*1024, cap(buf), "grown buffer should be reused")
}

func TestPutDropsUndersizedBuffers(t *testing.T) {
	bp := NewBufferPool()

	// Below the small bucket; dropping is the only correct move since a
	// later Get would hand out too little capacity.
	bp.Put(make([]byte, 0, 16))

	buf := bp.Get(SmallBufferSize)
	assert.GreaterOrEqual(t, cap(buf), SmallBufferSize)
}
