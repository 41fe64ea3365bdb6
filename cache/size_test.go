package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vmihailenco/msgpack/v5"
)

func TestEstimateSizeMatchesEncoding(t *testing.T) {
	val := map[string]any{"title": "Revenue", "widgets": []string{"chart", "table"}}
	data, err := msgpack.Marshal(val)
	assert.NoError(t, err)
	assert.Equal(t, int64(len(data)), estimateSize(val))
}

func TestEstimateSizeMonotonic(t *testing.T) {
	small := estimateSize("abc")
	large := estimateSize("abcdefghijklmnopqrstuvwxyz")
	assert.Greater(t, large, small)
}

func TestEstimateSizeFallback(t *testing.T) {
	// Functions cannot be serialized; the fallback keeps the Set working.
	assert.Equal(t, int64(FallbackSize), estimateSize(func() {}))
	assert.Equal(t, int64(FallbackSize), estimateSize(make(chan int)))
}
