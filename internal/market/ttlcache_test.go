package market

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTLCacheExpiry(t *testing.T) {
	c := NewTTLCache[int](0, 50*time.Millisecond)

	c.Set("a", 1)
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	assert.Eventually(t, func() bool {
		_, ok := c.Get("a")
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestTTLCacheBoundedBySize(t *testing.T) {
	c := NewTTLCache[string](2, time.Minute)
	c.Set("So11111111111111111111111111111111111111112", "sol")
	c.Set("mintB", "b")
	_, _ = c.Get("So11111111111111111111111111111111111111112")
	c.Set("mintC", "c")

	assert.Equal(t, 2, c.Len())
	_, ok := c.Get("mintB")
	assert.False(t, ok, "least recently used entry is evicted")
	v, ok := c.Get("So11111111111111111111111111111111111111112")
	require.True(t, ok)
	assert.Equal(t, "sol", v)
}

func TestTTLCacheCollapsesConcurrentLoads(t *testing.T) {
	c := NewTTLCache[string](0, time.Minute)
	var calls int32
	release := make(chan struct{})

	load := func(context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return "v", nil
	}

	var wg sync.WaitGroup
	results := make([]string, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.GetOrLoad(context.Background(), "k", load)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for _, r := range results {
		assert.Equal(t, "v", r)
	}
}

func TestTTLCacheDoesNotStoreErrors(t *testing.T) {
	c := NewTTLCache[int](0, time.Minute)
	_, err := c.GetOrLoad(context.Background(), "k", func(context.Context) (int, error) {
		return 0, errors.New("boom")
	})
	require.Error(t, err)
	assert.Equal(t, 0, c.Len())

	v, err := c.GetOrLoad(context.Background(), "k", func(context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}
