package vfs

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingFS is an in-memory provider that counts ReadFile calls and can
// delay them to widen race windows.
type countingFS struct {
	mu    sync.Mutex
	data  map[string][]byte
	reads atomic.Int64
	delay time.Duration
}

var _ FileSystem = (*countingFS)(nil)

func newCountingFS(data map[string][]byte) *countingFS {
	return &countingFS{data: data}
}

func (f *countingFS) FolderExists(string) bool { return false }

func (f *countingFS) FileExists(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.data[name]
	return ok
}

func (f *countingFS) ReadFile(name string) Blob {
	f.reads.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.data[name]
	if !ok {
		return nil
	}
	return NewBlob(data)
}

func (f *countingFS) WriteFile(name string, data []byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[name] = data
	return true
}

func (f *countingFS) EnumerateFiles(_ string, _ []string, cb EnumerateFunc, _ bool) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	for name := range f.data {
		cb(name)
	}
	return len(f.data)
}

func (f *countingFS) EnumerateDirectories(string, EnumerateFunc, bool) int {
	return 0
}

func TestCacheLayerReadThrough(t *testing.T) {
	t.Parallel()

	inner := newCountingFS(map[string][]byte{"a.bin": []byte("payload")})
	cache := NewCacheLayer(inner)

	first := cache.ReadFile("a.bin")
	require.NotNil(t, first)
	assert.Equal(t, []byte("payload"), first.Bytes())
	assert.EqualValues(t, 1, inner.reads.Load())

	// second read is served from the cache, returning the shared blob
	second := cache.ReadFile("a.bin")
	require.NotNil(t, second)
	assert.Same(t, first, second)
	assert.EqualValues(t, 1, inner.reads.Load())

	assert.Equal(t, int64(7), cache.CachedBytes())
}

func TestCacheLayerAbsentNotCached(t *testing.T) {
	t.Parallel()

	inner := newCountingFS(map[string][]byte{})
	cache := NewCacheLayer(inner)

	assert.Nil(t, cache.ReadFile("nope"))
	assert.Nil(t, cache.ReadFile("nope"))

	// each miss consults the inner provider again
	assert.EqualValues(t, 2, inner.reads.Load())
	assert.Equal(t, int64(0), cache.CachedBytes())
}

func TestCacheLayerMissStormCollapses(t *testing.T) {
	t.Parallel()

	inner := newCountingFS(map[string][]byte{"hot.bin": []byte("contended")})
	inner.delay = 50 * time.Millisecond
	cache := NewCacheLayer(inner)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			blob := cache.ReadFile("hot.bin")
			assert.NotNil(t, blob)
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, inner.reads.Load())
}

func TestCacheLayerWriteInvalidates(t *testing.T) {
	t.Parallel()

	inner := newCountingFS(map[string][]byte{"cfg.json": []byte("old")})
	cache := NewCacheLayer(inner)

	require.NotNil(t, cache.ReadFile("cfg.json"))
	require.True(t, cache.WriteFile("cfg.json", []byte("new")))

	blob := cache.ReadFile("cfg.json")
	require.NotNil(t, blob)
	assert.Equal(t, []byte("new"), blob.Bytes())
	assert.EqualValues(t, 2, inner.reads.Load())
}

func TestCacheLayerWriteInvalidatesLogicalName(t *testing.T) {
	t.Parallel()

	inner := newCountingFS(map[string][]byte{"asset.bin": []byte("old")})
	cache := NewCacheLayer(inner)

	require.NotNil(t, cache.ReadFile("asset.bin"))

	// writing the compressed physical form drops the logical entry too
	require.True(t, cache.WriteFile("asset.bin"+CompressedFileSuffix, []byte("frame")))
	assert.Equal(t, int64(0), cache.CachedBytes())
}

func TestCacheLayerEviction(t *testing.T) {
	t.Parallel()

	data := make(map[string][]byte)
	for i := 0; i < 4; i++ {
		data[fmt.Sprintf("f%d", i)] = make([]byte, 100)
	}
	inner := newCountingFS(data)
	cache := NewCacheLayer(inner, WithCacheSize(250))

	// fill: f0 and f1 fit, f2 evicts f0
	require.NotNil(t, cache.ReadFile("f0"))
	require.NotNil(t, cache.ReadFile("f1"))
	require.NotNil(t, cache.ReadFile("f2"))
	assert.Equal(t, int64(200), cache.CachedBytes())

	reads := inner.reads.Load()
	require.NotNil(t, cache.ReadFile("f0"))
	assert.Equal(t, reads+1, inner.reads.Load(), "f0 should have been evicted")

	reads = inner.reads.Load()
	require.NotNil(t, cache.ReadFile("f2"))
	assert.Equal(t, reads, inner.reads.Load(), "f2 should still be cached")
}

func TestCacheLayerOversizeBlobBypasses(t *testing.T) {
	t.Parallel()

	inner := newCountingFS(map[string][]byte{"big.bin": make([]byte, 1000)})
	cache := NewCacheLayer(inner, WithCacheSize(100))

	require.NotNil(t, cache.ReadFile("big.bin"))
	assert.Equal(t, int64(0), cache.CachedBytes())
}

func TestCacheLayerDelegates(t *testing.T) {
	t.Parallel()

	inner := newCountingFS(map[string][]byte{"a.txt": []byte("x")})
	cache := NewCacheLayer(inner)

	assert.True(t, cache.FileExists("a.txt"))
	assert.False(t, cache.FolderExists("a.txt"))

	var names []string
	result := cache.EnumerateFiles("", nil, EnumerateToSlice(&names), false)
	assert.Equal(t, 1, result)
	assert.Equal(t, []string{"a.txt"}, names)
}

func TestCacheLayerNilPanics(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		NewCacheLayer(nil)
	})
}
