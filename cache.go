package vfs

import (
	"container/list"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// CacheLayer decorates another provider with a size-bounded, read-through
// blob cache.
//
// Hits return the shared immutable Blob without touching the inner
// provider. Concurrent misses for the same name are deduplicated with
// singleflight so a cache-miss storm performs one inner read. Absent files
// are not cached; WriteFile invalidates both the logical name and its
// compressed-suffix form before writing through.
type CacheLayer struct {
	fs     FileSystem
	logger *slog.Logger
	group  singleflight.Group

	mu       sync.Mutex
	maxBytes int64
	curBytes int64
	items    map[string]*list.Element
	evict    *list.List // front is most recently used
}

type cacheItem struct {
	name string
	blob Blob
}

// Interface compliance.
var _ FileSystem = (*CacheLayer)(nil)

// NewCacheLayer decorates fs with a read-through cache bounded by
// WithCacheSize (default DefaultCacheSize bytes). It panics if fs is nil.
func NewCacheLayer(fs FileSystem, opts ...Option) *CacheLayer {
	if fs == nil {
		panic("vfs: nil file system passed to NewCacheLayer")
	}

	o := applyOptions(opts)
	return &CacheLayer{
		fs:       fs,
		logger:   o.logger,
		maxBytes: o.cacheBytes,
		items:    make(map[string]*list.Element),
		evict:    list.New(),
	}
}

// CachedBytes returns the total size of currently cached blobs.
func (c *CacheLayer) CachedBytes() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.curBytes
}

func (c *CacheLayer) FolderExists(name string) bool {
	return c.fs.FolderExists(name)
}

func (c *CacheLayer) FileExists(name string) bool {
	return c.fs.FileExists(name)
}

func (c *CacheLayer) ReadFile(name string) Blob {
	// fast path, avoids singleflight overhead
	if blob, ok := c.get(name); ok {
		return blob
	}

	v, _, _ := c.group.Do(name, func() (any, error) {
		// double-check: another caller may have populated the entry
		// between our cache check and acquiring the singleflight lock
		if blob, ok := c.get(name); ok {
			return blob, nil
		}
		blob := c.fs.ReadFile(name)
		if blob != nil {
			c.put(name, blob)
		}
		return blob, nil
	})

	if v == nil {
		return nil
	}
	return v.(Blob)
}

// WriteFile invalidates the cached forms of name and writes through.
func (c *CacheLayer) WriteFile(name string, data []byte) bool {
	c.invalidate(name)
	c.invalidate(strings.TrimSuffix(name, CompressedFileSuffix))
	return c.fs.WriteFile(name, data)
}

func (c *CacheLayer) EnumerateFiles(path string, extensions []string, cb EnumerateFunc, allowDuplicates bool) int {
	return c.fs.EnumerateFiles(path, extensions, cb, allowDuplicates)
}

func (c *CacheLayer) EnumerateDirectories(path string, cb EnumerateFunc, allowDuplicates bool) int {
	return c.fs.EnumerateDirectories(path, cb, allowDuplicates)
}

func (c *CacheLayer) get(name string) (Blob, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[name]
	if !ok {
		return nil, false
	}
	c.evict.MoveToFront(elem)
	return elem.Value.(*cacheItem).blob, true
}

func (c *CacheLayer) put(name string, blob Blob) {
	size := int64(blob.Size())
	if size > c.maxBytes {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[name]; ok {
		c.curBytes -= int64(elem.Value.(*cacheItem).blob.Size())
		c.evict.Remove(elem)
		delete(c.items, name)
	}

	for c.curBytes+size > c.maxBytes {
		oldest := c.evict.Back()
		if oldest == nil {
			break
		}
		item := oldest.Value.(*cacheItem)
		c.curBytes -= int64(item.blob.Size())
		c.evict.Remove(oldest)
		delete(c.items, item.name)
	}

	c.items[name] = c.evict.PushFront(&cacheItem{name: name, blob: blob})
	c.curBytes += size
}

func (c *CacheLayer) invalidate(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[name]; ok {
		c.curBytes -= int64(elem.Value.(*cacheItem).blob.Size())
		c.evict.Remove(elem)
		delete(c.items, name)
	}
}
