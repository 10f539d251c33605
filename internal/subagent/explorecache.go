package subagent

import (
	"container/list"
	"os"
	"sync"

	"github.com/krustycode/agentcore/internal/metrics"
)

// MaxCacheEntries bounds both maps in SharedExploreCache (spec §3).
const MaxCacheEntries = 10000

type fileCacheEntry struct {
	path    string
	content string
	mtime   int64
}

type globCacheEntry struct {
	key     globKey
	matches []string
}

type globKey struct {
	pattern string
	baseDir string
}

// SharedExploreCache is scoped to one pool invocation and shared
// read-through by every Explorer in it (spec §3). Both maps are bounded
// with FIFO eviction; file entries are invalidated on mtime mismatch at
// read time.
type SharedExploreCache struct {
	mu sync.Mutex

	files     map[string]*list.Element
	fileOrder *list.List

	globs     map[globKey]*list.Element
	globOrder *list.List

	hits   uint64
	misses uint64
}

// NewSharedExploreCache constructs an empty cache.
func NewSharedExploreCache() *SharedExploreCache {
	return &SharedExploreCache{
		files:     make(map[string]*list.Element),
		fileOrder: list.New(),
		globs:     make(map[globKey]*list.Element),
		globOrder: list.New(),
	}
}

// ReadFile returns cached content for path if present and mtime-valid,
// otherwise reads, caches, and returns the fresh content (spec §3, §8
// invariant 3: cache correctness).
func (c *SharedExploreCache) ReadFile(path string) (string, error) {
	c.mu.Lock()
	if el, ok := c.files[path]; ok {
		entry := el.Value.(*fileCacheEntry)
		info, err := os.Stat(path)
		if err == nil && info.ModTime().Unix() == entry.mtime {
			c.hits++
			content := entry.content
			c.mu.Unlock()
			metrics.CacheResults.WithLabelValues("file", "hit").Inc()
			return content, nil
		}
		// Stale: fall through to re-read under the lock release below.
	}
	c.misses++
	c.mu.Unlock()
	metrics.CacheResults.WithLabelValues("file", "miss").Inc()

	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(path)
	var mtime int64
	if err == nil {
		mtime = info.ModTime().Unix()
	}

	c.mu.Lock()
	c.insertFile(path, string(data), mtime)
	c.mu.Unlock()
	return string(data), nil
}

func (c *SharedExploreCache) insertFile(path, content string, mtime int64) {
	if el, ok := c.files[path]; ok {
		el.Value.(*fileCacheEntry).content = content
		el.Value.(*fileCacheEntry).mtime = mtime
		return
	}
	entry := &fileCacheEntry{path: path, content: content, mtime: mtime}
	el := c.fileOrder.PushFront(entry)
	c.files[path] = el
	if c.fileOrder.Len() > MaxCacheEntries {
		oldest := c.fileOrder.Back()
		c.fileOrder.Remove(oldest)
		delete(c.files, oldest.Value.(*fileCacheEntry).path)
	}
}

// Glob returns cached matches for (pattern, baseDir) if present, else nil
// and false so the caller can compute and Store them.
func (c *SharedExploreCache) Glob(pattern, baseDir string) ([]string, bool) {
	key := globKey{pattern: pattern, baseDir: baseDir}
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.globs[key]
	if !ok {
		c.misses++
		metrics.CacheResults.WithLabelValues("glob", "miss").Inc()
		return nil, false
	}
	c.hits++
	metrics.CacheResults.WithLabelValues("glob", "hit").Inc()
	return el.Value.(*globCacheEntry).matches, true
}

// StoreGlob caches matches for (pattern, baseDir), evicting the oldest
// entry FIFO if the cache is full.
func (c *SharedExploreCache) StoreGlob(pattern, baseDir string, matches []string) {
	key := globKey{pattern: pattern, baseDir: baseDir}
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.globs[key]; ok {
		el.Value.(*globCacheEntry).matches = matches
		return
	}
	entry := &globCacheEntry{key: key, matches: matches}
	el := c.globOrder.PushFront(entry)
	c.globs[key] = el
	if c.globOrder.Len() > MaxCacheEntries {
		oldest := c.globOrder.Back()
		c.globOrder.Remove(oldest)
		delete(c.globs, oldest.Value.(*globCacheEntry).key)
	}
}

// Stats reports hit/miss counters for observability.
func (c *SharedExploreCache) Stats() (hits, misses uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
