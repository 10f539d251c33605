package subagent

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSharedExploreCacheReadFileCachesAndHits(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	cache := NewSharedExploreCache()
	content, err := cache.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if content != "hello" {
		t.Fatalf("got %q, want %q", content, "hello")
	}

	content, err = cache.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if content != "hello" {
		t.Fatalf("second read got %q, want %q", content, "hello")
	}

	hits, misses := cache.Stats()
	if hits != 1 || misses != 1 {
		t.Errorf("hits=%d misses=%d, want hits=1 misses=1", hits, misses)
	}
}

func TestSharedExploreCacheInvalidatesOnMtimeChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(path, []byte("v1"), 0o644); err != nil {
		t.Fatal(err)
	}

	cache := NewSharedExploreCache()
	if _, err := cache.ReadFile(path); err != nil {
		t.Fatal(err)
	}

	// Force a distinct mtime so the cache observes a change.
	future := time.Now().Add(2 * time.Second)
	if err := os.WriteFile(path, []byte("v2"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatal(err)
	}

	content, err := cache.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if content != "v2" {
		t.Errorf("got %q, want %q after mtime change", content, "v2")
	}
}

func TestSharedExploreCacheGlobRoundTrip(t *testing.T) {
	cache := NewSharedExploreCache()
	if _, ok := cache.Glob("*.go", "/tmp"); ok {
		t.Fatal("expected miss before Store")
	}
	cache.StoreGlob("*.go", "/tmp", []string{"a.go", "b.go"})

	matches, ok := cache.Glob("*.go", "/tmp")
	if !ok {
		t.Fatal("expected hit after Store")
	}
	if len(matches) != 2 {
		t.Errorf("got %d matches, want 2", len(matches))
	}
}

func TestSharedExploreCacheFileEvictsOldestBeyondBound(t *testing.T) {
	cache := NewSharedExploreCache()
	dir := t.TempDir()

	// insertFile does not touch the filesystem, so synthetic paths can
	// fill the cache one entry past MaxCacheEntries directly.
	first := filepath.Join(dir, "f0")
	for i := 0; i <= MaxCacheEntries; i++ {
		cache.insertFile(filepath.Join(dir, fmt.Sprintf("f%d", i)), "x", 0)
	}
	if cache.fileOrder.Len() != MaxCacheEntries {
		t.Errorf("fileOrder length = %d, want %d", cache.fileOrder.Len(), MaxCacheEntries)
	}
	if _, ok := cache.files[first]; ok {
		t.Errorf("expected oldest entry %s to be evicted", first)
	}
}

func TestSharedExploreCacheReadFileHitPreservesFIFOOrder(t *testing.T) {
	dir := t.TempDir()
	cache := NewSharedExploreCache()

	pathA := filepath.Join(dir, "a.txt")
	pathB := filepath.Join(dir, "b.txt")
	if err := os.WriteFile(pathA, []byte("a"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(pathB, []byte("b"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := cache.ReadFile(pathA); err != nil {
		t.Fatal(err)
	}
	if _, err := cache.ReadFile(pathB); err != nil {
		t.Fatal(err)
	}

	// Re-reading a (a cache hit) must not move it ahead of b in eviction
	// order: FIFO evicts by insertion order, not recency of use.
	if _, err := cache.ReadFile(pathA); err != nil {
		t.Fatal(err)
	}

	oldest := cache.fileOrder.Back()
	if oldest.Value.(*fileCacheEntry).path != pathA {
		t.Fatalf("expected %s to remain the oldest entry after a hit, got %s", pathA, oldest.Value.(*fileCacheEntry).path)
	}
}

func TestSharedExploreCacheGlobHitPreservesFIFOOrder(t *testing.T) {
	cache := NewSharedExploreCache()
	cache.StoreGlob("*.go", "/tmp/a", []string{"a.go"})
	cache.StoreGlob("*.go", "/tmp/b", []string{"b.go"})

	if _, ok := cache.Glob("*.go", "/tmp/a"); !ok {
		t.Fatal("expected hit")
	}

	oldest := cache.globOrder.Back()
	if oldest.Value.(*globCacheEntry).key.baseDir != "/tmp/a" {
		t.Fatalf("expected /tmp/a to remain the oldest entry after a hit, got %s", oldest.Value.(*globCacheEntry).key.baseDir)
	}
}
