package cache

import (
	"strconv"
	"strings"
	"sync"
	"testing"
)

// singleShard forces every key into shard 0 so LRU order is exact.
func singleShard(string) uint64 { return 0 }

func TestNew(t *testing.T) {
	c := New[string, int](100, StringHasher)
	if c == nil {
		t.Fatal("New returned nil")
	}
	if c.Capacity() != 100 {
		t.Errorf("expected capacity 100, got %d", c.Capacity())
	}
	if c.TotalCapacity() != 100*ShardCount {
		t.Errorf("expected total capacity %d, got %d", 100*ShardCount, c.TotalCapacity())
	}
	if c.Len() != 0 {
		t.Errorf("expected empty cache, got %d entries", c.Len())
	}
}

func TestNewDefaultCapacity(t *testing.T) {
	c := New[string, int](0, StringHasher)
	if c.Capacity() != DefaultCapacity {
		t.Errorf("expected default capacity %d, got %d", DefaultCapacity, c.Capacity())
	}
}

func TestGetSet(t *testing.T) {
	c := New[string, int](10, StringHasher)

	c.Set("key1", 42)

	val, ok := c.Get("key1")
	if !ok {
		t.Error("expected key1 to exist")
	}
	if val != 42 {
		t.Errorf("expected 42, got %d", val)
	}

	_, ok = c.Get("nonexistent")
	if ok {
		t.Error("expected nonexistent key to not exist")
	}

	// Overwrite updates in place
	c.Set("key1", 43)
	val, _ = c.Get("key1")
	if val != 43 {
		t.Errorf("expected 43 after overwrite, got %d", val)
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 entry after overwrite, got %d", c.Len())
	}
}

func TestDelete(t *testing.T) {
	c := New[string, int](10, StringHasher)

	c.Set("key1", 42)

	if !c.Delete("key1") {
		t.Error("expected Delete to return true for existing key")
	}
	if _, ok := c.Get("key1"); ok {
		t.Error("expected key1 to be deleted")
	}
	if c.Delete("nonexistent") {
		t.Error("expected Delete to return false for non-existing key")
	}
}

func TestDeleteFunc(t *testing.T) {
	c := New[string, int](10, StringHasher)

	c.Set("a|x", 1)
	c.Set("a|y", 2)
	c.Set("b|x", 3)

	removed := c.DeleteFunc(func(key string) bool {
		return strings.HasPrefix(key, "a|")
	})
	if removed != 2 {
		t.Errorf("expected 2 removed, got %d", removed)
	}
	if _, ok := c.Get("a|x"); ok {
		t.Error("expected a|x to be deleted")
	}
	if _, ok := c.Get("a|y"); ok {
		t.Error("expected a|y to be deleted")
	}
	if _, ok := c.Get("b|x"); !ok {
		t.Error("expected b|x to survive")
	}
}

func TestClear(t *testing.T) {
	c := New[string, int](10, StringHasher)

	c.Set("key1", 1)
	c.Set("key2", 2)
	c.Set("key3", 3)

	if c.Len() != 3 {
		t.Errorf("expected 3 entries, got %d", c.Len())
	}

	c.Clear()

	if c.Len() != 0 {
		t.Errorf("expected 0 entries after clear, got %d", c.Len())
	}
}

func TestEvictionLRU(t *testing.T) {
	// All keys land in one shard so eviction order is deterministic.
	c := New[string, int](2, singleShard)

	c.Set("a", 1)
	c.Set("b", 2)

	// Touch a so b becomes the oldest.
	if _, ok := c.Get("a"); !ok {
		t.Fatal("expected a to exist")
	}

	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("expected b to be evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("expected a to survive")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("expected c to exist")
	}
}

func TestStats(t *testing.T) {
	c := New[string, int](2, singleShard)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")       // hit
	c.Get("missing") // miss
	c.Set("c", 3)    // evicts

	stats := c.Stats()
	if stats.Len != 2 {
		t.Errorf("expected Len=2, got %d", stats.Len)
	}
	if stats.Capacity != 2 {
		t.Errorf("expected Capacity=2, got %d", stats.Capacity)
	}
	if stats.Hits != 1 {
		t.Errorf("expected Hits=1, got %d", stats.Hits)
	}
	if stats.Misses != 1 {
		t.Errorf("expected Misses=1, got %d", stats.Misses)
	}
	if stats.HitRate != 0.5 {
		t.Errorf("expected HitRate=0.5, got %f", stats.HitRate)
	}
	if stats.Evictions != 1 {
		t.Errorf("expected Evictions=1, got %d", stats.Evictions)
	}

	c.ResetStats()
	stats = c.Stats()
	if stats.Hits != 0 || stats.Misses != 0 || stats.Evictions != 0 {
		t.Errorf("expected zeroed stats after reset, got %+v", stats)
	}
}

func TestConcurrent(t *testing.T) {
	c := New[string, int](100, StringHasher)
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Set(strconv.Itoa(n*100+j), n*100+j)
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Get(strconv.Itoa(n*100 + j))
			}
		}(i)
	}
	wg.Wait()

	if c.Len() == 0 {
		t.Error("expected non-empty cache after concurrent operations")
	}
}
