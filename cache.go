package tshader

import (
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/gogpu/tshader/cache"
)

// variantCache memoizes compiled variants. Storage is the sharded LRU
// from the cache package; a singleflight group collapses concurrent
// misses for one key into a single compilation whose result every
// caller shares. Failed compilations are never stored.
type variantCache struct {
	store *cache.Cache[string, *Variant]
	group singleflight.Group
}

// variantKey builds the cache key for one (template, flag set) pair.
// The "|" separator cannot occur in flag names, so keys are unambiguous
// and Invalidate can match by prefix.
func variantKey(path string, flags FlagSet) string {
	return path + "|" + flags.Key()
}

func (vc *variantCache) init(totalCapacity int) {
	perShard := (totalCapacity + cache.ShardCount - 1) / cache.ShardCount
	vc.store = cache.New[string, *Variant](perShard, cache.StringHasher)
}

// get returns the cached variant for (path, flags) or compiles it.
func (vc *variantCache) get(path string, flags FlagSet, compile func(path string, flags FlagSet, key string) (*Variant, error)) (*Variant, error) {
	key := variantKey(path, flags)
	if v, ok := vc.store.Get(key); ok {
		return v, nil
	}

	v, err, _ := vc.group.Do(key, func() (any, error) {
		// Re-check: another goroutine may have stored the variant
		// between the miss above and joining the flight.
		if v, ok := vc.store.Get(key); ok {
			return v, nil
		}
		variant, err := compile(path, flags, key)
		if err != nil {
			return nil, err
		}
		vc.store.Set(key, variant)
		return variant, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Variant), nil
}

// Invalidate drops every cached variant compiled from the template at
// path; the next Compile recompiles. Returns the number of variants
// dropped. Changing an include shared by several templates requires
// invalidating each dependent template, or InvalidateAll.
func (c *Compiler) Invalidate(path string) int {
	prefix := path + "|"
	return c.vc.store.DeleteFunc(func(key string) bool {
		return strings.HasPrefix(key, prefix)
	})
}

// InvalidateAll drops every cached variant.
func (c *Compiler) InvalidateAll() {
	c.vc.store.Clear()
}

// CacheStats returns hit, miss, and eviction counters of the variant
// cache.
func (c *Compiler) CacheStats() cache.Stats {
	return c.vc.store.Stats()
}
