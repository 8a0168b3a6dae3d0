// Package cache provides a generic sharded LRU cache.
//
// The compiler stores compiled shader variants here, keyed by template
// path and canonical flag key, but the cache itself is type-agnostic:
//
//	c := cache.New[string, int](16, cache.StringHasher)
//	c.Set("key", 42)
//	value, ok := c.Get("key")
//
// Keys spread over 16 shards, each with its own lock and LRU order, so
// concurrent access to different keys rarely contends. Eviction is per
// shard: when a shard is full, its least recently used entry goes
// first.
//
// # Thread Safety
//
// Cache is safe for concurrent use. It must not be copied after
// creation (it contains mutexes).
package cache
