// Package cache provides a sharded, thread-safe LRU cache.
//
//	c := cache.NewSharded[string, string](64, cache.StringHasher)
//	c.Set("key", "value")
//	v, ok := c.Get("key")
package cache

import (
	"hash/fnv"
	"sync"
	"sync/atomic"
)

const (
	// ShardCount is the number of shards. Must be a power of 2.
	ShardCount = 8

	// DefaultCapacity is the default maximum entries per shard.
	DefaultCapacity = 128

	shardMask = ShardCount - 1
)

// Hasher computes the shard hash of a key.
type Hasher[K any] func(K) uint64

// StringHasher computes the FNV-1a hash of a string key.
func StringHasher(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s)) // fnv.Write never returns an error
	return h.Sum64()
}

// Sharded is a thread-safe LRU cache split into ShardCount shards, each with
// its own lock and capacity.
type Sharded[K comparable, V any] struct {
	shards   [ShardCount]shard[K, V]
	hasher   Hasher[K]
	capacity int

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

type shard[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]*entry[K, V]
	order   lru[K, V]
}

// NewSharded creates a cache holding at most capacity entries per shard.
// If capacity <= 0, DefaultCapacity is used.
func NewSharded[K comparable, V any](capacity int, hasher Hasher[K]) *Sharded[K, V] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	c := &Sharded[K, V]{hasher: hasher, capacity: capacity}
	for i := range c.shards {
		c.shards[i].entries = make(map[K]*entry[K, V])
	}
	return c
}

func (c *Sharded[K, V]) shardFor(key K) *shard[K, V] {
	return &c.shards[c.hasher(key)&shardMask]
}

// Get returns the value for key and marks it most recently used.
func (c *Sharded[K, V]) Get(key K) (V, bool) {
	s := c.shardFor(key)
	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok {
		s.mu.Unlock()
		c.misses.Add(1)
		var zero V
		return zero, false
	}
	s.order.touch(e)
	v := e.value
	s.mu.Unlock()

	c.hits.Add(1)
	return v, true
}

// Set stores value under key, evicting the least recently used entries of
// the shard when it is full.
func (c *Sharded[K, V]) Set(key K, value V) {
	s := c.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[key]; ok {
		e.value = value
		s.order.touch(e)
		return
	}

	for s.order.len() >= c.capacity {
		old := s.order.popBack()
		if old == nil {
			break
		}
		delete(s.entries, old.key)
		c.evictions.Add(1)
	}

	e := &entry[K, V]{key: key, value: value}
	s.order.pushFront(e)
	s.entries[key] = e
}

// Delete removes key. Returns true if it was present.
func (c *Sharded[K, V]) Delete(key K) bool {
	s := c.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return false
	}
	s.order.remove(e)
	delete(s.entries, key)
	return true
}

// Len returns the number of entries across all shards.
func (c *Sharded[K, V]) Len() int {
	n := 0
	for i := range c.shards {
		s := &c.shards[i]
		s.mu.Lock()
		n += len(s.entries)
		s.mu.Unlock()
	}
	return n
}

// Stats holds cache counters.
type Stats struct {
	Len       int
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// Stats returns a snapshot of the cache counters.
func (c *Sharded[K, V]) Stats() Stats {
	return Stats{
		Len:       c.Len(),
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}
