package cache

import (
	"fmt"
	"sync"
	"testing"
)

func TestShardedGetSet(t *testing.T) {
	c := NewSharded[string, int](4, StringHasher)

	if _, ok := c.Get("missing"); ok {
		t.Error("Get(missing) ok = true")
	}
	c.Set("a", 1)
	c.Set("a", 2)
	if v, ok := c.Get("a"); !ok || v != 2 {
		t.Errorf("Get(a) = %d, %v, want 2, true", v, ok)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
	if !c.Delete("a") {
		t.Error("Delete(a) = false")
	}
	if c.Delete("a") {
		t.Error("second Delete(a) = true")
	}

	st := c.Stats()
	if st.Hits != 1 || st.Misses != 1 {
		t.Errorf("Stats() hits/misses = %d/%d, want 1/1", st.Hits, st.Misses)
	}
}

func TestShardedEviction(t *testing.T) {
	// A constant hasher puts every key in one shard.
	c := NewSharded[string, int](2, func(string) uint64 { return 0 })
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a") // b is now least recently used
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("b survived eviction")
	}
	for _, k := range []string{"a", "c"} {
		if _, ok := c.Get(k); !ok {
			t.Errorf("%s was evicted", k)
		}
	}
	if got := c.Stats().Evictions; got != 1 {
		t.Errorf("Evictions = %d, want 1", got)
	}
}

func TestShardedDefaultCapacity(t *testing.T) {
	c := NewSharded[string, int](0, StringHasher)
	if c.capacity != DefaultCapacity {
		t.Errorf("capacity = %d, want %d", c.capacity, DefaultCapacity)
	}
}

func TestShardedConcurrent(t *testing.T) {
	c := NewSharded[string, int](1024, StringHasher)
	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 200 {
				k := fmt.Sprintf("k%d", (g*200+i)%300)
				c.Set(k, i)
				c.Get(k)
			}
		}()
	}
	wg.Wait()
	if c.Len() != 300 {
		t.Errorf("Len() = %d, want 300", c.Len())
	}
}
