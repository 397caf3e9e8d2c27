package cache

import (
	"testing"
	"time"
)

func TestTTLCache_Eviction(t *testing.T) {
	c := New[string](3, time.Hour)

	c.Set("key1", "value1")
	c.Set("key2", "value2")
	c.Set("key3", "value3")
	c.Set("key4", "value4")

	if _, found := c.Get("key1"); found {
		t.Error("key1 should have been evicted as least recently used")
	}
	for _, key := range []string{"key2", "key3", "key4"} {
		if _, found := c.Get(key); !found {
			t.Errorf("%s should still exist", key)
		}
	}
}

func TestTTLCache_Expiration(t *testing.T) {
	c := New[string](100, 50*time.Millisecond)

	c.Set("key1", "value1")
	if _, found := c.Get("key1"); !found {
		t.Fatal("key1 should exist immediately")
	}

	time.Sleep(60 * time.Millisecond)

	if _, found := c.Get("key1"); found {
		t.Error("key1 should have expired")
	}
}

func TestTTLCache_CleanExpired(t *testing.T) {
	c := New[string](100, 50*time.Millisecond)

	c.Set("key1", "value1")
	c.Set("key2", "value2")
	c.Set("key3", "value3")

	time.Sleep(60 * time.Millisecond)

	if removed := c.cleanExpired(); removed != 3 {
		t.Errorf("cleaned %d items, want 3", removed)
	}
	if c.Size() != 0 {
		t.Errorf("size after cleanup = %d, want 0", c.Size())
	}
}

func TestTTLCache_Invalidate(t *testing.T) {
	c := New[int](100, time.Hour)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Invalidate()

	if c.Size() != 0 {
		t.Errorf("size after invalidate = %d, want 0", c.Size())
	}
	if _, found := c.Get("a"); found {
		t.Error("invalidated entry must not be served")
	}
}

func TestTTLCache_SetOverwrites(t *testing.T) {
	c := New[int](2, time.Hour)

	c.Set("a", 1)
	c.Set("a", 2)

	got, found := c.Get("a")
	if !found || got != 2 {
		t.Errorf("got %d found %v, want 2", got, found)
	}
	if c.Size() != 1 {
		t.Errorf("size = %d, want 1", c.Size())
	}
}
