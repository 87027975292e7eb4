package cache

import (
	"strings"
	"testing"
	"time"
)

func TestLRUCacheSetGetOverwrite(t *testing.T) {
	c := NewLRUCache[string](4, 0)
	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected miss on empty cache")
	}

	c.Set("a", "1")
	c.Set("a", "2")
	if v, ok := c.Get("a"); !ok || v != "2" {
		t.Fatalf("expected overwritten value, got %q ok=%v", v, ok)
	}
	if c.Size() != 1 {
		t.Fatalf("expected one entry per key, got %d", c.Size())
	}
}

func TestLRUCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache[int](2, 0)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a") // a is now most recent
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatalf("expected b to be evicted")
	}
	for _, k := range []string{"a", "c"} {
		if _, ok := c.Get(k); !ok {
			t.Fatalf("expected %s to survive", k)
		}
	}
}

func TestLRUCacheTTL(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewLRUCache[int](8, time.Minute)
	c.now = func() time.Time { return now }

	c.Set("a", 1)
	c.Set("b", 2)
	now = now.Add(2 * time.Minute)
	c.Set("c", 3)

	if n := c.CleanExpired(); n != 2 {
		t.Fatalf("expected 2 expired entries, got %d", n)
	}
	if _, ok := c.Get("c"); !ok {
		t.Fatalf("fresh entry should survive cleanup")
	}
}

func TestLRUCacheNoTTLNeverExpires(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewLRUCache[int](8, 0)
	c.now = func() time.Time { return now }
	c.Set("a", 1)
	now = now.Add(24 * 365 * time.Hour)
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("entry without ttl should not expire")
	}
}

func TestLRUCacheDeleteFunc(t *testing.T) {
	c := NewLRUCache[int](8, 0)
	c.Set("pages 0", 0)
	c.Set("pages 1", 1)
	c.Set("employees {}", 2)

	if n := c.DeleteFunc(func(k string) bool { return strings.HasPrefix(k, "pages ") }); n != 2 {
		t.Fatalf("expected 2 removals, got %d", n)
	}
	if c.Size() != 1 {
		t.Fatalf("expected 1 entry left, got %d", c.Size())
	}
	c.Delete("employees {}")
	if c.Size() != 0 {
		t.Fatalf("expected empty cache")
	}
}
