package cache

import (
	"testing"
	"time"
)

func TestProfileCacheRespectsTTL(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	c, err := New[string, bool](16, 5*time.Minute, clock)
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}

	c.Set("parent:student", true)

	if v, ok := c.Get("parent:student"); !ok || !v {
		t.Fatalf("expected fresh entry to be served, got ok=%v v=%v", ok, v)
	}

	// still inside TTL
	now = now.Add(5 * time.Minute)
	if _, ok := c.Get("parent:student"); !ok {
		t.Fatalf("entry expired before TTL elapsed")
	}

	// past TTL
	now = now.Add(time.Second)
	if _, ok := c.Get("parent:student"); ok {
		t.Fatalf("entry served after TTL elapsed")
	}
}

func TestProfileCacheInvalidate(t *testing.T) {
	c, err := New[string, int](4, time.Minute, nil)
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	c.Set("k", 42)
	c.Invalidate("k")
	if _, ok := c.Get("k"); ok {
		t.Fatalf("invalidated entry still present")
	}
}
