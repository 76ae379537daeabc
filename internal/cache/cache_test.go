package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryGetSet(t *testing.T) {
	c := NewMemory(time.Minute)
	ctx := context.Background()

	if _, ok := c.Get(ctx, "d1"); ok {
		t.Fatalf("empty cache returned a hit")
	}

	if err := c.Set(ctx, "d1", "tok-1"); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	got, ok := c.Get(ctx, "d1")
	if !ok || got != "tok-1" {
		t.Fatalf("got (%q, %v), want (%q, true)", got, ok, "tok-1")
	}
}

func TestMemoryExpiry(t *testing.T) {
	c := NewMemory(10 * time.Millisecond)
	ctx := context.Background()

	if err := c.Set(ctx, "d1", "tok-1"); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	time.Sleep(25 * time.Millisecond)

	if _, ok := c.Get(ctx, "d1"); ok {
		t.Fatalf("expired entry returned a hit")
	}
}

func TestMemoryDelete(t *testing.T) {
	c := NewMemory(time.Minute)
	ctx := context.Background()

	_ = c.Set(ctx, "d1", "tok-1")

	if err := c.Delete(ctx, "d1"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	if _, ok := c.Get(ctx, "d1"); ok {
		t.Fatalf("deleted entry returned a hit")
	}
}
