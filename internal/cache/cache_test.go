package cache

import (
	"testing"
	"time"

	"github.com/stillhq/still/internal/forum"
)

func TestSetGet(t *testing.T) {
	c := NewDefault()

	c.Set("post-1", forum.StateVerified)
	state, ok := c.Get("post-1")
	if !ok || state != forum.StateVerified {
		t.Fatalf("Get = %v, %v; want VERIFIED, true", state, ok)
	}

	if _, ok := c.Get("post-2"); ok {
		t.Fatal("Get on unknown key should miss")
	}
}

func TestOverwrite(t *testing.T) {
	c := NewDefault()

	c.Set("post-1", forum.StateVerified)
	c.Set("post-1", forum.StateOutdated)

	state, ok := c.Get("post-1")
	if !ok || state != forum.StateOutdated {
		t.Fatalf("Get = %v, %v; want OUTDATED, true", state, ok)
	}
	if c.Size() != 1 {
		t.Errorf("Size = %d, want 1", c.Size())
	}
}

func TestTTLExpiry(t *testing.T) {
	c := NewDefault()

	c.SetWithTTL("post-1", forum.StateVerified, 10*time.Millisecond)
	time.Sleep(25 * time.Millisecond)

	// The entry is still physically present until a read evicts it.
	if c.Size() != 1 {
		t.Fatalf("Size before read = %d, want 1", c.Size())
	}
	if _, ok := c.Get("post-1"); ok {
		t.Fatal("expired entry should be absent")
	}
	if c.Size() != 0 {
		t.Errorf("Size after read = %d, want 0 (evicted)", c.Size())
	}
}

func TestInvalidate(t *testing.T) {
	c := NewDefault()

	c.Set("post-1", forum.StateVerified)
	c.Invalidate("post-1")

	if _, ok := c.Get("post-1"); ok {
		t.Fatal("invalidated entry should be absent immediately")
	}
}

func TestInvalidateThreadClearsAll(t *testing.T) {
	c := NewDefault()

	c.Set("post-1", forum.StateVerified)
	c.Set("post-2", forum.StatePossiblyOutdated)

	c.InvalidateThread("thread-1")

	if c.Size() != 0 {
		t.Errorf("Size = %d, want 0 after thread invalidation", c.Size())
	}
}

func TestClear(t *testing.T) {
	c := NewDefault()

	c.Set("post-1", forum.StateVerified)
	c.Set("post-2", forum.StateOutdated)
	c.Clear()

	if c.Size() != 0 {
		t.Errorf("Size = %d, want 0", c.Size())
	}
	if _, ok := c.Get("post-1"); ok {
		t.Fatal("cleared entry should be absent")
	}
}

func TestDefaultTTLApplied(t *testing.T) {
	c := New(20 * time.Millisecond)

	c.Set("post-1", forum.StateVerified)
	if _, ok := c.Get("post-1"); !ok {
		t.Fatal("fresh entry should be present")
	}

	time.Sleep(35 * time.Millisecond)
	if _, ok := c.Get("post-1"); ok {
		t.Fatal("entry should expire after the default TTL")
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := NewDefault()
	done := make(chan struct{})

	go func() {
		for i := 0; i < 500; i++ {
			c.Set("post-1", forum.StateVerified)
		}
		close(done)
	}()
	for i := 0; i < 500; i++ {
		c.Get("post-1")
		c.Invalidate("post-1")
	}
	<-done
}
