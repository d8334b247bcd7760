package cache

import (
	"fmt"
	"testing"
	"time"
)

// fakeClock returns a Store whose clock is controlled by the returned pointer.
func fakeClock(s *Store) *time.Time {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	return &now
}

func TestNewStoreDefaults(t *testing.T) {
	s := NewStore(Options{})
	if s.maxSize != DefaultMaxSize {
		t.Errorf("maxSize = %d, want %d", s.maxSize, DefaultMaxSize)
	}
	if s.defaultTTL != DefaultTTL {
		t.Errorf("defaultTTL = %v, want %v", s.defaultTTL, DefaultTTL)
	}
}

func TestTTLBoundary(t *testing.T) {
	s := NewStore(Options{})
	now := fakeClock(s)
	t0 := *now

	s.Set("calls", "v1", 5000*time.Millisecond)

	*now = t0.Add(4999 * time.Millisecond)
	if _, ok := s.Get("calls"); !ok {
		t.Fatal("expected hit at t0+4999ms")
	}

	*now = t0.Add(5000 * time.Millisecond)
	if _, ok := s.Get("calls"); !ok {
		t.Fatal("expected hit at exactly t0+ttl")
	}

	*now = t0.Add(5001 * time.Millisecond)
	if _, ok := s.Get("calls"); ok {
		t.Fatal("expected miss at t0+5001ms")
	}
	if s.Len() != 0 {
		t.Errorf("expired entry should be removed on read, len = %d", s.Len())
	}
}

func TestExpiredEntryKeptUntilRead(t *testing.T) {
	s := NewStore(Options{})
	now := fakeClock(s)

	s.Set("stats", 1, time.Second)
	*now = now.Add(time.Hour)

	if s.Len() != 1 {
		t.Fatalf("len = %d, want 1 before read", s.Len())
	}
	s.Get("stats")
	if s.Len() != 0 {
		t.Fatalf("len = %d, want 0 after read", s.Len())
	}
}

func TestDefaultTTLApplied(t *testing.T) {
	s := NewStore(Options{DefaultTTL: time.Minute})
	fakeClock(s)

	s.Set("k", "v", 0)
	e, ok := s.Get("k")
	if !ok {
		t.Fatal("expected hit")
	}
	if e.TTL != time.Minute {
		t.Errorf("ttl = %v, want %v", e.TTL, time.Minute)
	}
}

func TestEvictsOldestInserted(t *testing.T) {
	const maxSize = 3
	s := NewStore(Options{MaxSize: maxSize})

	for i := 0; i < maxSize; i++ {
		s.Set(fmt.Sprintf("k%d", i), i, time.Hour)
	}
	// Reading k0 must not protect it: eviction is by insertion, not use.
	s.Get("k0")

	s.Set("k3", 3, time.Hour)

	if got := s.Stats().Evictions; got != 1 {
		t.Fatalf("evictions = %d, want 1", got)
	}
	if _, ok := s.Get("k0"); ok {
		t.Error("expected k0 to be evicted")
	}
	for _, k := range []string{"k1", "k2", "k3"} {
		if _, ok := s.Get(k); !ok {
			t.Errorf("expected %s to be present", k)
		}
	}
}

func TestEvictionSkipsDeletedKeys(t *testing.T) {
	s := NewStore(Options{MaxSize: 2})
	s.Set("a", 1, time.Hour)
	s.Set("b", 2, time.Hour)
	s.Delete("a")
	s.Set("c", 3, time.Hour)
	s.Set("d", 4, time.Hour)

	if _, ok := s.Get("b"); ok {
		t.Error("expected b to be the evicted key")
	}
	if got := s.Stats().Evictions; got != 1 {
		t.Errorf("evictions = %d, want 1", got)
	}
}

func TestRewriteMovesKeyToBack(t *testing.T) {
	s := NewStore(Options{MaxSize: 2})
	s.Set("a", 1, time.Hour)
	s.Set("b", 2, time.Hour)
	s.Set("a", 10, time.Hour)
	s.Set("c", 3, time.Hour)

	if _, ok := s.Get("b"); ok {
		t.Error("expected b to be evicted after a was rewritten")
	}
	e, ok := s.Get("a")
	if !ok || e.Data.(int) != 10 {
		t.Errorf("a = %v (ok=%v), want 10", e.Data, ok)
	}
}

func TestClear(t *testing.T) {
	s := NewStore(Options{})
	s.Set("a", 1, time.Hour)
	s.Get("a")
	s.Clear()

	if s.Len() != 0 {
		t.Errorf("len = %d after clear", s.Len())
	}
	if st := s.Stats(); st.Hits != 0 || st.Misses != 0 {
		t.Errorf("stats not reset: %+v", st)
	}
}

func TestStatsCounts(t *testing.T) {
	s := NewStore(Options{})
	s.Set("a", 1, time.Hour)
	s.Get("a")
	s.Get("a")
	s.Get("missing")

	st := s.Stats()
	if st.Hits != 2 || st.Misses != 1 || st.Size != 1 {
		t.Errorf("stats = %+v, want 2 hits, 1 miss, size 1", st)
	}
}
