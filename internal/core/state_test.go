package core

import (
	"testing"
	"time"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestQueue_FIFO(t *testing.T) {
	var q Queue[string, int]
	if _, ok := q.Pop(); ok {
		t.Fatal("expected empty queue")
	}

	for i := range 200 {
		q.Push(Expiry[string, int]{Key: "k", ExpiresAt: epoch.Add(time.Duration(i) * time.Second)})
	}
	if q.Len() != 200 {
		t.Fatalf("got len %d, want 200", q.Len())
	}

	for i := range 150 {
		e, ok := q.Pop()
		if !ok {
			t.Fatalf("pop %d: expected item", i)
		}
		if want := epoch.Add(time.Duration(i) * time.Second); !e.ExpiresAt.Equal(want) {
			t.Fatalf("pop %d: got %v, want %v", i, e.ExpiresAt, want)
		}
	}

	front, _ := q.Front()
	back, _ := q.Back()
	if !front.ExpiresAt.Equal(epoch.Add(150 * time.Second)) {
		t.Fatalf("unexpected front after compaction: %v", front.ExpiresAt)
	}
	if !back.ExpiresAt.Equal(epoch.Add(199 * time.Second)) {
		t.Fatalf("unexpected back after compaction: %v", back.ExpiresAt)
	}
	if q.Len() != 50 {
		t.Fatalf("got len %d, want 50", q.Len())
	}
}

func TestState_InsertLookup(t *testing.T) {
	s := NewState[string, int]()
	if _, ok := s.Lookup("a"); ok {
		t.Fatal("expected miss on empty state")
	}

	s.Insert("a", 1, time.Time{})
	e, ok := s.Lookup("a")
	if !ok || e.Value != 1 {
		t.Fatalf("expected a=1, got %+v, %v", e, ok)
	}
	if s.Queue().Len() != 0 {
		t.Fatal("entry without expiry must not be queued")
	}
}

func TestState_PurgeExpired(t *testing.T) {
	s := NewState[string, int]()
	s.Insert("a", 1, epoch.Add(time.Second))
	s.Insert("b", 2, epoch.Add(2*time.Second))

	var removed []string
	record := func(k string) { removed = append(removed, k) }

	if n := s.PurgeExpired(epoch, record); n != 0 {
		t.Fatalf("nothing is due yet, purged %d", n)
	}

	// Due exactly at the expiry instant.
	if n := s.PurgeExpired(epoch.Add(time.Second), record); n != 1 {
		t.Fatalf("expected 1 purged, got %d", n)
	}
	if _, ok := s.Lookup("a"); ok {
		t.Fatal("expected a to be purged")
	}
	if _, ok := s.Lookup("b"); !ok {
		t.Fatal("expected b to survive")
	}
	if len(removed) != 1 || removed[0] != "a" {
		t.Fatalf("unexpected removals: %v", removed)
	}
}

func TestState_TombstonesDoNotRemoveNewerEntries(t *testing.T) {
	s := NewState[string, int]()
	s.Insert("a", 1, epoch.Add(time.Second))
	s.Insert("a", 2, epoch.Add(3*time.Second)) // replaces; first queue item is now a tombstone

	var removed int
	s.PurgeExpired(epoch.Add(2*time.Second), func(string) { removed++ })
	if removed != 0 {
		t.Fatalf("tombstone removed a live entry")
	}
	if e, ok := s.Lookup("a"); !ok || e.Value != 2 {
		t.Fatalf("expected a=2 to survive, got %+v, %v", e, ok)
	}
	if s.Queue().Len() != 1 {
		t.Fatalf("tombstone should have been popped, queue len %d", s.Queue().Len())
	}
}

func TestState_RecomputeTracksGrowth(t *testing.T) {
	s := NewState[string, []byte]()
	empty := s.Recompute()
	if empty <= 0 {
		t.Fatalf("empty store should still have a positive header size, got %d", empty)
	}

	cand := EntrySize("k", make([]byte, 1024), time.Time{})
	s.Insert("k", make([]byte, 1024), time.Time{})
	after := s.Recompute()
	if after <= empty {
		t.Fatalf("expected growth after insert: %d -> %d", empty, after)
	}
	if after > empty+cand {
		t.Fatalf("entry size %d is not an upper bound: %d -> %d", cand, empty, after)
	}
	if s.Memory() != after {
		t.Fatalf("Memory() = %d, want snapshot %d", s.Memory(), after)
	}
}

func TestState_RecomputeIsStableWithSharedViews(t *testing.T) {
	backing := make([]int64, 1000)
	s := NewState[int, []int64]()
	s.Insert(0, backing[:1:1], time.Time{})
	s.Insert(1, backing[:1000], time.Time{})
	s.Insert(2, backing[:500], time.Time{})

	want := s.Recompute()
	for range 50 {
		if got := s.Recompute(); got != want {
			t.Fatalf("estimate of an unchanged store moved: %d -> %d", want, got)
		}
	}

	cand := EntrySize(3, backing[:750], time.Time{})
	s.Insert(3, backing[:750], time.Time{})
	if after := s.Recompute(); after > want+cand {
		t.Fatalf("entry size %d is not an upper bound: %d -> %d", cand, want, after)
	}
}

func TestState_Reset(t *testing.T) {
	s := NewState[string, int]()
	s.Insert("a", 1, epoch)
	s.Recompute()
	s.Reset()

	if s.Len() != 0 || s.Queue().Len() != 0 {
		t.Fatalf("expected empty state after reset, len=%d queue=%d", s.Len(), s.Queue().Len())
	}
	if s.Memory() != NewState[string, int]().Memory() {
		t.Fatal("expected memory snapshot to return to the empty baseline")
	}
}
