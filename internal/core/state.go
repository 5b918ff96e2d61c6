// Package core holds the mutable per-memo state: the key to entry store, the
// expiry queue and the memory estimate snapshot. It performs no locking and no
// admission decisions; callers own both.
package core

import (
	"time"

	"github.com/Keksclan/goRawrMemo/sizeof"
)

// Entry is an admitted result. Entries are never mutated after Insert.
type Entry[V any] struct {
	Value     V
	ExpiresAt time.Time // zero => no expiry
}

// State is the store of one memoized computation.
type State[K comparable, V any] struct {
	entries map[K]*Entry[V]
	queue   Queue[K, V]
	memory  int64
	base    int64
}

// NewState returns an empty state.
func NewState[K comparable, V any]() *State[K, V] {
	s := &State[K, V]{entries: make(map[K]*Entry[V])}
	s.base = sizeof.Estimate(map[K]*Entry[V]{})
	s.memory = s.base
	return s
}

// Len returns the number of live entries.
func (s *State[K, V]) Len() int {
	return len(s.entries)
}

// Lookup returns the live entry for k.
func (s *State[K, V]) Lookup(k K) (*Entry[V], bool) {
	e, ok := s.entries[k]
	return e, ok
}

// Insert stores v under k, replacing any previous entry. A non-zero expiresAt
// is appended to the expiry queue.
func (s *State[K, V]) Insert(k K, v V, expiresAt time.Time) *Entry[V] {
	e := &Entry[V]{Value: v, ExpiresAt: expiresAt}
	s.entries[k] = e
	if !expiresAt.IsZero() {
		s.queue.Push(Expiry[K, V]{Key: k, ExpiresAt: expiresAt, entry: e})
	}
	return e
}

// PurgeExpired pops every queue item due at or before now and removes the
// entry it was created for, if that entry is still stored. removed is called
// for each entry actually deleted; tombstones are dropped silently.
func (s *State[K, V]) PurgeExpired(now time.Time, removed func(K)) int {
	n := 0
	for {
		front, ok := s.queue.Front()
		if !ok || front.ExpiresAt.After(now) {
			return n
		}
		s.queue.Pop()
		if cur, ok := s.entries[front.Key]; ok && cur == front.entry {
			delete(s.entries, front.Key)
			n++
			if removed != nil {
				removed(front.Key)
			}
		}
	}
}

// Recompute re-estimates the whole store with one traversal and stores the
// result as the current snapshot.
func (s *State[K, V]) Recompute() int64 {
	est := sizeof.New()
	total := s.base
	for k, e := range s.entries {
		total += est.Of(k) + est.Of(e)
	}
	s.memory = total
	return total
}

// Memory returns the last snapshot taken by Recompute.
func (s *State[K, V]) Memory() int64 {
	return s.memory
}

// EntrySize estimates what storing v under k adds to the store. It is an
// upper bound of the increase Recompute observes after Insert, because the
// store-wide traversal can only deduplicate more.
func EntrySize[K comparable, V any](k K, v V, expiresAt time.Time) int64 {
	est := sizeof.New()
	return est.Of(k) + est.Of(&Entry[V]{Value: v, ExpiresAt: expiresAt})
}

// Queue returns the expiry queue for inspection.
func (s *State[K, V]) Queue() *Queue[K, V] {
	return &s.queue
}

// Reset drops every entry and pending expiration.
func (s *State[K, V]) Reset() {
	clear(s.entries)
	s.queue.Reset()
	s.memory = s.base
}
