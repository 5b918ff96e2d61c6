package core

import "time"

// Expiry is one pending expiration. Entry points at the stored entry the item
// was created for; if the store no longer holds that exact entry the item is
// a tombstone.
type Expiry[K comparable, V any] struct {
	Key       K
	ExpiresAt time.Time
	entry     *Entry[V]
}

// Queue is a FIFO of expirations in non-decreasing ExpiresAt order. Ordering
// holds only because every item is appended with now+ttl for one fixed ttl
// and a monotonic clock.
type Queue[K comparable, V any] struct {
	items []Expiry[K, V]
	head  int
}

// Push appends an expiration at the back.
func (q *Queue[K, V]) Push(e Expiry[K, V]) {
	q.items = append(q.items, e)
}

// Len returns the number of pending items, tombstones included.
func (q *Queue[K, V]) Len() int {
	return len(q.items) - q.head
}

// Front returns the earliest pending item.
func (q *Queue[K, V]) Front() (Expiry[K, V], bool) {
	if q.Len() == 0 {
		return Expiry[K, V]{}, false
	}
	return q.items[q.head], true
}

// Back returns the latest pending item.
func (q *Queue[K, V]) Back() (Expiry[K, V], bool) {
	if q.Len() == 0 {
		return Expiry[K, V]{}, false
	}
	return q.items[len(q.items)-1], true
}

// Pop removes and returns the front item.
func (q *Queue[K, V]) Pop() (Expiry[K, V], bool) {
	e, ok := q.Front()
	if !ok {
		return e, false
	}
	q.items[q.head] = Expiry[K, V]{}
	q.head++
	q.compact()
	return e, true
}

// Reset drops every pending item.
func (q *Queue[K, V]) Reset() {
	q.items = nil
	q.head = 0
}

// compact reclaims the popped prefix once it dominates the backing array.
func (q *Queue[K, V]) compact() {
	if q.head == len(q.items) {
		q.items = q.items[:0]
		q.head = 0
		return
	}
	if q.head >= 64 && q.head*2 >= len(q.items) {
		n := copy(q.items, q.items[q.head:])
		clear(q.items[n:])
		q.items = q.items[:n]
		q.head = 0
	}
}
