package gorawrmemo

import (
	"fmt"
	"strings"
	"time"
)

// Expiry is a pending TTL expiration.
type Expiry struct {
	Key       Key
	ExpiresAt time.Time
}

// Stats is a read-only snapshot of a Memo's store.
type Stats struct {
	// Entries is the number of stored results.
	Entries int
	// MemoryEstimate is the last deep-size estimate of the store in bytes.
	// It is only maintained when MemoryTracked is true.
	MemoryEstimate int64
	MemoryTracked  bool

	TTLEnabled bool
	// QueueLen counts pending expirations, including tombstones for keys that
	// are no longer stored.
	QueueLen  int
	QueueHead *Expiry
	QueueTail *Expiry
}

// Stats returns a snapshot of the store. It never purges or mutates state.
func (m *Memo[R]) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Stats{
		Entries:        m.state.Len(),
		MemoryEstimate: m.memoryLocked(),
		MemoryTracked:  m.cfg.limitMemory,
		TTLEnabled:     m.cfg.ttl > 0,
	}
	if !s.TTLEnabled {
		return s
	}

	q := m.state.Queue()
	s.QueueLen = q.Len()
	if head, ok := q.Front(); ok {
		s.QueueHead = &Expiry{Key: head.Key, ExpiresAt: head.ExpiresAt}
	}
	if tail, ok := q.Back(); ok {
		s.QueueTail = &Expiry{Key: tail.Key, ExpiresAt: tail.ExpiresAt}
	}
	return s
}

// String renders the snapshot as a short multi-line report.
func (s Stats) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "entries: %d\n", s.Entries)
	if s.MemoryTracked {
		fmt.Fprintf(&b, "memory estimate: %d bytes\n", s.MemoryEstimate)
	} else {
		b.WriteString("memory estimate: untracked\n")
	}
	if !s.TTLEnabled {
		b.WriteString("ttl queue: disabled\n")
		return b.String()
	}

	switch s.QueueLen {
	case 0:
		b.WriteString("ttl queue: []\n")
	case 1:
		fmt.Fprintf(&b, "ttl queue: [%s]\n", s.QueueHead)
	case 2:
		fmt.Fprintf(&b, "ttl queue: [%s, %s]\n", s.QueueHead, s.QueueTail)
	default:
		fmt.Fprintf(&b, "ttl queue: [%s, ..., %s]\n", s.QueueHead, s.QueueTail)
	}
	fmt.Fprintf(&b, "ttl queue len: %d\n", s.QueueLen)
	return b.String()
}

func (e *Expiry) String() string {
	return fmt.Sprintf("%s@%s", e.Key, e.ExpiresAt.Format(time.RFC3339Nano))
}
