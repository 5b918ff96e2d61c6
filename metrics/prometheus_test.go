package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPrometheus_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	p, err := NewPrometheus(reg, "double")
	if err != nil {
		t.Fatalf("NewPrometheus: %v", err)
	}

	p.Hit()
	p.Hit()
	p.Miss()
	p.Stored()
	p.Rejected(ReasonEntries)
	p.Rejected(ReasonMemory)
	p.Rejected(ReasonMemory)
	p.Expired()
	p.Observe(3, 1024)

	if got := testutil.ToFloat64(p.hits); got != 2 {
		t.Fatalf("hits = %v, want 2", got)
	}
	if got := testutil.ToFloat64(p.misses); got != 1 {
		t.Fatalf("misses = %v, want 1", got)
	}
	if got := testutil.ToFloat64(p.rejections.WithLabelValues(ReasonMemory)); got != 2 {
		t.Fatalf("memory rejections = %v, want 2", got)
	}
	if got := testutil.ToFloat64(p.entries); got != 3 {
		t.Fatalf("entries = %v, want 3", got)
	}
	if got := testutil.ToFloat64(p.memory); got != 1024 {
		t.Fatalf("memory = %v, want 1024", got)
	}
}

func TestPrometheus_DuplicateNameFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewPrometheus(reg, "fib"); err != nil {
		t.Fatalf("first registration: %v", err)
	}
	if _, err := NewPrometheus(reg, "fib"); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
}

func TestPrometheus_DistinctNamesCoexist(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewPrometheus(reg, "a"); err != nil {
		t.Fatalf("register a: %v", err)
	}
	if _, err := NewPrometheus(reg, "b"); err != nil {
		t.Fatalf("register b: %v", err)
	}
}

func TestPrometheus_FailedRegistrationRollsBack(t *testing.T) {
	reg := prometheus.NewRegistry()
	blocker := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace:   "memo",
		Name:        "stores_total",
		Help:        "Computed values admitted into the store.",
		ConstLabels: prometheus.Labels{"memo": "double"},
	})
	if err := reg.Register(blocker); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, err := NewPrometheus(reg, "double"); err == nil {
		t.Fatal("expected registration to fail on the taken stores series")
	}
	if n, err := testutil.GatherAndCount(reg, "memo_hits_total", "memo_misses_total"); err != nil || n != 0 {
		t.Fatalf("expected no leftover series, got %d (%v)", n, err)
	}

	reg.Unregister(blocker)
	if _, err := NewPrometheus(reg, "double"); err != nil {
		t.Fatalf("expected a clean retry after rollback, got %v", err)
	}
}

func TestNop(t *testing.T) {
	r := Nop()
	// Must not panic.
	r.Hit()
	r.Miss()
	r.Stored()
	r.Rejected(ReasonEntries)
	r.Expired()
	r.Observe(1, 1)
}
