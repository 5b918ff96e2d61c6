package ratelimit_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Keksclan/goRawrMemo/ratelimit"
)

func TestLimiter_AllowUnderLimit(t *testing.T) {
	// burst=5 means the first 5 calls must succeed.
	l := ratelimit.NewLimiter(1, 5)
	for i := range 5 {
		if !l.Allow() {
			t.Fatalf("expected Allow() == true for invocation %d", i)
		}
	}
}

func TestLimiter_BlocksWhenBurstExhausted(t *testing.T) {
	// burst=2, very low rps so tokens don't refill during the test.
	l := ratelimit.NewLimiter(0.001, 2)

	// Exhaust the burst.
	l.Allow()
	l.Allow()

	if l.Allow() {
		t.Fatal("expected Allow() == false after burst exhausted")
	}
}

func TestLimiter_WaitWithinBurst(t *testing.T) {
	l := ratelimit.NewLimiter(0.001, 1)
	if err := l.Wait(t.Context()); err != nil {
		t.Fatalf("expected first Wait to pass, got %v", err)
	}
}

func TestLimiter_WaitRespectsContext(t *testing.T) {
	l := ratelimit.NewLimiter(0.001, 1)
	l.Allow()

	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()

	err := l.Wait(ctx)
	if err == nil {
		t.Fatal("expected Wait to fail once the burst is spent")
	}
	if errors.Is(err, context.Canceled) {
		t.Fatalf("unexpected cancellation error: %v", err)
	}
}
