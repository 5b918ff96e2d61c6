// Package gorawrmemo memoizes computations behind a bounded, TTL-aware store.
//
// [New] wraps a [Func] and returns a [Memo] whose [Memo.Call] has the same
// contract as the wrapped function but remembers results per argument list.
// Three independent bounds limit the store:
//
//   - [WithTTL]: entries expire a fixed duration after they were stored.
//   - [WithMaxEntries]: a hard cap on the number of entries.
//   - [WithMaxMemory]: an approximate cap on the store's deep size, as
//     estimated by the sizeof package.
//
// A result that would break a bound is still returned to the caller, it is
// just not stored. Nothing is evicted to make room: entries leave the store
// only when their TTL elapses or on [Memo.Reset].
//
//	double, err := gorawrmemo.New(func(_ context.Context, a gorawrmemo.Args) (int, error) {
//		return a.Positional[0].(int) * 2, nil
//	}, gorawrmemo.WithMaxEntries(2))
//
//	v, err := double.Call(ctx, gorawrmemo.Pos(21)) // computes 42
//	v, err = double.Call(ctx, gorawrmemo.Pos(21))  // served from the store
//
// Every Memo is safe for concurrent use. The computation runs without the
// internal lock held, so a computation may call its own Memo recursively.
package gorawrmemo

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/Keksclan/goRawrMemo/internal/core"
	"github.com/Keksclan/goRawrMemo/metrics"
	"github.com/Keksclan/goRawrMemo/ratelimit"
	"github.com/Keksclan/goRawrMemo/retry"
	"github.com/Keksclan/goRawrMemo/tracing"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Func is a computation that can be memoized. It should be deterministic for
// a given argument list.
type Func[R any] func(ctx context.Context, args Args) (R, error)

// Memo is a memoized computation and its store.
type Memo[R any] struct {
	fn      Func[R]
	cfg     config
	log     *zap.Logger
	rec     metrics.Recorder
	limiter *ratelimit.Limiter

	mu    sync.Mutex
	state *core.State[Key, R]

	group singleflight.Group
}

var errFlightMismatch = errors.New("single-flight led by a different key")

// loaded carries a single-flight result to every waiting caller.
type loaded[R any] struct {
	key      Key
	value    R
	outcome  tracing.Outcome
	panicked any
}

// New wraps fn. It returns an error wrapping [ErrInvalidConfiguration] if fn
// is nil or the options are inconsistent.
func New[R any](fn Func[R], opts ...Option) (*Memo[R], error) {
	cfg := config{now: time.Now}
	for _, o := range opts {
		o(&cfg)
	}
	if fn == nil {
		return nil, invalidf("nil computation")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.name == "" {
		cfg.name = funcName(fn)
	}

	m := &Memo[R]{
		fn:    fn,
		cfg:   cfg,
		state: core.NewState[Key, R](),
	}

	switch {
	case cfg.logger != nil:
		m.log = cfg.logger
	case cfg.verbose:
		m.log = zap.NewExample()
	default:
		m.log = zap.NewNop()
	}
	m.log = m.log.With(zap.String("memo", cfg.name))

	switch {
	case cfg.recorder != nil:
		m.rec = cfg.recorder
	case cfg.promMetrics:
		p, err := metrics.NewPrometheus(cfg.registerer, cfg.name)
		if err != nil {
			return nil, fmt.Errorf("register metrics for %s: %w", cfg.name, err)
		}
		m.rec = p
	default:
		m.rec = metrics.Nop()
	}

	if cfg.rateLimit {
		m.limiter = ratelimit.NewLimiter(cfg.rps, cfg.burst)
	}
	if cfg.limitMemory {
		m.state.Recompute()
	}
	return m, nil
}

// Name returns the name used for logs, metrics and spans.
func (m *Memo[R]) Name() string {
	return m.cfg.name
}

// Func returns Call as a [Func], so a Memo can stand in wherever the wrapped
// computation was used.
func (m *Memo[R]) Func() Func[R] {
	return m.Call
}

// Call returns the stored result for args, or invokes the computation and
// offers the result for admission. Expired entries are purged first. An
// unkeyable argument fails with [ErrUnkeyableArgument] before the computation
// runs. Computation errors are returned as is and never stored.
func (m *Memo[R]) Call(ctx context.Context, args Args) (R, error) {
	var zero R
	ctx, span := tracing.Start(ctx, m.cfg.tracing, m.cfg.name)
	defer span.End()

	m.mu.Lock()
	m.purgeLocked()
	key, err := NewKey(args)
	if err != nil {
		m.mu.Unlock()
		tracing.RecordOutcome(span, tracing.OutcomeError, err)
		return zero, err
	}
	if span.IsRecording() {
		tracing.SetKeyHash(span, key.Hash())
	}

	if e, ok := m.state.Lookup(key); ok {
		m.mu.Unlock()
		m.rec.Hit()
		if m.cfg.verbose {
			m.log.Info("returned cached value", keyFields(key)...)
		}
		tracing.RecordOutcome(span, tracing.OutcomeHit, nil)
		return e.Value, nil
	}
	m.mu.Unlock()
	m.rec.Miss()

	if !m.cfg.singleFlight {
		value, outcome, err := m.load(ctx, key, args)
		tracing.RecordOutcome(span, outcome, err)
		return value, err
	}

	res, err, shared := m.share(ctx, key, args)
	if errors.Is(err, errFlightMismatch) {
		// The flight was led by an unequal key that renders the same.
		value, outcome, err := m.load(ctx, key, args)
		tracing.RecordOutcome(span, outcome, err)
		return value, err
	}
	if shared && err == nil {
		res.outcome = tracing.OutcomeShared
	}
	tracing.RecordOutcome(span, res.outcome, err)
	return res.value, err
}

// share runs load for key at most once across concurrent callers. The flight
// runs on a context detached from the leader's cancellation, so a caller
// giving up only abandons its own wait. A panic in the computation is
// re-raised in every waiting caller. Flights are grouped by the key's
// rendering; a joiner whose key differs from the leader's gets
// errFlightMismatch.
func (m *Memo[R]) share(ctx context.Context, key Key, args Args) (loaded[R], error, bool) {
	flight := context.WithoutCancel(ctx)
	ch := m.group.DoChan(key.ident(), func() (v any, err error) {
		res := loaded[R]{key: key}
		defer func() {
			if p := recover(); p != nil {
				res.panicked = p
				v, err = res, nil
			}
		}()
		res.value, res.outcome, err = m.load(flight, key, args)
		return res, err
	})

	select {
	case <-ctx.Done():
		return loaded[R]{outcome: tracing.OutcomeError}, ctx.Err(), false
	case r := <-ch:
		res := r.Val.(loaded[R])
		if res.panicked != nil {
			panic(res.panicked)
		}
		if res.key != key {
			return loaded[R]{}, errFlightMismatch, r.Shared
		}
		return res, r.Err, r.Shared
	}
}

// load invokes the computation and offers a successful result for admission.
func (m *Memo[R]) load(ctx context.Context, key Key, args Args) (R, tracing.Outcome, error) {
	value, err := m.invoke(ctx, args)
	if err != nil {
		var zero R
		return zero, tracing.OutcomeError, err
	}
	return value, m.admit(key, value), nil
}

func (m *Memo[R]) invoke(ctx context.Context, args Args) (R, error) {
	if m.limiter != nil {
		if err := m.limiter.Wait(ctx); err != nil {
			var zero R
			return zero, err
		}
	}
	if m.cfg.retry == nil {
		return m.fn(ctx, args)
	}
	return retry.Do(ctx, *m.cfg.retry, func(ctx context.Context) (R, error) {
		return m.fn(ctx, args)
	})
}

// admit stores value under key if every configured bound allows it. The
// entry count is checked before memory, so a value failing both is reported
// as an entry overflow.
func (m *Memo[R]) admit(key Key, value R) tracing.Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cfg.limitEntries && m.state.Len() >= m.cfg.maxEntries {
		m.rejectLocked(key, metrics.ReasonEntries)
		return tracing.OutcomeRejectedEntries
	}

	var expiresAt time.Time
	if m.cfg.ttl > 0 {
		expiresAt = m.cfg.now().Add(m.cfg.ttl)
	}

	if m.cfg.limitMemory {
		candidate := core.EntrySize(key, value, expiresAt)
		if m.state.Memory()+candidate >= m.cfg.maxMemory {
			m.rejectLocked(key, metrics.ReasonMemory)
			return tracing.OutcomeRejectedMemory
		}
	}

	m.state.Insert(key, value, expiresAt)
	if m.cfg.limitMemory {
		m.state.Recompute()
	}
	m.rec.Stored()
	m.observeLocked()
	if m.cfg.verbose {
		m.log.Info("stored value", keyFields(key)...)
	}
	return tracing.OutcomeStored
}

func (m *Memo[R]) rejectLocked(key Key, reason string) {
	m.rec.Rejected(reason)
	if m.cfg.verbose {
		m.log.Info("rejected value", append(keyFields(key), zap.String("reason", reason))...)
	}
}

// purgeLocked removes every entry whose TTL has elapsed and refreshes the
// memory snapshot.
func (m *Memo[R]) purgeLocked() {
	if m.cfg.ttl <= 0 {
		return
	}
	n := m.state.PurgeExpired(m.cfg.now(), func(k Key) {
		m.rec.Expired()
		if m.cfg.verbose {
			m.log.Info("removed expired value", keyFields(k)...)
		}
	})
	if m.cfg.limitMemory {
		m.state.Recompute()
	}
	if n > 0 {
		m.observeLocked()
	}
}

func (m *Memo[R]) observeLocked() {
	m.rec.Observe(m.state.Len(), m.memoryLocked())
}

func (m *Memo[R]) memoryLocked() int64 {
	if !m.cfg.limitMemory {
		return 0
	}
	return m.state.Memory()
}

// Reset drops every stored entry and pending expiration.
func (m *Memo[R]) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Reset()
	m.observeLocked()
}

func keyFields(k Key) []zap.Field {
	return []zap.Field{
		zap.Stringer("key", k),
		zap.String("key_hash", fmt.Sprintf("%016x", k.Hash())),
	}
}

// funcName returns the unqualified symbol name of fn, e.g. "main.fib".
func funcName(fn any) string {
	f := runtime.FuncForPC(reflect.ValueOf(fn).Pointer())
	if f == nil {
		return "memo"
	}
	name := f.Name()
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	return name
}
