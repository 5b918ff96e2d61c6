package gorawrmemo

import (
	"time"

	"github.com/Keksclan/goRawrMemo/metrics"
	"github.com/Keksclan/goRawrMemo/retry"
	"github.com/Keksclan/goRawrMemo/tracing"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Option configures a Memo.
type Option func(*config)

// WithName sets the name used in log lines, metric labels and spans. It
// defaults to the wrapped function's symbol name.
func WithName(name string) Option {
	return func(c *config) {
		c.name = name
	}
}

// WithTTL makes entries eligible for removal ttl after they were stored. A
// zero TTL means entries never expire by time. Hits do not extend the
// lifetime of an entry.
func WithTTL(ttl time.Duration) Option {
	return func(c *config) {
		c.ttl = ttl
	}
}

// WithMaxEntries caps the number of stored entries. Once the cap is reached
// new results are returned but not stored. Zero means nothing is ever stored.
func WithMaxEntries(n int) Option {
	return func(c *config) {
		c.maxEntries = n
		c.limitEntries = true
	}
}

// WithMaxMemory caps the estimated footprint of the store in bytes. A result
// is stored only if the current estimate plus the estimate of the new entry
// stays below n. Zero means nothing is ever stored.
func WithMaxMemory(n int64) Option {
	return func(c *config) {
		c.maxMemory = n
		c.limitMemory = true
	}
}

// WithVerbose reports expirations, hits, stores and rejections to the logger
// at info level.
func WithVerbose(v bool) Option {
	return func(c *config) {
		c.verbose = v
	}
}

// WithLogger sets the zap logger used for verbose reporting.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithClock replaces time.Now for TTL decisions.
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		c.now = now
	}
}

// WithSingleFlight makes concurrent misses for the same key share one
// invocation of the computation instead of each computing the value. The
// shared invocation keeps the first caller's context values but not its
// cancellation: a caller whose context ends stops waiting, while the others
// still receive the result.
func WithSingleFlight() Option {
	return func(c *config) {
		c.singleFlight = true
	}
}

// WithRecorder sends lifecycle events to r.
func WithRecorder(r metrics.Recorder) Option {
	return func(c *config) {
		c.recorder = r
	}
}

// WithMetrics registers Prometheus collectors for this memo with reg. A nil
// reg uses prometheus.DefaultRegisterer.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *config) {
		c.promMetrics = true
		c.registerer = reg
	}
}

// WithTracing wraps every call in an OpenTelemetry span.
func WithTracing(cfg *tracing.TracingConfig) Option {
	return func(c *config) {
		c.tracing = cfg
	}
}

// WithMissRateLimit throttles invocations of the computation on cache misses
// to rps per second with the given burst. Hits are never throttled.
func WithMissRateLimit(rps float64, burst int) Option {
	return func(c *config) {
		c.rateLimit = true
		c.rps = rps
		c.burst = burst
	}
}

// WithRetry retries failed invocations of the computation per cfg.
func WithRetry(cfg retry.Config) Option {
	return func(c *config) {
		c.retry = &cfg
	}
}
