package gorawrmemo

import (
	"time"

	"github.com/Keksclan/goRawrMemo/metrics"
	"github.com/Keksclan/goRawrMemo/retry"
	"github.com/Keksclan/goRawrMemo/tracing"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// config holds the internal configuration assembled via functional options.
type config struct {
	name string

	ttl time.Duration

	maxEntries   int
	limitEntries bool

	maxMemory   int64
	limitMemory bool

	verbose bool
	logger  *zap.Logger
	now     func() time.Time

	singleFlight bool

	recorder    metrics.Recorder
	promMetrics bool
	registerer  prometheus.Registerer

	tracing *tracing.TracingConfig

	rateLimit bool
	rps       float64
	burst     int

	retry *retry.Config
}

func (c *config) validate() error {
	if c.ttl < 0 {
		return invalidf("negative ttl %s", c.ttl)
	}
	if c.limitEntries && c.maxEntries < 0 {
		return invalidf("negative max entries %d", c.maxEntries)
	}
	if c.limitMemory && c.maxMemory < 0 {
		return invalidf("negative max memory %d", c.maxMemory)
	}
	if c.rateLimit && (c.rps <= 0 || c.burst <= 0) {
		return invalidf("miss rate limit needs positive rps and burst, got %v/%d", c.rps, c.burst)
	}
	if c.now == nil {
		return invalidf("nil clock")
	}
	if c.recorder != nil && c.promMetrics {
		return invalidf("WithRecorder and WithMetrics are mutually exclusive")
	}
	return nil
}
