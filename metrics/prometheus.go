package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus is a Recorder backed by Prometheus collectors. Every series
// carries a constant "memo" label with the memoized computation's name.
type Prometheus struct {
	hits        prometheus.Counter
	misses      prometheus.Counter
	stores      prometheus.Counter
	rejections  *prometheus.CounterVec
	expirations prometheus.Counter
	entries     prometheus.Gauge
	memory      prometheus.Gauge
}

// NewPrometheus creates the collectors for the memo called name and registers
// them with reg. A nil reg uses prometheus.DefaultRegisterer. Registration is
// all or nothing.
func NewPrometheus(reg prometheus.Registerer, name string) (*Prometheus, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	labels := prometheus.Labels{"memo": name}

	p := &Prometheus{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "memo",
			Name:        "hits_total",
			Help:        "Calls served from the memo store.",
			ConstLabels: labels,
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "memo",
			Name:        "misses_total",
			Help:        "Calls that invoked the wrapped computation.",
			ConstLabels: labels,
		}),
		stores: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "memo",
			Name:        "stores_total",
			Help:        "Computed values admitted into the store.",
			ConstLabels: labels,
		}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "memo",
			Name:        "rejections_total",
			Help:        "Computed values refused by admission, by reason.",
			ConstLabels: labels,
		}, []string{"reason"}),
		expirations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "memo",
			Name:        "expirations_total",
			Help:        "Entries removed because their TTL elapsed.",
			ConstLabels: labels,
		}),
		entries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "memo",
			Name:        "entries",
			Help:        "Current number of stored entries.",
			ConstLabels: labels,
		}),
		memory: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "memo",
			Name:        "memory_bytes",
			Help:        "Current estimated memory footprint of the store.",
			ConstLabels: labels,
		}),
	}

	collectors := []prometheus.Collector{p.hits, p.misses, p.stores, p.rejections, p.expirations, p.entries, p.memory}
	for i, c := range collectors {
		if err := reg.Register(c); err != nil {
			// Roll back, so a failed memo leaves no partial series behind.
			for _, done := range collectors[:i] {
				reg.Unregister(done)
			}
			return nil, err
		}
	}
	return p, nil
}

func (p *Prometheus) Hit()     { p.hits.Inc() }
func (p *Prometheus) Miss()    { p.misses.Inc() }
func (p *Prometheus) Stored()  { p.stores.Inc() }
func (p *Prometheus) Expired() { p.expirations.Inc() }

func (p *Prometheus) Rejected(reason string) {
	p.rejections.WithLabelValues(reason).Inc()
}

func (p *Prometheus) Observe(entries int, memoryBytes int64) {
	p.entries.Set(float64(entries))
	p.memory.Set(float64(memoryBytes))
}

var _ Recorder = (*Prometheus)(nil)
