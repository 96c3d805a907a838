package lazycache

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// cacheMetrics holds Prometheus metrics for cache operations.
type cacheMetrics struct {
	hits         prometheus.Counter
	loads        prometheus.Counter
	loadFailures prometheus.Counter
	entries      prometheus.Gauge
	loadSeconds  prometheus.Histogram
}

// newCacheMetrics creates the cache metrics and registers them with reg.
func newCacheMetrics(reg prometheus.Registerer, component string) (*cacheMetrics, error) {
	labels := prometheus.Labels{"component": component}

	m := &cacheMetrics{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "assetcache",
			Subsystem:   "cache",
			Name:        "hits_total",
			ConstLabels: labels,
			Help:        "Total number of lookups served from memory",
		}),
		loads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "assetcache",
			Subsystem:   "cache",
			Name:        "loads_total",
			ConstLabels: labels,
			Help:        "Total number of loader invocations",
		}),
		loadFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "assetcache",
			Subsystem:   "cache",
			Name:        "load_failures_total",
			ConstLabels: labels,
			Help:        "Total number of loader invocations that returned an error",
		}),
		entries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "assetcache",
			Subsystem:   "cache",
			Name:        "entries",
			ConstLabels: labels,
			Help:        "Current number of loaded entries",
		}),
		loadSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   "assetcache",
			Subsystem:   "cache",
			Name:        "load_seconds",
			ConstLabels: labels,
			Help:        "Loader latency in seconds, failures included",
			Buckets:     prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
	}

	collectors := []prometheus.Collector{m.hits, m.loads, m.loadFailures, m.entries, m.loadSeconds}

	for i, c := range collectors {
		if err := reg.Register(c); err != nil {
			// Undo the partial registration.
			for _, done := range collectors[:i] {
				reg.Unregister(done)
			}

			return nil, fmt.Errorf("registering cache metrics for %q: %w", component, err)
		}
	}

	return m, nil
}

func (m *cacheMetrics) recordHit() {
	if m != nil {
		m.hits.Inc()
	}
}

func (m *cacheMetrics) recordLoad(failed bool) {
	if m == nil {
		return
	}

	m.loads.Inc()

	if failed {
		m.loadFailures.Inc()
	}
}

func (m *cacheMetrics) updateEntries(n int) {
	if m != nil {
		m.entries.Set(float64(n))
	}
}
