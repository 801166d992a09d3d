// Package metrics wires the daemon's counters into Prometheus, the way
// the teacher's go.mod licenses (client_golang is a teacher direct
// dependency) even though the teacher's own `stats` package predates its
// adoption in this codebase.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics groups every counter/histogram hookd exports. Construct once per
// process and register with a prometheus.Registerer at startup.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	CacheHits       prometheus.Counter
	CacheMisses     prometheus.Counter
	CacheEvictions  prometheus.Counter
	CacheSizeBytes  prometheus.Gauge
	HookChainLatency *prometheus.HistogramVec
	UploadsRejected prometheus.Counter
	PendingUploads  prometheus.Gauge
}

func New() *Metrics {
	return &Metrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hookd",
			Name:      "requests_total",
			Help:      "Total HTTP requests handled, by status class.",
		}, []string{"status_class"}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hookd",
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Response cache hits.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hookd",
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Response cache misses.",
		}),
		CacheEvictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hookd",
			Subsystem: "cache",
			Name:      "evictions_total",
			Help:      "Response cache LRU-tail evictions.",
		}),
		CacheSizeBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hookd",
			Subsystem: "cache",
			Name:      "size_bytes",
			Help:      "Current total size of cached response bodies.",
		}),
		HookChainLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hookd",
			Subsystem: "hooks",
			Name:      "chain_latency_seconds",
			Help:      "Hook-entry-to-terminal-callback latency per hook name.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"hook_name"}),
		UploadsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hookd",
			Subsystem: "uploads",
			Name:      "rejected_total",
			Help:      "Uploads rejected by admission control (406).",
		}),
		PendingUploads: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hookd",
			Subsystem: "uploads",
			Name:      "pending_bytes",
			Help:      "Process-wide bytes currently buffered across in-flight uploads.",
		}),
	}
}

func (m *Metrics) MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(
		m.RequestsTotal, m.CacheHits, m.CacheMisses, m.CacheEvictions,
		m.CacheSizeBytes, m.HookChainLatency, m.UploadsRejected, m.PendingUploads,
	)
}
