package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters and histograms for the
// briefing service.
type Metrics struct {
	BriefingsBuilt prometheus.Counter

	// Upstream fetch metrics.
	UpstreamRequests *prometheus.CounterVec   // labels: kind={weather,datis,status}, outcome={success,error}
	UpstreamDuration *prometheus.HistogramVec // labels: kind={weather,datis,status}

	// Briefing cache metrics.
	CacheLookups *prometheus.CounterVec // labels: result={hit,miss}
}

// NewMetrics creates and registers all briefing metrics with the
// default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		BriefingsBuilt: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wxbrief",
			Name:      "briefings_built_total",
			Help:      "Total briefings assembled, cached or fresh.",
		}),
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wxbrief",
			Name:      "upstream_requests_total",
			Help:      "Upstream API requests by data kind and outcome.",
		}, []string{"kind", "outcome"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "wxbrief",
			Name:      "upstream_request_duration_seconds",
			Help:      "Upstream API request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"kind"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wxbrief",
			Name:      "cache_lookups_total",
			Help:      "Briefing cache lookups by result.",
		}, []string{"result"}),
	}

	prometheus.MustRegister(
		m.BriefingsBuilt,
		m.UpstreamRequests,
		m.UpstreamDuration,
		m.CacheLookups,
	)

	return m
}

// NewMetricsForTesting creates Metrics without touching the default
// registry, avoiding "already registered" panics across tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		BriefingsBuilt:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "wxbrief", Name: "briefings_built_total"}),
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "wxbrief", Name: "upstream_requests_total"}, []string{"kind", "outcome"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "wxbrief", Name: "upstream_request_duration_seconds"}, []string{"kind"}),
		CacheLookups:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "wxbrief", Name: "cache_lookups_total"}, []string{"result"}),
	}
}
