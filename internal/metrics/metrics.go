package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ResolutionsTotal   *prometheus.CounterVec
	ResolutionDuration prometheus.Histogram
	AttemptsTotal      *prometheus.CounterVec
	CacheLookupsTotal  *prometheus.CounterVec
	ProxyHealth        *prometheus.GaugeVec
	ProbesTotal        *prometheus.CounterVec
)

// Init registers all collectors with the default registry. Call once at
// startup, before any component records a sample.
func Init() {
	ResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salvage_resolutions_total",
			Help: "Completed resolutions by verdict.",
		},
		[]string{"verdict"},
	)

	ResolutionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "salvage_resolution_duration_seconds",
			Help:    "Wall time of one full resolve call.",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	AttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salvage_attempts_total",
			Help: "Network attempts by strategy and outcome.",
		},
		[]string{"strategy", "outcome"},
	)

	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salvage_cache_lookups_total",
			Help: "Resolution cache lookups by result (hit/miss).",
		},
		[]string{"result"},
	)

	ProxyHealth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "salvage_proxy_health",
			Help: "Current health score per relay, 0-100.",
		},
		[]string{"proxy"},
	)

	ProbesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salvage_probes_total",
			Help: "Active relay probes by outcome.",
		},
		[]string{"proxy", "outcome"},
	)
}

// ObserveAttempt records one attempt sample, guarding against use before Init.
func ObserveAttempt(strategy string, success bool) {
	if AttemptsTotal == nil {
		return
	}
	outcome := "failure"
	if success {
		outcome = "success"
	}
	AttemptsTotal.WithLabelValues(strategy, outcome).Inc()
}

// ObserveCache records one cache lookup sample.
func ObserveCache(hit bool) {
	if CacheLookupsTotal == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheLookupsTotal.WithLabelValues(result).Inc()
}
