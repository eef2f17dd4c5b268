package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Refreshes counts completed dashboard recomputations by outcome
	// ("success" or "error").
	Refreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "buildwatch_refreshes_total",
		Help: "Completed dashboard recomputations by outcome.",
	}, []string{"outcome"})

	// RefreshDuration observes how long one full recomputation takes,
	// including all upstream calls.
	RefreshDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "buildwatch_refresh_duration_seconds",
		Help:    "Wall time of one full dashboard recomputation.",
		Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
	})

	// UpstreamRequests counts calls against the upstream data API by the
	// first path segment ("workers", "builders", "builds").
	UpstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "buildwatch_upstream_requests_total",
		Help: "Requests issued against the upstream data API by endpoint.",
	}, []string{"endpoint"})

	// CacheLookups counts result cache lookups by outcome
	// ("hit", "miss", "expired" or "bypass").
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "buildwatch_cache_lookups_total",
		Help: "Result cache lookups by outcome.",
	}, []string{"outcome"})
)

// Handler returns the scrape handler for the default registry.
func Handler() http.Handler { return promhttp.Handler() }
