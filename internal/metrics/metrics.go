// Package metrics registers and exposes the Prometheus instruments for the
// feed and vote paths. Initialize once in main; Get() is safe from any
// goroutine afterwards.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Feed metrics
	FeedGenerationTime *prometheus.HistogramVec
	FeedFallbackTotal  prometheus.Counter
	FeedPagesTotal     *prometheus.CounterVec

	// Vote ledger metrics
	VoteTransitionsTotal         *prometheus.CounterVec
	VoteAnomaliesTotal           *prometheus.CounterVec
	ReconciliationAnomaliesTotal prometheus.Counter
	ReconciliationRepairsTotal   prometheus.Counter

	// Cache metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec
}

var (
	instance *Metrics
	once     sync.Once
)

// Get returns the metrics singleton, registering the instruments on first use.
func Get() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			HTTPRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "murmur_http_requests_total",
					Help: "HTTP requests by method, path, and status",
				},
				[]string{"method", "path", "status"},
			),
			HTTPRequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "murmur_http_request_duration_seconds",
					Help:    "HTTP request latency",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"method", "path", "status"},
			),
			FeedGenerationTime: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "murmur_feed_generation_seconds",
					Help:    "Time to build a fresh feed ordering",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"mode"},
			),
			FeedFallbackTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "murmur_feed_fallback_total",
					Help: "Trending queries served by the unindexed fallback path",
				},
			),
			FeedPagesTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "murmur_feed_pages_total",
					Help: "Feed pages served, by mode and kind (fresh or continuation)",
				},
				[]string{"mode", "kind"},
			),
			VoteTransitionsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "murmur_vote_transitions_total",
					Help: "Committed vote state transitions by kind",
				},
				[]string{"transition"},
			),
			VoteAnomaliesTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "murmur_vote_anomalies_total",
					Help: "Repaired vote-state invariant violations by kind",
				},
				[]string{"kind"},
			),
			ReconciliationAnomaliesTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "murmur_reconciliation_anomalies_total",
					Help: "Reputation updates that failed after their vote committed",
				},
			),
			ReconciliationRepairsTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "murmur_reconciliation_repairs_total",
					Help: "Author reputation records rebuilt by the reconciliation worker",
				},
			),
			CacheHitsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "murmur_cache_hits_total",
					Help: "Cache hits by cache name",
				},
				[]string{"cache"},
			),
			CacheMissesTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "murmur_cache_misses_total",
					Help: "Cache misses by cache name",
				},
				[]string{"cache"},
			),
		}
	})
	return instance
}

// RecordVoteTransition counts a committed vote transition.
func RecordVoteTransition(transition string) {
	Get().VoteTransitionsTotal.WithLabelValues(transition).Inc()
}

// RecordVoteAnomaly counts a repaired vote-state invariant violation.
func RecordVoteAnomaly(kind string) {
	Get().VoteAnomaliesTotal.WithLabelValues(kind).Inc()
}

// RecordReconciliationAnomaly counts a reputation write that failed after
// its vote had already committed.
func RecordReconciliationAnomaly() {
	Get().ReconciliationAnomaliesTotal.Inc()
}

// RecordReconciliationRepair counts an author record rebuilt by the
// reconciliation worker.
func RecordReconciliationRepair() {
	Get().ReconciliationRepairsTotal.Inc()
}

// RecordFeedFallback counts a trending query served by the degraded path.
func RecordFeedFallback() {
	Get().FeedFallbackTotal.Inc()
}

// RecordFeedPage counts a served feed page.
func RecordFeedPage(mode, kind string) {
	Get().FeedPagesTotal.WithLabelValues(mode, kind).Inc()
}

// RecordFeedGeneration observes how long a fresh ordering took to build.
func RecordFeedGeneration(mode string, seconds float64) {
	Get().FeedGenerationTime.WithLabelValues(mode).Observe(seconds)
}

// RecordCacheHit counts a hit on the named cache.
func RecordCacheHit(cache string) {
	Get().CacheHitsTotal.WithLabelValues(cache).Inc()
}

// RecordCacheMiss counts a miss on the named cache.
func RecordCacheMiss(cache string) {
	Get().CacheMissesTotal.WithLabelValues(cache).Inc()
}
