// Package metrics defines the Prometheus collectors for the feed engine, the
// consensus memo cache, and the HTTP layer. All methods are safe on a nil
// receiver so callers can run without metrics in tests.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Feed provides observability for feed composition.
type Feed struct {
	// Per-source fetch latencies
	SourceLatency *prometheus.HistogramVec

	// Source failures by source and outcome ("dropped" for fail-open, "failed" for fail-closed)
	SourceFailures *prometheus.CounterVec

	// Items returned per page by feed
	PageItems *prometheus.HistogramVec
}

// NewFeed registers the feed collectors with reg.
func NewFeed(reg prometheus.Registerer) *Feed {
	f := promauto.With(reg)
	return &Feed{
		SourceLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "observing_feed_source_duration_seconds",
			Help:    "Duration of feed source fetches by source",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"source"}), // source: "following", "nearby", "explore"

		SourceFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "observing_feed_source_failures_total",
			Help: "Feed source failures by source and outcome",
		}, []string{"source", "outcome"}),

		PageItems: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "observing_feed_page_items",
			Help:    "Number of items returned per feed page",
			Buckets: []float64{0, 1, 5, 10, 20, 50, 100},
		}, []string{"feed"}),
	}
}

// ObserveSourceLatency records the duration of one source fetch.
func (m *Feed) ObserveSourceLatency(source string, d time.Duration) {
	if m != nil {
		m.SourceLatency.WithLabelValues(source).Observe(d.Seconds())
	}
}

// IncSourceFailure records a failed source fetch.
func (m *Feed) IncSourceFailure(source, outcome string) {
	if m != nil {
		m.SourceFailures.WithLabelValues(source, outcome).Inc()
	}
}

// ObservePageItems records the size of a returned page.
func (m *Feed) ObservePageItems(feed string, n int) {
	if m != nil {
		m.PageItems.WithLabelValues(feed).Observe(float64(n))
	}
}

// Consensus provides observability for consensus lookups.
type Consensus struct {
	CacheLookups *prometheus.CounterVec
}

// NewConsensus registers the consensus collectors with reg.
func NewConsensus(reg prometheus.Registerer) *Consensus {
	return &Consensus{
		CacheLookups: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "observing_consensus_cache_lookups_total",
			Help: "Consensus memo cache lookups by result",
		}, []string{"result"}), // result: "hit", "miss", "error"
	}
}

// IncCacheLookup records one memo cache lookup.
func (m *Consensus) IncCacheLookup(result string) {
	if m != nil {
		m.CacheLookups.WithLabelValues(result).Inc()
	}
}

// HTTP provides request level observability.
type HTTP struct {
	Requests *prometheus.CounterVec
	Duration *prometheus.HistogramVec
}

// NewHTTP registers the HTTP collectors with reg.
func NewHTTP(reg prometheus.Registerer) *HTTP {
	f := promauto.With(reg)
	return &HTTP{
		Requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "observing_http_requests_total",
			Help: "HTTP requests by method, route pattern and status",
		}, []string{"method", "route", "status"}),
		Duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "observing_http_request_duration_seconds",
			Help:    "HTTP request duration by method and route pattern",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// ObserveRequest records one completed request.
func (m *HTTP) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(method, route, statusClass(status)).Inc()
	m.Duration.WithLabelValues(method, route).Observe(d.Seconds())
}

// statusClass buckets a status code to keep label cardinality small.
func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
