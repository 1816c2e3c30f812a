package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters for capture runs. A nil *Metrics is
// valid and records nothing, so components do not need metric plumbing in
// tests.
type Metrics struct {
	registry                *prometheus.Registry
	windowsFetchedTotal     prometheus.Counter
	segmentsDiscoveredTotal prometheus.Counter
	segmentsDownloadedTotal prometheus.Counter
	cacheHitsTotal          prometheus.Counter
	segmentFailuresTotal    prometheus.Counter
	bytesDownloadedTotal    prometheus.Counter
	capturesStartedTotal    prometheus.Counter
	capturesSucceededTotal  prometheus.Counter
	capturesFailedTotal     prometheus.Counter
}

// New creates and registers capture metrics on a private registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		windowsFetchedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "spinget_index_windows_fetched_total",
			Help: "Total number of index windows fetched from the archive",
		}),
		segmentsDiscoveredTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "spinget_segments_discovered_total",
			Help: "Total number of segments discovered while walking the index",
		}),
		segmentsDownloadedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "spinget_segments_downloaded_total",
			Help: "Total number of segments downloaded over the network",
		}),
		cacheHitsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "spinget_segment_cache_hits_total",
			Help: "Total number of segments satisfied from the on-disk cache",
		}),
		segmentFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "spinget_segment_failures_total",
			Help: "Total number of segment downloads that failed",
		}),
		bytesDownloadedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "spinget_bytes_downloaded_total",
			Help: "Total segment bytes downloaded over the network",
		}),
		capturesStartedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "spinget_captures_started_total",
			Help: "Total number of capture runs started",
		}),
		capturesSucceededTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "spinget_captures_succeeded_total",
			Help: "Total number of capture runs that produced an output file",
		}),
		capturesFailedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "spinget_captures_failed_total",
			Help: "Total number of capture runs that failed at any stage",
		}),
	}

	registry.MustRegister(
		m.windowsFetchedTotal,
		m.segmentsDiscoveredTotal,
		m.segmentsDownloadedTotal,
		m.cacheHitsTotal,
		m.segmentFailuresTotal,
		m.bytesDownloadedTotal,
		m.capturesStartedTotal,
		m.capturesSucceededTotal,
		m.capturesFailedTotal,
	)

	return m
}

// IncWindowsFetched increments the index window counter.
func (m *Metrics) IncWindowsFetched() {
	if m != nil {
		m.windowsFetchedTotal.Inc()
	}
}

// AddSegmentsDiscovered adds n to the discovered segment counter.
func (m *Metrics) AddSegmentsDiscovered(n int) {
	if m != nil {
		m.segmentsDiscoveredTotal.Add(float64(n))
	}
}

// IncSegmentsDownloaded increments the downloaded segment counter.
func (m *Metrics) IncSegmentsDownloaded() {
	if m != nil {
		m.segmentsDownloadedTotal.Inc()
	}
}

// IncCacheHits increments the cache hit counter.
func (m *Metrics) IncCacheHits() {
	if m != nil {
		m.cacheHitsTotal.Inc()
	}
}

// IncSegmentFailures increments the failed segment counter.
func (m *Metrics) IncSegmentFailures() {
	if m != nil {
		m.segmentFailuresTotal.Inc()
	}
}

// AddBytesDownloaded adds n to the downloaded bytes counter.
func (m *Metrics) AddBytesDownloaded(n int64) {
	if m != nil {
		m.bytesDownloadedTotal.Add(float64(n))
	}
}

// IncCapturesStarted increments the started captures counter.
func (m *Metrics) IncCapturesStarted() {
	if m != nil {
		m.capturesStartedTotal.Inc()
	}
}

// IncCapturesSucceeded increments the succeeded captures counter.
func (m *Metrics) IncCapturesSucceeded() {
	if m != nil {
		m.capturesSucceededTotal.Inc()
	}
}

// IncCapturesFailed increments the failed captures counter.
func (m *Metrics) IncCapturesFailed() {
	if m != nil {
		m.capturesFailedTotal.Inc()
	}
}

// Handler returns an http.Handler that serves the metrics registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
