// Package metrics exposes the mount's Prometheus counters/histograms: cache
// hit/miss, rate-limiter wait time, fetch latency, and open file handles.
// Unlike the teacher's GCS-specific dimensions, these carry no per-bucket or
// per-object labels; there is nothing analogous to object/bucket cardinality
// in a log-group-backed mount.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handle is the set of instruments the rest of the mount reports against.
// A single Handle is constructed at startup and shared by value-reference,
// mirroring the teacher's MetricHandle usage.
type Handle struct {
	registry *prometheus.Registry

	CacheHits       prometheus.Counter
	CacheMisses     prometheus.Counter
	RateLimiterWait prometheus.Histogram
	FetchLatency    prometheus.Histogram
	OpenFileHandles prometheus.Gauge
}

// NewHandle builds a Handle registered against a private registry (never
// the global default), so multiple mounts in one process never collide.
func NewHandle() *Handle {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Handle{
		registry: reg,
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "cwl_mount",
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Number of fetch-cache lookups that found a cached blob.",
		}),
		CacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "cwl_mount",
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Number of fetch-cache lookups that found nothing cached.",
		}),
		RateLimiterWait: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cwl_mount",
			Subsystem: "ratelimit",
			Name:      "wait_seconds",
			Help:      "Time spent blocked acquiring a rate-limiter token.",
			Buckets:   prometheus.DefBuckets,
		}),
		FetchLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cwl_mount",
			Subsystem: "fetcher",
			Name:      "fetch_seconds",
			Help:      "End-to-end latency of a single Fetch call, cache hit or miss.",
			Buckets:   prometheus.DefBuckets,
		}),
		OpenFileHandles: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "cwl_mount",
			Subsystem: "fs",
			Name:      "open_file_handles",
			Help:      "Number of file handles currently outstanding from OpenFile.",
		}),
	}
}

// ObserveFetch records a single Fetch call's outcome and latency.
func (h *Handle) ObserveFetch(hit bool, d time.Duration) {
	if hit {
		h.CacheHits.Inc()
	} else {
		h.CacheMisses.Inc()
	}
	h.FetchLatency.Observe(d.Seconds())
}

// Handler returns an http.Handler serving this Handle's registry in the
// Prometheus exposition format, suitable for mounting at --metrics-addr.
func (h *Handle) Handler() http.Handler {
	return promhttp.HandlerFor(h.registry, promhttp.HandlerOpts{})
}

// Serve starts a minimal HTTP server exposing /metrics and blocks until it
// exits. Callers typically run this in its own goroutine.
func (h *Handle) Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", h.Handler())
	server := &http.Server{Addr: addr, Handler: mux}
	return server.ListenAndServe()
}
