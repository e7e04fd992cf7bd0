package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	registry *prometheus.Registry

	// Gateway operations by outcome (live, cache, offline, error). Watch for: offline share.
	GatewayRequestsTotal *prometheus.CounterVec

	// Open-Meteo call rate per endpoint. Watch for: error vs success ratio.
	UpstreamCallsTotal *prometheus.CounterVec

	// Upstream latency per request. Watch for: p95 > 2s (upstream degradation).
	UpstreamDuration *prometheus.HistogramVec

	// Retry attempts per endpoint. Watch for: high retries = unstable upstream or network.
	UpstreamRetriesTotal *prometheus.CounterVec

	// Upstream failures by ErrorCategory.
	UpstreamErrorsTotal *prometheus.CounterVec

	// Breaker state per endpoint: 0 closed, 1 half-open, 2 open.
	CircuitBreakerState *prometheus.GaugeVec

	// Breaker transitions. Watch for: flapping.
	CircuitBreakerTransitionsTotal *prometheus.CounterVec

	// Response cache hits and misses per payload kind. Hit rate = hits/(hits+misses).
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	// Response cache backend errors (memcached). In-memory never errors.
	CacheErrorsTotal *prometheus.CounterVec

	// Concurrent identical misses that shared one upstream fetch.
	CoalescedRequestsTotal *prometheus.CounterVec

	// Offline fallbacks; result is served or missing (no snapshot).
	OfflineFallbacksTotal *prometheus.CounterVec

	// Durable store failures swallowed by the adapter.
	StoreErrorsTotal *prometheus.CounterVec

	// Favorites/home prefetch rounds.
	CacheWarmingTotal           prometheus.Counter
	CacheWarmingErrorsTotal     prometheus.Counter
	CacheWarmingDurationSeconds prometheus.Histogram
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	GatewayRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gatewayRequestsTotal",
			Help: "Gateway operations by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)
	UpstreamCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstreamCallsTotal",
			Help: "Total number of Open-Meteo API calls",
		},
		[]string{"endpoint", "status"},
	)
	UpstreamDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstreamDurationSeconds",
			Help:    "Open-Meteo API latency in seconds (per request)",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint", "status"},
	)
	UpstreamRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstreamRetriesTotal",
			Help: "Total number of retry attempts for Open-Meteo calls",
		},
		[]string{"endpoint"},
	)
	UpstreamErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstreamErrorsTotal",
			Help: "Open-Meteo failures by error category",
		},
		[]string{"endpoint", "category"},
	)
	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuitBreakerState",
			Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"component"},
	)
	CircuitBreakerTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuitBreakerTransitionsTotal",
			Help: "Circuit breaker state transitions",
		},
		[]string{"component", "from", "to"},
	)
	CacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cacheHitsTotal",
			Help: "Total number of response cache hits",
		},
		[]string{"kind"},
	)
	CacheMissesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cacheMissesTotal",
			Help: "Total number of response cache misses (including expired entries)",
		},
		[]string{"kind"},
	)
	CacheErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cacheErrorsTotal",
			Help: "Response cache backend errors",
		},
		[]string{"operation"},
	)
	CoalescedRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coalescedRequestsTotal",
			Help: "Gateway calls that shared an in-flight upstream fetch",
		},
		[]string{"kind"},
	)
	OfflineFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "offlineFallbacksTotal",
			Help: "Offline snapshot lookups after a failed fetch",
		},
		[]string{"kind", "result"},
	)
	StoreErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storeErrorsTotal",
			Help: "Durable store failures (logged and swallowed)",
		},
		[]string{"operation"},
	)
	CacheWarmingTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cacheWarmingTotal",
			Help: "Total number of cache warming rounds",
		},
	)
	CacheWarmingErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cacheWarmingErrorsTotal",
			Help: "Cache warming rounds with at least one failure",
		},
	)
	CacheWarmingDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cacheWarmingDurationSeconds",
			Help:    "Cache warming round duration in seconds",
			Buckets: []float64{.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	registry.MustRegister(
		GatewayRequestsTotal,
		UpstreamCallsTotal, UpstreamDuration, UpstreamRetriesTotal, UpstreamErrorsTotal,
		CircuitBreakerState, CircuitBreakerTransitionsTotal,
		CacheHitsTotal, CacheMissesTotal, CacheErrorsTotal, CoalescedRequestsTotal,
		OfflineFallbacksTotal, StoreErrorsTotal,
		CacheWarmingTotal, CacheWarmingErrorsTotal, CacheWarmingDurationSeconds,
	)
}

// Gatherer exposes the client registry, e.g. for embedding programs that serve metrics.
func Gatherer() prometheus.Gatherer {
	return registry
}

// WriteTextfile writes all metrics in text exposition format to path, for the node
// exporter textfile collector. The write is atomic (temp file + rename).
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, registry)
}
