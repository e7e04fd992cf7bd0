package observability

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestMetrics_Usable verifies that all Prometheus metrics can be used without
// panic, ensuring label dimensions match usage across client, service, store and cache.
func TestMetrics_Usable(t *testing.T) {
	GatewayRequestsTotal.WithLabelValues("fetch_weather", "live").Inc()
	UpstreamCallsTotal.WithLabelValues("forecast", "success").Inc()
	UpstreamDuration.WithLabelValues("forecast", "success").Observe(0.1)
	UpstreamRetriesTotal.WithLabelValues("geocoding").Inc()
	UpstreamErrorsTotal.WithLabelValues("air_quality", "upstream_5xx").Inc()
	CircuitBreakerState.WithLabelValues("forecast").Set(0)
	CircuitBreakerTransitionsTotal.WithLabelValues("forecast", "closed", "open").Inc()
	CacheHitsTotal.WithLabelValues("weather").Inc()
	CacheMissesTotal.WithLabelValues("weather").Inc()
	CacheErrorsTotal.WithLabelValues("get").Inc()
	CoalescedRequestsTotal.WithLabelValues("weather").Inc()
	OfflineFallbacksTotal.WithLabelValues("weather", "served").Inc()
	StoreErrorsTotal.WithLabelValues("save").Inc()
	CacheWarmingTotal.Inc()
	CacheWarmingErrorsTotal.Inc()
	CacheWarmingDurationSeconds.Observe(1)
}

// TestFlushTelemetry_WritesTextfile verifies FlushTelemetry writes the text exposition
// format to the configured path.
func TestFlushTelemetry_WritesTextfile(t *testing.T) {
	CacheHitsTotal.WithLabelValues("air_quality").Inc()
	path := filepath.Join(t.TempDir(), "weather.prom")

	if err := FlushTelemetry(context.Background(), nil, path); err != nil {
		t.Fatalf("FlushTelemetry() error = %v", err)
	}
	body, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	if !strings.Contains(string(body), "cacheHitsTotal") {
		t.Error("textfile should contain metric output")
	}
}

func TestFlushTelemetry_NoPath(t *testing.T) {
	if err := FlushTelemetry(context.Background(), nil, ""); err != nil {
		t.Errorf("FlushTelemetry() error = %v", err)
	}
}
