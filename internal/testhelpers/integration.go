//go:build integration
// +build integration

package testhelpers

import (
	"os"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/kjstillabower/weather-client/internal/cache"
	"github.com/kjstillabower/weather-client/internal/client"
	"github.com/kjstillabower/weather-client/internal/connectivity"
	"github.com/kjstillabower/weather-client/internal/models"
	"github.com/kjstillabower/weather-client/internal/service"
	"github.com/kjstillabower/weather-client/internal/store"
)

// IntegrationTestConfig holds configuration for integration tests.
type IntegrationTestConfig struct {
	GeocodingURL  string
	ForecastURL   string
	AirQualityURL string
	CacheBackend  string // "in_memory" or "memcached"
	MemcachedAddr string
}

// GetIntegrationConfig loads integration test configuration from environment.
// Skips the test when SKIP_LIVE_API is set, for offline CI runners.
func GetIntegrationConfig(t *testing.T) IntegrationTestConfig {
	t.Helper()
	if os.Getenv("SKIP_LIVE_API") != "" {
		t.Skip("SKIP_LIVE_API set, skipping live Open-Meteo test")
	}

	def := client.DefaultConfig()
	memcachedAddr := os.Getenv("MEMCACHED_ADDRS")
	if memcachedAddr == "" {
		memcachedAddr = "localhost:11211"
	}
	return IntegrationTestConfig{
		GeocodingURL:  envOr("OPEN_METEO_GEOCODING_URL", def.GeocodingURL),
		ForecastURL:   envOr("OPEN_METEO_FORECAST_URL", def.ForecastURL),
		AirQualityURL: envOr("OPEN_METEO_AIR_QUALITY_URL", def.AirQualityURL),
		CacheBackend:  os.Getenv("INTEGRATION_CACHE_BACKEND"),
		MemcachedAddr: memcachedAddr,
	}
}

// SetupIntegrationGateway wires a gateway against the live API with an in-memory
// durable store. Returns the gateway, its store adapter and a cleanup function.
func SetupIntegrationGateway(t *testing.T, cfg IntegrationTestConfig) (*service.Gateway, *store.Adapter, func()) {
	t.Helper()
	logger := zaptest.NewLogger(t)

	wc := SetupIntegrationClient(t, cfg)

	caches := service.NewInMemoryCaches(cache.DefaultTTL)
	cleanup := func() {}
	if cfg.CacheBackend == "memcached" {
		mc := cache.NewMemcachedClient(cfg.MemcachedAddr, 500*time.Millisecond, 2)
		if err := mc.Ping(); err == nil {
			caches = service.Caches{
				Locations:  cache.NewMemcachedCache[[]models.Location](mc, cache.DefaultTTL),
				Reverse:    cache.NewMemcachedCache[models.Location](mc, cache.DefaultTTL),
				Weather:    cache.NewMemcachedCache[models.WeatherData](mc, cache.DefaultTTL),
				AirQuality: cache.NewMemcachedCache[models.AirQualityData](mc, cache.DefaultTTL),
			}
			cleanup = func() { _ = mc.Close() }
			t.Logf("Using Memcached cache at %s", cfg.MemcachedAddr)
		} else {
			t.Logf("Memcached not available (%v), using in-memory cache", err)
		}
	}

	adapter := store.NewAdapter(store.NewMemoryBackend(), logger)
	gw := service.NewGateway(wc, caches, adapter, connectivity.Static(true), logger)
	return gw, adapter, cleanup
}

// SetupIntegrationClient creates an Open-Meteo client for integration tests.
func SetupIntegrationClient(t *testing.T, cfg IntegrationTestConfig) client.WeatherClient {
	t.Helper()
	c := client.DefaultConfig()
	c.GeocodingURL = cfg.GeocodingURL
	c.ForecastURL = cfg.ForecastURL
	c.AirQualityURL = cfg.AirQualityURL
	wc, err := client.NewOpenMeteoClient(c, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewOpenMeteoClient() error = %v", err)
	}
	return wc
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
