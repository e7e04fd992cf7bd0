package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// isolate runs the test in an empty directory with every recognised variable unset.
func isolate(t *testing.T) string {
	t.Helper()
	for _, k := range []string{
		"ENV_NAME", "CONFIG_FILE", "CACHE_BACKEND", "MEMCACHED_ADDRS", "STORE_BACKEND",
		"STORE_PATH", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "WEATHER_OFFLINE", "METRICS_TEXTFILE",
	} {
		t.Setenv(k, "")
	}
	dir := t.TempDir()
	chdir(t, dir)
	return dir
}

func writeEnvFile(t *testing.T, dir, name, content string) {
	t.Helper()
	configDir := filepath.Join(dir, "config")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		t.Fatalf("mkdir config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(configDir, name+".yaml"), []byte(content), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
}

// TestLoad_DefaultsWithoutFile verifies a missing YAML file yields the public Open-Meteo
// endpoints and a ten minute cache TTL.
func TestLoad_DefaultsWithoutFile(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Env != "dev" {
		t.Errorf("Env = %q, want dev", cfg.Env)
	}
	if cfg.ForecastURL != "https://api.open-meteo.com" {
		t.Errorf("ForecastURL = %q", cfg.ForecastURL)
	}
	if cfg.CacheTTL != 10*time.Minute {
		t.Errorf("CacheTTL = %v, want 10m", cfg.CacheTTL)
	}
	if cfg.CacheBackend != "in_memory" || cfg.StoreBackend != "sqlite" {
		t.Errorf("backends = %q/%q", cfg.CacheBackend, cfg.StoreBackend)
	}
	if !strings.HasSuffix(cfg.StorePath, filepath.Join("weather-client", "weather.db")) {
		t.Errorf("StorePath = %q", cfg.StorePath)
	}
	if cfg.RequestTimeout <= cfg.APITimeout {
		t.Errorf("RequestTimeout %v should exceed APITimeout %v", cfg.RequestTimeout, cfg.APITimeout)
	}
	if cfg.Offline {
		t.Error("Offline should default to false")
	}
}

func TestLoad_FromEnvNameFile(t *testing.T) {
	dir := isolate(t)
	t.Setenv("ENV_NAME", "prod")
	writeEnvFile(t, dir, "prod", `
api:
  forecast_url: "https://forecast.example.com"
  timeout: "4s"
reliability:
  retry_max_attempts: 5
  rate_limit_rps: 2.5
  breaker_failures: 3
cache:
  backend: memcached
  memcached:
    addrs: "cache1:11211,cache2:11211"
store:
  backend: redis
  redis:
    addr: "redis:6379"
    db: 2
connectivity:
  offline: true
warming:
  interval: "5m"
`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ForecastURL != "https://forecast.example.com" || cfg.APITimeout != 4*time.Second {
		t.Errorf("api = %q %v", cfg.ForecastURL, cfg.APITimeout)
	}
	if cfg.RetryAttempts != 5 || cfg.RateLimitRPS != 2.5 || cfg.BreakerFailures != 3 {
		t.Errorf("reliability = %d %v %d", cfg.RetryAttempts, cfg.RateLimitRPS, cfg.BreakerFailures)
	}
	if cfg.CacheBackend != "memcached" || cfg.MemcachedAddrs != "cache1:11211,cache2:11211" {
		t.Errorf("cache = %q %q", cfg.CacheBackend, cfg.MemcachedAddrs)
	}
	if cfg.StoreBackend != "redis" || cfg.RedisAddr != "redis:6379" || cfg.RedisDB != 2 {
		t.Errorf("store = %q %q %d", cfg.StoreBackend, cfg.RedisAddr, cfg.RedisDB)
	}
	if !cfg.Offline {
		t.Error("Offline = false, want true")
	}
	if cfg.WarmInterval != 5*time.Minute {
		t.Errorf("WarmInterval = %v", cfg.WarmInterval)
	}
}

func TestLoad_ConfigFileOverride(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.yaml")
	if err := os.WriteFile(path, []byte("metrics:\n  textfile: /tmp/weather.prom\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.MetricsTextfile != "/tmp/weather.prom" {
		t.Errorf("MetricsTextfile = %q", cfg.MetricsTextfile)
	}
}

// TestLoad_EnvOverridesFile verifies environment variables win over YAML values.
func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := isolate(t)
	writeEnvFile(t, dir, "dev", "store:\n  backend: sqlite\n  path: /tmp/a.db\n")
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("STORE_PATH", "/tmp/b.db")
	t.Setenv("WEATHER_OFFLINE", "true")
	t.Setenv("REDIS_DB", "4")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.StoreBackend != "memory" || cfg.StorePath != "/tmp/b.db" {
		t.Errorf("store = %q %q", cfg.StoreBackend, cfg.StorePath)
	}
	if !cfg.Offline || cfg.RedisDB != 4 {
		t.Errorf("Offline = %v, RedisDB = %d", cfg.Offline, cfg.RedisDB)
	}
}

// TestLoad_DotEnv verifies a .env file in the working directory feeds the overrides.
func TestLoad_DotEnv(t *testing.T) {
	dir := isolate(t)
	os.Unsetenv("CACHE_BACKEND")
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("CACHE_BACKEND=memcached\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("CACHE_BACKEND") })

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.CacheBackend != "memcached" {
		t.Errorf("CacheBackend = %q, want memcached from .env", cfg.CacheBackend)
	}
}

func TestLoad_InvalidEnvValues(t *testing.T) {
	tests := []struct {
		key, value, want string
	}{
		{"REDIS_DB", "two", "REDIS_DB"},
		{"WEATHER_OFFLINE", "maybe", "WEATHER_OFFLINE"},
		{"STORE_BACKEND", "postgres", "StoreBackend"},
		{"CACHE_BACKEND", "redis", "CacheBackend"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			isolate(t)
			t.Setenv(tt.key, tt.value)

			cfg, err := Load()
			if err == nil {
				t.Fatalf("Load() expected error, got %+v", cfg)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Load() error = %v, want mention of %s", err, tt.want)
			}
		})
	}
}

func TestLoad_InvalidConfigYAML(t *testing.T) {
	dir := isolate(t)
	writeEnvFile(t, dir, "dev", "not: valid: yaml: [[[")

	cfg, err := Load()
	if err == nil {
		t.Fatal("Load() expected error for invalid config YAML, got nil")
	}
	if cfg != nil {
		t.Fatalf("Load() expected nil config on error, got %+v", cfg)
	}
	if !strings.Contains(err.Error(), "parse config file") {
		t.Errorf("Load() error = %v, want parse error", err)
	}
}

func TestLoad_InvalidURL(t *testing.T) {
	dir := isolate(t)
	writeEnvFile(t, dir, "dev", "api:\n  geocoding_url: \"not a url\"\n")

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "GeocodingURL") {
		t.Errorf("Load() error = %v, want GeocodingURL validation failure", err)
	}
}

func TestLoad_ValidationFailsWhenAPITimeoutZero(t *testing.T) {
	dir := isolate(t)
	writeEnvFile(t, dir, "dev", "api:\n  timeout: \"0s\"\n")

	cfg, err := Load()
	if err == nil {
		t.Fatal("Load() expected error when api.timeout is zero, got nil")
	}
	if cfg != nil {
		t.Fatalf("Load() expected nil config on error, got %+v", cfg)
	}
	if !strings.Contains(err.Error(), "api.timeout") {
		t.Errorf("Load() error = %v, want message about api.timeout", err)
	}
}

func TestLoad_InvalidDurationFallsBackToDefault(t *testing.T) {
	dir := isolate(t)
	writeEnvFile(t, dir, "dev", "cache:\n  ttl: \"invalid\"\nrequest:\n  timeout: \"\"\n")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.CacheTTL != 10*time.Minute {
		t.Errorf("CacheTTL = %v, want default 10m", cfg.CacheTTL)
	}
}

// TestValidate_RaisesRequestTimeout verifies the request timeout is adjusted to exceed
// the per-call API timeout.
func TestValidate_RaisesRequestTimeout(t *testing.T) {
	cfg := fromFile(fileConfig{})
	cfg.APITimeout = 20 * time.Second
	cfg.RequestTimeout = 5 * time.Second
	if err := validate(cfg); err != nil {
		t.Fatalf("validate() error = %v", err)
	}
	if cfg.RequestTimeout != 21*time.Second {
		t.Errorf("RequestTimeout = %v, want 21s", cfg.RequestTimeout)
	}
}

func TestValidate_RetryDelays(t *testing.T) {
	cfg := fromFile(fileConfig{})
	cfg.RetryBaseDelay = time.Second
	cfg.RetryMaxDelay = 100 * time.Millisecond
	if err := validate(cfg); err == nil {
		t.Error("validate() expected error when max delay < base delay")
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		def  time.Duration
		want time.Duration
	}{
		{"", time.Second, time.Second},
		{"  2m ", time.Second, 2 * time.Minute},
		{"bogus", time.Second, time.Second},
		{"0s", time.Second, time.Second},
		{"-5s", time.Second, time.Second},
	}
	for _, tt := range tests {
		if got := parseDuration(tt.in, tt.def); got != tt.want {
			t.Errorf("parseDuration(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
