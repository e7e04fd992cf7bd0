package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds client configuration loaded from .env, YAML and environment variables.
type Config struct {
	Env string

	GeocodingURL  string        `validate:"required,url"`
	ForecastURL   string        `validate:"required,url"`
	AirQualityURL string        `validate:"required,url"`
	APITimeout    time.Duration `validate:"gt=0"`

	// RequestTimeout bounds one gateway operation including retries.
	RequestTimeout time.Duration

	RetryAttempts   int           `validate:"min=1,max=10"`
	RetryBaseDelay  time.Duration `validate:"gt=0"`
	RetryMaxDelay   time.Duration `validate:"gt=0"`
	RateLimitRPS    float64       `validate:"gte=0"`
	RateLimitBurst  int           `validate:"gte=0"`
	BreakerFailures uint32        `validate:"min=1"`
	BreakerTimeout  time.Duration `validate:"gt=0"`

	CacheTTL              time.Duration `validate:"gt=0"`
	CacheBackend          string        `validate:"oneof=in_memory memcached"`
	MemcachedAddrs        string
	MemcachedTimeout      time.Duration
	MemcachedMaxIdleConns int

	StoreBackend  string `validate:"oneof=sqlite redis memory none"`
	StorePath     string
	RedisAddr     string
	RedisPassword string
	RedisDB       int `validate:"gte=0,lte=15"`
	RedisPrefix   string

	// Offline forces the connectivity check to report offline.
	Offline      bool
	ProbeAddr    string `validate:"required,hostname_port"`
	ProbeTimeout time.Duration
	ProbeTTL     time.Duration

	WarmInterval time.Duration

	MetricsTextfile string
}

type fileConfig struct {
	API struct {
		GeocodingURL  string `yaml:"geocoding_url"`
		ForecastURL   string `yaml:"forecast_url"`
		AirQualityURL string `yaml:"air_quality_url"`
		Timeout       string `yaml:"timeout"`
	} `yaml:"api"`

	Request struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"request"`

	Reliability struct {
		RetryMaxAttempts int     `yaml:"retry_max_attempts"`
		RetryBaseDelay   string  `yaml:"retry_base_delay"`
		RetryMaxDelay    string  `yaml:"retry_max_delay"`
		RateLimitRPS     float64 `yaml:"rate_limit_rps"`
		RateLimitBurst   int     `yaml:"rate_limit_burst"`
		BreakerFailures  uint32  `yaml:"breaker_failures"`
		BreakerTimeout   string  `yaml:"breaker_timeout"`
	} `yaml:"reliability"`

	Cache struct {
		Backend   string `yaml:"backend"`
		TTL       string `yaml:"ttl"`
		Memcached struct {
			Addrs        string `yaml:"addrs"`
			Timeout      string `yaml:"timeout"`
			MaxIdleConns int    `yaml:"max_idle_conns"`
		} `yaml:"memcached"`
	} `yaml:"cache"`

	Store struct {
		Backend string `yaml:"backend"`
		Path    string `yaml:"path"`
		Redis   struct {
			Addr   string `yaml:"addr"`
			DB     int    `yaml:"db"`
			Prefix string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"store"`

	Connectivity struct {
		Offline      *bool  `yaml:"offline"`
		ProbeAddr    string `yaml:"probe_addr"`
		ProbeTimeout string `yaml:"probe_timeout"`
		ProbeTTL     string `yaml:"probe_ttl"`
	} `yaml:"connectivity"`

	Warming struct {
		Interval string `yaml:"interval"`
	} `yaml:"warming"`

	Metrics struct {
		Textfile string `yaml:"textfile"`
	} `yaml:"metrics"`
}

// Load reads an optional .env file, then CONFIG_FILE or config/{ENV_NAME}.yaml (default
// dev) relative to the working directory, then environment overrides. A missing YAML
// file is not an error; every field has a default.
func Load() (*Config, error) {
	// .env is optional.
	_ = godotenv.Load()

	env := os.Getenv("ENV_NAME")
	if env == "" {
		env = "dev"
	}

	configPath := os.Getenv("CONFIG_FILE")
	if configPath == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("config: get working directory: %w", err)
		}
		configPath = filepath.Join(cwd, "config", env+".yaml")
	}

	var fc fileConfig
	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", configPath, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := fromFile(fc)
	cfg.Env = env
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromFile(fc fileConfig) *Config {
	cfg := &Config{}

	cfg.GeocodingURL = stringOr(fc.API.GeocodingURL, "https://geocoding-api.open-meteo.com")
	cfg.ForecastURL = stringOr(fc.API.ForecastURL, "https://api.open-meteo.com")
	cfg.AirQualityURL = stringOr(fc.API.AirQualityURL, "https://air-quality-api.open-meteo.com")
	cfg.APITimeout = parseDurationOrZero(fc.API.Timeout, 10*time.Second)
	cfg.RequestTimeout = parseDuration(fc.Request.Timeout, 30*time.Second)

	cfg.RetryAttempts = fc.Reliability.RetryMaxAttempts
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 3
	}
	cfg.RetryBaseDelay = parseDuration(fc.Reliability.RetryBaseDelay, 200*time.Millisecond)
	cfg.RetryMaxDelay = parseDuration(fc.Reliability.RetryMaxDelay, 2*time.Second)
	cfg.RateLimitRPS = fc.Reliability.RateLimitRPS
	if cfg.RateLimitRPS == 0 {
		cfg.RateLimitRPS = 10
	}
	cfg.RateLimitBurst = fc.Reliability.RateLimitBurst
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = 5
	}
	cfg.BreakerFailures = fc.Reliability.BreakerFailures
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}
	cfg.BreakerTimeout = parseDuration(fc.Reliability.BreakerTimeout, 30*time.Second)

	cfg.CacheTTL = parseDuration(fc.Cache.TTL, 10*time.Minute)
	cfg.CacheBackend = stringOr(fc.Cache.Backend, "in_memory")
	cfg.MemcachedAddrs = stringOr(fc.Cache.Memcached.Addrs, "localhost:11211")
	cfg.MemcachedTimeout = parseDuration(fc.Cache.Memcached.Timeout, 500*time.Millisecond)
	cfg.MemcachedMaxIdleConns = fc.Cache.Memcached.MaxIdleConns
	if cfg.MemcachedMaxIdleConns <= 0 {
		cfg.MemcachedMaxIdleConns = 2
	}

	cfg.StoreBackend = stringOr(fc.Store.Backend, "sqlite")
	cfg.StorePath = stringOr(fc.Store.Path, defaultStorePath())
	cfg.RedisAddr = stringOr(fc.Store.Redis.Addr, "localhost:6379")
	cfg.RedisDB = fc.Store.Redis.DB
	cfg.RedisPrefix = stringOr(fc.Store.Redis.Prefix, "weather-client:")

	if fc.Connectivity.Offline != nil {
		cfg.Offline = *fc.Connectivity.Offline
	}
	cfg.ProbeAddr = stringOr(fc.Connectivity.ProbeAddr, "api.open-meteo.com:443")
	cfg.ProbeTimeout = parseDuration(fc.Connectivity.ProbeTimeout, 3*time.Second)
	cfg.ProbeTTL = parseDuration(fc.Connectivity.ProbeTTL, 15*time.Second)

	cfg.WarmInterval = parseDuration(fc.Warming.Interval, 15*time.Minute)
	cfg.MetricsTextfile = fc.Metrics.Textfile
	return cfg
}

// applyEnv overrides file values with environment variables.
func applyEnv(cfg *Config) error {
	if v := os.Getenv("CACHE_BACKEND"); v != "" {
		cfg.CacheBackend = v
	}
	if v := os.Getenv("MEMCACHED_ADDRS"); v != "" {
		cfg.MemcachedAddrs = v
	}
	if v := os.Getenv("STORE_BACKEND"); v != "" {
		cfg.StoreBackend = v
	}
	if v := os.Getenv("STORE_PATH"); v != "" {
		cfg.StorePath = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid REDIS_DB: %w", err)
		}
		cfg.RedisDB = n
	}
	if v := os.Getenv("WEATHER_OFFLINE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid WEATHER_OFFLINE: %w", err)
		}
		cfg.Offline = b
	}
	if v := os.Getenv("METRICS_TEXTFILE"); v != "" {
		cfg.MetricsTextfile = v
	}
	return nil
}

func defaultStorePath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "weather-client", "weather.db")
}

func stringOr(s, def string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return def
}

// parseDuration parses a duration string and returns defaultVal if parsing fails or result is <= 0.
// Used for parsing duration fields from YAML config with safe fallback to defaults.
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	d := parseDurationOrZero(s, defaultVal)
	if d <= 0 {
		return defaultVal
	}
	return d
}

// parseDurationOrZero parses a duration string, returning defaultVal on empty string or parse error.
// Returns zero or negative durations as-is (caller should handle fallback).
func parseDurationOrZero(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultVal
	}
	return d
}

var structValidator = validator.New()

// validate checks struct tags, then cross-field rules. RequestTimeout is raised to cover
// APITimeout when needed.
func validate(cfg *Config) error {
	if cfg.APITimeout <= 0 {
		return fmt.Errorf("api.timeout must be positive")
	}
	if err := structValidator.Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if cfg.RequestTimeout <= cfg.APITimeout {
		cfg.RequestTimeout = cfg.APITimeout + time.Second
	}
	if cfg.RetryMaxDelay < cfg.RetryBaseDelay {
		return fmt.Errorf("reliability.retry_max_delay (%v) must be >= retry_base_delay (%v)", cfg.RetryMaxDelay, cfg.RetryBaseDelay)
	}
	switch cfg.StoreBackend {
	case "sqlite":
		if cfg.StorePath == "" {
			return fmt.Errorf("store.path is required for the sqlite backend")
		}
	case "redis":
		if cfg.RedisAddr == "" {
			return fmt.Errorf("store.redis.addr is required for the redis backend")
		}
	}
	if cfg.CacheBackend == "memcached" && cfg.MemcachedAddrs == "" {
		return fmt.Errorf("cache.memcached.addrs is required for the memcached backend")
	}
	return nil
}
