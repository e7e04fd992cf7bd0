// Command weather looks up places, current conditions, forecasts and air quality from
// Open-Meteo, and manages saved favorites, the home location and unit settings.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/kjstillabower/weather-client/internal/cache"
	"github.com/kjstillabower/weather-client/internal/client"
	"github.com/kjstillabower/weather-client/internal/config"
	"github.com/kjstillabower/weather-client/internal/connectivity"
	"github.com/kjstillabower/weather-client/internal/models"
	"github.com/kjstillabower/weather-client/internal/observability"
	"github.com/kjstillabower/weather-client/internal/service"
	"github.com/kjstillabower/weather-client/internal/store"
)

const usage = `usage: weather [-json] [-offline] <command> [args]

commands:
  search <query>                   find places by name
  locate <lat> <lon>               nearest named place
  weather [-units c|f] [-wind u] [<lat> <lon>]
                                   conditions and forecast (home when no coordinates)
  air [<lat> <lon>]                air quality
  favorites list|add|remove        saved locations
  home get|set <lat> <lon>         home location
  settings get|set <temp> <wind>   unit preferences
  warm [-interval d] [-once]       refresh favorites and home in the background
`

// errUsage marks errors caused by bad arguments; run prints usage and exits 2.
var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run parses global flags, wires the app and dispatches one command.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("weather", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usage) }
	jsonOut := fs.Bool("json", false, "print JSON")
	offline := fs.Bool("offline", false, "treat the network as unavailable")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	logger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(stderr, "logger: %v\n", err)
		return 1
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 1
	}
	if *offline {
		cfg.Offline = true
	}

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(stderr, "startup: %v\n", err)
		return 1
	}
	a.out = newPrinter(stdout, *jsonOut)

	err = a.dispatch(ctx, fs.Arg(0), fs.Args()[1:])
	a.close()
	if ferr := observability.FlushTelemetry(context.Background(), logger, cfg.MetricsTextfile); ferr != nil {
		fmt.Fprintf(stderr, "telemetry flush: %v\n", ferr)
	}
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage):
		fmt.Fprintf(stderr, "%v\n", err)
		fs.Usage()
		return 2
	default:
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
}

// app holds everything a command needs.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	gateway  *service.Gateway
	store    *store.Adapter
	settings *store.Settings
	warmer   *cache.CacheWarmer
	out      *printer

	closers []func() error
}

func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	wc, err := client.NewOpenMeteoClient(client.Config{
		GeocodingURL:    cfg.GeocodingURL,
		ForecastURL:     cfg.ForecastURL,
		AirQualityURL:   cfg.AirQualityURL,
		Timeout:         cfg.APITimeout,
		RetryAttempts:   cfg.RetryAttempts,
		RetryBaseDelay:  cfg.RetryBaseDelay,
		RetryMaxDelay:   cfg.RetryMaxDelay,
		RateLimit:       cfg.RateLimitRPS,
		RateBurst:       cfg.RateLimitBurst,
		BreakerFailures: cfg.BreakerFailures,
		BreakerTimeout:  cfg.BreakerTimeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("weather client: %w", err)
	}

	var caches service.Caches
	switch cfg.CacheBackend {
	case "memcached":
		mc := cache.NewMemcachedClient(cfg.MemcachedAddrs, cfg.MemcachedTimeout, cfg.MemcachedMaxIdleConns)
		a.closers = append(a.closers, mc.Close)
		caches = service.Caches{
			Locations:  cache.NewMemcachedCache[[]models.Location](mc, cfg.CacheTTL),
			Reverse:    cache.NewMemcachedCache[models.Location](mc, cfg.CacheTTL),
			Weather:    cache.NewMemcachedCache[models.WeatherData](mc, cfg.CacheTTL),
			AirQuality: cache.NewMemcachedCache[models.AirQualityData](mc, cfg.CacheTTL),
		}
		logger.Info("cache backend: memcached", zap.String("addrs", cfg.MemcachedAddrs))
	default:
		caches = service.NewInMemoryCaches(cfg.CacheTTL)
		logger.Info("cache backend: in_memory")
	}

	backend, err := openBackend(ctx, cfg, logger)
	if err != nil {
		a.close()
		return nil, err
	}
	a.store = store.NewAdapter(backend, logger)
	a.closers = append(a.closers, a.store.Close)
	a.settings = store.LoadSettings(ctx, a.store)

	var online connectivity.Checker = connectivity.NewProbe(cfg.ProbeAddr, cfg.ProbeTimeout, cfg.ProbeTTL, logger)
	if cfg.Offline {
		online = connectivity.Static(false)
	}

	a.gateway = service.NewGateway(wc, caches, a.store, online, logger, service.WithRequestTimeout(cfg.RequestTimeout))
	a.warmer = cache.NewCacheWarmer(a.gateway, logger)
	return a, nil
}

// openBackend opens the durable store. A store that cannot be opened is logged and
// replaced by none: the client keeps working without persistence.
func openBackend(ctx context.Context, cfg *config.Config, logger *zap.Logger) (store.Backend, error) {
	switch cfg.StoreBackend {
	case "sqlite":
		b, err := store.OpenSQLite(ctx, cfg.StorePath)
		if err != nil {
			logger.Warn("durable store unavailable", zap.String("backend", "sqlite"), zap.Error(err))
			return nil, nil
		}
		return b, nil
	case "redis":
		b, err := store.NewRedisBackend(ctx, store.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		})
		if err != nil {
			logger.Warn("durable store unavailable", zap.String("backend", "redis"), zap.Error(err))
			return nil, nil
		}
		return b, nil
	case "memory":
		return store.NewMemoryBackend(), nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close failed", zap.Error(err))
		}
	}
	a.closers = nil
}
