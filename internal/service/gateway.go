package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/kjstillabower/weather-client/internal/cache"
	"github.com/kjstillabower/weather-client/internal/client"
	"github.com/kjstillabower/weather-client/internal/connectivity"
	"github.com/kjstillabower/weather-client/internal/models"
	"github.com/kjstillabower/weather-client/internal/observability"
	"github.com/kjstillabower/weather-client/internal/store"
	"github.com/kjstillabower/weather-client/internal/validation"
)

// ErrInvalidUnit is returned when FetchWeather is called with an unsupported unit.
var ErrInvalidUnit = errors.New("invalid unit")

// Payload kinds, used as metric labels and to namespace in-flight requests.
const (
	kindSearch     = "search"
	kindReverse    = "reverse"
	kindWeather    = "weather"
	kindAirQuality = "air_quality"
)

const tracerName = "github.com/kjstillabower/weather-client/internal/service"

// Caches holds one response cache per payload kind.
type Caches struct {
	Locations  cache.Cache[[]models.Location]
	Reverse    cache.Cache[models.Location]
	Weather    cache.Cache[models.WeatherData]
	AirQuality cache.Cache[models.AirQualityData]
}

// NewInMemoryCaches builds process-local caches sharing one TTL.
func NewInMemoryCaches(ttl time.Duration) Caches {
	return Caches{
		Locations:  cache.NewInMemoryCache[[]models.Location](ttl),
		Reverse:    cache.NewInMemoryCache[models.Location](ttl),
		Weather:    cache.NewInMemoryCache[models.WeatherData](ttl),
		AirQuality: cache.NewInMemoryCache[models.AirQualityData](ttl),
	}
}

// Gateway fetches geocoding, weather and air-quality data from Open-Meteo. Responses are
// served from the caches when fresh; weather and air quality are also written to the
// durable store and served from it when a fetch fails while offline. Gateway holds no
// user state and is safe for concurrent use.
type Gateway struct {
	client         client.WeatherClient
	caches         Caches
	store          *store.Adapter
	online         connectivity.Checker
	logger         *zap.Logger
	tracer         trace.Tracer
	now            func() time.Time
	requestTimeout time.Duration

	flights singleflight.Group
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithClock replaces the time source used for the hourly window.
func WithClock(now func() time.Time) Option {
	return func(g *Gateway) { g.now = now }
}

// WithRequestTimeout bounds each upstream fetch, including retries. Zero disables it.
func WithRequestTimeout(d time.Duration) Option {
	return func(g *Gateway) { g.requestTimeout = d }
}

// NewGateway wires a Gateway. A nil adapter disables snapshots; a nil checker reports
// online, so failures are never masked. Nil caches default to in-memory ones.
func NewGateway(c client.WeatherClient, caches Caches, st *store.Adapter, online connectivity.Checker, logger *zap.Logger, opts ...Option) *Gateway {
	logger = observability.OrNop(logger)
	def := NewInMemoryCaches(cache.DefaultTTL)
	if caches.Locations == nil {
		caches.Locations = def.Locations
	}
	if caches.Reverse == nil {
		caches.Reverse = def.Reverse
	}
	if caches.Weather == nil {
		caches.Weather = def.Weather
	}
	if caches.AirQuality == nil {
		caches.AirQuality = def.AirQuality
	}
	if st == nil {
		st = store.NewAdapter(nil, logger)
	}
	if online == nil {
		online = connectivity.Static(true)
	}
	g := &Gateway{
		client:         c,
		caches:         caches,
		store:          st,
		online:         online,
		logger:         logger,
		tracer:         otel.Tracer(tracerName),
		now:            time.Now,
		requestTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// SearchLocations returns up to five places matching query. Queries shorter than two
// runes after trimming return an empty result without a request. An upstream response
// without results yields an empty, uncached result.
func (g *Gateway) SearchLocations(ctx context.Context, query string) ([]models.Location, error) {
	q := strings.TrimSpace(query)
	if validation.QueryTooShort(q) {
		observability.GatewayRequestsTotal.WithLabelValues(kindSearch, "empty").Inc()
		return []models.Location{}, nil
	}
	ctx, span := g.start(ctx, "Gateway.SearchLocations", attribute.String("query", q))
	defer span.End()

	locs, _, err := readThrough(ctx, g, kindSearch, SearchKey(q), g.caches.Locations, false,
		func(ctx context.Context) ([]models.Location, bool, error) {
			resp, err := g.client.Search(ctx, q, maxSearchResults)
			if err != nil {
				return nil, false, err
			}
			if resp.Results == nil {
				return []models.Location{}, false, nil
			}
			return toLocations(resp.Results), true, nil
		})
	if err != nil {
		return nil, g.fail(span, kindSearch, fmt.Errorf("search locations %q: %w", q, err))
	}
	return locs, nil
}

// ResolveLocation returns the place nearest to the coordinates. found is false when the
// upstream has no match; only matches are cached.
func (g *Gateway) ResolveLocation(ctx context.Context, lat, lon float64) (models.Location, bool, error) {
	ctx, span := g.start(ctx, "Gateway.ResolveLocation", attribute.Float64("lat", lat), attribute.Float64("lon", lon))
	defer span.End()

	loc, found, err := readThrough(ctx, g, kindReverse, ReverseKey(lat, lon), g.caches.Reverse, false,
		func(ctx context.Context) (models.Location, bool, error) {
			resp, err := g.client.Nearest(ctx, lat, lon)
			if err != nil {
				return models.Location{}, false, err
			}
			if len(resp.Results) == 0 {
				return models.Location{}, false, nil
			}
			return toLocation(resp.Results[0]), true, nil
		})
	if err != nil {
		return models.Location{}, false, g.fail(span, kindReverse, fmt.Errorf("resolve location %s,%s: %w",
			client.FormatCoordinate(lat), client.FormatCoordinate(lon), err))
	}
	return loc, found, nil
}

// FetchWeather returns current conditions, the next 24 hourly samples and the 7-day
// outlook in the requested units. The forecast and sun-times requests run concurrently
// and both must succeed.
func (g *Gateway) FetchWeather(ctx context.Context, lat, lon float64, tempUnit models.TemperatureUnit, windUnit models.WindSpeedUnit) (models.WeatherData, error) {
	if !tempUnit.Valid() || !windUnit.Valid() {
		return models.WeatherData{}, fmt.Errorf("%w: %q/%q", ErrInvalidUnit, tempUnit, windUnit)
	}
	ctx, span := g.start(ctx, "Gateway.FetchWeather",
		attribute.Float64("lat", lat), attribute.Float64("lon", lon),
		attribute.String("temperature_unit", string(tempUnit)), attribute.String("wind_speed_unit", string(windUnit)))
	defer span.End()

	data, _, err := readThrough(ctx, g, kindWeather, WeatherKey(lat, lon, tempUnit, windUnit), g.caches.Weather, true,
		func(ctx context.Context) (models.WeatherData, bool, error) {
			var (
				forecast client.ForecastResponse
				sun      client.SunTimesResponse
			)
			eg, egCtx := errgroup.WithContext(ctx)
			eg.Go(func() error {
				var err error
				if forecast, err = g.client.Forecast(egCtx, lat, lon, tempUnit, windUnit); err != nil {
					return fmt.Errorf("forecast: %w", err)
				}
				return nil
			})
			eg.Go(func() error {
				var err error
				if sun, err = g.client.SunTimes(egCtx, lat, lon); err != nil {
					return fmt.Errorf("sun times: %w", err)
				}
				return nil
			})
			if err := eg.Wait(); err != nil {
				return models.WeatherData{}, false, err
			}
			data, err := assembleWeather(forecast, sun, g.now())
			if err != nil {
				return models.WeatherData{}, false, err
			}
			return data, true, nil
		})
	if err != nil {
		return models.WeatherData{}, g.fail(span, kindWeather, fmt.Errorf("fetch weather: %w", err))
	}
	return data, nil
}

// FetchAirQuality returns current pollutant readings with the AQI bucketed into 1..5.
func (g *Gateway) FetchAirQuality(ctx context.Context, lat, lon float64) (models.AirQualityData, error) {
	ctx, span := g.start(ctx, "Gateway.FetchAirQuality", attribute.Float64("lat", lat), attribute.Float64("lon", lon))
	defer span.End()

	data, _, err := readThrough(ctx, g, kindAirQuality, AirQualityKey(lat, lon), g.caches.AirQuality, true,
		func(ctx context.Context) (models.AirQualityData, bool, error) {
			resp, err := g.client.AirQuality(ctx, lat, lon)
			if err != nil {
				return models.AirQualityData{}, false, err
			}
			data, err := assembleAirQuality(resp)
			if err != nil {
				return models.AirQualityData{}, false, err
			}
			return data, true, nil
		})
	if err != nil {
		return models.AirQualityData{}, g.fail(span, kindAirQuality, fmt.Errorf("fetch air quality: %w", err))
	}
	return data, nil
}

// start opens a span and makes sure the context carries a correlation id.
func (g *Gateway) start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	id := client.CorrelationID(ctx)
	if id == "" {
		id = uuid.NewString()
		ctx = client.WithCorrelationID(ctx, id)
	}
	attrs = append(attrs, attribute.String("correlation_id", id))
	return g.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (g *Gateway) fail(span trace.Span, kind string, err error) error {
	observability.GatewayRequestsTotal.WithLabelValues(kind, "error").Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	g.logger.Warn("gateway request failed",
		zap.String("kind", kind),
		zap.String("category", string(client.CategorizeError(err))),
		zap.Error(err),
	)
	return err
}

// flight is the shared result of one upstream fetch.
type flight[T any] struct {
	value T
	ok    bool
}

// readThrough serves key from c when fresh, otherwise fetches once per key across
// concurrent callers. Fetch reports whether its value is definitive; only definitive
// values are written to the cache and, when snapshot is set, to the durable store. When
// the fetch fails while offline, a snapshotted kind is served from the store.
func readThrough[T any](ctx context.Context, g *Gateway, kind, key string, c cache.Cache[T], snapshot bool, fetch func(context.Context) (T, bool, error)) (T, bool, error) {
	var zero T
	id := client.CorrelationID(ctx)

	cached, hit, err := c.Get(ctx, key)
	if err != nil {
		observability.CacheErrorsTotal.WithLabelValues("get").Inc()
		g.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
	}
	if hit {
		observability.CacheHitsTotal.WithLabelValues(kind).Inc()
		observability.GatewayRequestsTotal.WithLabelValues(kind, "cache").Inc()
		g.logger.Debug("cache hit", zap.String("key", key), zap.String("correlation_id", id))
		return cached, true, nil
	}
	observability.CacheMissesTotal.WithLabelValues(kind).Inc()
	g.logger.Debug("cache miss, fetching upstream", zap.String("key", key), zap.String("correlation_id", id))

	ch := g.flights.DoChan(kind+"|"+key, func() (any, error) {
		// Detached from the first caller so its cancellation does not fail the others.
		fctx := context.WithoutCancel(ctx)
		if g.requestTimeout > 0 {
			var cancel context.CancelFunc
			fctx, cancel = context.WithTimeout(fctx, g.requestTimeout)
			defer cancel()
		}
		v, ok, err := fetch(fctx)
		if err != nil {
			return nil, err
		}
		if ok {
			if err := c.Set(fctx, key, v); err != nil {
				observability.CacheErrorsTotal.WithLabelValues("set").Inc()
				g.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
			}
			if snapshot {
				g.store.SaveSnapshot(fctx, key, v)
			}
		}
		return flight[T]{value: v, ok: ok}, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return zero, false, ctx.Err()
	case res = <-ch:
	}
	if res.Shared {
		observability.CoalescedRequestsTotal.WithLabelValues(kind).Inc()
	}
	if res.Err != nil {
		if snapshot && ctx.Err() == nil && !g.online.Online(ctx) {
			var stored T
			if g.store.LoadSnapshot(ctx, key, &stored) {
				observability.OfflineFallbacksTotal.WithLabelValues(kind, "served").Inc()
				observability.GatewayRequestsTotal.WithLabelValues(kind, "offline").Inc()
				g.logger.Info("offline, serving snapshot", zap.String("key", key), zap.Error(res.Err))
				return stored, true, nil
			}
			observability.OfflineFallbacksTotal.WithLabelValues(kind, "missing").Inc()
		}
		return zero, false, res.Err
	}

	f := res.Val.(flight[T])
	observability.GatewayRequestsTotal.WithLabelValues(kind, "live").Inc()
	return f.value, f.ok, nil
}
