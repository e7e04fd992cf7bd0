package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/weather-client/internal/models"
	"github.com/kjstillabower/weather-client/internal/observability"
)

// WeatherClient issues the Open-Meteo requests the gateway needs and returns decoded
// payloads. Implementations must be safe for concurrent use.
type WeatherClient interface {
	Search(ctx context.Context, name string, count int) (GeocodingResponse, error)
	Nearest(ctx context.Context, lat, lon float64) (GeocodingResponse, error)
	Forecast(ctx context.Context, lat, lon float64, tempUnit models.TemperatureUnit, windUnit models.WindSpeedUnit) (ForecastResponse, error)
	SunTimes(ctx context.Context, lat, lon float64) (SunTimesResponse, error)
	AirQuality(ctx context.Context, lat, lon float64) (AirQualityResponse, error)
}

var (
	ErrUpstreamFailure  = errors.New("upstream failure")
	ErrRateLimited      = errors.New("rate limited")
	ErrBadRequest       = errors.New("bad request")
	ErrCircuitOpen      = errors.New("circuit breaker open")
	ErrMalformedPayload = errors.New("malformed payload")
	ErrInvalidConfig    = errors.New("invalid client config")
)

// Endpoint labels used for metrics and breaker names.
const (
	EndpointGeocoding  = "geocoding"
	EndpointForecast   = "forecast"
	EndpointAirQuality = "air_quality"
)

const (
	forecastFields = "temperature_2m,relative_humidity_2m,apparent_temperature,is_day,precipitation,weather_code,surface_pressure,wind_speed_10m,wind_direction_10m,wind_gusts_10m"
	hourlyFields   = "temperature_2m,precipitation_probability,weather_code,is_day"
	dailyFields    = "weather_code,temperature_2m_max,temperature_2m_min,precipitation_probability_max,wind_speed_10m_max,uv_index_max"
	airFields      = "european_aqi,pm10,pm2_5,carbon_monoxide,nitrogen_dioxide,sulphur_dioxide,ozone"

	maxBodyBytes = 4 << 20
)

// Config holds endpoint and resilience settings for OpenMeteoClient.
type Config struct {
	GeocodingURL  string
	ForecastURL   string
	AirQualityURL string

	// Timeout bounds each HTTP attempt.
	Timeout time.Duration

	// RetryAttempts is the total number of attempts, including the first.
	RetryAttempts  int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration

	// RateLimit is requests per second across all endpoints; zero disables limiting.
	RateLimit float64
	RateBurst int

	// BreakerFailures consecutive failures open an endpoint's breaker for BreakerTimeout.
	BreakerFailures uint32
	BreakerTimeout  time.Duration

	// HTTPClient overrides the transport. Nil uses a client with Timeout.
	HTTPClient *http.Client
}

// DefaultConfig returns the public Open-Meteo endpoints with conservative resilience settings.
func DefaultConfig() Config {
	return Config{
		GeocodingURL:    "https://geocoding-api.open-meteo.com",
		ForecastURL:     "https://api.open-meteo.com",
		AirQualityURL:   "https://air-quality-api.open-meteo.com",
		Timeout:         10 * time.Second,
		RetryAttempts:   3,
		RetryBaseDelay:  200 * time.Millisecond,
		RetryMaxDelay:   2 * time.Second,
		RateLimit:       10,
		RateBurst:       5,
		BreakerFailures: 5,
		BreakerTimeout:  30 * time.Second,
	}
}

type endpoint struct {
	name    string
	base    *url.URL
	breaker *gobreaker.CircuitBreaker[[]byte]
}

// OpenMeteoClient implements WeatherClient against the public Open-Meteo APIs. Each
// endpoint has its own circuit breaker; the rate limiter is shared.
type OpenMeteoClient struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger

	geocoding  endpoint
	forecast   endpoint
	airQuality endpoint
}

// NewOpenMeteoClient validates cfg and builds a client. Zero resilience fields take the
// values from DefaultConfig.
func NewOpenMeteoClient(cfg Config, logger *zap.Logger) (*OpenMeteoClient, error) {
	def := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 1
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = def.RetryBaseDelay
	}
	if cfg.RetryMaxDelay < cfg.RetryBaseDelay {
		cfg.RetryMaxDelay = cfg.RetryBaseDelay
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = def.BreakerFailures
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = def.BreakerTimeout
	}

	c := &OpenMeteoClient{
		cfg:        cfg,
		httpClient: cfg.HTTPClient,
		logger:     observability.OrNop(logger),
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	} else {
		c.limiter = rate.NewLimiter(rate.Inf, 0)
	}

	var err error
	if c.geocoding, err = c.newEndpoint(EndpointGeocoding, cfg.GeocodingURL); err != nil {
		return nil, err
	}
	if c.forecast, err = c.newEndpoint(EndpointForecast, cfg.ForecastURL); err != nil {
		return nil, err
	}
	if c.airQuality, err = c.newEndpoint(EndpointAirQuality, cfg.AirQualityURL); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *OpenMeteoClient) newEndpoint(name, raw string) (endpoint, error) {
	base, err := url.Parse(raw)
	if err != nil || (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return endpoint{}, fmt.Errorf("%w: %s URL %q", ErrInvalidConfig, name, raw)
	}
	observability.CircuitBreakerState.WithLabelValues(name).Set(0)
	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     c.cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= c.cfg.BreakerFailures
		},
		IsSuccessful: func(err error) bool {
			// Caller mistakes and caller cancellation say nothing about upstream health.
			return err == nil || errors.Is(err, ErrBadRequest) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			observability.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			observability.CircuitBreakerTransitionsTotal.WithLabelValues(name, from.String(), to.String()).Inc()
			c.logger.Warn("circuit breaker state change",
				zap.String("endpoint", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return endpoint{name: name, base: base, breaker: breaker}, nil
}

// Search looks up places by name.
func (c *OpenMeteoClient) Search(ctx context.Context, name string, count int) (GeocodingResponse, error) {
	params := url.Values{}
	params.Set("name", name)
	params.Set("count", strconv.Itoa(count))
	params.Set("language", "en")
	params.Set("format", "json")

	var resp GeocodingResponse
	err := c.getJSON(ctx, c.geocoding, "/v1/search", params, &resp)
	return resp, err
}

// Nearest asks the geocoding search for the single place closest to the coordinates.
func (c *OpenMeteoClient) Nearest(ctx context.Context, lat, lon float64) (GeocodingResponse, error) {
	params := coordinates(lat, lon)
	params.Set("count", "1")
	params.Set("language", "en")
	params.Set("format", "json")

	var resp GeocodingResponse
	err := c.getJSON(ctx, c.geocoding, "/v1/search", params, &resp)
	return resp, err
}

// Forecast fetches current conditions, hourly samples and seven daily summaries in the
// requested units. Precipitation is always millimetres.
func (c *OpenMeteoClient) Forecast(ctx context.Context, lat, lon float64, tempUnit models.TemperatureUnit, windUnit models.WindSpeedUnit) (ForecastResponse, error) {
	params := coordinates(lat, lon)
	params.Set("current", forecastFields)
	params.Set("hourly", hourlyFields)
	params.Set("daily", dailyFields)
	params.Set("temperature_unit", string(tempUnit))
	params.Set("wind_speed_unit", windSpeedParam(windUnit))
	params.Set("precipitation_unit", "mm")
	params.Set("timezone", "auto")
	params.Set("forecast_days", "7")

	var resp ForecastResponse
	err := c.getJSON(ctx, c.forecast, "/v1/forecast", params, &resp)
	return resp, err
}

// windSpeedParam maps a unit to Open-Meteo's spelling, which abbreviates knots.
func windSpeedParam(u models.WindSpeedUnit) string {
	if u == models.Knots {
		return "kn"
	}
	return string(u)
}

// SunTimes fetches today's sunrise and sunset.
func (c *OpenMeteoClient) SunTimes(ctx context.Context, lat, lon float64) (SunTimesResponse, error) {
	params := coordinates(lat, lon)
	params.Set("daily", "sunrise,sunset")
	params.Set("timezone", "auto")
	params.Set("forecast_days", "1")

	var resp SunTimesResponse
	err := c.getJSON(ctx, c.forecast, "/v1/forecast", params, &resp)
	return resp, err
}

// AirQuality fetches current pollutant readings and the European AQI.
func (c *OpenMeteoClient) AirQuality(ctx context.Context, lat, lon float64) (AirQualityResponse, error) {
	params := coordinates(lat, lon)
	params.Set("current", airFields)

	var resp AirQualityResponse
	err := c.getJSON(ctx, c.airQuality, "/v1/air-quality", params, &resp)
	return resp, err
}

// BreakerState reports the breaker state for an endpoint label.
func (c *OpenMeteoClient) BreakerState(name string) gobreaker.State {
	switch name {
	case EndpointGeocoding:
		return c.geocoding.breaker.State()
	case EndpointAirQuality:
		return c.airQuality.breaker.State()
	default:
		return c.forecast.breaker.State()
	}
}

func coordinates(lat, lon float64) url.Values {
	params := url.Values{}
	params.Set("latitude", FormatCoordinate(lat))
	params.Set("longitude", FormatCoordinate(lon))
	return params
}

// FormatCoordinate renders a coordinate in the shortest form that round-trips, so
// 40.7 stays "40.7" and -74 stays "-74".
func FormatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// getJSON runs one logical request: rate limit, breaker, retries with exponential
// backoff, then decode into dest.
func (c *OpenMeteoClient) getJSON(ctx context.Context, ep endpoint, path string, params url.Values, dest any) error {
	u := *ep.base
	u.Path = path
	u.RawQuery = params.Encode()
	target := u.String()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.cfg.RetryBaseDelay
	bo.MaxInterval = c.cfg.RetryMaxDelay
	bo.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(c.cfg.RetryAttempts-1)), ctx)

	var body []byte
	operation := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		b, err := ep.breaker.Execute(func() ([]byte, error) {
			return c.call(ctx, ep.name, target)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(fmt.Errorf("%w: %s", ErrCircuitOpen, ep.name))
			}
			if !isRetryable(ctx, err) {
				return backoff.Permanent(err)
			}
			return err
		}
		body = b
		return nil
	}
	notify := func(err error, wait time.Duration) {
		observability.UpstreamRetriesTotal.WithLabelValues(ep.name).Inc()
		c.logger.Debug("retrying upstream call",
			zap.String("endpoint", ep.name),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	}

	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		observability.UpstreamErrorsTotal.WithLabelValues(ep.name, string(CategorizeError(err))).Inc()
		return err
	}

	if err := json.Unmarshal(body, dest); err != nil {
		observability.UpstreamErrorsTotal.WithLabelValues(ep.name, string(ErrorCategoryMalformed)).Inc()
		return fmt.Errorf("%w: %s: %v", ErrMalformedPayload, ep.name, err)
	}
	return nil
}

// call performs a single HTTP attempt and maps the status to the error taxonomy.
func (c *OpenMeteoClient) call(ctx context.Context, name, target string) ([]byte, error) {
	start := time.Now()

	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if id := CorrelationID(ctx); id != "" {
		req.Header.Set("X-Correlation-ID", id)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		observability.UpstreamCallsTotal.WithLabelValues(name, "error").Inc()
		observability.UpstreamDuration.WithLabelValues(name, "error").Observe(time.Since(start).Seconds())
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("request timeout: %w", err)
		}
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	status := statusLabel(resp.StatusCode)
	observability.UpstreamCallsTotal.WithLabelValues(name, status).Inc()
	observability.UpstreamDuration.WithLabelValues(name, status).Observe(time.Since(start).Seconds())

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if err := statusError(resp.StatusCode, body); err != nil {
		return nil, err
	}
	return body, nil
}

func statusError(code int, body []byte) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: HTTP %d", ErrRateLimited, code)
	case code >= 400 && code < 500:
		var apiErr apiError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Reason != "" {
			return fmt.Errorf("%w: HTTP %d: %s", ErrBadRequest, code, apiErr.Reason)
		}
		return fmt.Errorf("%w: HTTP %d", ErrBadRequest, code)
	default:
		return fmt.Errorf("%w: HTTP %d", ErrUpstreamFailure, code)
	}
}

// isRetryable reports whether another attempt may succeed. Caller cancellation and
// client errors are final.
func isRetryable(ctx context.Context, err error) bool {
	if err == nil || ctx.Err() != nil {
		return false
	}
	if errors.Is(err, ErrBadRequest) {
		return false
	}
	return true
}

func statusLabel(statusCode int) string {
	if statusCode >= 200 && statusCode < 300 {
		return "success"
	}
	if statusCode == 429 {
		return "rate_limited"
	}
	if statusCode >= 400 && statusCode < 500 {
		return "client_error"
	}
	if statusCode >= 500 {
		return "server_error"
	}
	return "error"
}
