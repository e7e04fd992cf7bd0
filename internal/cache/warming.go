package cache

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/weather-client/internal/models"
	"github.com/kjstillabower/weather-client/internal/observability"
)

// WeatherFetcher is implemented by the gateway. Used by CacheWarmer to avoid a circular
// dependency on the service package.
type WeatherFetcher interface {
	FetchWeather(ctx context.Context, lat, lon float64, tempUnit models.TemperatureUnit, windUnit models.WindSpeedUnit) (models.WeatherData, error)
	FetchAirQuality(ctx context.Context, lat, lon float64) (models.AirQualityData, error)
}

// CacheWarmer prefetches weather and air quality for saved locations. Each successful
// fetch refreshes both the response cache and the offline snapshot for that location.
type CacheWarmer struct {
	fetcher WeatherFetcher
	logger  *zap.Logger
}

// NewCacheWarmer creates a CacheWarmer that uses the given fetcher and logger.
func NewCacheWarmer(fetcher WeatherFetcher, logger *zap.Logger) *CacheWarmer {
	return &CacheWarmer{fetcher: fetcher, logger: logger}
}

// Warm fetches weather and air quality for each location concurrently in the given
// units. Returns an error if any location failed (aggregated).
func (w *CacheWarmer) Warm(ctx context.Context, locations []models.Location, settings models.UserSettings) error {
	start := time.Now()
	observability.CacheWarmingTotal.Inc()
	if w.logger != nil {
		w.logger.Info("warming cache", zap.Int("locations", len(locations)))
	}
	var wg sync.WaitGroup
	errCh := make(chan error, 2*len(locations))
	for _, loc := range locations {
		loc := loc
		wg.Add(2)
		go func() {
			defer wg.Done()
			if _, err := w.fetcher.FetchWeather(ctx, loc.Lat, loc.Lon, settings.TemperatureUnit, settings.WindSpeedUnit); err != nil {
				errCh <- fmt.Errorf("warm weather %s: %w", label(loc), err)
			}
		}()
		go func() {
			defer wg.Done()
			if _, err := w.fetcher.FetchAirQuality(ctx, loc.Lat, loc.Lon); err != nil {
				errCh <- fmt.Errorf("warm air quality %s: %w", label(loc), err)
			}
		}()
	}
	wg.Wait()
	close(errCh)
	var errs []error
	for err := range errCh {
		errs = append(errs, err)
	}
	duration := time.Since(start).Seconds()
	observability.CacheWarmingDurationSeconds.Observe(duration)
	if w.logger != nil {
		w.logger.Info("cache warming complete", zap.Int("locations", len(locations)), zap.Int("errors", len(errs)), zap.Float64("duration_seconds", duration))
	}
	if len(errs) > 0 {
		observability.CacheWarmingErrorsTotal.Inc()
		return fmt.Errorf("cache warming: %v", errs)
	}
	return nil
}

// WarmPeriodic runs an initial Warm, then refreshes at the given interval until ctx is
// done. locations is called before every round so edits to favorites are picked up.
func (w *CacheWarmer) WarmPeriodic(ctx context.Context, locations func(context.Context) []models.Location, settings func() models.UserSettings, interval time.Duration) error {
	if err := w.Warm(ctx, locations(ctx), settings()); err != nil && w.logger != nil {
		w.logger.Warn("initial cache warm failed", zap.Error(err))
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.Warm(ctx, locations(ctx), settings()); err != nil && w.logger != nil {
				w.logger.Warn("periodic cache warm failed", zap.Error(err))
			}
		}
	}
}

func label(loc models.Location) string {
	if loc.Name != "" {
		return loc.Name
	}
	return strconv.FormatFloat(loc.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(loc.Lon, 'f', -1, 64)
}
