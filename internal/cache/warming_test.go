package cache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kjstillabower/weather-client/internal/models"
)

type mockWeatherFetcher struct {
	mu         sync.Mutex
	weatherErr error
	airErr     error
	calls      []string
}

func (m *mockWeatherFetcher) record(call string) {
	m.mu.Lock()
	m.calls = append(m.calls, call)
	m.mu.Unlock()
}

func (m *mockWeatherFetcher) FetchWeather(ctx context.Context, lat, lon float64, tempUnit models.TemperatureUnit, windUnit models.WindSpeedUnit) (models.WeatherData, error) {
	m.record("weather:" + string(tempUnit) + ":" + string(windUnit))
	return models.WeatherData{}, m.weatherErr
}

func (m *mockWeatherFetcher) FetchAirQuality(ctx context.Context, lat, lon float64) (models.AirQualityData, error) {
	m.record("air")
	return models.AirQualityData{}, m.airErr
}

var warmLocations = []models.Location{
	{Name: "Seattle", Lat: 47.6, Lon: -122.3},
	{Name: "Boston", Lat: 42.36, Lon: -71.06},
}

// TestCacheWarmer_Warm_Success verifies every location gets a weather and an air
// quality fetch in the configured units.
func TestCacheWarmer_Warm_Success(t *testing.T) {
	fetcher := &mockWeatherFetcher{}
	warmer := NewCacheWarmer(fetcher, nil)

	err := warmer.Warm(context.Background(), warmLocations, models.UserSettings{TemperatureUnit: models.Fahrenheit, WindSpeedUnit: models.Knots})
	if err != nil {
		t.Fatalf("Warm() error = %v, want nil", err)
	}
	if len(fetcher.calls) != 4 {
		t.Fatalf("calls = %v, want 4", fetcher.calls)
	}
	weather := 0
	for _, c := range fetcher.calls {
		if c == "weather:fahrenheit:knots" {
			weather++
		}
	}
	if weather != 2 {
		t.Errorf("weather calls in requested units = %d, want 2", weather)
	}
}

func TestCacheWarmer_Warm_EmptyLocations(t *testing.T) {
	fetcher := &mockWeatherFetcher{}
	warmer := NewCacheWarmer(fetcher, nil)
	ctx := context.Background()

	if err := warmer.Warm(ctx, nil, models.DefaultSettings()); err != nil {
		t.Fatalf("Warm() with nil locations error = %v, want nil", err)
	}
	if err := warmer.Warm(ctx, []models.Location{}, models.DefaultSettings()); err != nil {
		t.Fatalf("Warm() with empty locations error = %v, want nil", err)
	}
}

// TestCacheWarmer_Warm_FetcherError verifies failures are aggregated and name the
// location.
func TestCacheWarmer_Warm_FetcherError(t *testing.T) {
	fetcher := &mockWeatherFetcher{airErr: errors.New("api down")}
	warmer := NewCacheWarmer(fetcher, nil)

	err := warmer.Warm(context.Background(), warmLocations[:1], models.DefaultSettings())
	if err == nil {
		t.Fatal("Warm() error = nil, want non-nil")
	}
	if !strings.Contains(err.Error(), "warm air quality Seattle: api down") {
		t.Errorf("Warm() error = %q", err)
	}
}

// TestCacheWarmer_WarmPeriodic_StopsOnCancel verifies the loop re-reads locations each
// round and returns when the context ends.
func TestCacheWarmer_WarmPeriodic_StopsOnCancel(t *testing.T) {
	fetcher := &mockWeatherFetcher{}
	warmer := NewCacheWarmer(fetcher, nil)
	ctx, cancel := context.WithCancel(context.Background())

	var mu sync.Mutex
	rounds := 0
	locations := func(context.Context) []models.Location {
		mu.Lock()
		defer mu.Unlock()
		rounds++
		if rounds >= 2 {
			cancel()
		}
		return warmLocations[:1]
	}

	done := make(chan error, 1)
	go func() {
		done <- warmer.WarmPeriodic(ctx, locations, models.DefaultSettings, 5*time.Millisecond)
	}()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("WarmPeriodic() error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("WarmPeriodic() did not stop")
	}
}
