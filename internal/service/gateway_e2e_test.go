package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/kjstillabower/weather-client/internal/client"
	"github.com/kjstillabower/weather-client/internal/models"
	"github.com/kjstillabower/weather-client/internal/store"
)

// fakeOpenMeteo serves the three Open-Meteo APIs from fixtures and counts requests.
func fakeOpenMeteo(t *testing.T, forecastHits, airHits *atomic.Int32) *httptest.Server {
	t.Helper()
	aqi := 55.0
	r := mux.NewRouter()
	r.HandleFunc("/v1/search", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Berlin", r.URL.Query().Get("name"))
		assert.Equal(t, "5", r.URL.Query().Get("count"))
		_ = json.NewEncoder(w).Encode(client.GeocodingResponse{Results: []client.GeocodingResult{
			{Name: "Berlin", Latitude: 52.52, Longitude: 13.41, Country: "Germany", Admin1: "Land Berlin"},
		}})
	})
	r.HandleFunc("/v1/forecast", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("daily") == "sunrise,sunset" {
			_ = json.NewEncoder(w).Encode(sunFixture())
			return
		}
		forecastHits.Add(1)
		assert.NotEmpty(t, r.Header.Get("X-Correlation-ID"))
		assert.Equal(t, "fahrenheit", r.URL.Query().Get("temperature_unit"))
		_ = json.NewEncoder(w).Encode(forecastFixture(3600))
	})
	r.HandleFunc("/v1/air-quality", func(w http.ResponseWriter, r *http.Request) {
		airHits.Add(1)
		_ = json.NewEncoder(w).Encode(client.AirQualityResponse{Current: &client.AirQualityCurrent{EuropeanAQI: &aqi, PM25: 20}})
	})
	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return server
}

// TestGateway_EndToEnd drives the gateway against a fake Open-Meteo through the real HTTP
// client, then takes the server down and checks the offline path.
func TestGateway_EndToEnd(t *testing.T) {
	var forecastHits, airHits atomic.Int32
	server := fakeOpenMeteo(t, &forecastHits, &airHits)

	oc, err := client.NewOpenMeteoClient(client.Config{
		GeocodingURL:    server.URL,
		ForecastURL:     server.URL,
		AirQualityURL:   server.URL,
		Timeout:         2 * time.Second,
		RetryAttempts:   1,
		BreakerFailures: 100,
	}, zaptest.NewLogger(t))
	require.NoError(t, err)

	adapter := store.NewAdapter(store.NewMemoryBackend(), nil)
	online := &toggle{}
	online.up.Store(true)
	gw := NewGateway(oc, NewInMemoryCaches(time.Millisecond), adapter, online, nil,
		WithClock(func() time.Time { return testNow }))
	ctx := context.Background()

	locs, err := gw.SearchLocations(ctx, " Berlin ")
	require.NoError(t, err)
	require.Len(t, locs, 1)
	assert.Equal(t, "Land Berlin", locs[0].State)

	data, err := gw.FetchWeather(ctx, 52.52, 13.41, models.Fahrenheit, models.KilometresPerHour)
	require.NoError(t, err)
	assert.Len(t, data.Hourly, 24)
	assert.Len(t, data.Daily, 7)
	assert.EqualValues(t, 1, forecastHits.Load())

	air, err := gw.FetchAirQuality(ctx, 52.52, 13.41)
	require.NoError(t, err)
	assert.Equal(t, 3, air.AQI)
	assert.Equal(t, "Moderate", air.Category)

	server.Close()
	online.up.Store(false)
	time.Sleep(5 * time.Millisecond)

	offline, err := gw.FetchWeather(ctx, 52.52, 13.41, models.Fahrenheit, models.KilometresPerHour)
	require.NoError(t, err)
	assert.Equal(t, data, offline)
	offlineAir, err := gw.FetchAirQuality(ctx, 52.52, 13.41)
	require.NoError(t, err)
	assert.Equal(t, air, offlineAir)
}

type toggle struct{ up atomic.Bool }

func (tg *toggle) Online(context.Context) bool { return tg.up.Load() }
