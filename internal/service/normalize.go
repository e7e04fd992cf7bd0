package service

import (
	"fmt"
	"time"

	"github.com/kjstillabower/weather-client/internal/client"
	"github.com/kjstillabower/weather-client/internal/format"
	"github.com/kjstillabower/weather-client/internal/models"
)

const (
	maxSearchResults = 5
	hourlyWindow     = 24 * time.Hour
	maxHourly        = 24

	// Open-Meteo has no visibility field; report a fixed 10.
	defaultVisibility = 10
)

var localLayouts = []string{"2006-01-02T15:04", "2006-01-02T15:04:05", "2006-01-02"}

// parseLocal parses an Open-Meteo local timestamp in the response's fixed offset.
func parseLocal(s string, zone *time.Location) (time.Time, error) {
	var err error
	for _, layout := range localLayouts {
		var t time.Time
		if t, err = time.ParseInLocation(layout, s, zone); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

// at returns s[i], or the zero value when the upstream sent a short array.
func at[T any](s []T, i int) T {
	var zero T
	if i < 0 || i >= len(s) {
		return zero
	}
	return s[i]
}

func toLocation(r client.GeocodingResult) models.Location {
	return models.Location{
		Name:    r.Name,
		Lat:     r.Latitude,
		Lon:     r.Longitude,
		Country: r.Country,
		State:   r.Admin1,
	}
}

func toLocations(results []client.GeocodingResult) []models.Location {
	n := len(results)
	if n > maxSearchResults {
		n = maxSearchResults
	}
	out := make([]models.Location, 0, n)
	for _, r := range results[:n] {
		out = append(out, toLocation(r))
	}
	return out
}

// assembleWeather normalizes the forecast and sun-times payloads. Hourly samples are
// kept when they fall in [now, now+24h), at most 24 of them.
func assembleWeather(f client.ForecastResponse, sun client.SunTimesResponse, now time.Time) (models.WeatherData, error) {
	if f.Current == nil || f.Hourly == nil || f.Daily == nil {
		return models.WeatherData{}, fmt.Errorf("%w: forecast missing current, hourly or daily block", client.ErrMalformedPayload)
	}
	if sun.Daily == nil {
		return models.WeatherData{}, fmt.Errorf("%w: sun times missing daily block", client.ErrMalformedPayload)
	}
	zone := time.FixedZone("", f.UTCOffsetSeconds)
	end := now.Add(hourlyWindow)

	hourly := make([]models.HourlyForecast, 0, maxHourly)
	for i, ts := range f.Hourly.Time {
		t, err := parseLocal(ts, zone)
		if err != nil {
			return models.WeatherData{}, fmt.Errorf("%w: hourly time %q", client.ErrMalformedPayload, ts)
		}
		if t.Before(now) || !t.Before(end) {
			continue
		}
		hourly = append(hourly, models.HourlyForecast{
			Time:                t.Unix(),
			Temp:                at(f.Hourly.Temperature, i),
			WeatherCode:         at(f.Hourly.WeatherCode, i),
			PrecipitationChance: at(f.Hourly.PrecipitationProbability, i),
			IsDay:               at(f.Hourly.IsDay, i) == 1,
		})
		if len(hourly) == maxHourly {
			break
		}
	}

	daily := make([]models.DailyForecast, 0, len(f.Daily.Time))
	for i, ds := range f.Daily.Time {
		d, err := parseLocal(ds, zone)
		if err != nil {
			return models.WeatherData{}, fmt.Errorf("%w: daily date %q", client.ErrMalformedPayload, ds)
		}
		daily = append(daily, models.DailyForecast{
			Date:                d.Unix(),
			TempMax:             at(f.Daily.TemperatureMax, i),
			TempMin:             at(f.Daily.TemperatureMin, i),
			WeatherCode:         at(f.Daily.WeatherCode, i),
			PrecipitationChance: at(f.Daily.PrecipitationProbabilityMax, i),
			WindSpeed:           at(f.Daily.WindSpeedMax, i),
		})
	}

	sunZone := time.FixedZone("", sun.UTCOffsetSeconds)
	sunrise, err := sunTime(at(sun.Daily.Sunrise, 0), sunZone)
	if err != nil {
		return models.WeatherData{}, err
	}
	sunset, err := sunTime(at(sun.Daily.Sunset, 0), sunZone)
	if err != nil {
		return models.WeatherData{}, err
	}

	c := f.Current
	gust := c.WindGusts
	if gust == 0 {
		gust = c.WindSpeed
	}
	var precip float64
	if len(hourly) > 0 {
		precip = hourly[0].PrecipitationChance
	}

	return models.WeatherData{
		Current: models.CurrentWeather{
			Temp:                c.Temperature,
			FeelsLike:           c.ApparentTemperature,
			Humidity:            c.RelativeHumidity,
			WindSpeed:           c.WindSpeed,
			WindDirection:       c.WindDirection,
			WindGust:            gust,
			Pressure:            c.SurfacePressure,
			Visibility:          defaultVisibility,
			UVIndex:             at(f.Daily.UVIndexMax, 0),
			Description:         format.Describe(c.WeatherCode),
			WeatherCode:         c.WeatherCode,
			IsDay:               c.IsDay == 1,
			Sunrise:             sunrise,
			Sunset:              sunset,
			PrecipitationChance: precip,
		},
		Hourly: hourly,
		Daily:  daily,
	}, nil
}

// sunTime converts a local sunrise/sunset stamp to epoch seconds; empty means unknown (0).
func sunTime(s string, zone *time.Location) (int64, error) {
	if s == "" {
		return 0, nil
	}
	t, err := parseLocal(s, zone)
	if err != nil {
		return 0, fmt.Errorf("%w: sun time %q", client.ErrMalformedPayload, s)
	}
	return t.Unix(), nil
}

// assembleAirQuality buckets the European AQI and copies pollutant readings. A missing
// index is treated as 0 (Good).
func assembleAirQuality(resp client.AirQualityResponse) (models.AirQualityData, error) {
	c := resp.Current
	if c == nil {
		return models.AirQualityData{}, fmt.Errorf("%w: air quality missing current block", client.ErrMalformedPayload)
	}
	var index float64
	if c.EuropeanAQI != nil {
		index = *c.EuropeanAQI
	}
	aqi, category := format.AQIBucket(index)
	return models.AirQualityData{
		AQI:      aqi,
		PM25:     c.PM25,
		PM10:     c.PM10,
		O3:       c.Ozone,
		NO2:      c.NitrogenDioxide,
		SO2:      c.SulphurDioxide,
		CO:       c.CarbonMonoxide,
		Category: category,
	}, nil
}
