package service

import (
	"github.com/kjstillabower/weather-client/internal/client"
	"github.com/kjstillabower/weather-client/internal/models"
)

// Cache and snapshot keys. Coordinates use their shortest round-tripping form, so
// (40.7, -74) gives "weather-40.7--74-celsius-kmh". Distinct unit pairs never share a key.

func SearchKey(query string) string {
	return "geocode:" + query
}

func ReverseKey(lat, lon float64) string {
	return "reverse-" + client.FormatCoordinate(lat) + "-" + client.FormatCoordinate(lon)
}

func WeatherKey(lat, lon float64, tempUnit models.TemperatureUnit, windUnit models.WindSpeedUnit) string {
	return "weather-" + client.FormatCoordinate(lat) + "-" + client.FormatCoordinate(lon) + "-" + string(tempUnit) + "-" + string(windUnit)
}

func AirQualityKey(lat, lon float64) string {
	return "airquality-" + client.FormatCoordinate(lat) + "-" + client.FormatCoordinate(lon)
}
