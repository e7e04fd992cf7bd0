// Package format maps raw WMO weather codes, wind bearings, UV and AQI indices and
// timestamps to display-ready labels. Every function is total: unknown input falls back to
// a default presentation instead of failing.
package format

// Condition is the display form of a WMO weather code.
type Condition struct {
	Icon        string
	Label       string
	Description string
}

// wmoDescriptions is the exact WMO wording used for CurrentWeather.Description.
var wmoDescriptions = map[int]string{
	0:  "Clear sky",
	1:  "Mainly clear",
	2:  "Partly cloudy",
	3:  "Overcast",
	45: "Foggy",
	48: "Depositing rime fog",
	51: "Light drizzle",
	53: "Moderate drizzle",
	55: "Dense drizzle",
	56: "Light freezing drizzle",
	57: "Dense freezing drizzle",
	61: "Slight rain",
	63: "Moderate rain",
	65: "Heavy rain",
	66: "Light freezing rain",
	67: "Heavy freezing rain",
	71: "Slight snow fall",
	73: "Moderate snow fall",
	75: "Heavy snow fall",
	77: "Snow grains",
	80: "Slight rain showers",
	81: "Moderate rain showers",
	82: "Violent rain showers",
	85: "Slight snow showers",
	86: "Heavy snow showers",
	95: "Thunderstorm",
	96: "Thunderstorm with slight hail",
	99: "Thunderstorm with heavy hail",
}

// Describe returns the WMO description for code, or "Unknown".
func Describe(code int) string {
	if d, ok := wmoDescriptions[code]; ok {
		return d
	}
	return "Unknown"
}

// ClassifyWeather maps a WMO code to an icon and short label. Codes 0-2 pick a day or
// night icon; codes outside every known range render as clear.
func ClassifyWeather(code int, isDay bool) Condition {
	c := Condition{Description: Describe(code)}
	switch {
	case code >= 95 && code <= 99:
		c.Icon, c.Label = "⛈️", "Thunderstorm"
	case code == 85 || code == 86:
		c.Icon, c.Label = "🌨️", "Snow showers"
	case code >= 80 && code <= 82:
		c.Icon, c.Label = "🌦️", "Rain showers"
	case code >= 71 && code <= 77:
		c.Icon, c.Label = "❄️", "Snow"
	case code == 66 || code == 67:
		c.Icon, c.Label = "🌧️", "Freezing rain"
	case code == 61:
		c.Icon, c.Label = "🌦️", "Light rain"
	case code == 63:
		c.Icon, c.Label = "🌧️", "Moderate rain"
	case code >= 62 && code <= 65:
		c.Icon, c.Label = "🌧️", "Heavy rain"
	case code == 56 || code == 57:
		c.Icon, c.Label = "🌧️", "Freezing drizzle"
	case code >= 51 && code <= 55:
		c.Icon, c.Label = "🌦️", "Drizzle"
	case code == 45 || code == 48:
		c.Icon, c.Label = "🌫️", "Fog"
	case code == 3:
		c.Icon, c.Label = "☁️", "Overcast"
	case code == 2:
		c.Icon, c.Label = dayNight(isDay, "⛅", "☁️"), "Partly cloudy"
	case code == 1:
		c.Icon, c.Label = dayNight(isDay, "🌤️", "🌙"), "Mainly clear"
	case code == 0:
		c.Icon, c.Label = dayNight(isDay, "☀️", "🌙"), "Clear sky"
	default:
		c.Icon, c.Label = dayNight(isDay, "☀️", "🌙"), "Clear"
	}
	return c
}

func dayNight(isDay bool, day, night string) string {
	if isDay {
		return day
	}
	return night
}

// Gradient identifies a background palette, e.g. "rain-night".
type Gradient string

// ClassifyBackground buckets a WMO code into one of eight sky groups and crosses it with
// day/night. Unknown codes get "default-day" or "default-night".
func ClassifyBackground(code int, isDay bool) Gradient {
	var bucket string
	switch {
	case code >= 95 && code <= 99:
		bucket = "thunderstorm"
	case (code >= 80 && code <= 82) || (code >= 61 && code <= 67):
		bucket = "rain"
	case (code >= 71 && code <= 77) || code == 85 || code == 86:
		bucket = "snow"
	case code >= 51 && code <= 57:
		bucket = "drizzle"
	case code == 45 || code == 48:
		bucket = "fog"
	case code == 3:
		bucket = "overcast"
	case code == 2:
		bucket = "partly-cloudy"
	case code == 0 || code == 1:
		bucket = "clear"
	default:
		bucket = "default"
	}
	return Gradient(bucket + "-" + dayNight(isDay, "day", "night"))
}
