package models

// CurrentWeather is a point-in-time snapshot in the units the caller requested.
type CurrentWeather struct {
	Temp                float64 `json:"temp"`
	FeelsLike           float64 `json:"feelsLike"`
	Humidity            float64 `json:"humidity"`
	WindSpeed           float64 `json:"windSpeed"`
	WindDirection       float64 `json:"windDirection"`
	WindGust            float64 `json:"windGust"`
	Pressure            float64 `json:"pressure"`
	Visibility          float64 `json:"visibility"`
	UVIndex             float64 `json:"uvIndex"`
	Description         string  `json:"description"`
	WeatherCode         int     `json:"weatherCode"`
	IsDay               bool    `json:"isDay"`
	Sunrise             int64   `json:"sunrise"`
	Sunset              int64   `json:"sunset"`
	PrecipitationChance float64 `json:"precipitationChance"`
}

// HourlyForecast is one sample of the next-24-hours series. Time is epoch seconds.
type HourlyForecast struct {
	Time                int64   `json:"time"`
	Temp                float64 `json:"temp"`
	WeatherCode         int     `json:"weatherCode"`
	PrecipitationChance float64 `json:"precipitationChance"`
	IsDay               bool    `json:"isDay"`
}

// DailyForecast is one day of the 7-day series. Date is epoch seconds at local midnight.
type DailyForecast struct {
	Date                int64   `json:"date"`
	TempMax             float64 `json:"tempMax"`
	TempMin             float64 `json:"tempMin"`
	WeatherCode         int     `json:"weatherCode"`
	PrecipitationChance float64 `json:"precipitationChance"`
	WindSpeed           float64 `json:"windSpeed"`
}

// WeatherData is everything returned for one location and unit combination.
type WeatherData struct {
	Current CurrentWeather   `json:"current"`
	Hourly  []HourlyForecast `json:"hourly"`
	Daily   []DailyForecast  `json:"daily"`
}

// AirQualityData holds current pollutant concentrations. AQI is the 1..5 bucket and
// Category is always its label.
type AirQualityData struct {
	AQI      int     `json:"aqi"`
	PM25     float64 `json:"pm25"`
	PM10     float64 `json:"pm10"`
	O3       float64 `json:"o3"`
	NO2      float64 `json:"no2"`
	SO2      float64 `json:"so2"`
	CO       float64 `json:"co"`
	Category string  `json:"category"`
}
