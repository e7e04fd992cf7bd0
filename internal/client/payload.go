package client

// GeocodingResult is one match from the geocoding search endpoint.
type GeocodingResult struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Country   string  `json:"country"`
	Admin1    string  `json:"admin1"`
}

// GeocodingResponse is the geocoding search payload. Results is nil when the upstream
// omitted the field, which it does when nothing matched.
type GeocodingResponse struct {
	Results []GeocodingResult `json:"results"`
}

// ForecastResponse is the forecast payload. Timestamps are local to the location and
// carry no zone; UTCOffsetSeconds places them on the absolute time line.
type ForecastResponse struct {
	UTCOffsetSeconds int              `json:"utc_offset_seconds"`
	Timezone         string           `json:"timezone"`
	Current          *ForecastCurrent `json:"current"`
	Hourly           *ForecastHourly  `json:"hourly"`
	Daily            *ForecastDaily   `json:"daily"`
}

// ForecastCurrent holds the current block. JSON nulls decode as zero.
type ForecastCurrent struct {
	Time                string  `json:"time"`
	Temperature         float64 `json:"temperature_2m"`
	RelativeHumidity    float64 `json:"relative_humidity_2m"`
	ApparentTemperature float64 `json:"apparent_temperature"`
	IsDay               int     `json:"is_day"`
	Precipitation       float64 `json:"precipitation"`
	WeatherCode         int     `json:"weather_code"`
	SurfacePressure     float64 `json:"surface_pressure"`
	WindSpeed           float64 `json:"wind_speed_10m"`
	WindDirection       float64 `json:"wind_direction_10m"`
	WindGusts           float64 `json:"wind_gusts_10m"`
}

// ForecastHourly holds the hourly block as parallel arrays indexed by Time.
type ForecastHourly struct {
	Time                     []string  `json:"time"`
	Temperature              []float64 `json:"temperature_2m"`
	PrecipitationProbability []float64 `json:"precipitation_probability"`
	WeatherCode              []int     `json:"weather_code"`
	IsDay                    []int     `json:"is_day"`
}

// ForecastDaily holds the daily block as parallel arrays indexed by Time.
type ForecastDaily struct {
	Time                        []string  `json:"time"`
	WeatherCode                 []int     `json:"weather_code"`
	TemperatureMax              []float64 `json:"temperature_2m_max"`
	TemperatureMin              []float64 `json:"temperature_2m_min"`
	PrecipitationProbabilityMax []float64 `json:"precipitation_probability_max"`
	WindSpeedMax                []float64 `json:"wind_speed_10m_max"`
	UVIndexMax                  []float64 `json:"uv_index_max"`
}

// SunTimesResponse is the one-day sunrise/sunset payload.
type SunTimesResponse struct {
	UTCOffsetSeconds int `json:"utc_offset_seconds"`
	Daily            *SunTimesDaily `json:"daily"`
}

// SunTimesDaily holds local sunrise/sunset stamps, one per forecast day.
type SunTimesDaily struct {
	Sunrise []string `json:"sunrise"`
	Sunset  []string `json:"sunset"`
}

// AirQualityResponse is the air-quality payload.
type AirQualityResponse struct {
	Current *AirQualityCurrent `json:"current"`
}

// AirQualityCurrent holds current pollutant readings. EuropeanAQI is nil when the
// upstream has no index for the location.
type AirQualityCurrent struct {
	EuropeanAQI     *float64 `json:"european_aqi"`
	PM10            float64  `json:"pm10"`
	PM25            float64  `json:"pm2_5"`
	CarbonMonoxide  float64  `json:"carbon_monoxide"`
	NitrogenDioxide float64  `json:"nitrogen_dioxide"`
	SulphurDioxide  float64  `json:"sulphur_dioxide"`
	Ozone           float64  `json:"ozone"`
}

// apiError is the body Open-Meteo returns alongside 4xx statuses.
type apiError struct {
	Error  bool   `json:"error"`
	Reason string `json:"reason"`
}
