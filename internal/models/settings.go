package models

type TemperatureUnit string

const (
	Celsius    TemperatureUnit = "celsius"
	Fahrenheit TemperatureUnit = "fahrenheit"
)

// Valid reports whether u is one of the supported temperature units.
func (u TemperatureUnit) Valid() bool {
	return u == Celsius || u == Fahrenheit
}

type WindSpeedUnit string

const (
	KilometresPerHour WindSpeedUnit = "kmh"
	MilesPerHour      WindSpeedUnit = "mph"
	MetresPerSecond   WindSpeedUnit = "ms"
	Knots             WindSpeedUnit = "knots"
)

func (u WindSpeedUnit) Valid() bool {
	switch u {
	case KilometresPerHour, MilesPerHour, MetresPerSecond, Knots:
		return true
	}
	return false
}

// UserSettings are the unit preferences applied to every weather fetch.
type UserSettings struct {
	TemperatureUnit TemperatureUnit `json:"temperatureUnit"`
	WindSpeedUnit   WindSpeedUnit   `json:"windSpeedUnit"`
}

// DefaultSettings is used when nothing has been persisted yet. The celsius/mph pairing
// is deliberate and differs from the gateway's kmh default.
func DefaultSettings() UserSettings {
	return UserSettings{
		TemperatureUnit: Celsius,
		WindSpeedUnit:   MilesPerHour,
	}
}
