package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/kjstillabower/weather-client/internal/models"
)

func TestNormalizeQuery_TooShort(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"spaces", "   "},
		{"single rune", "a"},
		{"single rune padded", "  a\t"},
		{"single multibyte rune", "é"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NormalizeQuery(tc.input)
			if !errors.Is(err, ErrQueryTooShort) {
				t.Errorf("error = %v, want ErrQueryTooShort", err)
			}
			if !QueryTooShort(tc.input) {
				t.Error("QueryTooShort() = false, want true")
			}
		})
	}
}

func TestNormalizeQuery_TooLong(t *testing.T) {
	_, err := NormalizeQuery(strings.Repeat("a", MaxQueryRunes+1))
	if !errors.Is(err, ErrQueryTooLong) {
		t.Errorf("error = %v, want ErrQueryTooLong", err)
	}
}

func TestNormalizeQuery_InvalidChars(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"slash", "sea/ttle"},
		{"question", "sea?ttle"},
		{"control", "sea\x00ttle"},
		{"percent", "sea%ttle"},
		{"ampersand", "sea&ttle"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NormalizeQuery(tc.input)
			if !errors.Is(err, ErrQueryInvalidChars) {
				t.Errorf("error = %v, want ErrQueryInvalidChars", err)
			}
		})
	}
}

func TestNormalizeQuery_Valid(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple", "Seattle", "Seattle"},
		{"two runes", "NY", "NY"},
		{"with space", "New York", "New York"},
		{"comma", "London,uk", "London,uk"},
		{"apostrophe and period", "St. John's", "St. John's"},
		{"trimmed", "  Boston  ", "Boston"},
		{"unicode", "Zürich", "Zürich"},
		{"digits", "Area51", "Area51"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NormalizeQuery(tc.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestParseCoordinates(t *testing.T) {
	tests := []struct {
		name    string
		lat     string
		lon     string
		wantLat float64
		wantLon float64
		wantErr bool
	}{
		{"valid", "40.7", "-74", 40.7, -74, false},
		{"padded", " 51.5 ", "-0.12", 51.5, -0.12, false},
		{"bounds", "-90", "180", -90, 180, false},
		{"lat out of range", "90.1", "0", 0, 0, true},
		{"lon out of range", "0", "-180.5", 0, 0, true},
		{"not a number", "north", "0", 0, 0, true},
		{"empty lon", "1", "", 0, 0, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			lat, lon, err := ParseCoordinates(tc.lat, tc.lon)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidCoordinates) {
					t.Errorf("error = %v, want ErrInvalidCoordinates", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if lat != tc.wantLat || lon != tc.wantLon {
				t.Errorf("got (%v, %v), want (%v, %v)", lat, lon, tc.wantLat, tc.wantLon)
			}
		})
	}
}

func TestParseTemperatureUnit(t *testing.T) {
	tests := map[string]models.TemperatureUnit{
		"celsius":    models.Celsius,
		"C":          models.Celsius,
		"Fahrenheit": models.Fahrenheit,
		"f":          models.Fahrenheit,
	}
	for in, want := range tests {
		got, err := ParseTemperatureUnit(in)
		if err != nil || got != want {
			t.Errorf("ParseTemperatureUnit(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseTemperatureUnit("kelvin"); !errors.Is(err, ErrUnknownTemperatureUnit) {
		t.Errorf("ParseTemperatureUnit(kelvin) error = %v", err)
	}
}

func TestParseWindSpeedUnit(t *testing.T) {
	tests := map[string]models.WindSpeedUnit{
		"kmh":   models.KilometresPerHour,
		"km/h":  models.KilometresPerHour,
		"MPH":   models.MilesPerHour,
		"m/s":   models.MetresPerSecond,
		"ms":    models.MetresPerSecond,
		"knots": models.Knots,
		"kn":    models.Knots,
	}
	for in, want := range tests {
		got, err := ParseWindSpeedUnit(in)
		if err != nil || got != want {
			t.Errorf("ParseWindSpeedUnit(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseWindSpeedUnit("beaufort"); !errors.Is(err, ErrUnknownWindSpeedUnit) {
		t.Errorf("ParseWindSpeedUnit(beaufort) error = %v", err)
	}
}
