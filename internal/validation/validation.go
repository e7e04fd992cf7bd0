// Package validation parses and checks user input before it reaches the gateway.
package validation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/kjstillabower/weather-client/internal/models"
)

// Query length bounds in runes. Shorter queries are not sent upstream.
const (
	MinQueryRunes = 2
	MaxQueryRunes = 100
)

var (
	ErrQueryTooShort          = errors.New("query too short")
	ErrQueryTooLong           = errors.New("query too long")
	ErrQueryInvalidChars      = errors.New("query contains invalid characters")
	ErrInvalidCoordinates     = errors.New("invalid coordinates")
	ErrUnknownTemperatureUnit = errors.New("unknown temperature unit")
	ErrUnknownWindSpeedUnit   = errors.New("unknown wind speed unit")
)

// NormalizeQuery trims a place-name query and enforces length bounds and the allowed
// character set: letters (Unicode), digits, space, comma, hyphen, period, apostrophe.
func NormalizeQuery(input string) (string, error) {
	s := strings.TrimSpace(input)
	r := []rune(s)
	if len(r) < MinQueryRunes {
		return "", ErrQueryTooShort
	}
	if len(r) > MaxQueryRunes {
		return "", ErrQueryTooLong
	}
	for _, c := range r {
		if !isAllowedQueryRune(c) {
			return "", ErrQueryInvalidChars
		}
	}
	return s, nil
}

// QueryTooShort reports whether the trimmed input is below MinQueryRunes.
func QueryTooShort(input string) bool {
	return len([]rune(strings.TrimSpace(input))) < MinQueryRunes
}

func isAllowedQueryRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsMark(r) {
		return true
	}
	switch r {
	case ' ', ',', '-', '.', '\'':
		return true
	}
	return false
}

// ParseCoordinates parses decimal degrees and checks latitude in [-90, 90] and
// longitude in [-180, 180].
func ParseCoordinates(lat, lon string) (float64, float64, error) {
	la, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: latitude %q", ErrInvalidCoordinates, lat)
	}
	lo, err := strconv.ParseFloat(strings.TrimSpace(lon), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: longitude %q", ErrInvalidCoordinates, lon)
	}
	if la < -90 || la > 90 {
		return 0, 0, fmt.Errorf("%w: latitude %v out of range", ErrInvalidCoordinates, la)
	}
	if lo < -180 || lo > 180 {
		return 0, 0, fmt.Errorf("%w: longitude %v out of range", ErrInvalidCoordinates, lo)
	}
	return la, lo, nil
}

// ParseTemperatureUnit accepts the canonical names and the short forms c and f.
func ParseTemperatureUnit(s string) (models.TemperatureUnit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "celsius", "c":
		return models.Celsius, nil
	case "fahrenheit", "f":
		return models.Fahrenheit, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTemperatureUnit, s)
}

// ParseWindSpeedUnit accepts the canonical names and common spellings (km/h, m/s, kn).
func ParseWindSpeedUnit(s string) (models.WindSpeedUnit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "kmh", "km/h", "kph":
		return models.KilometresPerHour, nil
	case "mph":
		return models.MilesPerHour, nil
	case "ms", "m/s":
		return models.MetresPerSecond, nil
	case "knots", "kn", "kt":
		return models.Knots, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownWindSpeedUnit, s)
}
