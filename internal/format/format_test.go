package format

import (
	"testing"
	"time"
)

// TestClassifyWeather verifies label and icon boundaries across the WMO ranges,
// including the clear fallback for codes outside every range.
func TestClassifyWeather(t *testing.T) {
	tests := []struct {
		code      int
		isDay     bool
		wantLabel string
		wantIcon  string
	}{
		{0, true, "Clear sky", "☀️"},
		{0, false, "Clear sky", "🌙"},
		{1, true, "Mainly clear", "🌤️"},
		{2, false, "Partly cloudy", "☁️"},
		{3, true, "Overcast", "☁️"},
		{45, true, "Fog", "🌫️"},
		{48, true, "Fog", "🌫️"},
		{53, true, "Drizzle", "🌦️"},
		{57, true, "Freezing drizzle", "🌧️"},
		{61, true, "Light rain", "🌦️"},
		{63, true, "Moderate rain", "🌧️"},
		{65, true, "Heavy rain", "🌧️"},
		{67, true, "Freezing rain", "🌧️"},
		{75, true, "Snow", "❄️"},
		{81, true, "Rain showers", "🌦️"},
		{86, true, "Snow showers", "🌨️"},
		{95, true, "Thunderstorm", "⛈️"},
		{99, true, "Thunderstorm", "⛈️"},
		{200, true, "Clear", "☀️"},
		{200, false, "Clear", "🌙"},
		{10, true, "Clear", "☀️"},
		{-1, true, "Clear", "☀️"},
	}
	for _, tt := range tests {
		got := ClassifyWeather(tt.code, tt.isDay)
		if got.Label != tt.wantLabel || got.Icon != tt.wantIcon {
			t.Errorf("ClassifyWeather(%d, %v) = %q %q, want %q %q", tt.code, tt.isDay, got.Label, got.Icon, tt.wantLabel, tt.wantIcon)
		}
	}
}

// TestClassifyWeather_RainIconsDistinct verifies light rain renders differently from
// moderate and heavy rain.
func TestClassifyWeather_RainIconsDistinct(t *testing.T) {
	light := ClassifyWeather(61, true).Icon
	for _, code := range []int{63, 65} {
		if ClassifyWeather(code, true).Icon == light {
			t.Errorf("code %d shares icon with code 61", code)
		}
	}
}

func TestDescribe(t *testing.T) {
	if got := Describe(0); got != "Clear sky" {
		t.Errorf("Describe(0) = %q", got)
	}
	if got := Describe(3); got != "Overcast" {
		t.Errorf("Describe(3) = %q", got)
	}
	if got := Describe(200); got != "Unknown" {
		t.Errorf("Describe(200) = %q, want Unknown", got)
	}
}

// TestClassifyBackground verifies the 16 bucket identifiers are distinct and unknown
// codes use the per-day/night default.
func TestClassifyBackground(t *testing.T) {
	codes := []int{95, 81, 73, 53, 45, 3, 2, 0}
	seen := make(map[Gradient]bool)
	for _, code := range codes {
		for _, isDay := range []bool{true, false} {
			g := ClassifyBackground(code, isDay)
			if seen[g] {
				t.Errorf("ClassifyBackground(%d, %v) = %q duplicated", code, isDay, g)
			}
			seen[g] = true
		}
	}
	if len(seen) != 16 {
		t.Errorf("got %d gradients, want 16", len(seen))
	}
	if got := ClassifyBackground(200, true); got != "default-day" {
		t.Errorf("ClassifyBackground(200, true) = %q", got)
	}
	if got := ClassifyBackground(200, false); got != "default-night" {
		t.Errorf("ClassifyBackground(200, false) = %q", got)
	}
	if ClassifyBackground(63, true) != ClassifyBackground(80, true) {
		t.Error("rain and rain showers should share a gradient")
	}
}

func TestWindDirectionLabel(t *testing.T) {
	tests := []struct {
		deg  float64
		want string
	}{
		{0, "N"},
		{11.24, "N"},
		{11.25, "NNE"},
		{45, "NE"},
		{90, "E"},
		{180, "S"},
		{270, "W"},
		{348.75, "N"},
		{359, "N"},
		{360, "N"},
		{-22.5, "NNW"},
	}
	for _, tt := range tests {
		if got := WindDirectionLabel(tt.deg); got != tt.want {
			t.Errorf("WindDirectionLabel(%v) = %q, want %q", tt.deg, got, tt.want)
		}
	}
}

func TestUVCategory(t *testing.T) {
	tests := []struct {
		index float64
		label string
		tier  int
	}{
		{0, "Low", 1},
		{2, "Low", 1},
		{2.5, "Moderate", 2},
		{5, "Moderate", 2},
		{7, "High", 3},
		{10, "Very High", 4},
		{11, "Extreme", 5},
	}
	for _, tt := range tests {
		got := UVCategory(tt.index)
		if got.Label != tt.label || got.Tier != tt.tier {
			t.Errorf("UVCategory(%v) = %+v, want %s/%d", tt.index, got, tt.label, tt.tier)
		}
	}
}

// TestAQIBucket verifies the bucket boundaries and that the label always agrees with
// AQILabel for the bucket.
func TestAQIBucket(t *testing.T) {
	tests := []struct {
		index float64
		aqi   int
		label string
	}{
		{0, 1, "Good"},
		{20, 1, "Good"},
		{21, 2, "Fair"},
		{40, 2, "Fair"},
		{41, 3, "Moderate"},
		{60, 3, "Moderate"},
		{61, 4, "Poor"},
		{80, 4, "Poor"},
		{81, 5, "Very Poor"},
		{100, 5, "Very Poor"},
		{250, 5, "Very Poor"},
	}
	for _, tt := range tests {
		aqi, label := AQIBucket(tt.index)
		if aqi != tt.aqi || label != tt.label {
			t.Errorf("AQIBucket(%v) = %d %q, want %d %q", tt.index, aqi, label, tt.aqi, tt.label)
		}
		if AQILabel(aqi) != label {
			t.Errorf("AQILabel(%d) = %q, want %q", aqi, AQILabel(aqi), label)
		}
	}
	if AQILabel(0) != "" || AQILabel(6) != "" {
		t.Error("AQILabel outside 1..5 should be empty")
	}
}

func TestFormatTimeAndDate(t *testing.T) {
	// 2024-03-04 15:07:00 UTC, a Monday.
	epoch := time.Date(2024, 3, 4, 15, 7, 0, 0, time.UTC).Unix()
	if got := FormatTime(epoch, nil); got != "3:07 PM" {
		t.Errorf("FormatTime = %q", got)
	}
	if got := FormatDate(epoch, time.UTC, false); got != "Mon, Mar 4" {
		t.Errorf("FormatDate short = %q", got)
	}
	if got := FormatDate(epoch, time.UTC, true); got != "Monday, March 4" {
		t.Errorf("FormatDate long = %q", got)
	}
	tokyo := time.FixedZone("JST", 9*3600)
	if got := FormatTime(epoch, tokyo); got != "12:07 AM" {
		t.Errorf("FormatTime JST = %q", got)
	}
}
