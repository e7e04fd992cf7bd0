package format

import (
	"math"
	"time"
)

var compassPoints = [16]string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// WindDirectionLabel returns the 16-point compass label for a bearing in degrees.
func WindDirectionLabel(degrees float64) string {
	i := int(math.Floor(degrees/22.5+0.5)) % 16
	if i < 0 {
		i += 16
	}
	return compassPoints[i]
}

// UVLevel is a UV index band; Tier runs 1 (Low) to 5 (Extreme).
type UVLevel struct {
	Label string
	Tier  int
}

func UVCategory(index float64) UVLevel {
	switch {
	case index <= 2:
		return UVLevel{Label: "Low", Tier: 1}
	case index <= 5:
		return UVLevel{Label: "Moderate", Tier: 2}
	case index <= 7:
		return UVLevel{Label: "High", Tier: 3}
	case index <= 10:
		return UVLevel{Label: "Very High", Tier: 4}
	default:
		return UVLevel{Label: "Extreme", Tier: 5}
	}
}

var aqiLabels = [...]string{1: "Good", 2: "Fair", 3: "Moderate", 4: "Poor", 5: "Very Poor"}

// AQIBucket converts a continuous European AQI value to the 1..5 ordinal and its label.
func AQIBucket(index float64) (int, string) {
	var aqi int
	switch {
	case index <= 20:
		aqi = 1
	case index <= 40:
		aqi = 2
	case index <= 60:
		aqi = 3
	case index <= 80:
		aqi = 4
	default:
		aqi = 5
	}
	return aqi, aqiLabels[aqi]
}

// AQILabel returns the label for an AQI bucket, or "" outside 1..5.
func AQILabel(aqi int) string {
	if aqi < 1 || aqi >= len(aqiLabels) {
		return ""
	}
	return aqiLabels[aqi]
}

// FormatTime renders epoch seconds as "3:04 PM" in loc (UTC when nil).
func FormatTime(epoch int64, loc *time.Location) string {
	return inLocation(epoch, loc).Format("3:04 PM")
}

// FormatDate renders epoch seconds as "Mon, Jan 2", or "Monday, January 2" when long.
func FormatDate(epoch int64, loc *time.Location, long bool) string {
	t := inLocation(epoch, loc)
	if long {
		return t.Format("Monday, January 2")
	}
	return t.Format("Mon, Jan 2")
}

func inLocation(epoch int64, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Unix(epoch, 0).In(loc)
}
