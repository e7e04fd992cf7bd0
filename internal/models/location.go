package models

// Location is a named place. Two locations are the same place iff both coordinates
// compare equal; no rounding is applied.
type Location struct {
	Name    string  `json:"name"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Country string  `json:"country"`
	State   string  `json:"state,omitempty"`
}

// SameCoordinates reports whether l and other share the exact (lat, lon) pair.
func (l Location) SameCoordinates(other Location) bool {
	return l.Lat == other.Lat && l.Lon == other.Lon
}
