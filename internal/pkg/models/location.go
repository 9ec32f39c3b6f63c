package models

import "time"

// Location is a geographic point. Timestamp records when the fix was taken.
type Location struct {
	Latitude  float64   `json:"lat"`
	Longitude float64   `json:"lng"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// Coords is the wire shape for a location without a timestamp.
type Coords struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

// ToLocation converts wire coords into a timestamped location.
func (c Coords) ToLocation(ts time.Time) Location {
	return Location{Latitude: c.Latitude, Longitude: c.Longitude, Timestamp: ts}
}

// Coords strips the timestamp for outbound payloads.
func (l Location) Coords() Coords {
	return Coords{Latitude: l.Latitude, Longitude: l.Longitude}
}
