package utils

import (
	"math"

	"github.com/mmcloughlin/geohash"
)

const (
	earthRadiusKm = 6371.0

	// geohashPrecision of 6 gives cells of roughly 1.2km x 0.6km, a usable
	// bucket size for city-scale driver lookups.
	geohashPrecision = 6
)

// HaversineDistance returns the great-circle distance in kilometers between
// two coordinates.
func HaversineDistance(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLng := toRadians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// EstimateETA converts a distance into whole minutes at the given average
// speed, never returning less than one minute.
func EstimateETA(distanceKm, avgSpeedKmh float64) int {
	if avgSpeedKmh <= 0 {
		avgSpeedKmh = 25
	}
	minutes := int(math.Round(distanceKm / avgSpeedKmh * 60))
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

// ValidCoords reports whether the coordinates fall in valid lat/lng ranges.
func ValidCoords(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// GeohashEncode returns the geohash cell for a location.
func GeohashEncode(lat, lng float64) string {
	return geohash.EncodeWithPrecision(lat, lng, geohashPrecision)
}
