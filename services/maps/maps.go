package maps

import (
	"context"

	"github.com/adiraj/gocab/internal/pkg/models"
)

// Geocoder resolves free-text addresses against a geocoding provider.
type Geocoder interface {
	// Geocode returns coordinates for an address.
	Geocode(ctx context.Context, address string) (models.Coords, error)

	// ReverseGeocode returns a display address for coordinates.
	ReverseGeocode(ctx context.Context, coords models.Coords) (string, error)

	// Suggest returns address completions for a partial query.
	Suggest(ctx context.Context, query string, limit int) ([]AddressSuggestion, error)
}

// Router computes road distance and travel time between two points.
type Router interface {
	// Route returns the driving distance in kilometers and duration in
	// minutes between two coordinates.
	Route(ctx context.Context, from, to models.Coords) (distanceKm float64, durationMin int, err error)
}

// AddressSuggestion is a single geocoder completion result.
type AddressSuggestion struct {
	DisplayName string        `json:"display_name"`
	Coords      models.Coords `json:"coords"`
}
