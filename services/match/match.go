package match

import "github.com/adiraj/gocab/internal/pkg/models"

// Matcher ranks available drivers against a pickup point. Results are
// transient; nothing here is persisted.
type Matcher interface {
	// FindCandidates returns available drivers of the given class sorted by
	// ascending distance from the pickup. Drivers without a GPS fix are
	// appended after all ranked drivers, but only when no radius filter is
	// set; a radius can only be applied to a known distance.
	FindCandidates(pickup models.Coords, vehicleClass models.VehicleClass, radiusKm float64) []models.CandidateMatch

	// DispatchTargets returns the ordered driver ids a new ride should be
	// offered to. A preferred driver, when given, is placed first and not
	// repeated later in the list.
	DispatchTargets(pickup models.Coords, vehicleClass models.VehicleClass, preferredDriverID string) []string
}
