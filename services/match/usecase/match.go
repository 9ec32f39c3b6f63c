package usecase

import (
	"sort"

	"github.com/adiraj/gocab/internal/pkg/models"
	"github.com/adiraj/gocab/internal/utils"
	"github.com/adiraj/gocab/services/presence"
)

// MatchUC ranks drivers from the in-process presence registry.
type MatchUC struct {
	registry    presence.Registry
	avgSpeedKmh float64
}

// NewMatchUC creates the matcher. avgSpeedKmh feeds the ETA estimate and
// falls back to 25 when unset.
func NewMatchUC(registry presence.Registry, avgSpeedKmh float64) *MatchUC {
	if avgSpeedKmh <= 0 {
		avgSpeedKmh = 25
	}
	return &MatchUC{
		registry:    registry,
		avgSpeedKmh: avgSpeedKmh,
	}
}

// FindCandidates ranks available drivers by distance from the pickup.
func (m *MatchUC) FindCandidates(pickup models.Coords, vehicleClass models.VehicleClass, radiusKm float64) []models.CandidateMatch {
	drivers := m.registry.AvailableDrivers()

	ranked := make([]models.CandidateMatch, 0, len(drivers))
	unranked := make([]models.CandidateMatch, 0)

	for _, d := range drivers {
		if vehicleClass != "" && d.VehicleClass != vehicleClass {
			continue
		}

		if d.Location == nil {
			// No GPS fix yet. Such drivers are reachable only when the
			// caller did not constrain by radius.
			if radiusKm <= 0 {
				unranked = append(unranked, models.CandidateMatch{DriverID: d.ActorID})
			}
			continue
		}

		dist := utils.HaversineDistance(
			pickup.Latitude, pickup.Longitude,
			d.Location.Latitude, d.Location.Longitude,
		)
		if radiusKm > 0 && dist > radiusKm {
			continue
		}

		dc := dist
		ranked = append(ranked, models.CandidateMatch{
			DriverID:   d.ActorID,
			DistanceKm: &dc,
			EtaMin:     utils.EstimateETA(dist, m.avgSpeedKmh),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return *ranked[i].DistanceKm < *ranked[j].DistanceKm
	})

	return append(ranked, unranked...)
}

// DispatchTargets returns the ordered driver ids for offering a new ride.
func (m *MatchUC) DispatchTargets(pickup models.Coords, vehicleClass models.VehicleClass, preferredDriverID string) []string {
	targets := make([]string, 0)
	seen := make(map[string]bool)

	if preferredDriverID != "" {
		targets = append(targets, preferredDriverID)
		seen[preferredDriverID] = true
	}

	for _, c := range m.FindCandidates(pickup, vehicleClass, 0) {
		if seen[c.DriverID] {
			continue
		}
		seen[c.DriverID] = true
		targets = append(targets, c.DriverID)
	}

	return targets
}
