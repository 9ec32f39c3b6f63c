package usecase

import (
	"math"

	"github.com/adiraj/gocab/internal/pkg/models"
)

// fareRate is the tariff for one vehicle class.
type fareRate struct {
	Base  float64
	PerKm float64
}

// fareTable is the flat city tariff. No surge, no time-of-day component.
var fareTable = map[models.VehicleClass]fareRate{
	models.VehicleCar:        {Base: 50, PerKm: 15},
	models.VehicleAuto:       {Base: 30, PerKm: 10},
	models.VehicleMotorcycle: {Base: 20, PerKm: 8},
}

// calculateFare returns the rounded fare for a class over a distance.
func calculateFare(class models.VehicleClass, distanceKm float64) (int, bool) {
	rate, ok := fareTable[class]
	if !ok {
		return 0, false
	}
	return int(math.Round(rate.Base + rate.PerKm*distanceKm)), true
}

// cancellationFine is charged when an accepted ride is abandoned: ten
// percent of the quoted fare.
func cancellationFine(fare int) int {
	return int(math.Round(float64(fare) * 0.10))
}
