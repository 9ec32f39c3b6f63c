package rides

import (
	"context"

	"github.com/adiraj/gocab/internal/pkg/models"
)

// CreateRideRequest is the inbound shape for requesting a ride.
type CreateRideRequest struct {
	RiderID           string `json:"rider_id"`
	Pickup            string `json:"pickup"`
	Destination       string `json:"destination"`
	VehicleClass      string `json:"vehicle_class"`
	PaymentType       string `json:"payment_type,omitempty"`
	PreferredDriverID string `json:"preferred_driver_id,omitempty"`
}

// FareQuote is a fare estimate for a prospective ride.
type FareQuote struct {
	VehicleClass models.VehicleClass `json:"vehicle_class"`
	Fare         int                 `json:"fare"`
	DistanceKm   float64             `json:"distance_km"`
	DurationMin  int                 `json:"duration_min"`
}

// RideUC drives the ride lifecycle: pending -> accepted -> ongoing ->
// completed, with cancellation reachable from pending and accepted.
type RideUC interface {
	CreateRide(ctx context.Context, req CreateRideRequest) (*models.Ride, error)
	AcceptRide(ctx context.Context, rideID, driverID string) (*models.Ride, error)
	StartRide(ctx context.Context, rideID, driverID, otp string) (*models.Ride, error)
	CompleteRide(ctx context.Context, rideID string) (*models.Ride, error)
	SettlePayment(ctx context.Context, rideID string, amount int, paymentType string) (*models.Ride, error)
	CancelRide(ctx context.Context, rideID, actorID string) (*models.CancelResult, error)
	GetRide(ctx context.Context, rideID string) (*models.Ride, error)
	ListRides(ctx context.Context, actorID string, status models.RideStatus, limit int) ([]models.Ride, error)
	QuoteFare(ctx context.Context, pickup, destination, vehicleClass string) ([]FareQuote, error)
}

// RideRepo persists ride records. Implementations must make AcceptIfPending
// atomic: under concurrent acceptors exactly one caller sees true.
type RideRepo interface {
	CreateRide(ctx context.Context, ride *models.Ride) error
	GetRideByID(ctx context.Context, rideID string) (*models.Ride, error)

	// AcceptIfPending assigns the driver and moves the ride to accepted,
	// but only if it is still pending. Returns false when the guard fails.
	AcceptIfPending(ctx context.Context, rideID, driverID string) (bool, error)

	// UpdateStatusIf transitions the ride from one status to another,
	// returning false when the ride was not in the expected status.
	UpdateStatusIf(ctx context.Context, rideID string, from, to models.RideStatus) (bool, error)

	// SetPaymentType records the settlement method on a completed ride.
	SetPaymentType(ctx context.Context, rideID, paymentType string) error

	// ListRidesByActor returns the most recent rides where the actor was
	// the rider or the driver, newest first. An empty status matches all
	// statuses.
	ListRidesByActor(ctx context.Context, actorID string, status models.RideStatus, limit int) ([]models.Ride, error)
}

// RideGW publishes ride lifecycle events to the message bus.
type RideGW interface {
	PublishRideEvent(topic string, ride models.Ride) error
}
