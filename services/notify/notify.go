package notify

import (
	"context"

	"github.com/adiraj/gocab/internal/pkg/models"
)

// Notifier delivers out-of-band messages to riders and drivers. Delivery is
// best effort: failures are logged by implementations and never abort the
// ride flow that triggered them.
type Notifier interface {
	// RideOTP sends the start-ride code to the rider.
	RideOTP(ctx context.Context, ride models.Ride)

	// RideAssigned tells the accepting driver the ride is theirs,
	// including the code the rider will present at pickup.
	RideAssigned(ctx context.Context, ride models.Ride)

	// RideCancelled tells the counterparty a ride was cancelled, including
	// any fine charged.
	RideCancelled(ctx context.Context, ride models.Ride, fine int)
}
