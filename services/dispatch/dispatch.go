package dispatch

import "github.com/adiraj/gocab/internal/pkg/models"

// Broadcaster pushes ride events to connected actors over their dispatch
// sockets. Delivery is at-most-once: an offline actor or a failed write is
// logged and skipped, never queued.
type Broadcaster interface {
	// OfferRide sends a sanitized new-ride event to each target driver and
	// returns the number of drivers actually reached.
	OfferRide(ride models.Ride, targets []string) int

	// RideEvent sends a lifecycle event to the given actors. The fine is
	// only carried on cancellation events.
	RideEvent(eventType string, ride models.Ride, fine int, actorIDs ...string)
}
