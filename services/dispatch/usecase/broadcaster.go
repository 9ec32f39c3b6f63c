package usecase

import (
	"github.com/adiraj/gocab/internal/pkg/constants"
	"github.com/adiraj/gocab/internal/pkg/logger"
	"github.com/adiraj/gocab/internal/pkg/models"
	"github.com/adiraj/gocab/services/presence"
)

// BroadcasterUC fans ride events out through presence handles. Writes go
// through the deadline-bounded connection wrapper, so one slow socket only
// costs its own timeout, never the whole loop.
type BroadcasterUC struct {
	registry presence.Registry
}

// NewBroadcasterUC creates the broadcaster.
func NewBroadcasterUC(registry presence.Registry) *BroadcasterUC {
	return &BroadcasterUC{registry: registry}
}

// OfferRide sends a new-ride event to each target driver. The OTP is
// stripped: only the driver that later accepts may learn it, and then only
// through the rider.
func (b *BroadcasterUC) OfferRide(ride models.Ride, targets []string) int {
	event := models.WSRideEvent{
		Type: constants.EventNewRide,
		Ride: ride.Sanitized(),
	}

	delivered := 0
	for _, driverID := range targets {
		if b.push(driverID, event) {
			delivered++
		}
	}

	logger.Info("Offered ride to drivers",
		logger.String("ride_id", ride.RideID),
		logger.Int("targets", len(targets)),
		logger.Int("delivered", delivered))

	return delivered
}

// RideEvent sends a lifecycle event to the given actors.
func (b *BroadcasterUC) RideEvent(eventType string, ride models.Ride, fine int, actorIDs ...string) {
	event := models.WSRideEvent{
		Type: eventType,
		Ride: ride,
		Fine: fine,
	}

	for _, actorID := range actorIDs {
		if actorID == "" {
			continue
		}
		b.push(actorID, event)
	}
}

func (b *BroadcasterUC) push(actorID string, event models.WSRideEvent) bool {
	conn, ok := b.registry.Handle(actorID)
	if !ok {
		logger.Debug("Actor offline, dropping event",
			logger.String("actor_id", actorID),
			logger.String("event", event.Type))
		return false
	}

	if err := conn.Send(event); err != nil {
		logger.Warn("Failed to push event",
			logger.String("actor_id", actorID),
			logger.String("event", event.Type),
			logger.Err(err))
		return false
	}
	return true
}
