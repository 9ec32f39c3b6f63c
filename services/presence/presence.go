package presence

import (
	"context"
	"time"

	"github.com/adiraj/gocab/internal/pkg/models"
	"github.com/adiraj/gocab/internal/pkg/websocket"
)

// Registry tracks connected actors and their connection handles. The forward
// map (actor id to presence record) is readable; the reverse map (connection
// handle to actor id) is internal and only consulted on disconnect.
type Registry interface {
	// Register adds or refreshes an actor. Re-registering an actor id
	// replaces its connection handle and marks it active again.
	Register(actorID string, role models.Role, vehicleClass models.VehicleClass, conn websocket.Conn) (*models.Presence, error)

	// UpdateLocation overwrites the actor's last-known location.
	UpdateLocation(actorID string, lat, lng float64, ts time.Time) (*models.Presence, error)

	// MarkDisconnected looks up the actor owning the handle, marks it
	// inactive and drops the handle. Unknown handles are a no-op.
	MarkDisconnected(conn websocket.Conn) (string, bool)

	// Get returns the presence record for an actor.
	Get(actorID string) (*models.Presence, bool)

	// Handle returns the live connection handle for an actor, if any.
	Handle(actorID string) (websocket.Conn, bool)

	// AvailableDrivers returns a snapshot of active drivers.
	AvailableDrivers() []*models.Presence
}

// GeoMirror persists driver positions to a shared store so other processes
// can query proximity. Writes are best effort and never block registration.
type GeoMirror interface {
	UpsertDriver(ctx context.Context, driverID string, lat, lng float64, ts time.Time) error
	RemoveDriver(ctx context.Context, driverID string) error
	NearbyDrivers(ctx context.Context, lat, lng, radiusKm float64) ([]models.NearbyDriver, error)
}
