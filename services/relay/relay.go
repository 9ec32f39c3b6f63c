package relay

import (
	"context"

	"github.com/adiraj/gocab/internal/pkg/models"
	"github.com/adiraj/gocab/internal/pkg/websocket"
)

// Hub is the live location fan-out. Drivers publish positions; riders
// subscribe by driver id and receive every subsequent fix plus an immediate
// replay of the last known one. Presence here is independent of the
// dispatch socket: a driver may stream here without being dispatchable.
type Hub interface {
	// Join binds the connection to an actor. A repeated join replaces the
	// connection's identity and keeps its subscriptions.
	Join(conn websocket.Conn, actorID string, role models.Role)

	// PublishLocation records a driver fix and fans it out to subscribers.
	// Only a connection joined as a driver may publish.
	PublishLocation(ctx context.Context, conn websocket.Conn, lat, lng float64) error

	// Subscribe starts streaming a driver's fixes to the connection; no
	// prior join is needed. The driver's last known location, when stored,
	// is replayed immediately.
	Subscribe(ctx context.Context, conn websocket.Conn, driverID string) error

	// Unsubscribe stops the stream. Unknown subscriptions are a no-op.
	Unsubscribe(conn websocket.Conn, driverID string)

	// Disconnect removes the connection from every internal structure.
	// It must complete before the read loop returns.
	Disconnect(conn websocket.Conn)
}

// LocationStore persists last-known driver fixes for cold-start replay.
type LocationStore interface {
	SaveLocation(ctx context.Context, driverID string, loc models.Location) error

	// LastLocation returns nil without error when no fix is stored.
	LastLocation(ctx context.Context, driverID string) (*models.Location, error)
}
