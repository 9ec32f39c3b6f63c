package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/adiraj/gocab/internal/pkg/errs"
	"github.com/adiraj/gocab/internal/pkg/logger"
	"github.com/adiraj/gocab/internal/pkg/models"
	"github.com/adiraj/gocab/internal/pkg/websocket"
	"github.com/adiraj/gocab/internal/utils"
	"github.com/adiraj/gocab/services/presence"
)

// InMemoryRegistry is the authoritative presence store for this process.
// All maps are guarded by a single RWMutex; Register and MarkDisconnected
// keep the forward and reverse maps in step under the same lock so a handle
// can never point at a stale actor.
type InMemoryRegistry struct {
	mu      sync.RWMutex
	actors  map[string]*models.Presence
	handles map[string]websocket.Conn
	reverse map[websocket.Conn]string

	mirror presence.GeoMirror
}

// NewInMemoryRegistry creates an empty registry. The geo mirror may be nil,
// in which case driver positions are kept in-process only.
func NewInMemoryRegistry(mirror presence.GeoMirror) *InMemoryRegistry {
	return &InMemoryRegistry{
		actors:  make(map[string]*models.Presence),
		handles: make(map[string]websocket.Conn),
		reverse: make(map[websocket.Conn]string),
		mirror:  mirror,
	}
}

// Register adds or refreshes an actor record. A second registration for the
// same actor id replaces the stored handle; the previous handle is forgotten
// so its eventual close does not evict the new connection.
func (r *InMemoryRegistry) Register(actorID string, role models.Role, vehicleClass models.VehicleClass, conn websocket.Conn) (*models.Presence, error) {
	if !role.Valid() {
		return nil, errs.ErrNotRegistered
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.actors[actorID]
	if !ok {
		rec = &models.Presence{
			ActorID: actorID,
			Role:    role,
		}
		r.actors[actorID] = rec
	}
	rec.Role = role
	if vehicleClass != "" {
		rec.VehicleClass = vehicleClass
	}
	rec.Availability = models.AvailabilityActive
	rec.LastSeenAt = time.Now().UTC()

	if old, ok := r.handles[actorID]; ok && old != conn {
		delete(r.reverse, old)
	}
	if conn != nil {
		r.handles[actorID] = conn
		r.reverse[conn] = actorID
	}

	snapshot := *rec
	return &snapshot, nil
}

// UpdateLocation overwrites the actor's last-known location. Drivers are
// mirrored to the shared geo index; a mirror failure is logged, never
// surfaced, so local state stays usable when the store is down.
func (r *InMemoryRegistry) UpdateLocation(actorID string, lat, lng float64, ts time.Time) (*models.Presence, error) {
	if !utils.ValidCoords(lat, lng) {
		return nil, errs.ErrInvalidLocation
	}

	r.mu.Lock()
	rec, ok := r.actors[actorID]
	if !ok {
		r.mu.Unlock()
		return nil, errs.ErrNotRegistered
	}
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	rec.Location = &models.Location{Latitude: lat, Longitude: lng, Timestamp: ts}
	rec.Geohash = utils.GeohashEncode(lat, lng)
	rec.LastSeenAt = time.Now().UTC()
	snapshot := *rec
	r.mu.Unlock()

	if snapshot.Role == models.RoleDriver && r.mirror != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := r.mirror.UpsertDriver(ctx, actorID, lat, lng, ts); err != nil {
			logger.Warn("Failed to mirror driver location",
				logger.String("driver_id", actorID),
				logger.Err(err))
		}
	}

	return &snapshot, nil
}

// MarkDisconnected resolves the handle through the reverse map, marks the
// actor inactive and forgets the handle. The record survives so a returning
// actor keeps its last-known location.
func (r *InMemoryRegistry) MarkDisconnected(conn websocket.Conn) (string, bool) {
	r.mu.Lock()
	actorID, ok := r.reverse[conn]
	if !ok {
		r.mu.Unlock()
		return "", false
	}
	delete(r.reverse, conn)
	// Only drop the forward handle if it still points at this connection;
	// a re-registration may already have replaced it.
	droppedDriver := false
	if cur, exists := r.handles[actorID]; exists && cur == conn {
		delete(r.handles, actorID)
		if rec, exists := r.actors[actorID]; exists {
			rec.Availability = models.AvailabilityInactive
			rec.LastSeenAt = time.Now().UTC()
			droppedDriver = rec.Role == models.RoleDriver
		}
	}
	r.mu.Unlock()

	if droppedDriver && r.mirror != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := r.mirror.RemoveDriver(ctx, actorID); err != nil {
			logger.Warn("Failed to remove driver from geo index",
				logger.String("driver_id", actorID),
				logger.Err(err))
		}
	}

	return actorID, true
}

// Get returns a copy of the actor's presence record.
func (r *InMemoryRegistry) Get(actorID string) (*models.Presence, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.actors[actorID]
	if !ok {
		return nil, false
	}
	snapshot := *rec
	return &snapshot, true
}

// Handle returns the live connection handle for an actor.
func (r *InMemoryRegistry) Handle(actorID string) (websocket.Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.handles[actorID]
	return conn, ok
}

// AvailableDrivers returns copies of every active driver record that still
// has a live connection. A record without a handle cannot be offered a ride.
func (r *InMemoryRegistry) AvailableDrivers() []*models.Presence {
	r.mu.RLock()
	defer r.mu.RUnlock()

	drivers := make([]*models.Presence, 0)
	for actorID, rec := range r.actors {
		if rec.Role != models.RoleDriver || rec.Availability != models.AvailabilityActive {
			continue
		}
		if _, connected := r.handles[actorID]; !connected {
			continue
		}
		snapshot := *rec
		drivers = append(drivers, &snapshot)
	}
	return drivers
}
