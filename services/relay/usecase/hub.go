package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/adiraj/gocab/internal/pkg/constants"
	"github.com/adiraj/gocab/internal/pkg/errs"
	"github.com/adiraj/gocab/internal/pkg/logger"
	"github.com/adiraj/gocab/internal/pkg/models"
	"github.com/adiraj/gocab/internal/pkg/websocket"
	"github.com/adiraj/gocab/internal/utils"
	"github.com/adiraj/gocab/services/relay"
)

// session is the per-connection relay state: who joined on it and which
// drivers it watches.
type session struct {
	actorID string
	role    models.Role
	subs    map[string]bool
}

// LiveHub is the in-process relay hub. A single RWMutex guards the three
// maps; fan-out happens outside the write path but under a read lock over
// a snapshot, so a slow subscriber only burns its own write deadline.
type LiveHub struct {
	mu          sync.RWMutex
	store       relay.LocationStore
	drivers     map[string]websocket.Conn
	subscribers map[string]map[websocket.Conn]bool
	sessions    map[websocket.Conn]*session
}

// NewLiveHub creates an empty hub. The store may be nil; replay is then
// limited to fixes observed during this process lifetime, i.e. none.
func NewLiveHub(store relay.LocationStore) *LiveHub {
	return &LiveHub{
		store:       store,
		drivers:     make(map[string]websocket.Conn),
		subscribers: make(map[string]map[websocket.Conn]bool),
		sessions:    make(map[websocket.Conn]*session),
	}
}

// Join binds the connection to an actor. A second join on the same
// connection replaces its identity; existing subscriptions survive.
func (h *LiveHub) Join(conn websocket.Conn, actorID string, role models.Role) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sess, ok := h.sessions[conn]
	if !ok {
		sess = &session{subs: make(map[string]bool)}
		h.sessions[conn] = sess
	}

	if sess.role == models.RoleDriver {
		if cur, ok := h.drivers[sess.actorID]; ok && cur == conn {
			delete(h.drivers, sess.actorID)
		}
	}

	sess.actorID = actorID
	sess.role = role
	if role == models.RoleDriver {
		h.drivers[actorID] = conn
	}
}

// PublishLocation stores the fix and fans it out to current subscribers.
func (h *LiveHub) PublishLocation(ctx context.Context, conn websocket.Conn, lat, lng float64) error {
	if !utils.ValidCoords(lat, lng) {
		return errs.ErrInvalidLocation
	}

	h.mu.RLock()
	sess, ok := h.sessions[conn]
	if !ok || sess.role != models.RoleDriver {
		h.mu.RUnlock()
		return errs.ErrNotRegistered
	}
	driverID := sess.actorID

	targets := make([]websocket.Conn, 0, len(h.subscribers[driverID]))
	for sub := range h.subscribers[driverID] {
		targets = append(targets, sub)
	}
	h.mu.RUnlock()

	loc := models.Location{Latitude: lat, Longitude: lng, Timestamp: time.Now().UTC()}
	if h.store != nil {
		if err := h.store.SaveLocation(ctx, driverID, loc); err != nil {
			logger.Warn("Failed to persist driver fix",
				logger.String("driver_id", driverID),
				logger.Err(err))
		}
	}

	frame := models.WSDriverLocation{
		Type:   constants.MsgDriverLocation,
		ID:     driverID,
		Coords: loc.Coords(),
	}
	for _, sub := range targets {
		if err := sub.Send(frame); err != nil {
			logger.Debug("Dropped location frame for slow subscriber",
				logger.String("driver_id", driverID),
				logger.Err(err))
		}
	}

	return nil
}

// Subscribe starts streaming the driver's fixes to the connection and
// replays the last known fix so the map is never empty on arrival. A
// connection does not need to join first: watching is anonymous, only
// publishing requires an identity.
func (h *LiveHub) Subscribe(ctx context.Context, conn websocket.Conn, driverID string) error {
	h.mu.Lock()
	sess, ok := h.sessions[conn]
	if !ok {
		sess = &session{subs: make(map[string]bool)}
		h.sessions[conn] = sess
	}
	sess.subs[driverID] = true
	if h.subscribers[driverID] == nil {
		h.subscribers[driverID] = make(map[websocket.Conn]bool)
	}
	h.subscribers[driverID][conn] = true
	h.mu.Unlock()

	if h.store == nil {
		return nil
	}

	last, err := h.store.LastLocation(ctx, driverID)
	if err != nil {
		logger.Warn("Failed to load last driver fix",
			logger.String("driver_id", driverID),
			logger.Err(err))
		return nil
	}
	if last == nil {
		return nil
	}

	return conn.Send(models.WSDriverLocation{
		Type:   constants.MsgDriverLocation,
		ID:     driverID,
		Coords: last.Coords(),
	})
}

// Unsubscribe stops the stream for one driver.
func (h *LiveHub) Unsubscribe(conn websocket.Conn, driverID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if sess, ok := h.sessions[conn]; ok {
		delete(sess.subs, driverID)
	}
	if subs, ok := h.subscribers[driverID]; ok {
		delete(subs, conn)
		if len(subs) == 0 {
			delete(h.subscribers, driverID)
		}
	}
}

// Disconnect scrubs the connection from every map. After it returns no
// fan-out can reach the connection.
func (h *LiveHub) Disconnect(conn websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sess, ok := h.sessions[conn]
	if !ok {
		return
	}
	delete(h.sessions, conn)

	for driverID := range sess.subs {
		if subs, ok := h.subscribers[driverID]; ok {
			delete(subs, conn)
			if len(subs) == 0 {
				delete(h.subscribers, driverID)
			}
		}
	}

	if sess.role == models.RoleDriver {
		if cur, ok := h.drivers[sess.actorID]; ok && cur == conn {
			delete(h.drivers, sess.actorID)
		}
	}
}
