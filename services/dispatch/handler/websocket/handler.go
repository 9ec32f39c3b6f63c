package websocket

import (
	"encoding/json"
	"errors"
	"time"

	gorilla "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/adiraj/gocab/internal/pkg/constants"
	"github.com/adiraj/gocab/internal/pkg/errs"
	"github.com/adiraj/gocab/internal/pkg/logger"
	"github.com/adiraj/gocab/internal/pkg/models"
	ws "github.com/adiraj/gocab/internal/pkg/websocket"
	"github.com/adiraj/gocab/services/presence"
)

// Handler runs the dispatch socket: actors join here to receive ride events
// and drivers report their position here between rides.
type Handler struct {
	manager  *ws.Manager
	registry presence.Registry
}

// NewHandler creates the dispatch socket handler.
func NewHandler(manager *ws.Manager, registry presence.Registry) *Handler {
	return &Handler{
		manager:  manager,
		registry: registry,
	}
}

// RegisterRoutes registers the dispatch WebSocket endpoint.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws", h.HandleWebSocket)
}

// HandleWebSocket upgrades the connection and runs the read loop until the
// peer goes away. Cleanup is synchronous: by the time the loop returns the
// actor is no longer reachable through the registry.
func (h *Handler) HandleWebSocket(c echo.Context) error {
	return h.manager.HandleConnection(c, func(client *ws.Client) error {
		defer func() {
			if actorID, ok := h.registry.MarkDisconnected(client.Conn); ok {
				logger.Info("Actor disconnected from dispatch",
					logger.String("actor_id", actorID))
			}
		}()

		for {
			_, raw, err := client.Raw.ReadMessage()
			if err != nil {
				if gorilla.IsUnexpectedCloseError(err, gorilla.CloseGoingAway, gorilla.CloseNormalClosure) {
					logger.Debug("Dispatch socket closed unexpectedly",
						logger.String("actor_id", client.ActorID),
						logger.Err(err))
				}
				return nil
			}

			var msg models.WSInbound
			if err := json.Unmarshal(raw, &msg); err != nil {
				_ = ws.SendError(client.Conn, constants.ErrorInvalidFormat, "malformed message")
				continue
			}

			h.handleMessage(client, msg)
		}
	})
}

func (h *Handler) handleMessage(client *ws.Client, msg models.WSInbound) {
	switch msg.Type {
	case constants.MsgJoin:
		h.handleJoin(client, msg)
	case constants.MsgLocation:
		h.handleLocation(client, msg)
	default:
		_ = ws.SendError(client.Conn, constants.ErrorInvalidFormat, "unknown message type")
	}
}

// handleJoin registers the actor under its authenticated identity. The id
// and role in the frame are advisory; the token is what counts.
func (h *Handler) handleJoin(client *ws.Client, msg models.WSInbound) {
	vehicleClass := models.VehicleClass("")
	if msg.VehicleClass != "" {
		vc, ok := models.NormalizeVehicleClass(msg.VehicleClass)
		if !ok {
			_ = ws.SendError(client.Conn, constants.ErrorInvalidFormat, "unknown vehicle class")
			return
		}
		vehicleClass = vc
	}

	rec, err := h.registry.Register(client.ActorID, client.Role, vehicleClass, client.Conn)
	if err != nil {
		_ = ws.SendError(client.Conn, constants.ErrorUnauthorized, "registration rejected")
		return
	}

	_ = client.Conn.Send(models.WSJoined{
		Type: constants.MsgJoined,
		ID:   rec.ActorID,
		Role: rec.Role,
	})

	logger.Info("Actor joined dispatch",
		logger.String("actor_id", rec.ActorID),
		logger.String("role", string(rec.Role)))
}

func (h *Handler) handleLocation(client *ws.Client, msg models.WSInbound) {
	if msg.Coords == nil {
		_ = ws.SendError(client.Conn, constants.ErrorInvalidLocation, "missing coords")
		return
	}

	_, err := h.registry.UpdateLocation(client.ActorID, msg.Coords.Latitude, msg.Coords.Longitude, time.Now().UTC())
	switch {
	case errors.Is(err, errs.ErrNotRegistered):
		_ = ws.SendError(client.Conn, constants.ErrorNotRegistered, "join before sending locations")
	case errors.Is(err, errs.ErrInvalidLocation):
		_ = ws.SendError(client.Conn, constants.ErrorInvalidLocation, "coordinates out of range")
	case err != nil:
		logger.Error("Failed to update location",
			logger.String("actor_id", client.ActorID),
			logger.Err(err))
	}
}
