package websocket

import (
	"context"
	"encoding/json"

	gorilla "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/adiraj/gocab/internal/pkg/constants"
	"github.com/adiraj/gocab/internal/pkg/logger"
	"github.com/adiraj/gocab/internal/pkg/models"
	ws "github.com/adiraj/gocab/internal/pkg/websocket"
	"github.com/adiraj/gocab/services/relay"
)

// Handler runs the live location socket. Unlike the dispatch socket this
// endpoint is fire-and-forget: malformed or out-of-order frames are dropped
// without an error reply, since position streams tolerate gaps.
type Handler struct {
	manager *ws.Manager
	hub     relay.Hub
}

// NewHandler creates the live socket handler.
func NewHandler(manager *ws.Manager, hub relay.Hub) *Handler {
	return &Handler{
		manager: manager,
		hub:     hub,
	}
}

// RegisterRoutes registers the live WebSocket endpoint.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/live", h.HandleWebSocket)
}

// HandleWebSocket upgrades the connection and pumps frames into the hub.
// Disconnect cleanup runs before the handler returns, so a closed peer is
// unreachable by the time the upgrade goroutine exits.
func (h *Handler) HandleWebSocket(c echo.Context) error {
	return h.manager.HandleConnection(c, func(client *ws.Client) error {
		defer h.hub.Disconnect(client.Conn)

		// the request context dies with the upgrade; hub calls get their own
		ctx := context.Background()

		for {
			_, raw, err := client.Raw.ReadMessage()
			if err != nil {
				if gorilla.IsUnexpectedCloseError(err, gorilla.CloseGoingAway, gorilla.CloseNormalClosure) {
					logger.Debug("Live socket closed unexpectedly",
						logger.String("actor_id", client.ActorID),
						logger.Err(err))
				}
				return nil
			}

			var msg models.WSInbound
			if err := json.Unmarshal(raw, &msg); err != nil {
				continue
			}

			switch msg.Type {
			case constants.MsgJoin:
				h.hub.Join(client.Conn, client.ActorID, client.Role)
				_ = client.Conn.Send(models.WSJoined{
					Type: constants.MsgJoined,
					ID:   client.ActorID,
					Role: client.Role,
				})
			case constants.MsgLocation:
				if msg.Coords == nil {
					continue
				}
				if err := h.hub.PublishLocation(ctx, client.Conn, msg.Coords.Latitude, msg.Coords.Longitude); err != nil {
					logger.Debug("Dropped location frame",
						logger.String("actor_id", client.ActorID),
						logger.Err(err))
				}
			case constants.MsgSubscribe:
				if msg.DriverID == "" {
					continue
				}
				if err := h.hub.Subscribe(ctx, client.Conn, msg.DriverID); err != nil {
					logger.Debug("Subscribe rejected",
						logger.String("actor_id", client.ActorID),
						logger.String("driver_id", msg.DriverID),
						logger.Err(err))
				}
			case constants.MsgUnsubscribe:
				if msg.DriverID == "" {
					continue
				}
				h.hub.Unsubscribe(client.Conn, msg.DriverID)
			}
		}
	})
}
