package websocket

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/adiraj/gocab/internal/pkg/constants"
	jwtpkg "github.com/adiraj/gocab/internal/pkg/jwt"
	"github.com/adiraj/gocab/internal/pkg/models"
)

// Client is an authenticated WebSocket session.
type Client struct {
	ActorID string
	Role    models.Role
	Conn    Conn

	// Raw is the underlying transport, used only by message read loops.
	Raw *websocket.Conn
}

// Manager authenticates and upgrades WebSocket connections
type Manager struct {
	cfg          models.JWTConfig
	writeTimeout time.Duration
	upgrader     websocket.Upgrader
}

// NewManager creates a new WebSocket manager
func NewManager(jwtConfig models.JWTConfig, writeTimeout time.Duration) *Manager {
	return &Manager{
		cfg:          jwtConfig,
		writeTimeout: writeTimeout,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// HandleConnection authenticates and handles a new WebSocket connection.
// The handler owns the read loop; the connection is closed when it returns.
func (m *Manager) HandleConnection(c echo.Context, handleClient func(*Client) error) error {
	client, err := m.authenticateClient(c)
	if err != nil {
		return err
	}

	ws, err := m.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	client.Raw = ws
	client.Conn = WrapConn(ws, m.writeTimeout)

	return handleClient(client)
}

// authenticateClient authenticates the WebSocket client using JWT
func (m *Manager) authenticateClient(c echo.Context) (*Client, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Authorization header is required")
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Invalid authorization format")
	}

	claims, err := jwtpkg.ValidateToken(parts[1], m.cfg.Secret)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
	}

	return &Client{
		ActorID: claims.ActorID,
		Role:    claims.Role,
	}, nil
}

// SendError pushes an error frame to the client, best-effort.
func SendError(conn Conn, code, message string) error {
	return conn.Send(models.WSError{
		Type:    constants.MsgError,
		Code:    code,
		Message: message,
	})
}
