package health

import (
	"context"
	"net/http"
	"time"

	"github.com/adiraj/gocab/internal/pkg/database"
	"github.com/labstack/echo/v4"
)

// Status is the health check response body.
type Status struct {
	Service string            `json:"service"`
	Status  string            `json:"status"`
	Time    time.Time         `json:"time"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// Handler serves liveness and readiness probes.
type Handler struct {
	service  string
	postgres *database.PostgresClient
	redis    *database.RedisClient
}

// NewHandler creates a health handler. The database clients may be nil if
// the service does not use them.
func NewHandler(service string, pg *database.PostgresClient, rd *database.RedisClient) *Handler {
	return &Handler{
		service:  service,
		postgres: pg,
		redis:    rd,
	}
}

// RegisterRoutes registers the health endpoints on the Echo instance.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)
}

// Health reports service status along with dependency checks.
func (h *Handler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status := Status{
		Service: h.service,
		Status:  "ok",
		Time:    time.Now().UTC(),
		Checks:  make(map[string]string),
	}
	code := http.StatusOK

	if h.postgres != nil {
		if err := h.postgres.GetDB().PingContext(ctx); err != nil {
			status.Checks["postgres"] = err.Error()
			status.Status = "degraded"
			code = http.StatusServiceUnavailable
		} else {
			status.Checks["postgres"] = "ok"
		}
	}

	if h.redis != nil {
		if err := h.redis.Ping(ctx); err != nil {
			status.Checks["redis"] = err.Error()
			status.Status = "degraded"
			code = http.StatusServiceUnavailable
		} else {
			status.Checks["redis"] = "ok"
		}
	}

	return c.JSON(code, status)
}
