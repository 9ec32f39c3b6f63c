package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/adiraj/gocab/internal/pkg/jwt"
	"github.com/adiraj/gocab/internal/pkg/models"
	"github.com/adiraj/gocab/internal/utils"
	"github.com/adiraj/gocab/services/presence"
)

// PresenceHandler exposes driver discovery and token issuance.
type PresenceHandler struct {
	mirror          presence.GeoMirror
	jwtCfg          models.JWTConfig
	defaultRadiusKm float64
}

// NewPresenceHandler creates the handler.
func NewPresenceHandler(mirror presence.GeoMirror, jwtCfg models.JWTConfig, defaultRadiusKm float64) *PresenceHandler {
	if defaultRadiusKm <= 0 {
		defaultRadiusKm = 5
	}
	return &PresenceHandler{
		mirror:          mirror,
		jwtCfg:          jwtCfg,
		defaultRadiusKm: defaultRadiusKm,
	}
}

// RegisterRoutes registers the presence endpoints.
func (h *PresenceHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/drivers/nearby", h.NearbyDrivers)
	e.POST("/auth/token", h.IssueToken)
}

// NearbyDrivers queries the shared geo index for available drivers around a
// point, nearest first.
func (h *PresenceHandler) NearbyDrivers(c echo.Context) error {
	lat, errLat := strconv.ParseFloat(c.QueryParam("lat"), 64)
	lng, errLng := strconv.ParseFloat(c.QueryParam("lng"), 64)
	if errLat != nil || errLng != nil || !utils.ValidCoords(lat, lng) {
		return echo.NewHTTPError(http.StatusBadRequest, "valid lat and lng are required")
	}

	radiusKm := h.defaultRadiusKm
	if raw := c.QueryParam("radius_km"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid radius_km")
		}
		radiusKm = parsed
	}

	drivers, err := h.mirror.NearbyDrivers(c.Request().Context(), lat, lng, radiusKm)
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "driver index unavailable")
	}
	return c.JSON(http.StatusOK, drivers)
}

type tokenRequest struct {
	ActorID string `json:"actor_id"`
	Role    string `json:"role"`
}

type tokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}

// IssueToken mints a WebSocket token for an actor.
func (h *PresenceHandler) IssueToken(c echo.Context) error {
	var req tokenRequest
	if err := c.Bind(&req); err != nil || req.ActorID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "actor_id and role are required")
	}

	role := models.Role(req.Role)
	if !role.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "role must be rider or driver")
	}

	token, expiresAt, err := jwt.GenerateToken(req.ActorID, role, h.jwtCfg)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to issue token")
	}
	return c.JSON(http.StatusOK, tokenResponse{Token: token, ExpiresAt: expiresAt})
}
