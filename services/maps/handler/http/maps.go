package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/adiraj/gocab/internal/pkg/models"
	"github.com/adiraj/gocab/internal/utils"
	"github.com/adiraj/gocab/services/maps"
)

// MapsHandler exposes geocoding helpers for client address pickers.
type MapsHandler struct {
	geocoder maps.Geocoder
}

// NewMapsHandler creates the handler.
func NewMapsHandler(geocoder maps.Geocoder) *MapsHandler {
	return &MapsHandler{geocoder: geocoder}
}

// RegisterRoutes registers the maps endpoints.
func (h *MapsHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/maps/suggest", h.Suggest)
	e.GET("/maps/reverse", h.Reverse)
}

// Suggest returns address completions for a partial query.
func (h *MapsHandler) Suggest(c echo.Context) error {
	query := c.QueryParam("q")
	if query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "q is required")
	}

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		limit = parsed
	}

	suggestions, err := h.geocoder.Suggest(c.Request().Context(), query, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusOK, suggestions)
}

// Reverse resolves coordinates into a display address.
func (h *MapsHandler) Reverse(c echo.Context) error {
	lat, errLat := strconv.ParseFloat(c.QueryParam("lat"), 64)
	lng, errLng := strconv.ParseFloat(c.QueryParam("lng"), 64)
	if errLat != nil || errLng != nil || !utils.ValidCoords(lat, lng) {
		return echo.NewHTTPError(http.StatusBadRequest, "valid lat and lng are required")
	}

	address, err := h.geocoder.ReverseGeocode(c.Request().Context(), models.Coords{Latitude: lat, Longitude: lng})
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{"address": address})
}
