package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/adiraj/gocab/internal/pkg/errs"
	"github.com/adiraj/gocab/internal/pkg/logger"
	"github.com/adiraj/gocab/internal/pkg/models"
	"github.com/adiraj/gocab/services/rides"
)

// RideHandler exposes the ride lifecycle over HTTP.
type RideHandler struct {
	uc rides.RideUC
}

// NewRideHandler creates the handler.
func NewRideHandler(uc rides.RideUC) *RideHandler {
	return &RideHandler{uc: uc}
}

// RegisterRoutes registers the ride endpoints.
func (h *RideHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/rides", h.CreateRide)
	e.GET("/rides", h.ListRides)
	e.GET("/rides/fare", h.QuoteFare)
	e.GET("/rides/:id", h.GetRide)
	e.POST("/rides/:id/accept", h.AcceptRide)
	e.POST("/rides/:id/start", h.StartRide)
	e.POST("/rides/:id/complete", h.CompleteRide)
	e.POST("/rides/:id/payment", h.SettlePayment)
	e.POST("/rides/:id/cancel", h.CancelRide)
}

// CreateRide requests a new ride and dispatches it to nearby drivers.
func (h *RideHandler) CreateRide(c echo.Context) error {
	var req rides.CreateRideRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ride, err := h.uc.CreateRide(c.Request().Context(), req)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, ride)
}

// GetRide returns a single ride.
func (h *RideHandler) GetRide(c echo.Context) error {
	ride, err := h.uc.GetRide(c.Request().Context(), c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, ride.Sanitized())
}

// ListRides returns the actor's recent rides.
func (h *RideHandler) ListRides(c echo.Context) error {
	actorID := c.QueryParam("actor_id")
	if actorID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "actor_id is required")
	}

	var status models.RideStatus
	if raw := c.QueryParam("status"); raw != "" {
		parsed, ok := models.ParseRideStatus(raw)
		if !ok {
			return echo.NewHTTPError(http.StatusBadRequest, "unknown status")
		}
		status = parsed
	}

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		limit = parsed
	}

	list, err := h.uc.ListRides(c.Request().Context(), actorID, status, limit)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, list)
}

// QuoteFare estimates fares for a prospective trip.
func (h *RideHandler) QuoteFare(c echo.Context) error {
	pickup := c.QueryParam("pickup")
	destination := c.QueryParam("destination")
	if pickup == "" || destination == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "pickup and destination are required")
	}

	quotes, err := h.uc.QuoteFare(c.Request().Context(), pickup, destination, c.QueryParam("vehicle_class"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, quotes)
}

type acceptRequest struct {
	DriverID string `json:"driver_id"`
}

// AcceptRide assigns the ride to the first driver to claim it.
func (h *RideHandler) AcceptRide(c echo.Context) error {
	var req acceptRequest
	if err := c.Bind(&req); err != nil || req.DriverID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "driver_id is required")
	}

	ride, err := h.uc.AcceptRide(c.Request().Context(), c.Param("id"), req.DriverID)
	if err != nil {
		return toHTTPError(err)
	}
	// The accepting driver is the caller; they get the full ride
	// including the start code.
	return c.JSON(http.StatusOK, ride)
}

type startRequest struct {
	DriverID string `json:"driver_id"`
	OTP      string `json:"otp"`
}

// StartRide begins the trip after OTP verification.
func (h *RideHandler) StartRide(c echo.Context) error {
	var req startRequest
	if err := c.Bind(&req); err != nil || req.DriverID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "driver_id and otp are required")
	}

	ride, err := h.uc.StartRide(c.Request().Context(), c.Param("id"), req.DriverID, req.OTP)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, ride.Sanitized())
}

// CompleteRide finishes an ongoing trip.
func (h *RideHandler) CompleteRide(c echo.Context) error {
	ride, err := h.uc.CompleteRide(c.Request().Context(), c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, ride.Sanitized())
}

type paymentRequest struct {
	Amount      int    `json:"amount"`
	PaymentType string `json:"payment_type"`
}

// SettlePayment records how a completed ride was paid.
func (h *RideHandler) SettlePayment(c echo.Context) error {
	var req paymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ride, err := h.uc.SettlePayment(c.Request().Context(), c.Param("id"), req.Amount, req.PaymentType)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, ride.Sanitized())
}

type cancelRequest struct {
	ActorID string `json:"actor_id"`
}

// CancelRide aborts a pending or accepted ride.
func (h *RideHandler) CancelRide(c echo.Context) error {
	var req cancelRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	result, err := h.uc.CancelRide(c.Request().Context(), c.Param("id"), req.ActorID)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, result)
}

// toHTTPError maps domain errors onto transport status codes.
func toHTTPError(err error) error {
	switch errs.KindOf(err) {
	case errs.KindValidation:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errs.KindNotFound:
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errs.KindConflict:
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errs.KindUnavailable:
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	default:
		logger.Error("Unhandled error", logger.Err(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
