package models

import (
	"strings"
	"time"
)

// RideStatus represents the lifecycle state of a ride
type RideStatus string

const (
	RideStatusPending   RideStatus = "pending"
	RideStatusAccepted  RideStatus = "accepted"
	RideStatusOngoing   RideStatus = "ongoing"
	RideStatusCompleted RideStatus = "completed"
	RideStatusCancelled RideStatus = "cancelled"
)

// Terminal reports whether no further transitions are possible.
func (s RideStatus) Terminal() bool {
	return s == RideStatusCompleted || s == RideStatusCancelled
}

// ParseRideStatus maps a raw string onto a known status.
func ParseRideStatus(s string) (RideStatus, bool) {
	switch RideStatus(strings.ToLower(s)) {
	case RideStatusPending:
		return RideStatusPending, true
	case RideStatusAccepted:
		return RideStatusAccepted, true
	case RideStatusOngoing:
		return RideStatusOngoing, true
	case RideStatusCompleted:
		return RideStatusCompleted, true
	case RideStatusCancelled:
		return RideStatusCancelled, true
	default:
		return "", false
	}
}

// VehicleClass is the requested vehicle category for a ride
type VehicleClass string

const (
	VehicleCar        VehicleClass = "car"
	VehicleAuto       VehicleClass = "auto"
	VehicleMotorcycle VehicleClass = "motorcycle"
)

// NormalizeVehicleClass lowercases the input and folds aliases onto the
// canonical classes. "bike" is accepted as motorcycle.
func NormalizeVehicleClass(s string) (VehicleClass, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "car":
		return VehicleCar, true
	case "auto":
		return VehicleAuto, true
	case "motorcycle", "bike":
		return VehicleMotorcycle, true
	}
	return "", false
}

// Ride is the authoritative ride record. It is created in pending state and
// mutated only through guarded transitions; completed and cancelled records
// are retained for history.
type Ride struct {
	RideID       string       `json:"ride_id" db:"ride_id"`
	RiderID      string       `json:"rider_id" db:"rider_id"`
	DriverID     string       `json:"driver_id,omitempty" db:"driver_id"`
	Pickup       string       `json:"pickup" db:"pickup"`
	Destination  string       `json:"destination" db:"destination"`
	PickupCoords Location     `json:"pickup_coords"`
	VehicleClass VehicleClass `json:"vehicle_class" db:"vehicle_class"`
	Fare         int          `json:"fare" db:"fare"`
	DistanceKm   float64      `json:"distance_km" db:"distance_km"`
	DurationMin  int          `json:"duration_min" db:"duration_min"`
	OTP          string       `json:"otp,omitempty" db:"otp"`
	Status       RideStatus   `json:"status" db:"status"`
	PaymentType  string       `json:"payment_type,omitempty" db:"payment_type"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at" db:"updated_at"`
}

// Sanitized returns a copy safe to broadcast to drivers that have not
// accepted the ride: the OTP must never reach them.
func (r Ride) Sanitized() Ride {
	r.OTP = ""
	return r
}

// CandidateMatch is a transient matching result, never persisted.
type CandidateMatch struct {
	DriverID   string   `json:"driver_id"`
	DistanceKm *float64 `json:"distance_km,omitempty"` // nil when the driver has no GPS fix yet
	EtaMin     int      `json:"eta_min,omitempty"`
}

// Payment captures settlement metadata recorded against a completed ride.
type Payment struct {
	RideID      string    `json:"ride_id"`
	Fare        int       `json:"fare"`
	PaymentType string    `json:"payment_type"`
	SettledAt   time.Time `json:"settled_at"`
}

// CancelResult reports the outcome of a cancellation, including any fine
// charged when an accepted ride is abandoned.
type CancelResult struct {
	Ride Ride `json:"ride"`
	Fine int  `json:"fine,omitempty"`
}
