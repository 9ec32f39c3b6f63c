package models

import "time"

// Role distinguishes the two participant kinds.
type Role string

const (
	RoleRider  Role = "rider"
	RoleDriver Role = "driver"
)

// Valid reports whether the role is one of the known kinds.
func (r Role) Valid() bool {
	return r == RoleRider || r == RoleDriver
}

// Availability represents whether a driver can receive ride requests.
type Availability string

const (
	AvailabilityActive   Availability = "active"
	AvailabilityInactive Availability = "inactive"
)

// NearbyDriver is a driver returned from a proximity query against the
// shared geo index.
type NearbyDriver struct {
	DriverID   string  `json:"driver_id"`
	Latitude   float64 `json:"lat"`
	Longitude  float64 `json:"lng"`
	DistanceKm float64 `json:"distance_km"`
}

// Presence is an actor's current connectivity and location state.
// One record per actor, keyed by ActorID. A nil connection handle means
// the actor is offline; the record itself is retained.
type Presence struct {
	ActorID      string       `json:"actor_id"`
	Role         Role         `json:"role"`
	VehicleClass VehicleClass `json:"vehicle_class,omitempty"`
	Location     *Location    `json:"location,omitempty"`
	Geohash      string       `json:"geohash,omitempty"`
	Availability Availability `json:"availability"`
	LastSeenAt   time.Time    `json:"last_seen_at"`
}
