package models

import "github.com/golang-jwt/jwt/v4"

// Inbound WebSocket messages are flat JSON objects tagged by "type".
// Anything that does not decode into one of the known variants is ignored.

// WSInbound is the union decode target for inbound messages.
type WSInbound struct {
	Type         string  `json:"type"`
	ID           string  `json:"id,omitempty"`
	Role         Role    `json:"role,omitempty"`
	Coords       *Coords `json:"coords,omitempty"`
	DriverID     string  `json:"driverId,omitempty"`
	VehicleClass string  `json:"vehicleClass,omitempty"`
}

// WSJoined acknowledges a join.
type WSJoined struct {
	Type string `json:"type"`
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// WSDriverLocation is the relay's fan-out frame.
type WSDriverLocation struct {
	Type   string `json:"type"`
	ID     string `json:"id"`
	Coords Coords `json:"coords"`
}

// WSRideEvent carries a ride-lifecycle push. Fine is set only for
// accepted-ride cancellations.
type WSRideEvent struct {
	Type string `json:"type"`
	Ride Ride   `json:"ride"`
	Fine int    `json:"fine,omitempty"`
}

// WSError is sent for messages that parsed but failed a domain check.
type WSError struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WebSocketClaims are the JWT claims required on the upgrade request.
type WebSocketClaims struct {
	ActorID string `json:"actor_id"`
	Role    Role   `json:"role"`
	jwt.RegisteredClaims
}
