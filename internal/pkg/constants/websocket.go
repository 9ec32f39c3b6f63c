package constants

// Inbound WebSocket message types
const (
	MsgJoin        = "join"
	MsgLocation    = "location"
	MsgSubscribe   = "subscribe"
	MsgUnsubscribe = "unsubscribe"
)

// Outbound WebSocket message types
const (
	MsgJoined         = "joined"
	MsgDriverLocation = "driver_location"
	MsgError          = "error"
)

// Ride-lifecycle push events
const (
	EventNewRide       = "new-ride"
	EventRideAccepted  = "ride-accepted"
	EventRideStarted   = "ride-started"
	EventRideCompleted = "ride-completed"
	EventRideCancelled = "ride-cancelled"
)

// WebSocket error codes
const (
	ErrorInvalidFormat   = "invalid_format"
	ErrorInvalidLocation = "invalid_location"
	ErrorNotRegistered   = "not_registered"
	ErrorUnauthorized    = "unauthorized"
)
