package constants

// NSQ topics for the ride event log. Publishing is best-effort; consumers
// (analytics, billing) replay from the bus, not from this service.
const (
	TopicRideCreated   = "rides.created"
	TopicRideAccepted  = "rides.accepted"
	TopicRideStarted   = "rides.started"
	TopicRideCompleted = "rides.completed"
	TopicRideCancelled = "rides.cancelled"
	TopicRidePaid      = "rides.paid"
)
