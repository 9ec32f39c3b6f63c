package gateway

import (
	"fmt"

	"github.com/adiraj/gocab/internal/pkg/models"
	"github.com/adiraj/gocab/internal/pkg/nsq"
)

// RideGW publishes ride lifecycle events onto NSQ. Consumers such as
// billing and analytics replay the event log from there.
type RideGW struct {
	producer nsq.Publisher
}

// NewRideGW creates the gateway.
func NewRideGW(producer nsq.Publisher) *RideGW {
	return &RideGW{producer: producer}
}

// PublishRideEvent publishes the ride onto the given topic.
func (g *RideGW) PublishRideEvent(topic string, ride models.Ride) error {
	if err := g.producer.Publish(topic, ride); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	return nil
}
