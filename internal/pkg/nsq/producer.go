package nsq

import (
	"encoding/json"
	"fmt"

	"github.com/adiraj/gocab/internal/pkg/logger"
	"github.com/nsqio/go-nsq"
)

// Publisher is the event-log publishing contract. Implementations are
// best-effort: callers never fail because a publish did.
type Publisher interface {
	Publish(topic string, message interface{}) error
	Stop()
}

// Producer handles publishing messages to NSQ topics
type Producer struct {
	producer *nsq.Producer
}

// NewProducer creates a new NSQ producer and verifies connectivity.
func NewProducer(address string) (*Producer, error) {
	config := nsq.NewConfig()
	producer, err := nsq.NewProducer(address, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create NSQ producer: %w", err)
	}

	if err := producer.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping NSQ daemon: %w", err)
	}

	return &Producer{producer: producer}, nil
}

// Publish sends a message to the specified topic
func (p *Producer) Publish(topic string, message interface{}) error {
	msgBytes, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if err := p.producer.Publish(topic, msgBytes); err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	return nil
}

// Stop gracefully stops the producer
func (p *Producer) Stop() {
	p.producer.Stop()
}

// NoopProducer is used when the event bus is disabled; publishes are logged
// at debug level and dropped.
type NoopProducer struct{}

// Publish drops the message.
func (NoopProducer) Publish(topic string, message interface{}) error {
	logger.Debug("Event bus disabled, dropping message", logger.String("topic", topic))
	return nil
}

// Stop is a no-op.
func (NoopProducer) Stop() {}
