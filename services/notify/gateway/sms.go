package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/adiraj/gocab/internal/pkg/logger"
	"github.com/adiraj/gocab/internal/pkg/models"
)

// SMSNotifier posts messages to an HTTP SMS gateway. When no gateway URL is
// configured it degrades to logging the message and dropping it, which keeps
// local development working without credentials.
type SMSNotifier struct {
	cfg    models.NotifyConfig
	client *http.Client
}

// NewSMSNotifier creates the notifier from config.
func NewSMSNotifier(cfg models.NotifyConfig) *SMSNotifier {
	return &SMSNotifier{
		cfg:    cfg,
		client: &http.Client{Timeout: 5 * time.Second},
	}
}

// RideOTP sends the start-ride code to the rider.
func (n *SMSNotifier) RideOTP(ctx context.Context, ride models.Ride) {
	msg := fmt.Sprintf("Your ride code is %s. Share it with your driver to start the trip.", ride.OTP)
	n.send(ctx, ride.RiderID, msg)
}

// RideAssigned tells the accepting driver the ride is theirs.
func (n *SMSNotifier) RideAssigned(ctx context.Context, ride models.Ride) {
	msg := fmt.Sprintf("You accepted ride %s. Pickup: %s. Start code %s.", ride.RideID, ride.Pickup, ride.OTP)
	n.send(ctx, ride.DriverID, msg)
}

// RideCancelled tells the counterparty a ride was cancelled.
func (n *SMSNotifier) RideCancelled(ctx context.Context, ride models.Ride, fine int) {
	msg := fmt.Sprintf("Ride %s was cancelled.", ride.RideID)
	if fine > 0 {
		msg = fmt.Sprintf("Ride %s was cancelled. A cancellation fine of %d applies.", ride.RideID, fine)
	}
	n.send(ctx, ride.RiderID, msg)
	if ride.DriverID != "" {
		n.send(ctx, ride.DriverID, msg)
	}
}

type smsRequest struct {
	To      string `json:"to"`
	From    string `json:"from"`
	Message string `json:"message"`
}

func (n *SMSNotifier) send(ctx context.Context, recipient, message string) {
	if n.cfg.SMSGatewayURL == "" {
		logger.Debug("SMS gateway not configured, dropping message",
			logger.String("recipient", recipient),
			logger.String("message", message))
		return
	}

	payload, err := json.Marshal(smsRequest{
		To:      recipient,
		From:    n.cfg.SMSFrom,
		Message: message,
	})
	if err != nil {
		logger.Error("Failed to marshal SMS payload", logger.Err(err))
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.SMSGatewayURL, bytes.NewReader(payload))
	if err != nil {
		logger.Error("Failed to build SMS request", logger.Err(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if n.cfg.SMSAPIKey != "" {
		req.Header.Set("Authorization", "Bearer "+n.cfg.SMSAPIKey)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		logger.Warn("Failed to deliver SMS",
			logger.String("recipient", recipient),
			logger.Err(err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		logger.Warn("SMS gateway rejected message",
			logger.String("recipient", recipient),
			logger.Int("status", resp.StatusCode))
	}
}
