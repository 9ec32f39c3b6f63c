package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/adiraj/gocab/internal/pkg/circuitbreaker"
	"github.com/adiraj/gocab/internal/pkg/models"
)

// OSRMClient computes road routes against an OSRM instance. A circuit
// breaker guards the endpoint: callers already degrade to straight-line
// estimates, so when OSRM is down there is no point queueing up on it.
type OSRMClient struct {
	baseURL string
	client  *http.Client
	breaker *circuitbreaker.Breaker
}

// NewOSRMClient creates a router backed by the given OSRM base URL, e.g.
// https://router.project-osrm.org.
func NewOSRMClient(baseURL string, timeout time.Duration) *OSRMClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &OSRMClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		breaker: circuitbreaker.New(circuitbreaker.DefaultConfig("osrm")),
	}
}

type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"` // meters
		Duration float64 `json:"duration"` // seconds
	} `json:"routes"`
}

// Route returns the driving distance in kilometers and duration in minutes.
func (c *OSRMClient) Route(ctx context.Context, from, to models.Coords) (float64, int, error) {
	var distanceKm float64
	var durationMin int

	err := c.breaker.Execute(func() error {
		var routeErr error
		distanceKm, durationMin, routeErr = c.route(ctx, from, to)
		return routeErr
	})
	return distanceKm, durationMin, err
}

func (c *OSRMClient) route(ctx context.Context, from, to models.Coords) (float64, int, error) {
	// OSRM takes lng,lat pairs
	u := fmt.Sprintf("%s/route/v1/driving/%f,%f;%f,%f?overview=false",
		c.baseURL, from.Longitude, from.Latitude, to.Longitude, to.Latitude)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, 0, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to query router: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, 0, fmt.Errorf("router returned status %d", resp.StatusCode)
	}

	var body osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, 0, fmt.Errorf("failed to decode route response: %w", err)
	}
	if body.Code != "Ok" || len(body.Routes) == 0 {
		return 0, 0, fmt.Errorf("no route found (code %s)", body.Code)
	}

	distanceKm := body.Routes[0].Distance / 1000
	durationMin := int(math.Round(body.Routes[0].Duration / 60))
	if durationMin < 1 {
		durationMin = 1
	}
	return distanceKm, durationMin, nil
}
