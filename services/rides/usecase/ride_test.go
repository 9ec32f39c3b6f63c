package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adiraj/gocab/internal/pkg/constants"
	"github.com/adiraj/gocab/internal/pkg/errs"
	"github.com/adiraj/gocab/internal/pkg/models"
	"github.com/adiraj/gocab/internal/pkg/websocket"
	"github.com/adiraj/gocab/services/maps"
	"github.com/adiraj/gocab/services/rides"
	"github.com/adiraj/gocab/services/rides/repository"
)

type stubGW struct {
	mu     sync.Mutex
	topics []string
}

func (g *stubGW) PublishRideEvent(topic string, _ models.Ride) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.topics = append(g.topics, topic)
	return nil
}

type stubMatcher struct {
	targets []string
}

func (m *stubMatcher) FindCandidates(models.Coords, models.VehicleClass, float64) []models.CandidateMatch {
	return nil
}

func (m *stubMatcher) DispatchTargets(models.Coords, models.VehicleClass, string) []string {
	return m.targets
}

type offer struct {
	ride    models.Ride
	targets []string
}

type rideEvent struct {
	eventType string
	ride      models.Ride
	fine      int
	actors    []string
}

type stubBroadcaster struct {
	mu     sync.Mutex
	offers []offer
	events []rideEvent
}

func (b *stubBroadcaster) OfferRide(ride models.Ride, targets []string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.offers = append(b.offers, offer{ride: ride.Sanitized(), targets: targets})
	return len(targets)
}

func (b *stubBroadcaster) RideEvent(eventType string, ride models.Ride, fine int, actorIDs ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, rideEvent{eventType: eventType, ride: ride, fine: fine, actors: actorIDs})
}

type stubPresence struct {
	online map[string]bool
}

func (p *stubPresence) Register(string, models.Role, models.VehicleClass, websocket.Conn) (*models.Presence, error) {
	return nil, nil
}

func (p *stubPresence) UpdateLocation(string, float64, float64, time.Time) (*models.Presence, error) {
	return nil, nil
}

func (p *stubPresence) MarkDisconnected(websocket.Conn) (string, bool) { return "", false }

func (p *stubPresence) Get(id string) (*models.Presence, bool) {
	if !p.online[id] {
		return nil, false
	}
	return &models.Presence{
		ActorID:      id,
		Role:         models.RoleDriver,
		Availability: models.AvailabilityActive,
	}, true
}

func (p *stubPresence) Handle(string) (websocket.Conn, bool) { return nil, false }

func (p *stubPresence) AvailableDrivers() []*models.Presence { return nil }

type stubGeocoder struct {
	fail bool
}

func (g *stubGeocoder) Geocode(_ context.Context, address string) (models.Coords, error) {
	if g.fail {
		return models.Coords{}, errs.ErrGeocodeFailed
	}
	if address == "uptown" {
		return models.Coords{Latitude: 12.98, Longitude: 77.60}, nil
	}
	return models.Coords{Latitude: 12.93, Longitude: 77.61}, nil
}

func (g *stubGeocoder) ReverseGeocode(context.Context, models.Coords) (string, error) {
	return "", nil
}

func (g *stubGeocoder) Suggest(context.Context, string, int) ([]maps.AddressSuggestion, error) {
	return nil, nil
}

type stubRouter struct {
	distanceKm  float64
	durationMin int
	fail        bool
}

func (r *stubRouter) Route(context.Context, models.Coords, models.Coords) (float64, int, error) {
	if r.fail {
		return 0, 0, errors.New("router down")
	}
	return r.distanceKm, r.durationMin, nil
}

type stubNotifier struct {
	mu         sync.Mutex
	otpRides   []models.Ride
	assigned   []models.Ride
	cancelled  []models.Ride
	finesGiven []int
}

func (n *stubNotifier) RideOTP(_ context.Context, ride models.Ride) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.otpRides = append(n.otpRides, ride)
}

func (n *stubNotifier) RideAssigned(_ context.Context, ride models.Ride) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.assigned = append(n.assigned, ride)
}

func (n *stubNotifier) RideCancelled(_ context.Context, ride models.Ride, fine int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cancelled = append(n.cancelled, ride)
	n.finesGiven = append(n.finesGiven, fine)
}

type fixture struct {
	svc         *RideService
	repo        *repository.MemoryRideRepo
	gw          *stubGW
	matcher     *stubMatcher
	broadcaster *stubBroadcaster
	presence    *stubPresence
	notifier    *stubNotifier
	router      *stubRouter
	geocoder    *stubGeocoder
}

func newFixture() *fixture {
	f := &fixture{
		repo:        repository.NewMemoryRideRepository(),
		gw:          &stubGW{},
		matcher:     &stubMatcher{targets: []string{"driver-1", "driver-2"}},
		broadcaster: &stubBroadcaster{},
		presence:    &stubPresence{online: map[string]bool{"driver-1": true, "driver-2": true}},
		notifier:    &stubNotifier{},
		router:      &stubRouter{distanceKm: 4, durationMin: 12},
		geocoder:    &stubGeocoder{},
	}
	f.svc = NewRideService(
		f.repo,
		f.gw,
		f.matcher,
		f.broadcaster,
		f.presence,
		f.geocoder,
		f.router,
		f.notifier,
	)
	return f
}

func (f *fixture) createRide(t *testing.T, class string) *models.Ride {
	t.Helper()
	ride, err := f.svc.CreateRide(context.Background(), rides.CreateRideRequest{
		RiderID:      "rider-1",
		Pickup:       "downtown",
		Destination:  "uptown",
		VehicleClass: class,
	})
	require.NoError(t, err)
	return ride
}

func TestCreateRide(t *testing.T) {
	t.Run("quotes the fare from the tariff table", func(t *testing.T) {
		f := newFixture()
		ride := f.createRide(t, "car")

		// base 50 + 15/km over 4km
		assert.Equal(t, 110, ride.Fare)
		assert.Equal(t, models.RideStatusPending, ride.Status)
		assert.Equal(t, 4.0, ride.DistanceKm)
		assert.Equal(t, 12, ride.DurationMin)
		assert.Len(t, ride.OTP, 6)
	})

	t.Run("bike is an alias for motorcycle", func(t *testing.T) {
		f := newFixture()
		ride := f.createRide(t, "bike")

		assert.Equal(t, models.VehicleMotorcycle, ride.VehicleClass)
		assert.Equal(t, 52, ride.Fare) // 20 + 8*4
	})

	t.Run("offers the ride without the otp", func(t *testing.T) {
		f := newFixture()
		ride := f.createRide(t, "car")

		require.Len(t, f.broadcaster.offers, 1)
		assert.Empty(t, f.broadcaster.offers[0].ride.OTP)
		assert.Equal(t, []string{"driver-1", "driver-2"}, f.broadcaster.offers[0].targets)
		assert.NotEmpty(t, ride.OTP)
	})

	t.Run("notifies the rider and publishes the event", func(t *testing.T) {
		f := newFixture()
		f.createRide(t, "auto")

		require.Len(t, f.notifier.otpRides, 1)
		assert.Contains(t, f.gw.topics, constants.TopicRideCreated)
	})

	t.Run("rejects unknown vehicle classes", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.CreateRide(context.Background(), rides.CreateRideRequest{
			RiderID:      "rider-1",
			Pickup:       "downtown",
			Destination:  "uptown",
			VehicleClass: "helicopter",
		})
		assert.ErrorIs(t, err, errs.ErrInvalidVehicleClass)
	})

	t.Run("propagates geocoding failures", func(t *testing.T) {
		f := newFixture()
		f.geocoder.fail = true

		_, err := f.svc.CreateRide(context.Background(), rides.CreateRideRequest{
			RiderID:      "rider-1",
			Pickup:       "nowhere",
			Destination:  "uptown",
			VehicleClass: "car",
		})
		assert.ErrorIs(t, err, errs.ErrGeocodeFailed)
	})

	t.Run("falls back to straight-line distance when routing fails", func(t *testing.T) {
		f := newFixture()
		f.router.fail = true

		ride := f.createRide(t, "car")
		assert.Greater(t, ride.DistanceKm, 0.0)
		assert.GreaterOrEqual(t, ride.DurationMin, 1)
	})
}

func TestAcceptRide(t *testing.T) {
	t.Run("first driver wins", func(t *testing.T) {
		f := newFixture()
		created := f.createRide(t, "car")

		ride, err := f.svc.AcceptRide(context.Background(), created.RideID, "driver-1")
		require.NoError(t, err)
		assert.Equal(t, models.RideStatusAccepted, ride.Status)
		assert.Equal(t, "driver-1", ride.DriverID)
	})

	t.Run("second driver loses", func(t *testing.T) {
		f := newFixture()
		created := f.createRide(t, "car")

		_, err := f.svc.AcceptRide(context.Background(), created.RideID, "driver-1")
		require.NoError(t, err)

		_, err = f.svc.AcceptRide(context.Background(), created.RideID, "driver-2")
		assert.ErrorIs(t, err, errs.ErrRideAlreadyAccepted)
	})

	t.Run("offline driver cannot accept", func(t *testing.T) {
		f := newFixture()
		created := f.createRide(t, "car")

		_, err := f.svc.AcceptRide(context.Background(), created.RideID, "ghost")
		assert.ErrorIs(t, err, errs.ErrDriverUnavailable)
	})

	t.Run("unknown ride", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.AcceptRide(context.Background(), "missing", "driver-1")
		assert.ErrorIs(t, err, errs.ErrRideNotFound)
	})

	t.Run("accepting reveals the otp to the winning driver", func(t *testing.T) {
		f := newFixture()
		created := f.createRide(t, "car")

		// While the ride is up for grabs no offer carries the code.
		for _, off := range f.broadcaster.offers {
			assert.Empty(t, off.ride.OTP)
		}

		accepted, err := f.svc.AcceptRide(context.Background(), created.RideID, "driver-1")
		require.NoError(t, err)
		assert.Equal(t, created.OTP, accepted.OTP)

		var sawDriver bool
		for _, ev := range f.broadcaster.events {
			if ev.eventType != constants.EventRideAccepted {
				continue
			}
			for _, actor := range ev.actors {
				if actor == "driver-1" {
					sawDriver = true
					assert.Equal(t, created.OTP, ev.ride.OTP)
				}
			}
		}
		assert.True(t, sawDriver)

		// The driver also gets the code out of band.
		require.Len(t, f.notifier.assigned, 1)
		assert.Equal(t, created.OTP, f.notifier.assigned[0].OTP)
	})
}

func TestAcceptRideConcurrent(t *testing.T) {
	f := newFixture()
	drivers := make([]string, 20)
	for i := range drivers {
		drivers[i] = "driver-" + string(rune('a'+i))
		f.presence.online[drivers[i]] = true
	}
	created := f.createRide(t, "car")

	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0
	losers := 0

	for _, driverID := range drivers {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := f.svc.AcceptRide(context.Background(), created.RideID, id)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				winners++
			case errors.Is(err, errs.ErrRideAlreadyAccepted):
				losers++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(driverID)
	}
	wg.Wait()

	assert.Equal(t, 1, winners)
	assert.Equal(t, len(drivers)-1, losers)

	ride, err := f.repo.GetRideByID(context.Background(), created.RideID)
	require.NoError(t, err)
	assert.Equal(t, models.RideStatusAccepted, ride.Status)
	assert.NotEmpty(t, ride.DriverID)
}

func TestStartRide(t *testing.T) {
	accepted := func(t *testing.T) (*fixture, *models.Ride) {
		f := newFixture()
		created := f.createRide(t, "car")
		_, err := f.svc.AcceptRide(context.Background(), created.RideID, "driver-1")
		require.NoError(t, err)
		return f, created
	}

	t.Run("correct otp starts the trip", func(t *testing.T) {
		f, created := accepted(t)

		ride, err := f.svc.StartRide(context.Background(), created.RideID, "driver-1", created.OTP)
		require.NoError(t, err)
		assert.Equal(t, models.RideStatusOngoing, ride.Status)
	})

	t.Run("wrong otp is rejected", func(t *testing.T) {
		f, created := accepted(t)

		_, err := f.svc.StartRide(context.Background(), created.RideID, "driver-1", "000000")
		assert.ErrorIs(t, err, errs.ErrInvalidOTP)
	})

	t.Run("only the assigned driver can start", func(t *testing.T) {
		f, created := accepted(t)

		_, err := f.svc.StartRide(context.Background(), created.RideID, "driver-2", created.OTP)
		assert.ErrorIs(t, err, errs.ErrDriverUnavailable)
	})

	t.Run("pending rides cannot start", func(t *testing.T) {
		f := newFixture()
		created := f.createRide(t, "car")

		_, err := f.svc.StartRide(context.Background(), created.RideID, "driver-1", created.OTP)
		assert.ErrorIs(t, err, errs.ErrWrongState)
	})
}

func TestCompleteRide(t *testing.T) {
	t.Run("completes an ongoing ride", func(t *testing.T) {
		f := newFixture()
		created := f.createRide(t, "car")
		_, err := f.svc.AcceptRide(context.Background(), created.RideID, "driver-1")
		require.NoError(t, err)
		_, err = f.svc.StartRide(context.Background(), created.RideID, "driver-1", created.OTP)
		require.NoError(t, err)

		ride, err := f.svc.CompleteRide(context.Background(), created.RideID)
		require.NoError(t, err)
		assert.Equal(t, models.RideStatusCompleted, ride.Status)
		assert.Contains(t, f.gw.topics, constants.TopicRideCompleted)
	})

	t.Run("accepted rides cannot complete directly", func(t *testing.T) {
		f := newFixture()
		created := f.createRide(t, "car")
		_, err := f.svc.AcceptRide(context.Background(), created.RideID, "driver-1")
		require.NoError(t, err)

		_, err = f.svc.CompleteRide(context.Background(), created.RideID)
		assert.ErrorIs(t, err, errs.ErrWrongState)
	})

	t.Run("unknown ride", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.CompleteRide(context.Background(), "missing")
		assert.ErrorIs(t, err, errs.ErrRideNotFound)
	})
}

func TestSettlePayment(t *testing.T) {
	completed := func(t *testing.T) (*fixture, *models.Ride) {
		f := newFixture()
		created := f.createRide(t, "car")
		_, err := f.svc.AcceptRide(context.Background(), created.RideID, "driver-1")
		require.NoError(t, err)
		_, err = f.svc.StartRide(context.Background(), created.RideID, "driver-1", created.OTP)
		require.NoError(t, err)
		_, err = f.svc.CompleteRide(context.Background(), created.RideID)
		require.NoError(t, err)
		return f, created
	}

	t.Run("records the payment type", func(t *testing.T) {
		f, created := completed(t)

		ride, err := f.svc.SettlePayment(context.Background(), created.RideID, created.Fare, "upi")
		require.NoError(t, err)
		assert.Equal(t, "upi", ride.PaymentType)
		assert.Contains(t, f.gw.topics, constants.TopicRidePaid)
	})

	t.Run("rejects an amount that differs from the fare", func(t *testing.T) {
		f, created := completed(t)

		_, err := f.svc.SettlePayment(context.Background(), created.RideID, created.Fare-1, "cash")
		assert.ErrorIs(t, err, errs.ErrFareMismatch)
	})

	t.Run("only completed rides settle", func(t *testing.T) {
		f := newFixture()
		created := f.createRide(t, "car")

		_, err := f.svc.SettlePayment(context.Background(), created.RideID, created.Fare, "cash")
		assert.ErrorIs(t, err, errs.ErrWrongState)
	})
}

func TestCancelRide(t *testing.T) {
	t.Run("pending cancellation is free", func(t *testing.T) {
		f := newFixture()
		created := f.createRide(t, "car")

		result, err := f.svc.CancelRide(context.Background(), created.RideID, "rider-1")
		require.NoError(t, err)
		assert.Equal(t, models.RideStatusCancelled, result.Ride.Status)
		assert.Zero(t, result.Fine)

		// Drivers still holding the offer hear about the cancellation.
		last := f.broadcaster.events[len(f.broadcaster.events)-1]
		assert.Equal(t, constants.EventRideCancelled, last.eventType)
		assert.Equal(t, f.matcher.targets, last.actors)
	})

	t.Run("accepted cancellation charges ten percent", func(t *testing.T) {
		f := newFixture()
		created := f.createRide(t, "car")
		_, err := f.svc.AcceptRide(context.Background(), created.RideID, "driver-1")
		require.NoError(t, err)

		result, err := f.svc.CancelRide(context.Background(), created.RideID, "rider-1")
		require.NoError(t, err)
		assert.Equal(t, 11, result.Fine) // 10% of 110
		require.Len(t, f.notifier.finesGiven, 1)
		assert.Equal(t, 11, f.notifier.finesGiven[0])
	})

	t.Run("ongoing rides cannot be cancelled", func(t *testing.T) {
		f := newFixture()
		created := f.createRide(t, "car")
		_, err := f.svc.AcceptRide(context.Background(), created.RideID, "driver-1")
		require.NoError(t, err)
		_, err = f.svc.StartRide(context.Background(), created.RideID, "driver-1", created.OTP)
		require.NoError(t, err)

		_, err = f.svc.CancelRide(context.Background(), created.RideID, "rider-1")
		assert.ErrorIs(t, err, errs.ErrWrongState)
	})

	t.Run("cancelling twice fails", func(t *testing.T) {
		f := newFixture()
		created := f.createRide(t, "car")

		_, err := f.svc.CancelRide(context.Background(), created.RideID, "rider-1")
		require.NoError(t, err)
		_, err = f.svc.CancelRide(context.Background(), created.RideID, "rider-1")
		assert.ErrorIs(t, err, errs.ErrWrongState)
	})
}

func TestListRides(t *testing.T) {
	t.Run("default limit and sanitized output", func(t *testing.T) {
		f := newFixture()
		for i := 0; i < 7; i++ {
			f.createRide(t, "car")
		}

		list, err := f.svc.ListRides(context.Background(), "rider-1", "", 0)
		require.NoError(t, err)
		assert.Len(t, list, 5) // default history limit

		for _, ride := range list {
			assert.Empty(t, ride.OTP)
		}
	})

	t.Run("status filter", func(t *testing.T) {
		f := newFixture()
		f.createRide(t, "car")
		accepted := f.createRide(t, "car")
		_, err := f.svc.AcceptRide(context.Background(), accepted.RideID, "driver-1")
		require.NoError(t, err)

		list, err := f.svc.ListRides(context.Background(), "rider-1", models.RideStatusAccepted, 0)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, accepted.RideID, list[0].RideID)
	})
}
