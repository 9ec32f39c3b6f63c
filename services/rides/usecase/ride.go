package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/adiraj/gocab/internal/pkg/constants"
	"github.com/adiraj/gocab/internal/pkg/errs"
	"github.com/adiraj/gocab/internal/pkg/logger"
	"github.com/adiraj/gocab/internal/pkg/models"
	"github.com/adiraj/gocab/internal/utils"
	"github.com/adiraj/gocab/services/dispatch"
	"github.com/adiraj/gocab/services/match"
	"github.com/adiraj/gocab/services/maps"
	"github.com/adiraj/gocab/services/notify"
	"github.com/adiraj/gocab/services/presence"
	"github.com/adiraj/gocab/services/rides"
)

const (
	// fallbackSpeedKmh estimates trip duration when the router is down.
	fallbackSpeedKmh = 30

	defaultHistoryLimit = 5
	otpLength           = 6
)

// RideService implements the ride lifecycle.
type RideService struct {
	repo        rides.RideRepo
	gw          rides.RideGW
	matcher     match.Matcher
	broadcaster dispatch.Broadcaster
	registry    presence.Registry
	geocoder    maps.Geocoder
	router      maps.Router
	notifier    notify.Notifier
}

// NewRideService wires the ride usecase.
func NewRideService(
	repo rides.RideRepo,
	gw rides.RideGW,
	matcher match.Matcher,
	broadcaster dispatch.Broadcaster,
	registry presence.Registry,
	geocoder maps.Geocoder,
	router maps.Router,
	notifier notify.Notifier,
) *RideService {
	return &RideService{
		repo:        repo,
		gw:          gw,
		matcher:     matcher,
		broadcaster: broadcaster,
		registry:    registry,
		geocoder:    geocoder,
		router:      router,
		notifier:    notifier,
	}
}

// CreateRide quotes, persists and dispatches a new ride. The returned ride
// carries the OTP for the requesting rider; every broadcast copy is
// sanitized.
func (s *RideService) CreateRide(ctx context.Context, req rides.CreateRideRequest) (*models.Ride, error) {
	if strings.TrimSpace(req.RiderID) == "" ||
		strings.TrimSpace(req.Pickup) == "" ||
		strings.TrimSpace(req.Destination) == "" {
		return nil, fmt.Errorf("%w: rider_id, pickup and destination are required", errs.ErrInvalidLocation)
	}

	class, ok := models.NormalizeVehicleClass(req.VehicleClass)
	if !ok {
		return nil, fmt.Errorf("%w: %q", errs.ErrInvalidVehicleClass, req.VehicleClass)
	}

	pickupCoords, destCoords, err := s.geocodePair(ctx, req.Pickup, req.Destination)
	if err != nil {
		return nil, err
	}

	distanceKm, durationMin := s.routeOrEstimate(ctx, pickupCoords, destCoords)

	fare, ok := calculateFare(class, distanceKm)
	if !ok {
		return nil, errs.ErrFareUnavailable
	}

	otp, err := utils.GenerateOTP(otpLength)
	if err != nil {
		return nil, fmt.Errorf("failed to create ride: %w", err)
	}

	now := time.Now().UTC()
	ride := &models.Ride{
		RideID:       uuid.New().String(),
		RiderID:      req.RiderID,
		Pickup:       req.Pickup,
		Destination:  req.Destination,
		PickupCoords: pickupCoords.ToLocation(now),
		VehicleClass: class,
		Fare:         fare,
		DistanceKm:   distanceKm,
		DurationMin:  durationMin,
		OTP:          otp,
		Status:       models.RideStatusPending,
		PaymentType:  req.PaymentType,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.CreateRide(ctx, ride); err != nil {
		return nil, fmt.Errorf("failed to persist ride: %w", err)
	}

	logger.Info("Ride created",
		logger.String("ride_id", ride.RideID),
		logger.String("rider_id", ride.RiderID),
		logger.String("vehicle_class", string(class)),
		logger.Int("fare", fare))

	s.notifier.RideOTP(ctx, *ride)
	s.publish(constants.TopicRideCreated, ride.Sanitized())

	targets := s.matcher.DispatchTargets(pickupCoords, class, req.PreferredDriverID)
	s.broadcaster.OfferRide(*ride, targets)

	return ride, nil
}

// AcceptRide atomically assigns the ride to the driver. Exactly one of any
// set of concurrent acceptors wins; the rest get ErrRideAlreadyAccepted.
func (s *RideService) AcceptRide(ctx context.Context, rideID, driverID string) (*models.Ride, error) {
	rec, online := s.registry.Get(driverID)
	if !online || rec.Role != models.RoleDriver || rec.Availability != models.AvailabilityActive {
		return nil, errs.ErrDriverUnavailable
	}

	won, err := s.repo.AcceptIfPending(ctx, rideID, driverID)
	if err != nil {
		return nil, fmt.Errorf("failed to accept ride: %w", err)
	}
	if !won {
		// Zero rows can mean the ride never existed or that someone beat
		// us to it; a re-read tells them apart.
		if _, err := s.repo.GetRideByID(ctx, rideID); err != nil {
			return nil, errs.ErrRideNotFound
		}
		return nil, errs.ErrRideAlreadyAccepted
	}

	ride, err := s.repo.GetRideByID(ctx, rideID)
	if err != nil {
		return nil, fmt.Errorf("failed to load accepted ride: %w", err)
	}

	logger.Info("Ride accepted",
		logger.String("ride_id", rideID),
		logger.String("driver_id", driverID))

	// The OTP stays hidden while the ride is up for grabs; once a driver
	// has committed, both parties get the full ride.
	s.broadcaster.RideEvent(constants.EventRideAccepted, *ride, 0, ride.RiderID, ride.DriverID)
	s.notifier.RideAssigned(ctx, *ride)
	s.publish(constants.TopicRideAccepted, ride.Sanitized())

	return ride, nil
}

// StartRide moves an accepted ride to ongoing once the driver presents the
// rider's OTP.
func (s *RideService) StartRide(ctx context.Context, rideID, driverID, otp string) (*models.Ride, error) {
	ride, err := s.repo.GetRideByID(ctx, rideID)
	if err != nil {
		return nil, errs.ErrRideNotFound
	}

	if ride.Status != models.RideStatusAccepted {
		return nil, errs.ErrWrongState
	}
	if ride.DriverID != driverID {
		return nil, errs.ErrDriverUnavailable
	}
	if ride.OTP == "" || ride.OTP != otp {
		return nil, errs.ErrInvalidOTP
	}

	ok, err := s.repo.UpdateStatusIf(ctx, rideID, models.RideStatusAccepted, models.RideStatusOngoing)
	if err != nil {
		return nil, fmt.Errorf("failed to start ride: %w", err)
	}
	if !ok {
		return nil, errs.ErrWrongState
	}
	ride.Status = models.RideStatusOngoing
	ride.UpdatedAt = time.Now().UTC()

	logger.Info("Ride started", logger.String("ride_id", rideID))

	s.broadcaster.RideEvent(constants.EventRideStarted, ride.Sanitized(), 0, ride.RiderID, ride.DriverID)
	s.publish(constants.TopicRideStarted, ride.Sanitized())

	return ride, nil
}

// CompleteRide moves an ongoing ride to its terminal completed state.
func (s *RideService) CompleteRide(ctx context.Context, rideID string) (*models.Ride, error) {
	ok, err := s.repo.UpdateStatusIf(ctx, rideID, models.RideStatusOngoing, models.RideStatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("failed to complete ride: %w", err)
	}
	if !ok {
		if _, err := s.repo.GetRideByID(ctx, rideID); err != nil {
			return nil, errs.ErrRideNotFound
		}
		return nil, errs.ErrWrongState
	}

	ride, err := s.repo.GetRideByID(ctx, rideID)
	if err != nil {
		return nil, fmt.Errorf("failed to load completed ride: %w", err)
	}

	logger.Info("Ride completed", logger.String("ride_id", rideID))

	s.broadcaster.RideEvent(constants.EventRideCompleted, ride.Sanitized(), 0, ride.RiderID, ride.DriverID)
	s.publish(constants.TopicRideCompleted, ride.Sanitized())

	return ride, nil
}

// SettlePayment records how a completed ride was paid. The amount must
// match the quoted fare exactly.
func (s *RideService) SettlePayment(ctx context.Context, rideID string, amount int, paymentType string) (*models.Ride, error) {
	ride, err := s.repo.GetRideByID(ctx, rideID)
	if err != nil {
		return nil, errs.ErrRideNotFound
	}

	if ride.Status != models.RideStatusCompleted {
		return nil, errs.ErrWrongState
	}
	if amount != ride.Fare {
		return nil, fmt.Errorf("%w: got %d, fare is %d", errs.ErrFareMismatch, amount, ride.Fare)
	}
	if paymentType == "" {
		paymentType = "cash"
	}

	if err := s.repo.SetPaymentType(ctx, rideID, paymentType); err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}
	ride.PaymentType = paymentType

	logger.Info("Payment settled",
		logger.String("ride_id", rideID),
		logger.String("payment_type", paymentType),
		logger.Int("amount", amount))

	s.publish(constants.TopicRidePaid, ride.Sanitized())

	return ride, nil
}

// CancelRide aborts a pending or accepted ride. Cancelling after a driver
// has committed charges a fine of ten percent of the fare.
func (s *RideService) CancelRide(ctx context.Context, rideID, actorID string) (*models.CancelResult, error) {
	ride, err := s.repo.GetRideByID(ctx, rideID)
	if err != nil {
		return nil, errs.ErrRideNotFound
	}

	var fine int
	switch ride.Status {
	case models.RideStatusPending:
		fine = 0
	case models.RideStatusAccepted:
		fine = cancellationFine(ride.Fare)
	default:
		return nil, errs.ErrWrongState
	}

	ok, err := s.repo.UpdateStatusIf(ctx, rideID, ride.Status, models.RideStatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel ride: %w", err)
	}
	if !ok {
		// lost a race against an accept or another transition
		return nil, errs.ErrWrongState
	}
	ride.Status = models.RideStatusCancelled
	ride.UpdatedAt = time.Now().UTC()

	logger.Info("Ride cancelled",
		logger.String("ride_id", rideID),
		logger.String("actor_id", actorID),
		logger.Int("fine", fine))

	s.broadcaster.RideEvent(constants.EventRideCancelled, ride.Sanitized(), fine, ride.RiderID, ride.DriverID)
	if ride.DriverID == "" {
		// No driver was bound yet, so the drivers still weighing the
		// offer are the ones who need to hear it is gone.
		targets := s.matcher.DispatchTargets(ride.PickupCoords.Coords(), ride.VehicleClass, "")
		s.broadcaster.RideEvent(constants.EventRideCancelled, ride.Sanitized(), 0, targets...)
	}
	s.notifier.RideCancelled(ctx, *ride, fine)
	s.publish(constants.TopicRideCancelled, ride.Sanitized())

	return &models.CancelResult{Ride: ride.Sanitized(), Fine: fine}, nil
}

// GetRide loads a single ride.
func (s *RideService) GetRide(ctx context.Context, rideID string) (*models.Ride, error) {
	ride, err := s.repo.GetRideByID(ctx, rideID)
	if err != nil {
		return nil, errs.ErrRideNotFound
	}
	return ride, nil
}

// ListRides returns the actor's recent rides, newest first, optionally
// narrowed to a single status.
func (s *RideService) ListRides(ctx context.Context, actorID string, status models.RideStatus, limit int) ([]models.Ride, error) {
	if limit <= 0 || limit > 50 {
		limit = defaultHistoryLimit
	}
	list, err := s.repo.ListRidesByActor(ctx, actorID, status, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list rides: %w", err)
	}
	for i := range list {
		list[i] = list[i].Sanitized()
	}
	return list, nil
}

// QuoteFare estimates fares for a prospective trip. With a vehicle class it
// returns a single quote, otherwise one per class.
func (s *RideService) QuoteFare(ctx context.Context, pickup, destination, vehicleClass string) ([]rides.FareQuote, error) {
	pickupCoords, destCoords, err := s.geocodePair(ctx, pickup, destination)
	if err != nil {
		return nil, err
	}

	distanceKm, durationMin := s.routeOrEstimate(ctx, pickupCoords, destCoords)

	classes := []models.VehicleClass{models.VehicleCar, models.VehicleAuto, models.VehicleMotorcycle}
	if vehicleClass != "" {
		class, ok := models.NormalizeVehicleClass(vehicleClass)
		if !ok {
			return nil, fmt.Errorf("%w: %q", errs.ErrInvalidVehicleClass, vehicleClass)
		}
		classes = []models.VehicleClass{class}
	}

	quotes := make([]rides.FareQuote, 0, len(classes))
	for _, class := range classes {
		fare, ok := calculateFare(class, distanceKm)
		if !ok {
			return nil, errs.ErrFareUnavailable
		}
		quotes = append(quotes, rides.FareQuote{
			VehicleClass: class,
			Fare:         fare,
			DistanceKm:   distanceKm,
			DurationMin:  durationMin,
		})
	}
	return quotes, nil
}

func (s *RideService) geocodePair(ctx context.Context, pickup, destination string) (models.Coords, models.Coords, error) {
	pickupCoords, err := s.geocoder.Geocode(ctx, pickup)
	if err != nil {
		return models.Coords{}, models.Coords{}, err
	}
	destCoords, err := s.geocoder.Geocode(ctx, destination)
	if err != nil {
		return models.Coords{}, models.Coords{}, err
	}
	return pickupCoords, destCoords, nil
}

// routeOrEstimate asks the router for road distance and falls back to the
// great-circle distance at a fixed speed when routing fails.
func (s *RideService) routeOrEstimate(ctx context.Context, from, to models.Coords) (float64, int) {
	distanceKm, durationMin, err := s.router.Route(ctx, from, to)
	if err == nil {
		return distanceKm, durationMin
	}

	logger.Warn("Router unavailable, falling back to straight-line estimate", logger.Err(err))
	distanceKm = utils.HaversineDistance(from.Latitude, from.Longitude, to.Latitude, to.Longitude)
	return distanceKm, utils.EstimateETA(distanceKm, fallbackSpeedKmh)
}

func (s *RideService) publish(topic string, ride models.Ride) {
	if err := s.gw.PublishRideEvent(topic, ride); err != nil {
		logger.Warn("Failed to publish ride event",
			logger.String("topic", topic),
			logger.String("ride_id", ride.RideID),
			logger.Err(err))
	}
}
