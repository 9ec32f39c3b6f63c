package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/adiraj/gocab/internal/pkg/errs"
	"github.com/adiraj/gocab/internal/pkg/models"
)

// MemoryRideRepo is an in-process ride store with the same transition
// guarantees as the Postgres repository. It backs tests and single-node
// deployments that run without a database.
type MemoryRideRepo struct {
	mu    sync.Mutex
	rides map[string]*models.Ride
}

// NewMemoryRideRepository creates an empty in-memory ride store.
func NewMemoryRideRepository() *MemoryRideRepo {
	return &MemoryRideRepo{rides: make(map[string]*models.Ride)}
}

// CreateRide stores a copy of the ride.
func (r *MemoryRideRepo) CreateRide(_ context.Context, ride *models.Ride) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	clone := *ride
	r.rides[ride.RideID] = &clone
	return nil
}

// GetRideByID returns a copy of the stored ride.
func (r *MemoryRideRepo) GetRideByID(_ context.Context, rideID string) (*models.Ride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ride, ok := r.rides[rideID]
	if !ok {
		return nil, errs.ErrRideNotFound
	}
	clone := *ride
	return &clone, nil
}

// AcceptIfPending performs the compare-and-set under the store lock, so
// exactly one concurrent acceptor can win.
func (r *MemoryRideRepo) AcceptIfPending(_ context.Context, rideID, driverID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ride, ok := r.rides[rideID]
	if !ok || ride.Status != models.RideStatusPending {
		return false, nil
	}

	ride.DriverID = driverID
	ride.Status = models.RideStatusAccepted
	ride.UpdatedAt = time.Now().UTC()
	return true, nil
}

// UpdateStatusIf transitions the ride only from the expected status.
func (r *MemoryRideRepo) UpdateStatusIf(_ context.Context, rideID string, from, to models.RideStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ride, ok := r.rides[rideID]
	if !ok || ride.Status != from {
		return false, nil
	}

	ride.Status = to
	ride.UpdatedAt = time.Now().UTC()
	return true, nil
}

// SetPaymentType records the settlement method.
func (r *MemoryRideRepo) SetPaymentType(_ context.Context, rideID, paymentType string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ride, ok := r.rides[rideID]
	if !ok {
		return errs.ErrRideNotFound
	}
	ride.PaymentType = paymentType
	ride.UpdatedAt = time.Now().UTC()
	return nil
}

// ListRidesByActor returns the actor's rides, newest first. An empty
// status matches all statuses.
func (r *MemoryRideRepo) ListRidesByActor(_ context.Context, actorID string, status models.RideStatus, limit int) ([]models.Ride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]models.Ride, 0)
	for _, ride := range r.rides {
		if ride.RiderID != actorID && ride.DriverID != actorID {
			continue
		}
		if status != "" && ride.Status != status {
			continue
		}
		result = append(result, *ride)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}
