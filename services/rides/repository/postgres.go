package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/adiraj/gocab/internal/pkg/errs"
	"github.com/adiraj/gocab/internal/pkg/models"
)

// RideRepo is the Postgres ride store.
type RideRepo struct {
	db *sqlx.DB
}

// NewRideRepository creates the Postgres-backed ride repository.
func NewRideRepository(db *sqlx.DB) *RideRepo {
	return &RideRepo{db: db}
}

// rideRow flattens the ride for scanning; nullable columns use sql types.
type rideRow struct {
	RideID       string          `db:"ride_id"`
	RiderID      string          `db:"rider_id"`
	DriverID     sql.NullString  `db:"driver_id"`
	Pickup       string          `db:"pickup"`
	Destination  string          `db:"destination"`
	PickupLat    float64         `db:"pickup_lat"`
	PickupLng    float64         `db:"pickup_lng"`
	VehicleClass string          `db:"vehicle_class"`
	Fare         int             `db:"fare"`
	DistanceKm   float64         `db:"distance_km"`
	DurationMin  int             `db:"duration_min"`
	OTP          string          `db:"otp"`
	Status       string          `db:"status"`
	PaymentType  sql.NullString  `db:"payment_type"`
	CreatedAt    sql.NullTime    `db:"created_at"`
	UpdatedAt    sql.NullTime    `db:"updated_at"`
}

func (r rideRow) toModel() models.Ride {
	ride := models.Ride{
		RideID:       r.RideID,
		RiderID:      r.RiderID,
		Pickup:       r.Pickup,
		Destination:  r.Destination,
		PickupCoords: models.Location{Latitude: r.PickupLat, Longitude: r.PickupLng},
		VehicleClass: models.VehicleClass(r.VehicleClass),
		Fare:         r.Fare,
		DistanceKm:   r.DistanceKm,
		DurationMin:  r.DurationMin,
		OTP:          r.OTP,
		Status:       models.RideStatus(r.Status),
	}
	if r.DriverID.Valid {
		ride.DriverID = r.DriverID.String
	}
	if r.PaymentType.Valid {
		ride.PaymentType = r.PaymentType.String
	}
	if r.CreatedAt.Valid {
		ride.CreatedAt = r.CreatedAt.Time
	}
	if r.UpdatedAt.Valid {
		ride.UpdatedAt = r.UpdatedAt.Time
	}
	return ride
}

const rideColumns = `
	ride_id, rider_id, driver_id, pickup, destination,
	pickup_lat, pickup_lng, vehicle_class, fare, distance_km, duration_min,
	otp, status, payment_type, created_at, updated_at`

// CreateRide inserts a new ride record.
func (r *RideRepo) CreateRide(ctx context.Context, ride *models.Ride) error {
	query := `
		INSERT INTO rides (
			ride_id, rider_id, pickup, destination,
			pickup_lat, pickup_lng, vehicle_class, fare, distance_km, duration_min,
			otp, status, payment_type, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		ride.RideID,
		ride.RiderID,
		ride.Pickup,
		ride.Destination,
		ride.PickupCoords.Latitude,
		ride.PickupCoords.Longitude,
		ride.VehicleClass,
		ride.Fare,
		ride.DistanceKm,
		ride.DurationMin,
		ride.OTP,
		ride.Status,
		nullString(ride.PaymentType),
		ride.CreatedAt,
		ride.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert ride: %w", err)
	}
	return nil
}

// GetRideByID retrieves a ride by its id.
func (r *RideRepo) GetRideByID(ctx context.Context, rideID string) (*models.Ride, error) {
	query := `SELECT` + rideColumns + ` FROM rides WHERE ride_id = $1`

	var row rideRow
	if err := r.db.GetContext(ctx, &row, query, rideID); err != nil {
		if err == sql.ErrNoRows {
			return nil, errs.ErrRideNotFound
		}
		return nil, fmt.Errorf("failed to get ride: %w", err)
	}

	ride := row.toModel()
	return &ride, nil
}

// AcceptIfPending atomically assigns the driver while the ride is still
// pending. The status guard in the WHERE clause is what makes concurrent
// accepts safe: the row is only updated once.
func (r *RideRepo) AcceptIfPending(ctx context.Context, rideID, driverID string) (bool, error) {
	query := `
		UPDATE rides
		SET driver_id = $1, status = $2, updated_at = NOW()
		WHERE ride_id = $3 AND status = $4
	`

	result, err := r.db.ExecContext(ctx, query, driverID, models.RideStatusAccepted, rideID, models.RideStatusPending)
	if err != nil {
		return false, fmt.Errorf("failed to accept ride: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return rowsAffected == 1, nil
}

// UpdateStatusIf transitions the ride only when it is in the expected
// status.
func (r *RideRepo) UpdateStatusIf(ctx context.Context, rideID string, from, to models.RideStatus) (bool, error) {
	query := `
		UPDATE rides
		SET status = $1, updated_at = NOW()
		WHERE ride_id = $2 AND status = $3
	`

	result, err := r.db.ExecContext(ctx, query, to, rideID, from)
	if err != nil {
		return false, fmt.Errorf("failed to update ride status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return rowsAffected == 1, nil
}

// SetPaymentType records the settlement method.
func (r *RideRepo) SetPaymentType(ctx context.Context, rideID, paymentType string) error {
	query := `UPDATE rides SET payment_type = $1, updated_at = NOW() WHERE ride_id = $2`

	result, err := r.db.ExecContext(ctx, query, paymentType, rideID)
	if err != nil {
		return fmt.Errorf("failed to set payment type: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return errs.ErrRideNotFound
	}
	return nil
}

// ListRidesByActor returns recent rides where the actor was rider or
// driver, newest first. An empty status matches all statuses.
func (r *RideRepo) ListRidesByActor(ctx context.Context, actorID string, status models.RideStatus, limit int) ([]models.Ride, error) {
	query := `
		SELECT` + rideColumns + `
		FROM rides
		WHERE (rider_id = $1 OR driver_id = $1)
		AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3
	`

	var ridesRows []rideRow
	if err := r.db.SelectContext(ctx, &ridesRows, query, actorID, status, limit); err != nil {
		return nil, fmt.Errorf("failed to list rides: %w", err)
	}

	result := make([]models.Ride, 0, len(ridesRows))
	for _, row := range ridesRows {
		result = append(result, row.toModel())
	}
	return result, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
