package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adiraj/gocab/internal/pkg/errs"
	"github.com/adiraj/gocab/internal/pkg/models"
)

func setupMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return sqlx.NewDb(mockDB, "sqlmock"), mock
}

func TestCreateRide(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRideRepository(db)

	now := time.Now().UTC()
	ride := &models.Ride{
		RideID:       "ride-1",
		RiderID:      "rider-1",
		Pickup:       "downtown",
		Destination:  "uptown",
		PickupCoords: models.Location{Latitude: -6.2, Longitude: 106.8},
		VehicleClass: models.VehicleCar,
		Fare:         110,
		DistanceKm:   4,
		DurationMin:  12,
		OTP:          "123456",
		Status:       models.RideStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO rides")).
		WithArgs(
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
			sqlmock.AnyArg(), // payment_type
			ride.CreatedAt,
			ride.UpdatedAt,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.CreateRide(context.Background(), ride)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcceptIfPending(t *testing.T) {
	t.Run("pending ride is claimed", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewRideRepository(db)

		mock.ExpectExec(regexp.QuoteMeta("UPDATE rides")).
			WithArgs("driver-1", models.RideStatusAccepted, "ride-1", models.RideStatusPending).
			WillReturnResult(sqlmock.NewResult(0, 1))

		won, err := repo.AcceptIfPending(context.Background(), "ride-1", "driver-1")
		require.NoError(t, err)
		assert.True(t, won)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already-claimed ride affects zero rows", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewRideRepository(db)

		mock.ExpectExec(regexp.QuoteMeta("UPDATE rides")).
			WithArgs("driver-2", models.RideStatusAccepted, "ride-1", models.RideStatusPending).
			WillReturnResult(sqlmock.NewResult(0, 0))

		won, err := repo.AcceptIfPending(context.Background(), "ride-1", "driver-2")
		require.NoError(t, err)
		assert.False(t, won)
	})
}

func TestUpdateStatusIf(t *testing.T) {
	t.Run("guard passes", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewRideRepository(db)

		mock.ExpectExec(regexp.QuoteMeta("UPDATE rides")).
			WithArgs(models.RideStatusOngoing, "ride-1", models.RideStatusAccepted).
			WillReturnResult(sqlmock.NewResult(0, 1))

		ok, err := repo.UpdateStatusIf(context.Background(), "ride-1", models.RideStatusAccepted, models.RideStatusOngoing)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("guard fails", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewRideRepository(db)

		mock.ExpectExec(regexp.QuoteMeta("UPDATE rides")).
			WithArgs(models.RideStatusCancelled, "ride-1", models.RideStatusPending).
			WillReturnResult(sqlmock.NewResult(0, 0))

		ok, err := repo.UpdateStatusIf(context.Background(), "ride-1", models.RideStatusPending, models.RideStatusCancelled)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestGetRideByID(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewRideRepository(db)

		now := time.Now().UTC()
		rows := sqlmock.NewRows([]string{
			"ride_id", "rider_id", "driver_id", "pickup", "destination",
			"pickup_lat", "pickup_lng", "vehicle_class", "fare", "distance_km", "duration_min",
			"otp", "status", "payment_type", "created_at", "updated_at",
		}).AddRow(
			"ride-1", "rider-1", "driver-1", "downtown", "uptown",
			-6.2, 106.8, "car", 110, 4.0, 12,
			"123456", "accepted", nil, now, now,
		)

		mock.ExpectQuery(regexp.QuoteMeta("SELECT")).
			WithArgs("ride-1").
			WillReturnRows(rows)

		ride, err := repo.GetRideByID(context.Background(), "ride-1")
		require.NoError(t, err)
		assert.Equal(t, "driver-1", ride.DriverID)
		assert.Equal(t, models.RideStatusAccepted, ride.Status)
		assert.Empty(t, ride.PaymentType)
	})

	t.Run("not found", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewRideRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta("SELECT")).
			WithArgs("missing").
			WillReturnRows(sqlmock.NewRows([]string{"ride_id"}))

		_, err := repo.GetRideByID(context.Background(), "missing")
		assert.ErrorIs(t, err, errs.ErrRideNotFound)
	})
}
