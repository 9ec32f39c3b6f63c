package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/adiraj/gocab/internal/pkg/constants"
	"github.com/adiraj/gocab/internal/pkg/database"
	"github.com/adiraj/gocab/internal/pkg/models"
)

// GeoRepository mirrors driver positions into Redis: a GEO index for
// proximity queries, a set of available driver ids and a per-driver hash
// with the raw last-known coordinates.
type GeoRepository struct {
	redis       *database.RedisClient
	locationTTL time.Duration
}

// NewGeoRepository creates the Redis-backed geo mirror.
func NewGeoRepository(redis *database.RedisClient, locationTTL time.Duration) *GeoRepository {
	if locationTTL <= 0 {
		locationTTL = 30 * time.Minute
	}
	return &GeoRepository{
		redis:       redis,
		locationTTL: locationTTL,
	}
}

// UpsertDriver writes the driver's position to the geo index and refreshes
// its availability membership.
func (r *GeoRepository) UpsertDriver(ctx context.Context, driverID string, lat, lng float64, ts time.Time) error {
	if err := r.redis.GeoAdd(ctx, constants.KeyDriverGeo, lng, lat, driverID); err != nil {
		return fmt.Errorf("failed to add driver to geo index: %w", err)
	}

	if err := r.redis.SAdd(ctx, constants.KeyAvailableDrivers, driverID); err != nil {
		return fmt.Errorf("failed to mark driver available: %w", err)
	}

	key := fmt.Sprintf(constants.KeyDriverLocation, driverID)
	fields := map[string]interface{}{
		constants.FieldLatitude:  strconv.FormatFloat(lat, 'f', -1, 64),
		constants.FieldLongitude: strconv.FormatFloat(lng, 'f', -1, 64),
		constants.FieldTimestamp: strconv.FormatInt(ts.Unix(), 10),
	}
	if err := r.redis.HMSet(ctx, key, fields); err != nil {
		return fmt.Errorf("failed to store driver location: %w", err)
	}
	if err := r.redis.Expire(ctx, key, r.locationTTL); err != nil {
		return fmt.Errorf("failed to set location expiry: %w", err)
	}

	return nil
}

// RemoveDriver drops the driver from the geo index and the available set.
// The location hash is left to expire on its own so a quick reconnect can
// still replay it.
func (r *GeoRepository) RemoveDriver(ctx context.Context, driverID string) error {
	if err := r.redis.ZRem(ctx, constants.KeyDriverGeo, driverID); err != nil {
		return fmt.Errorf("failed to remove driver from geo index: %w", err)
	}
	if err := r.redis.SRem(ctx, constants.KeyAvailableDrivers, driverID); err != nil {
		return fmt.Errorf("failed to remove driver from available set: %w", err)
	}
	return nil
}

// NearbyDrivers queries the geo index for available drivers within radiusKm,
// nearest first.
func (r *GeoRepository) NearbyDrivers(ctx context.Context, lat, lng, radiusKm float64) ([]models.NearbyDriver, error) {
	locations, err := r.redis.GeoRadius(ctx, constants.KeyDriverGeo, lng, lat, radiusKm, "km")
	if err != nil {
		return nil, fmt.Errorf("failed to query nearby drivers: %w", err)
	}

	drivers := make([]models.NearbyDriver, 0, len(locations))
	for _, loc := range locations {
		available, err := r.redis.SIsMember(ctx, constants.KeyAvailableDrivers, loc.Name)
		if err != nil || !available {
			continue
		}
		drivers = append(drivers, models.NearbyDriver{
			DriverID:   loc.Name,
			Latitude:   loc.Latitude,
			Longitude:  loc.Longitude,
			DistanceKm: loc.Dist,
		})
	}
	return drivers, nil
}
