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

// LocationRepo stores last-known driver fixes in per-driver Redis hashes
// with a sliding TTL, so stale drivers age out on their own.
type LocationRepo struct {
	redis *database.RedisClient
	ttl   time.Duration
}

// NewLocationRepository creates the Redis-backed fix store.
func NewLocationRepository(redis *database.RedisClient, ttl time.Duration) *LocationRepo {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &LocationRepo{redis: redis, ttl: ttl}
}

// SaveLocation overwrites the driver's last known fix.
func (r *LocationRepo) SaveLocation(ctx context.Context, driverID string, loc models.Location) error {
	key := fmt.Sprintf(constants.KeyDriverLocation, driverID)
	fields := map[string]interface{}{
		constants.FieldLatitude:  strconv.FormatFloat(loc.Latitude, 'f', -1, 64),
		constants.FieldLongitude: strconv.FormatFloat(loc.Longitude, 'f', -1, 64),
		constants.FieldTimestamp: strconv.FormatInt(loc.Timestamp.Unix(), 10),
	}

	if err := r.redis.HMSet(ctx, key, fields); err != nil {
		return fmt.Errorf("failed to store driver fix: %w", err)
	}
	if err := r.redis.Expire(ctx, key, r.ttl); err != nil {
		return fmt.Errorf("failed to refresh fix expiry: %w", err)
	}
	return nil
}

// LastLocation returns the stored fix, or nil when none exists.
func (r *LocationRepo) LastLocation(ctx context.Context, driverID string) (*models.Location, error) {
	key := fmt.Sprintf(constants.KeyDriverLocation, driverID)

	fields, err := r.redis.HGetAll(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to load driver fix: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	lat, err := strconv.ParseFloat(fields[constants.FieldLatitude], 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt latitude for driver %s: %w", driverID, err)
	}
	lng, err := strconv.ParseFloat(fields[constants.FieldLongitude], 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt longitude for driver %s: %w", driverID, err)
	}

	loc := &models.Location{Latitude: lat, Longitude: lng}
	if raw, ok := fields[constants.FieldTimestamp]; ok {
		if unix, err := strconv.ParseInt(raw, 10, 64); err == nil {
			loc.Timestamp = time.Unix(unix, 0).UTC()
		}
	}
	return loc, nil
}
