package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adiraj/gocab/internal/pkg/constants"
	"github.com/adiraj/gocab/internal/pkg/database"
)

func setupRedis(t *testing.T) (*database.RedisClient, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return &database.RedisClient{Client: client}, mr
}

func TestUpsertAndNearbyDrivers(t *testing.T) {
	redisClient, _ := setupRedis(t)
	repo := NewGeoRepository(redisClient, 10*time.Minute)
	ctx := context.Background()

	// Two drivers near Monas, one far away in Bandung.
	require.NoError(t, repo.UpsertDriver(ctx, "near-1", -6.1754, 106.8272, time.Now()))
	require.NoError(t, repo.UpsertDriver(ctx, "near-2", -6.1790, 106.8300, time.Now()))
	require.NoError(t, repo.UpsertDriver(ctx, "far-1", -6.9175, 107.6191, time.Now()))

	drivers, err := repo.NearbyDrivers(ctx, -6.1754, 106.8272, 5)
	require.NoError(t, err)

	ids := make([]string, 0, len(drivers))
	for _, d := range drivers {
		ids = append(ids, d.DriverID)
	}
	assert.ElementsMatch(t, []string{"near-1", "near-2"}, ids)

	// Nearest first.
	require.Len(t, drivers, 2)
	assert.Equal(t, "near-1", drivers[0].DriverID)
	assert.LessOrEqual(t, drivers[0].DistanceKm, drivers[1].DistanceKm)
}

func TestNearbyDriversSkipsUnavailable(t *testing.T) {
	redisClient, _ := setupRedis(t)
	repo := NewGeoRepository(redisClient, 10*time.Minute)
	ctx := context.Background()

	require.NoError(t, repo.UpsertDriver(ctx, "driver-1", -6.1754, 106.8272, time.Now()))
	require.NoError(t, repo.UpsertDriver(ctx, "driver-2", -6.1760, 106.8280, time.Now()))
	require.NoError(t, repo.RemoveDriver(ctx, "driver-2"))

	drivers, err := repo.NearbyDrivers(ctx, -6.1754, 106.8272, 5)
	require.NoError(t, err)
	require.Len(t, drivers, 1)
	assert.Equal(t, "driver-1", drivers[0].DriverID)
}

func TestRemoveDriverKeepsLocationHash(t *testing.T) {
	redisClient, mr := setupRedis(t)
	repo := NewGeoRepository(redisClient, 10*time.Minute)
	ctx := context.Background()

	require.NoError(t, repo.UpsertDriver(ctx, "driver-1", -6.1754, 106.8272, time.Now()))
	require.NoError(t, repo.RemoveDriver(ctx, "driver-1"))

	available, err := redisClient.SIsMember(ctx, constants.KeyAvailableDrivers, "driver-1")
	require.NoError(t, err)
	assert.False(t, available)

	// The hash survives removal and ages out via its TTL instead.
	assert.True(t, mr.Exists("driver:location:driver-1"))
}
