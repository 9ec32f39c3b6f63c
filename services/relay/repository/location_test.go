package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adiraj/gocab/internal/pkg/database"
	"github.com/adiraj/gocab/internal/pkg/models"
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

func TestSaveAndLastLocation(t *testing.T) {
	redisClient, mr := setupRedis(t)
	repo := NewLocationRepository(redisClient, 10*time.Minute)

	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	err := repo.SaveLocation(context.Background(), "driver-1", models.Location{
		Latitude:  -6.175392,
		Longitude: 106.827153,
		Timestamp: ts,
	})
	require.NoError(t, err)

	loc, err := repo.LastLocation(context.Background(), "driver-1")
	require.NoError(t, err)
	require.NotNil(t, loc)
	assert.InDelta(t, -6.175392, loc.Latitude, 1e-9)
	assert.InDelta(t, 106.827153, loc.Longitude, 1e-9)
	assert.Equal(t, ts, loc.Timestamp)

	// Sliding TTL is refreshed on every save.
	assert.Greater(t, mr.TTL("driver:location:driver-1"), time.Duration(0))
}

func TestLastLocationMissing(t *testing.T) {
	redisClient, _ := setupRedis(t)
	repo := NewLocationRepository(redisClient, 10*time.Minute)

	loc, err := repo.LastLocation(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, loc)
}

func TestLastLocationExpires(t *testing.T) {
	redisClient, mr := setupRedis(t)
	repo := NewLocationRepository(redisClient, time.Minute)

	err := repo.SaveLocation(context.Background(), "driver-1", models.Location{
		Latitude:  1,
		Longitude: 2,
		Timestamp: time.Now(),
	})
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	loc, err := repo.LastLocation(context.Background(), "driver-1")
	require.NoError(t, err)
	assert.Nil(t, loc)
}
