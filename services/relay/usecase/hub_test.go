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
)

type fakeConn struct {
	mu      sync.Mutex
	sent    []interface{}
	sendErr error
}

func (f *fakeConn) Send(v interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, v)
	return nil
}

func (f *fakeConn) Close() error { return nil }

func (f *fakeConn) frames() []models.WSDriverLocation {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.WSDriverLocation, 0, len(f.sent))
	for _, v := range f.sent {
		if frame, ok := v.(models.WSDriverLocation); ok {
			out = append(out, frame)
		}
	}
	return out
}

type memoryStore struct {
	mu    sync.Mutex
	fixes map[string]models.Location
	fail  bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{fixes: make(map[string]models.Location)}
}

func (s *memoryStore) SaveLocation(_ context.Context, driverID string, loc models.Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("store down")
	}
	s.fixes[driverID] = loc
	return nil
}

func (s *memoryStore) LastLocation(_ context.Context, driverID string) (*models.Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return nil, errors.New("store down")
	}
	loc, ok := s.fixes[driverID]
	if !ok {
		return nil, nil
	}
	return &loc, nil
}

func TestPublishLocation(t *testing.T) {
	ctx := context.Background()

	t.Run("fans out to subscribers", func(t *testing.T) {
		hub := NewLiveHub(newMemoryStore())
		driver := &fakeConn{}
		rider1 := &fakeConn{}
		rider2 := &fakeConn{}

		hub.Join(driver, "d1", models.RoleDriver)
		hub.Join(rider1, "r1", models.RoleRider)
		hub.Join(rider2, "r2", models.RoleRider)
		require.NoError(t, hub.Subscribe(ctx, rider1, "d1"))
		require.NoError(t, hub.Subscribe(ctx, rider2, "d1"))

		require.NoError(t, hub.PublishLocation(ctx, driver, -6.2, 106.8))

		for _, rider := range []*fakeConn{rider1, rider2} {
			frames := rider.frames()
			require.Len(t, frames, 1)
			assert.Equal(t, constants.MsgDriverLocation, frames[0].Type)
			assert.Equal(t, "d1", frames[0].ID)
			assert.Equal(t, -6.2, frames[0].Coords.Latitude)
		}
	})

	t.Run("rejects publishes before join", func(t *testing.T) {
		hub := NewLiveHub(newMemoryStore())
		err := hub.PublishLocation(ctx, &fakeConn{}, -6.2, 106.8)
		assert.ErrorIs(t, err, errs.ErrNotRegistered)
	})

	t.Run("riders cannot publish", func(t *testing.T) {
		hub := NewLiveHub(newMemoryStore())
		rider := &fakeConn{}
		hub.Join(rider, "r1", models.RoleRider)

		err := hub.PublishLocation(ctx, rider, -6.2, 106.8)
		assert.ErrorIs(t, err, errs.ErrNotRegistered)
	})

	t.Run("rejects out-of-range coordinates", func(t *testing.T) {
		hub := NewLiveHub(newMemoryStore())
		driver := &fakeConn{}
		hub.Join(driver, "d1", models.RoleDriver)

		err := hub.PublishLocation(ctx, driver, 95, 0)
		assert.ErrorIs(t, err, errs.ErrInvalidLocation)
	})

	t.Run("a failing subscriber does not break the others", func(t *testing.T) {
		hub := NewLiveHub(newMemoryStore())
		driver := &fakeConn{}
		broken := &fakeConn{sendErr: errors.New("write timeout")}
		healthy := &fakeConn{}

		hub.Join(driver, "d1", models.RoleDriver)
		hub.Join(broken, "r1", models.RoleRider)
		hub.Join(healthy, "r2", models.RoleRider)
		require.NoError(t, hub.Subscribe(ctx, broken, "d1"))
		require.NoError(t, hub.Subscribe(ctx, healthy, "d1"))

		require.NoError(t, hub.PublishLocation(ctx, driver, -6.2, 106.8))
		assert.Len(t, healthy.frames(), 1)
	})

	t.Run("store failure does not stop the fan-out", func(t *testing.T) {
		store := newMemoryStore()
		store.fail = true
		hub := NewLiveHub(store)
		driver := &fakeConn{}
		rider := &fakeConn{}

		hub.Join(driver, "d1", models.RoleDriver)
		hub.Join(rider, "r1", models.RoleRider)
		require.NoError(t, hub.Subscribe(ctx, rider, "d1"))

		require.NoError(t, hub.PublishLocation(ctx, driver, -6.2, 106.8))
		assert.Len(t, rider.frames(), 1)
	})
}

func TestSubscribe(t *testing.T) {
	ctx := context.Background()

	t.Run("replays the last known fix on subscribe", func(t *testing.T) {
		store := newMemoryStore()
		store.fixes["d1"] = models.Location{Latitude: -6.25, Longitude: 106.85, Timestamp: time.Now()}
		hub := NewLiveHub(store)
		rider := &fakeConn{}
		hub.Join(rider, "r1", models.RoleRider)

		require.NoError(t, hub.Subscribe(ctx, rider, "d1"))

		frames := rider.frames()
		require.Len(t, frames, 1)
		assert.Equal(t, -6.25, frames[0].Coords.Latitude)
	})

	t.Run("no replay when nothing is stored", func(t *testing.T) {
		hub := NewLiveHub(newMemoryStore())
		rider := &fakeConn{}
		hub.Join(rider, "r1", models.RoleRider)

		require.NoError(t, hub.Subscribe(ctx, rider, "ghost"))
		assert.Empty(t, rider.frames())
	})

	t.Run("no join is needed to watch", func(t *testing.T) {
		hub := NewLiveHub(newMemoryStore())
		driver := &fakeConn{}
		watcher := &fakeConn{}
		hub.Join(driver, "d1", models.RoleDriver)

		require.NoError(t, hub.Subscribe(ctx, watcher, "d1"))
		require.NoError(t, hub.PublishLocation(ctx, driver, -6.2, 106.8))
		assert.Len(t, watcher.frames(), 1)

		// Disconnect still scrubs the bare session.
		hub.Disconnect(watcher)
		require.NoError(t, hub.PublishLocation(ctx, driver, -6.2, 106.8))
		assert.Len(t, watcher.frames(), 1)
	})
}

func TestJoin(t *testing.T) {
	ctx := context.Background()

	t.Run("a second join replaces the identity", func(t *testing.T) {
		hub := NewLiveHub(newMemoryStore())
		conn := &fakeConn{}
		rider := &fakeConn{}
		hub.Join(conn, "d1", models.RoleDriver)
		hub.Join(conn, "d2", models.RoleDriver)
		hub.Join(rider, "r1", models.RoleRider)
		require.NoError(t, hub.Subscribe(ctx, rider, "d2"))

		require.NoError(t, hub.PublishLocation(ctx, conn, -6.2, 106.8))

		frames := rider.frames()
		require.Len(t, frames, 1)
		assert.Equal(t, "d2", frames[0].ID)
	})

	t.Run("joining as a rider drops the driver binding", func(t *testing.T) {
		hub := NewLiveHub(newMemoryStore())
		conn := &fakeConn{}
		hub.Join(conn, "d1", models.RoleDriver)
		hub.Join(conn, "r1", models.RoleRider)

		err := hub.PublishLocation(ctx, conn, -6.2, 106.8)
		assert.ErrorIs(t, err, errs.ErrNotRegistered)
	})

	t.Run("re-join keeps existing subscriptions", func(t *testing.T) {
		hub := NewLiveHub(newMemoryStore())
		driver := &fakeConn{}
		watcher := &fakeConn{}
		hub.Join(driver, "d1", models.RoleDriver)
		hub.Join(watcher, "r1", models.RoleRider)
		require.NoError(t, hub.Subscribe(ctx, watcher, "d1"))

		hub.Join(watcher, "r2", models.RoleRider)

		require.NoError(t, hub.PublishLocation(ctx, driver, -6.2, 106.8))
		assert.Len(t, watcher.frames(), 1)
	})
}

func TestUnsubscribe(t *testing.T) {
	ctx := context.Background()

	t.Run("stops the stream", func(t *testing.T) {
		hub := NewLiveHub(newMemoryStore())
		driver := &fakeConn{}
		rider := &fakeConn{}
		hub.Join(driver, "d1", models.RoleDriver)
		hub.Join(rider, "r1", models.RoleRider)
		require.NoError(t, hub.Subscribe(ctx, rider, "d1"))

		hub.Unsubscribe(rider, "d1")
		require.NoError(t, hub.PublishLocation(ctx, driver, -6.2, 106.8))
		assert.Empty(t, rider.frames())
	})

	t.Run("unknown subscription is a no-op", func(t *testing.T) {
		hub := NewLiveHub(newMemoryStore())
		hub.Unsubscribe(&fakeConn{}, "d1")
	})
}

func TestDisconnect(t *testing.T) {
	ctx := context.Background()

	t.Run("removes the connection from every subscription", func(t *testing.T) {
		hub := NewLiveHub(newMemoryStore())
		d1 := &fakeConn{}
		d2 := &fakeConn{}
		rider := &fakeConn{}
		hub.Join(d1, "d1", models.RoleDriver)
		hub.Join(d2, "d2", models.RoleDriver)
		hub.Join(rider, "r1", models.RoleRider)
		require.NoError(t, hub.Subscribe(ctx, rider, "d1"))
		require.NoError(t, hub.Subscribe(ctx, rider, "d2"))

		hub.Disconnect(rider)

		require.NoError(t, hub.PublishLocation(ctx, d1, -6.2, 106.8))
		require.NoError(t, hub.PublishLocation(ctx, d2, -6.3, 106.9))
		assert.Empty(t, rider.frames())
	})

	t.Run("a disconnected driver can no longer publish", func(t *testing.T) {
		hub := NewLiveHub(newMemoryStore())
		driver := &fakeConn{}
		hub.Join(driver, "d1", models.RoleDriver)

		hub.Disconnect(driver)

		err := hub.PublishLocation(ctx, driver, -6.2, 106.8)
		assert.ErrorIs(t, err, errs.ErrNotRegistered)
	})

	t.Run("disconnecting an unknown connection is a no-op", func(t *testing.T) {
		hub := NewLiveHub(newMemoryStore())
		hub.Disconnect(&fakeConn{})
	})
}
