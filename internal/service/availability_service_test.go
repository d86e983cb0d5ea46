package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Freeeeeet/tutoring_scheduler/internal/model"
	"github.com/Freeeeeet/tutoring_scheduler/internal/repository"
	"github.com/Freeeeeet/tutoring_scheduler/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeCache struct {
	mu    sync.Mutex
	taken map[model.SlotKey]bool
	err   error
}

func newFakeCache() *fakeCache {
	return &fakeCache{taken: make(map[model.SlotKey]bool)}
}

func (c *fakeCache) IsTaken(_ context.Context, key model.SlotKey) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return false, c.err
	}
	return c.taken[key], nil
}

func (c *fakeCache) MarkTaken(_ context.Context, key model.SlotKey) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.taken[key] = true
	return nil
}

func (c *fakeCache) Clear(_ context.Context, key model.SlotKey) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	delete(c.taken, key)
	return nil
}

func (c *fakeCache) has(key model.SlotKey) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.taken[key]
}

func TestIsAvailable(t *testing.T) {
	ctx := context.Background()
	store := memory.NewReservationStore()
	reservations := NewReservationService(store, nil, OutboxPolicy{}, zap.NewNop())
	oracle := NewAvailabilityService(store.Reservations(), nil, zap.NewNop())
	key := model.SlotKey{OwnerID: "t-1", Weekday: model.Monday, StartTime: "09:00"}

	free, err := oracle.IsAvailable(ctx, key)
	require.NoError(t, err)
	assert.True(t, free)

	res, err := reservations.CreateReservation(ctx, reservationRequest("s-1", "t-1", model.Monday, "09:00"))
	require.NoError(t, err)

	free, err = oracle.IsAvailable(ctx, key)
	require.NoError(t, err)
	assert.False(t, free)

	_, err = reservations.CancelReservation(ctx, res.ID)
	require.NoError(t, err)

	free, err = oracle.IsAvailable(ctx, key)
	require.NoError(t, err)
	assert.True(t, free)

	_, err = oracle.IsAvailable(ctx, model.SlotKey{OwnerID: "t-1", Weekday: model.Monday, StartTime: "9am"})
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestIsAvailable_Cache(t *testing.T) {
	ctx := context.Background()
	store := memory.NewReservationStore()
	cache := newFakeCache()
	oracle := NewAvailabilityService(store.Reservations(), cache, zap.NewNop())
	key := model.SlotKey{OwnerID: "t-1", Weekday: model.Monday, StartTime: "09:00"}

	t.Run("marker answers without the store", func(t *testing.T) {
		require.NoError(t, cache.MarkTaken(ctx, key))
		free, err := oracle.IsAvailable(ctx, key)
		require.NoError(t, err)
		assert.False(t, free)
		require.NoError(t, cache.Clear(ctx, key))
	})

	t.Run("store hit warms the cache", func(t *testing.T) {
		reservations := NewReservationService(store, nil, OutboxPolicy{}, zap.NewNop())
		_, err := reservations.CreateReservation(ctx, reservationRequest("s-1", "t-1", model.Monday, "09:00"))
		require.NoError(t, err)

		free, err := oracle.IsAvailable(ctx, key)
		require.NoError(t, err)
		assert.False(t, free)
		assert.True(t, cache.has(key))
	})

	t.Run("cache failure falls through to the store", func(t *testing.T) {
		cache.err = errors.New("redis down")
		free, err := oracle.IsAvailable(ctx, key)
		require.NoError(t, err)
		assert.False(t, free)

		other := model.SlotKey{OwnerID: "t-1", Weekday: model.Monday, StartTime: "10:00"}
		free, err = oracle.IsAvailable(ctx, other)
		require.NoError(t, err)
		assert.True(t, free)
	})
}

// racingReservations выполняет hook после первого чтения ExistsActive,
// но до возврата результата
type racingReservations struct {
	repository.ReservationRepository
	once sync.Once
	hook func()
}

func (r *racingReservations) ExistsActive(ctx context.Context, key model.SlotKey) (bool, error) {
	exists, err := r.ReservationRepository.ExistsActive(ctx, key)
	r.once.Do(r.hook)
	return exists, err
}

func TestIsAvailable_CancelBetweenReadAndMarker(t *testing.T) {
	ctx := context.Background()
	cache := newFakeCache()
	reservations, store := newReservationServiceForTest(cache)
	key := model.SlotKey{OwnerID: "t-1", Weekday: model.Monday, StartTime: "09:00"}

	res, err := reservations.CreateReservation(ctx, reservationRequest("s-1", "t-1", model.Monday, "09:00"))
	require.NoError(t, err)
	require.NoError(t, cache.Clear(ctx, key))

	repo := &racingReservations{
		ReservationRepository: store.Reservations(),
		hook: func() {
			_, err := reservations.CancelReservation(ctx, res.ID)
			require.NoError(t, err)
		},
	}
	oracle := NewAvailabilityService(repo, cache, zap.NewNop())

	free, err := oracle.IsAvailable(ctx, key)
	require.NoError(t, err)
	assert.False(t, free, "answer reflects the read made before the cancel")
	assert.False(t, cache.has(key))

	free, err = oracle.IsAvailable(ctx, key)
	require.NoError(t, err)
	assert.True(t, free)
}

func TestReservationMarker_CancelBeforeMarkerWrite(t *testing.T) {
	ctx := context.Background()
	cache := newFakeCache()
	reservations, store := newReservationServiceForTest(cache)
	oracle := NewAvailabilityService(store.Reservations(), cache, zap.NewNop())
	key := model.SlotKey{OwnerID: "t-1", Weekday: model.Monday, StartTime: "09:00"}

	res, err := reservations.CreateReservation(ctx, reservationRequest("s-1", "t-1", model.Monday, "09:00"))
	require.NoError(t, err)
	_, err = reservations.CancelReservation(ctx, res.ID)
	require.NoError(t, err)

	// запоздалая отметка от CreateReservation после уже выполненной отмены
	reservations.markTaken(ctx, key)

	assert.False(t, cache.has(key))
	free, err := oracle.IsAvailable(ctx, key)
	require.NoError(t, err)
	assert.True(t, free)
}
