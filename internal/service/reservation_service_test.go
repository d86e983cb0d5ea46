package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/tutoring_scheduler/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateReservation_ConcurrentExactlyOneWins(t *testing.T) {
	ctx := context.Background()
	svc, store := newReservationServiceForTest(nil)

	const n = 32
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
		other     []error
	)

	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, err := svc.CreateReservation(ctx, reservationRequest(fmt.Sprintf("s-%d", i), "t-1", model.Monday, "09:00"))

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case model.CodeOf(err) == model.CodeConflict:
				conflicts++
			default:
				other = append(other, err)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	assert.Empty(t, other)
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, n-1, conflicts)

	// проигравшие не оставили событий в outbox
	assert.Len(t, store.OutboxEvents(), 1)

	active, err := svc.FindByOwner(ctx, "t-1")
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestCreateReservation_DefaultsAndOutbox(t *testing.T) {
	ctx := context.Background()
	svc, store := newReservationServiceForTest(nil)

	res, err := svc.CreateReservation(ctx, reservationRequest("s-1", "t-1", model.Monday, "09:00"))
	require.NoError(t, err)
	assert.Equal(t, model.ReservationStateActive, res.State)
	assert.Equal(t, model.ModalityVirtual, res.Modality)
	assert.Equal(t, model.DefaultReservationLocation, res.Location)
	assert.Equal(t, testNow, res.CreatedAt)
	assert.Equal(t, testNow, res.UpdatedAt)

	events := store.OutboxEvents()
	require.Len(t, events, 1)
	assert.Equal(t, model.EventReservationCreated, events[0].EventType)

	var payload model.Reservation
	require.NoError(t, events[0].Decode(&payload))
	assert.Equal(t, res.ID, payload.ID)
	assert.Equal(t, "s-1", payload.StudentID)
}

func TestCreateReservation_Validation(t *testing.T) {
	ctx := context.Background()
	svc, store := newReservationServiceForTest(nil)

	_, err := svc.CreateReservation(ctx, model.ReservationRequest{Weekday: model.Monday, StartTime: "09:00"})
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = svc.CreateReservation(ctx, reservationRequest("s-1", "t-1", model.Weekday(6), "09:00"))
	assert.ErrorIs(t, err, model.ErrValidation)

	assert.Empty(t, store.OutboxEvents())
}

func TestCancelReservation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newReservationServiceForTest(nil)

	res, err := svc.CreateReservation(ctx, reservationRequest("s-1", "t-1", model.Monday, "09:00"))
	require.NoError(t, err)

	later := testNow.Add(time.Hour)
	svc.clock = func() time.Time { return later }

	cancelled, err := svc.CancelReservation(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationStateCancelled, cancelled.State)
	assert.Equal(t, later, cancelled.UpdatedAt)
	assert.Equal(t, model.CancelReasonByStudent, cancelled.CancelReason)

	_, err = svc.CancelReservation(ctx, res.ID)
	assert.ErrorIs(t, err, model.ErrInvalidState)

	_, err = svc.CancelReservation(ctx, uuid.New())
	assert.ErrorIs(t, err, model.ErrNotFound)

	// история сохраняется, но в активных не видна
	got, err := svc.GetReservation(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationStateCancelled, got.State)

	active, err := svc.FindByStudent(ctx, "s-1")
	require.NoError(t, err)
	assert.Empty(t, active)

	// слот снова можно занять
	_, err = svc.CreateReservation(ctx, reservationRequest("s-2", "t-1", model.Monday, "09:00"))
	require.NoError(t, err)
}

func TestFindByStudent_InsertionOrder(t *testing.T) {
	ctx := context.Background()
	svc, _ := newReservationServiceForTest(nil)

	starts := []string{"11:00", "09:00", "10:00"}
	for i, start := range starts {
		svc.clock = func() time.Time { return testNow.Add(time.Duration(i) * time.Minute) }
		_, err := svc.CreateReservation(ctx, reservationRequest("s-1", "t-1", model.Monday, start))
		require.NoError(t, err)
	}
	_, err := svc.CreateReservation(ctx, reservationRequest("s-2", "t-1", model.Tuesday, "09:00"))
	require.NoError(t, err)

	list, err := svc.FindByStudent(ctx, "s-1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	for i, start := range starts {
		assert.Equal(t, start, list[i].StartTime)
	}

	_, err = svc.FindByStudent(ctx, "")
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestCancelAllForSlot_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, _ := newReservationServiceForTest(nil)
	key := model.SlotKey{OwnerID: "t-1", Weekday: model.Monday, StartTime: "09:00"}

	n, err := svc.CancelAllForSlot(ctx, key)
	require.NoError(t, err)
	assert.Zero(t, n)

	res, err := svc.CreateReservation(ctx, reservationRequest("s-1", "t-1", model.Monday, "09:00"))
	require.NoError(t, err)

	n, err = svc.CancelAllForSlot(ctx, key)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = svc.CancelAllForSlot(ctx, key)
	require.NoError(t, err)
	assert.Zero(t, n)

	got, err := svc.GetReservation(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CancelReasonSlotWithdrawn, got.CancelReason)

	_, err = svc.CancelAllForSlot(ctx, model.SlotKey{Weekday: model.Monday, StartTime: "09:00"})
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestCancelAllForSlotBefore_KeepsLaterReservations(t *testing.T) {
	ctx := context.Background()
	svc, _ := newReservationServiceForTest(nil)
	key := model.SlotKey{OwnerID: "t-1", Weekday: model.Monday, StartTime: "09:00"}

	svc.clock = func() time.Time { return testNow.Add(time.Minute) }
	res, err := svc.CreateReservation(ctx, reservationRequest("s-1", "t-1", model.Monday, "09:00"))
	require.NoError(t, err)

	n, err := svc.CancelAllForSlotBefore(ctx, key, testNow)
	require.NoError(t, err)
	assert.Zero(t, n)

	got, err := svc.GetReservation(ctx, res.ID)
	require.NoError(t, err)
	assert.True(t, got.IsActive())
}

func TestReservationService_UpdatesCache(t *testing.T) {
	ctx := context.Background()
	cache := newFakeCache()
	svc, _ := newReservationServiceForTest(cache)

	res, err := svc.CreateReservation(ctx, reservationRequest("s-1", "t-1", model.Monday, "09:00"))
	require.NoError(t, err)
	assert.True(t, cache.has(res.Key()))

	_, err = svc.CancelReservation(ctx, res.ID)
	require.NoError(t, err)
	assert.False(t, cache.has(res.Key()))
}
