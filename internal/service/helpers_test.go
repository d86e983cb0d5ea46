package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Freeeeeet/tutoring_scheduler/internal/model"
	"github.com/Freeeeeet/tutoring_scheduler/internal/repository/memory"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var testNow = time.Date(2026, 9, 7, 9, 0, 0, 0, time.UTC)

type countingKicker struct {
	n atomic.Int32
}

func (k *countingKicker) Kick() { k.n.Add(1) }

func newSlotServiceForTest() (*SlotService, *memory.SlotStore, *countingKicker) {
	store := memory.NewSlotStore()
	kicker := &countingKicker{}
	svc := NewSlotService(store, OutboxPolicy{MaxAttempts: 3, Kicker: kicker}, zap.NewNop())
	svc.clock = func() time.Time { return testNow }
	return svc, store, kicker
}

func newReservationServiceForTest(cache AvailabilityCache) (*ReservationService, *memory.ReservationStore) {
	store := memory.NewReservationStore()
	svc := NewReservationService(store, cache, OutboxPolicy{MaxAttempts: 3}, zap.NewNop())
	svc.clock = func() time.Time { return testNow }
	return svc, store
}

func slotFields(day model.Weekday, start, end string) model.SlotFields {
	return model.SlotFields{
		OwnerName: "Dr. Rivera",
		Semester:  "2026-fall",
		Subject:   "MATH101",
		Section:   "A",
		Weekday:   day,
		StartTime: start,
		EndTime:   end,
		Modality:  model.ModalityInPerson,
		Location:  "Room 204",
		Capacity:  1,
	}
}

func reservationRequest(student, owner string, day model.Weekday, start string) model.ReservationRequest {
	return model.ReservationRequest{
		StudentID: student,
		OwnerID:   owner,
		Subject:   "MATH101",
		Section:   "A",
		Weekday:   day,
		StartTime: start,
		EndTime:   "09:30",
	}
}

// recordingNotifier запоминает вызовы и может возвращать ошибку
type recordingNotifier struct {
	mu         sync.Mutex
	created    []uuid.UUID
	withdrawn  []model.SlotWithdrawn
	cancelled  []int64
	createdErr error
	slotErr    error
}

func (n *recordingNotifier) NotifyReservationCreated(_ context.Context, _ uuid.UUID, res *model.Reservation) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.createdErr != nil {
		return n.createdErr
	}
	n.created = append(n.created, res.ID)
	return nil
}

func (n *recordingNotifier) NotifySlotCancelledReservations(_ context.Context, _ uuid.UUID, slot model.SlotWithdrawn, cancelled int64) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.withdrawn = append(n.withdrawn, slot)
	n.cancelled = append(n.cancelled, cancelled)
	return n.slotErr
}
