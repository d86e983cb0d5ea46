package dispatch

import (
	"context"

	"github.com/Freeeeeet/tutoring_scheduler/internal/model"
	"github.com/Freeeeeet/tutoring_scheduler/internal/service"
)

// Services зависимости обработчиков
type Services struct {
	Slots        *service.SlotService
	Reservations *service.ReservationService
	Availability *service.AvailabilityService
}

// RegisterHandlers заполняет таблицу всеми видами запросов
func RegisterHandlers(bus *Bus, svc Services) {
	bus.Register(KindCreateSlot, Handle(func(ctx context.Context, req CreateSlot) (*model.Slot, error) {
		return svc.Slots.CreateSlot(ctx, req.OwnerID, req.Fields())
	}))
	bus.Register(KindUpdateSlot, Handle(func(ctx context.Context, req UpdateSlot) (*model.Slot, error) {
		return svc.Slots.UpdateSlot(ctx, req.ID, req.Fields())
	}))
	bus.Register(KindDeleteSlot, Handle(func(ctx context.Context, req DeleteSlot) (struct{}, error) {
		return struct{}{}, svc.Slots.DeleteSlot(ctx, req.ID)
	}))
	bus.Register(KindSetSlotStatus, Handle(func(ctx context.Context, req SetSlotStatus) (*model.Slot, error) {
		return svc.Slots.SetStatus(ctx, req.ID, req.Status)
	}))
	bus.Register(KindGetSlot, Handle(func(ctx context.Context, req GetSlot) (*model.Slot, error) {
		return svc.Slots.GetSlot(ctx, req.ID)
	}))
	bus.Register(KindListSlotsByOwner, Handle(func(ctx context.Context, req ListSlotsByOwner) ([]*model.Slot, error) {
		return svc.Slots.ListByOwner(ctx, req.OwnerID)
	}))
	bus.Register(KindListActiveSlots, Handle(func(ctx context.Context, req ListActiveSlots) ([]*model.Slot, error) {
		return svc.Slots.ListActiveSlots(ctx, model.SlotFilter{
			Subject:  req.Subject,
			Section:  req.Section,
			Semester: req.Semester,
		})
	}))

	bus.Register(KindCreateReservation, Handle(func(ctx context.Context, req CreateReservation) (*model.Reservation, error) {
		return svc.Reservations.CreateReservation(ctx, req.Request())
	}))
	bus.Register(KindCancelReservation, Handle(func(ctx context.Context, req CancelReservation) (*model.Reservation, error) {
		return svc.Reservations.CancelReservation(ctx, req.ID)
	}))
	bus.Register(KindGetReservation, Handle(func(ctx context.Context, req GetReservation) (*model.Reservation, error) {
		return svc.Reservations.GetReservation(ctx, req.ID)
	}))
	bus.Register(KindFindReservationsByStudent, Handle(func(ctx context.Context, req FindReservationsByStudent) ([]*model.Reservation, error) {
		return svc.Reservations.FindByStudent(ctx, req.StudentID)
	}))
	bus.Register(KindFindReservationsByOwner, Handle(func(ctx context.Context, req FindReservationsByOwner) ([]*model.Reservation, error) {
		return svc.Reservations.FindByOwner(ctx, req.OwnerID)
	}))

	bus.Register(KindIsAvailable, Handle(func(ctx context.Context, req IsAvailable) (bool, error) {
		return svc.Availability.IsAvailable(ctx, req.Key())
	}))
}
