package service

import (
	"context"

	"github.com/Freeeeeet/tutoring_scheduler/internal/model"
	"github.com/google/uuid"
)

// ReportNotifier внешние сервисы отчётов. Ошибки не должны влиять на
// исход команды, которая породила уведомление.
type ReportNotifier interface {
	NotifyReservationCreated(ctx context.Context, eventID uuid.UUID, res *model.Reservation) error
	NotifySlotCancelledReservations(ctx context.Context, eventID uuid.UUID, slot model.SlotWithdrawn, cancelled int64) error
}

// NopNotifier используется, когда сервисы отчётов не настроены
type NopNotifier struct{}

func (NopNotifier) NotifyReservationCreated(context.Context, uuid.UUID, *model.Reservation) error {
	return nil
}

func (NopNotifier) NotifySlotCancelledReservations(context.Context, uuid.UUID, model.SlotWithdrawn, int64) error {
	return nil
}
