package service

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/tutoring_scheduler/internal/model"
	"go.uber.org/zap"
)

// Reconciler доставляет события из outbox'ов обоих хранилищ.
// Доставка at-least-once, поэтому обработчики идемпотентны.
type Reconciler struct {
	reservations *ReservationService
	notifier     ReportNotifier
	logger       *zap.Logger
}

// NewReconciler notifier может быть nil, тогда отчёты не отправляются
func NewReconciler(reservations *ReservationService, notifier ReportNotifier, logger *zap.Logger) *Reconciler {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Reconciler{
		reservations: reservations,
		notifier:     notifier,
		logger:       logger,
	}
}

// Deliver обрабатывает одно событие. Ошибка означает, что событие
// надо повторить позже.
func (r *Reconciler) Deliver(ctx context.Context, event *model.OutboxEvent) error {
	switch event.EventType {
	case model.EventSlotWithdrawn:
		return r.slotWithdrawn(ctx, event)
	case model.EventReservationCreated:
		return r.reservationCreated(ctx, event)
	default:
		return fmt.Errorf("unknown event type %q", event.EventType)
	}
}

// slotWithdrawn отменяет брони снятого слота. Брони, созданные позже
// события, относятся уже к другому слоту и не трогаются.
func (r *Reconciler) slotWithdrawn(ctx context.Context, event *model.OutboxEvent) error {
	var payload model.SlotWithdrawn
	if err := event.Decode(&payload); err != nil {
		return err
	}

	cancelled, err := r.reservations.CancelAllForSlotBefore(ctx, payload.Key(), event.CreatedAt)
	if err != nil {
		return err
	}

	// отмена уже применена; повтор события ради отчёта не нужен
	if err := r.notifier.NotifySlotCancelledReservations(ctx, event.ID, payload, cancelled); err != nil {
		r.logger.Warn("Failed to notify reports about withdrawn slot",
			zap.String("event_id", event.ID.String()),
			zap.String("slot_id", payload.SlotID.String()),
			zap.Error(err),
		)
	}

	return nil
}

func (r *Reconciler) reservationCreated(ctx context.Context, event *model.OutboxEvent) error {
	var res model.Reservation
	if err := event.Decode(&res); err != nil {
		return err
	}
	return r.notifier.NotifyReservationCreated(ctx, event.ID, &res)
}
