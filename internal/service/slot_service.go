package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/tutoring_scheduler/internal/model"
	"github.com/Freeeeeet/tutoring_scheduler/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Причины снятия слота в событии slot.withdrawn
const (
	WithdrawReasonDeleted     = "deleted"
	WithdrawReasonDeactivated = "deactivated"
)

// SlotService владеет слотами преподавателей и следит, чтобы активные
// слоты одного дня не пересекались
type SlotService struct {
	store  repository.SlotStore
	outbox OutboxPolicy
	logger *zap.Logger
	clock  func() time.Time
}

func NewSlotService(store repository.SlotStore, outbox OutboxPolicy, logger *zap.Logger) *SlotService {
	return &SlotService{
		store:  store,
		outbox: outbox,
		logger: logger,
		clock:  time.Now,
	}
}

// CreateSlot создаёт активный слот, если он не пересекается с другими
// активными слотами преподавателя в тот же день
func (s *SlotService) CreateSlot(ctx context.Context, ownerID string, fields model.SlotFields) (*model.Slot, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, model.Validationf("missing fields: owner_id")
	}
	if err := fields.Validate(); err != nil {
		return nil, err
	}

	slot := &model.Slot{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Status:    model.SlotStatusActive,
		CreatedAt: s.clock().UTC(),
	}
	fields.Apply(slot)

	err := s.store.WithTx(ctx, func(ctx context.Context, tx repository.SlotTx) error {
		if err := checkOverlap(ctx, tx.Slots(), slot); err != nil {
			return err
		}
		return tx.Slots().Create(ctx, slot)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Slot created",
		zap.String("slot_id", slot.ID.String()),
		zap.String("owner_id", slot.OwnerID),
		zap.Stringer("weekday", slot.Weekday),
		zap.String("start", slot.StartTime),
		zap.String("end", slot.EndTime),
	)

	return slot, nil
}

// UpdateSlot заменяет все изменяемые поля; владелец и статус сохраняются
func (s *SlotService) UpdateSlot(ctx context.Context, id uuid.UUID, fields model.SlotFields) (*model.Slot, error) {
	if err := fields.Validate(); err != nil {
		return nil, err
	}

	var updated *model.Slot
	err := s.store.WithTx(ctx, func(ctx context.Context, tx repository.SlotTx) error {
		existing, err := tx.Slots().GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("get slot: %w", err)
		}
		if existing == nil {
			return model.NotFoundf("slot %s not found", id)
		}

		candidate := *existing
		fields.Apply(&candidate)

		// Неактивный слот проверяется при повторной активации
		if candidate.IsActive() {
			if err := checkOverlap(ctx, tx.Slots(), &candidate); err != nil {
				return err
			}
		}

		if err := tx.Slots().Update(ctx, &candidate); err != nil {
			return err
		}
		updated = &candidate
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Slot updated",
		zap.String("slot_id", id.String()),
		zap.String("owner_id", updated.OwnerID),
	)

	return updated, nil
}

// DeleteSlot удаляет слот и в той же транзакции ставит в outbox отмену
// зависимых броней
func (s *SlotService) DeleteSlot(ctx context.Context, id uuid.UUID) error {
	var deleted *model.Slot
	err := s.store.WithTx(ctx, func(ctx context.Context, tx repository.SlotTx) error {
		existing, err := tx.Slots().GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("get slot: %w", err)
		}
		if existing == nil {
			return model.NotFoundf("slot %s not found", id)
		}

		ok, err := tx.Slots().Delete(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return model.NotFoundf("slot %s not found", id)
		}

		deleted = existing
		return s.outbox.enqueue(ctx, tx.Outbox(), model.EventSlotWithdrawn,
			withdrawal(existing, WithdrawReasonDeleted), s.clock().UTC())
	})
	if err != nil {
		return err
	}

	s.outbox.kick()

	s.logger.Info("Slot deleted",
		zap.String("slot_id", id.String()),
		zap.String("owner_id", deleted.OwnerID),
		zap.Stringer("weekday", deleted.Weekday),
		zap.String("start", deleted.StartTime),
	)

	return nil
}

// SetStatus включает или выключает слот. Выключение отменяет брони как удаление,
// повторное включение снова проверяет пересечения.
func (s *SlotService) SetStatus(ctx context.Context, id uuid.UUID, status model.SlotStatus) (*model.Slot, error) {
	if !status.Valid() {
		return nil, model.Validationf("status %q must be active or inactive", status)
	}

	var result *model.Slot
	var withdrawn bool
	err := s.store.WithTx(ctx, func(ctx context.Context, tx repository.SlotTx) error {
		slot, err := tx.Slots().GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("get slot: %w", err)
		}
		if slot == nil {
			return model.NotFoundf("slot %s not found", id)
		}

		result = slot
		if slot.Status == status {
			return nil
		}

		slot.Status = status
		switch status {
		case model.SlotStatusActive:
			if err := checkOverlap(ctx, tx.Slots(), slot); err != nil {
				return err
			}
		case model.SlotStatusInactive:
			withdrawn = true
			err := s.outbox.enqueue(ctx, tx.Outbox(), model.EventSlotWithdrawn,
				withdrawal(slot, WithdrawReasonDeactivated), s.clock().UTC())
			if err != nil {
				return err
			}
		}

		return tx.Slots().UpdateStatus(ctx, id, status)
	})
	if err != nil {
		return nil, err
	}

	if withdrawn {
		s.outbox.kick()
	}

	s.logger.Info("Slot status changed",
		zap.String("slot_id", id.String()),
		zap.String("status", string(result.Status)),
	)

	return result, nil
}

// GetSlot получает слот по ID
func (s *SlotService) GetSlot(ctx context.Context, id uuid.UUID) (*model.Slot, error) {
	slot, err := s.store.Slots().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get slot: %w", err)
	}
	if slot == nil {
		return nil, model.NotFoundf("slot %s not found", id)
	}
	return slot, nil
}

// ListByOwner все слоты преподавателя, по дню и времени начала
func (s *SlotService) ListByOwner(ctx context.Context, ownerID string) ([]*model.Slot, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, model.Validationf("missing fields: owner_id")
	}
	return s.store.Slots().ListByOwner(ctx, ownerID)
}

// ListActiveSlots каталог активных слотов для студентов
func (s *SlotService) ListActiveSlots(ctx context.Context, filter model.SlotFilter) ([]*model.Slot, error) {
	return s.store.Slots().ListActive(ctx, filter)
}

// checkOverlap должен вызываться внутри транзакции: блокировка дня держится до коммита
func checkOverlap(ctx context.Context, slots repository.SlotRepository, candidate *model.Slot) error {
	if err := slots.LockOwnerDay(ctx, candidate.OwnerID, candidate.Weekday); err != nil {
		return err
	}

	sameDay, err := slots.ListByOwnerWeekday(ctx, candidate.OwnerID, candidate.Weekday)
	if err != nil {
		return fmt.Errorf("list slots for overlap check: %w", err)
	}

	if other := model.FindOverlap(sameDay, candidate, candidate.ID); other != nil {
		return model.Conflictf("slot %s-%s on %s overlaps existing slot %s-%s",
			candidate.StartTime, candidate.EndTime, candidate.Weekday, other.StartTime, other.EndTime)
	}
	return nil
}

func withdrawal(slot *model.Slot, reason string) model.SlotWithdrawn {
	return model.SlotWithdrawn{
		SlotID:    slot.ID,
		OwnerID:   slot.OwnerID,
		Weekday:   slot.Weekday,
		StartTime: slot.StartTime,
		EndTime:   slot.EndTime,
		Reason:    reason,
	}
}
