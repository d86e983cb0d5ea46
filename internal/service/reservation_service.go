package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/tutoring_scheduler/internal/model"
	"github.com/Freeeeeet/tutoring_scheduler/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReservationService владеет бронями студентов. В базу слотов при записи
// не ходит: снимок слота присылает вызывающий.
type ReservationService struct {
	store  repository.ReservationStore
	cache  AvailabilityCache
	outbox OutboxPolicy
	logger *zap.Logger
	clock  func() time.Time
}

// NewReservationService cache может быть nil
func NewReservationService(
	store repository.ReservationStore,
	cache AvailabilityCache,
	outbox OutboxPolicy,
	logger *zap.Logger,
) *ReservationService {
	return &ReservationService{
		store:  store,
		cache:  cache,
		outbox: outbox,
		logger: logger,
		clock:  time.Now,
	}
}

// CreateReservation бронирует слот. Дубликат отсекает уникальный индекс
// хранилища, поэтому из двух одновременных запросов успешен ровно один.
func (s *ReservationService) CreateReservation(ctx context.Context, req model.ReservationRequest) (*model.Reservation, error) {
	if err := req.Normalize(); err != nil {
		return nil, err
	}

	res := model.NewReservation(req, s.clock().UTC())

	err := s.store.WithTx(ctx, func(ctx context.Context, tx repository.ReservationTx) error {
		if err := tx.Reservations().Insert(ctx, res); err != nil {
			return err
		}
		return s.outbox.enqueue(ctx, tx.Outbox(), model.EventReservationCreated, res, res.CreatedAt)
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateActive) {
			s.logger.Info("Reservation rejected: slot already taken",
				zap.String("student_id", req.StudentID),
				zap.String("owner_id", req.OwnerID),
				zap.Stringer("weekday", req.Weekday),
				zap.String("start", req.StartTime),
			)
			return nil, model.Conflictf("slot %s %s with %s is already reserved",
				req.Weekday, req.StartTime, req.OwnerID)
		}
		return nil, fmt.Errorf("create reservation: %w", err)
	}

	s.markTaken(ctx, res.Key())
	s.outbox.kick()

	s.logger.Info("Reservation created",
		zap.String("reservation_id", res.ID.String()),
		zap.String("student_id", res.StudentID),
		zap.String("owner_id", res.OwnerID),
		zap.Stringer("weekday", res.Weekday),
		zap.String("start", res.StartTime),
	)

	return res, nil
}

// CancelReservation отменяет бронь студентом. Повторная отмена это ошибка
// InvalidState, а не пустая операция.
func (s *ReservationService) CancelReservation(ctx context.Context, id uuid.UUID) (*model.Reservation, error) {
	res, err := s.store.Reservations().Cancel(ctx, id, model.CancelReasonByStudent, s.clock().UTC())
	if err != nil {
		return nil, fmt.Errorf("cancel reservation: %w", err)
	}

	if res == nil {
		existing, err := s.store.Reservations().GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("get reservation: %w", err)
		}
		if existing == nil {
			return nil, model.NotFoundf("reservation %s not found", id)
		}
		return nil, model.InvalidStatef("reservation %s is already cancelled", id)
	}

	s.clearTaken(ctx, res.Key())

	s.logger.Info("Reservation cancelled",
		zap.String("reservation_id", id.String()),
		zap.String("student_id", res.StudentID),
	)

	return res, nil
}

// GetReservation получает бронь по ID в любом состоянии
func (s *ReservationService) GetReservation(ctx context.Context, id uuid.UUID) (*model.Reservation, error) {
	res, err := s.store.Reservations().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get reservation: %w", err)
	}
	if res == nil {
		return nil, model.NotFoundf("reservation %s not found", id)
	}
	return res, nil
}

// FindByStudent активные брони студента в порядке создания
func (s *ReservationService) FindByStudent(ctx context.Context, studentID string) ([]*model.Reservation, error) {
	if strings.TrimSpace(studentID) == "" {
		return nil, model.Validationf("missing fields: student_id")
	}
	return s.store.Reservations().ListActiveByStudent(ctx, studentID)
}

// FindByOwner активные брони к преподавателю в порядке создания
func (s *ReservationService) FindByOwner(ctx context.Context, ownerID string) ([]*model.Reservation, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, model.Validationf("missing fields: owner_id")
	}
	return s.store.Reservations().ListActiveByOwner(ctx, ownerID)
}

// CancelAllForSlot компенсирующая отмена при снятии слота. Ноль совпадений
// не ошибка, повторный вызов безопасен.
func (s *ReservationService) CancelAllForSlot(ctx context.Context, key model.SlotKey) (int64, error) {
	return s.CancelAllForSlotBefore(ctx, key, time.Time{})
}

// CancelAllForSlotBefore то же, но не трогает брони, созданные после before:
// запоздавшее событие не должно отменить бронь на новый слот с той же тройкой
func (s *ReservationService) CancelAllForSlotBefore(ctx context.Context, key model.SlotKey, before time.Time) (int64, error) {
	if err := key.Validate(); err != nil {
		return 0, err
	}

	n, err := s.store.Reservations().CancelActiveByKey(ctx, key, before, model.CancelReasonSlotWithdrawn, s.clock().UTC())
	if err != nil {
		return 0, fmt.Errorf("cancel reservations for slot: %w", err)
	}

	if n > 0 {
		s.clearTaken(ctx, key)
		s.logger.Info("Reservations cancelled for withdrawn slot",
			zap.String("owner_id", key.OwnerID),
			zap.Stringer("weekday", key.Weekday),
			zap.String("start", key.StartTime),
			zap.Int64("cancelled", n),
		)
	}

	return n, nil
}

func (s *ReservationService) markTaken(ctx context.Context, key model.SlotKey) {
	markTaken(ctx, s.cache, s.store.Reservations(), key, s.logger)
}

func (s *ReservationService) clearTaken(ctx context.Context, key model.SlotKey) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Clear(ctx, key); err != nil {
		s.logger.Warn("Failed to clear slot marker in cache", zap.Error(err))
	}
}
