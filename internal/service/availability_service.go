package service

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/tutoring_scheduler/internal/model"
	"github.com/Freeeeeet/tutoring_scheduler/internal/repository"
	"go.uber.org/zap"
)

// AvailabilityCache хранит только отметки "слот занят"; отсутствие отметки
// ничего не гарантирует и требует похода в базу
type AvailabilityCache interface {
	IsTaken(ctx context.Context, key model.SlotKey) (bool, error)
	MarkTaken(ctx context.Context, key model.SlotKey) error
	Clear(ctx context.Context, key model.SlotKey) error
}

// AvailabilityService быстрый ответ "свободен ли слот". Ответ может устареть
// до вызова CreateReservation; окончательно решает хранилище броней.
type AvailabilityService struct {
	reservations repository.ReservationRepository
	cache        AvailabilityCache
	logger       *zap.Logger
}

// NewAvailabilityService cache может быть nil
func NewAvailabilityService(reservations repository.ReservationRepository, cache AvailabilityCache, logger *zap.Logger) *AvailabilityService {
	return &AvailabilityService{
		reservations: reservations,
		cache:        cache,
		logger:       logger,
	}
}

// IsAvailable true, если на тройку нет активной брони
func (s *AvailabilityService) IsAvailable(ctx context.Context, key model.SlotKey) (bool, error) {
	if err := key.Validate(); err != nil {
		return false, err
	}

	if s.cache != nil {
		taken, err := s.cache.IsTaken(ctx, key)
		if err != nil {
			s.logger.Warn("Availability cache lookup failed", zap.Error(err))
		} else if taken {
			return false, nil
		}
	}

	exists, err := s.reservations.ExistsActive(ctx, key)
	if err != nil {
		return false, fmt.Errorf("check availability: %w", err)
	}

	if exists {
		markTaken(ctx, s.cache, s.reservations, key, s.logger)
	}

	return !exists, nil
}

// markTaken ставит отметку и перечитывает хранилище: отмена, успевшая
// закоммититься и снять отметку до записи, иначе оставит ложное "занято".
// Отсутствие отметки всегда безопасно, поэтому при сомнении она снимается.
func markTaken(ctx context.Context, cache AvailabilityCache, reservations repository.ReservationRepository, key model.SlotKey, logger *zap.Logger) {
	if cache == nil {
		return
	}
	if err := cache.MarkTaken(ctx, key); err != nil {
		logger.Warn("Failed to mark slot taken in cache", zap.Error(err))
		return
	}

	exists, err := reservations.ExistsActive(ctx, key)
	if err == nil && exists {
		return
	}
	if err != nil {
		logger.Warn("Failed to recheck slot after marking it taken", zap.Error(err))
	}
	if err := cache.Clear(ctx, key); err != nil {
		logger.Warn("Failed to clear stale slot marker in cache", zap.Error(err))
	}
}
