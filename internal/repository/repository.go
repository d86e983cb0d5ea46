package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Freeeeeet/tutoring_scheduler/internal/model"
	"github.com/google/uuid"
)

// ErrDuplicateActive вставка нарушила уникальность активной брони на слот
var ErrDuplicateActive = errors.New("active reservation already exists for slot")

// SlotRepository хранилище слотов преподавателей.
// Get-методы возвращают nil, nil если записи нет.
type SlotRepository interface {
	Create(ctx context.Context, slot *model.Slot) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Slot, error)
	Update(ctx context.Context, slot *model.Slot) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.SlotStatus) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*model.Slot, error)
	ListByOwnerWeekday(ctx context.Context, ownerID string, weekday model.Weekday) ([]*model.Slot, error)
	ListActive(ctx context.Context, filter model.SlotFilter) ([]*model.Slot, error)
	// LockOwnerDay сериализует проверки пересечений для (владелец, день)
	// до конца текущей транзакции
	LockOwnerDay(ctx context.Context, ownerID string, weekday model.Weekday) error
}

// ReservationRepository хранилище броней студентов
type ReservationRepository interface {
	// Insert атомарно вставляет бронь; ErrDuplicateActive если на тройку
	// уже есть активная бронь
	Insert(ctx context.Context, r *model.Reservation) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Reservation, error)
	// Cancel отменяет только активную бронь; nil, nil если активной нет
	Cancel(ctx context.Context, id uuid.UUID, reason string, at time.Time) (*model.Reservation, error)
	// CancelActiveByKey отменяет активные брони тройки, созданные не позже before
	// (нулевое before без ограничения); возвращает число отменённых
	CancelActiveByKey(ctx context.Context, key model.SlotKey, before time.Time, reason string, at time.Time) (int64, error)
	ListActiveByStudent(ctx context.Context, studentID string) ([]*model.Reservation, error)
	ListActiveByOwner(ctx context.Context, ownerID string) ([]*model.Reservation, error)
	ExistsActive(ctx context.Context, key model.SlotKey) (bool, error)
}

// OutboxRepository исходящие события одного хранилища
type OutboxRepository interface {
	Insert(ctx context.Context, event *model.OutboxEvent) error
	// ClaimDue забирает готовые к доставке события и продлевает им
	// next_attempt до now+lease, чтобы параллельный релей их не взял
	ClaimDue(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]*model.OutboxEvent, error)
	Update(ctx context.Context, event *model.OutboxEvent) error
	DeleteSentBefore(ctx context.Context, before time.Time) (int64, error)
	CountByStatus(ctx context.Context) (map[model.OutboxStatus]int64, error)
}

// SlotTx репозитории базы слотов, привязанные к одной транзакции
type SlotTx interface {
	Slots() SlotRepository
	Outbox() OutboxRepository
}

// SlotStore база слотов
type SlotStore interface {
	SlotTx
	WithTx(ctx context.Context, fn func(ctx context.Context, tx SlotTx) error) error
}

type ReservationTx interface {
	Reservations() ReservationRepository
	Outbox() OutboxRepository
}

// ReservationStore база броней; с базой слотов транзакций не делит
type ReservationStore interface {
	ReservationTx
	WithTx(ctx context.Context, fn func(ctx context.Context, tx ReservationTx) error) error
}
