package repository

import (
	"context"

	"github.com/Freeeeeet/tutoring_scheduler/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SlotPostgresStore база слотов на отдельном пуле
type SlotPostgresStore struct {
	pool   *pgxpool.Pool
	slots  *SlotPostgresRepository
	outbox *OutboxPostgresRepository
}

func NewSlotPostgresStore(pool *pgxpool.Pool) *SlotPostgresStore {
	return &SlotPostgresStore{
		pool:   pool,
		slots:  NewSlotPostgresRepository(pool),
		outbox: NewOutboxPostgresRepository(pool),
	}
}

func (s *SlotPostgresStore) Slots() SlotRepository { return s.slots }
func (s *SlotPostgresStore) Outbox() OutboxRepository { return s.outbox }

func (s *SlotPostgresStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx SlotTx) error) error {
	return base.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(ctx, slotTx{
			slots:  NewSlotPostgresRepository(tx),
			outbox: NewOutboxPostgresRepository(tx),
		})
	})
}

type slotTx struct {
	slots  SlotRepository
	outbox OutboxRepository
}

func (t slotTx) Slots() SlotRepository { return t.slots }
func (t slotTx) Outbox() OutboxRepository { return t.outbox }

// ReservationPostgresStore база броней на отдельном пуле
type ReservationPostgresStore struct {
	pool         *pgxpool.Pool
	reservations *ReservationPostgresRepository
	outbox       *OutboxPostgresRepository
}

func NewReservationPostgresStore(pool *pgxpool.Pool) *ReservationPostgresStore {
	return &ReservationPostgresStore{
		pool:         pool,
		reservations: NewReservationPostgresRepository(pool),
		outbox:       NewOutboxPostgresRepository(pool),
	}
}

func (s *ReservationPostgresStore) Reservations() ReservationRepository { return s.reservations }
func (s *ReservationPostgresStore) Outbox() OutboxRepository { return s.outbox }

func (s *ReservationPostgresStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx ReservationTx) error) error {
	return base.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(ctx, reservationTx{
			reservations: NewReservationPostgresRepository(tx),
			outbox:       NewOutboxPostgresRepository(tx),
		})
	})
}

type reservationTx struct {
	reservations ReservationRepository
	outbox       OutboxRepository
}

func (t reservationTx) Reservations() ReservationRepository { return t.reservations }
func (t reservationTx) Outbox() OutboxRepository { return t.outbox }
