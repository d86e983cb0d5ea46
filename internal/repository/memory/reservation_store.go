package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Freeeeeet/tutoring_scheduler/internal/model"
	"github.com/Freeeeeet/tutoring_scheduler/internal/repository"
	"github.com/google/uuid"
)

type reservationData struct {
	byID   map[uuid.UUID]*model.Reservation
	order  []uuid.UUID // порядок вставки
	outbox *outboxData
}

func (d *reservationData) clone() *reservationData {
	c := &reservationData{
		byID:   make(map[uuid.UUID]*model.Reservation, len(d.byID)),
		order:  append([]uuid.UUID(nil), d.order...),
		outbox: d.outbox.clone(),
	}
	for id, r := range d.byID {
		c.byID[id] = copyReservation(r)
	}
	return c
}

// ReservationStore база броней в памяти. Проверка дубликата и вставка
// выполняются под одним мьютексом.
type ReservationStore struct {
	mu   sync.Mutex
	data *reservationData
}

func NewReservationStore() *ReservationStore {
	return &ReservationStore{
		data: &reservationData{
			byID:   make(map[uuid.UUID]*model.Reservation),
			outbox: newOutboxData(),
		},
	}
}

func (s *ReservationStore) Reservations() repository.ReservationRepository {
	return &reservationRepo{locker: &s.mu, data: s.current}
}

func (s *ReservationStore) Outbox() repository.OutboxRepository {
	return s.outboxRepo(&s.mu)
}

// OutboxEvents все события базы броней, для тестов
func (s *ReservationStore) OutboxEvents() []*model.OutboxEvent {
	return s.outboxRepo(&s.mu).Events()
}

func (s *ReservationStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx repository.ReservationTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	tx := reservationTx{
		reservations: &reservationRepo{locker: noopLocker{}, data: s.current},
		outbox:       s.outboxRepo(noopLocker{}),
	}
	if err := fn(ctx, tx); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

func (s *ReservationStore) current() *reservationData {
	return s.data
}

func (s *ReservationStore) outboxRepo(locker sync.Locker) *outboxRepo {
	return &outboxRepo{locker: locker, data: func() *outboxData { return s.data.outbox }}
}

type reservationTx struct {
	reservations repository.ReservationRepository
	outbox       repository.OutboxRepository
}

func (t reservationTx) Reservations() repository.ReservationRepository { return t.reservations }
func (t reservationTx) Outbox() repository.OutboxRepository { return t.outbox }

type reservationRepo struct {
	locker sync.Locker
	data   func() *reservationData
}

func (r *reservationRepo) Insert(_ context.Context, res *model.Reservation) error {
	r.locker.Lock()
	defer r.locker.Unlock()

	d := r.data()
	if res.IsActive() {
		key := res.Key()
		for _, existing := range d.byID {
			if existing.IsActive() && existing.Key() == key {
				return repository.ErrDuplicateActive
			}
		}
	}
	d.byID[res.ID] = copyReservation(res)
	d.order = append(d.order, res.ID)
	return nil
}

func (r *reservationRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Reservation, error) {
	r.locker.Lock()
	defer r.locker.Unlock()

	res, ok := r.data().byID[id]
	if !ok {
		return nil, nil
	}
	return copyReservation(res), nil
}

func (r *reservationRepo) Cancel(_ context.Context, id uuid.UUID, reason string, at time.Time) (*model.Reservation, error) {
	r.locker.Lock()
	defer r.locker.Unlock()

	res, ok := r.data().byID[id]
	if !ok || !res.IsActive() {
		return nil, nil
	}
	if err := res.Cancel(reason, at); err != nil {
		return nil, err
	}
	return copyReservation(res), nil
}

func (r *reservationRepo) CancelActiveByKey(_ context.Context, key model.SlotKey, before time.Time, reason string, at time.Time) (int64, error) {
	r.locker.Lock()
	defer r.locker.Unlock()

	var n int64
	for _, res := range r.data().byID {
		if !res.IsActive() || res.Key() != key {
			continue
		}
		if !before.IsZero() && res.CreatedAt.After(before) {
			continue
		}
		if err := res.Cancel(reason, at); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func (r *reservationRepo) ListActiveByStudent(_ context.Context, studentID string) ([]*model.Reservation, error) {
	return r.collect(func(res *model.Reservation) bool {
		return res.IsActive() && res.StudentID == studentID
	}), nil
}

func (r *reservationRepo) ListActiveByOwner(_ context.Context, ownerID string) ([]*model.Reservation, error) {
	return r.collect(func(res *model.Reservation) bool {
		return res.IsActive() && res.OwnerID == ownerID
	}), nil
}

func (r *reservationRepo) ExistsActive(_ context.Context, key model.SlotKey) (bool, error) {
	r.locker.Lock()
	defer r.locker.Unlock()

	for _, res := range r.data().byID {
		if res.IsActive() && res.Key() == key {
			return true, nil
		}
	}
	return false, nil
}

func (r *reservationRepo) collect(match func(*model.Reservation) bool) []*model.Reservation {
	r.locker.Lock()
	defer r.locker.Unlock()

	d := r.data()
	var out []*model.Reservation
	for _, id := range d.order {
		if res := d.byID[id]; match(res) {
			out = append(out, copyReservation(res))
		}
	}
	return out
}

func copyReservation(r *model.Reservation) *model.Reservation {
	c := *r
	if r.CancelledAt != nil {
		t := *r.CancelledAt
		c.CancelledAt = &t
	}
	return &c
}
