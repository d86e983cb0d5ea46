package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Freeeeeet/tutoring_scheduler/internal/model"
	"github.com/Freeeeeet/tutoring_scheduler/internal/repository"
	"github.com/google/uuid"
)

type slotData struct {
	slots  map[uuid.UUID]*model.Slot
	outbox *outboxData
}

func (d *slotData) clone() *slotData {
	c := &slotData{
		slots:  make(map[uuid.UUID]*model.Slot, len(d.slots)),
		outbox: d.outbox.clone(),
	}
	for id, s := range d.slots {
		c.slots[id] = copySlot(s)
	}
	return c
}

// SlotStore база слотов в памяти
type SlotStore struct {
	mu   sync.Mutex
	data *slotData
}

func NewSlotStore() *SlotStore {
	return &SlotStore{
		data: &slotData{
			slots:  make(map[uuid.UUID]*model.Slot),
			outbox: newOutboxData(),
		},
	}
}

func (s *SlotStore) Slots() repository.SlotRepository {
	return &slotRepo{locker: &s.mu, data: s.current}
}

func (s *SlotStore) Outbox() repository.OutboxRepository {
	return s.outboxRepo(&s.mu)
}

// OutboxEvents все события базы слотов, для тестов
func (s *SlotStore) OutboxEvents() []*model.OutboxEvent {
	return s.outboxRepo(&s.mu).Events()
}

func (s *SlotStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx repository.SlotTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	tx := slotTx{
		slots:  &slotRepo{locker: noopLocker{}, data: s.current},
		outbox: s.outboxRepo(noopLocker{}),
	}
	if err := fn(ctx, tx); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

func (s *SlotStore) current() *slotData {
	return s.data
}

func (s *SlotStore) outboxRepo(locker sync.Locker) *outboxRepo {
	return &outboxRepo{locker: locker, data: func() *outboxData { return s.data.outbox }}
}

type slotTx struct {
	slots  repository.SlotRepository
	outbox repository.OutboxRepository
}

func (t slotTx) Slots() repository.SlotRepository { return t.slots }
func (t slotTx) Outbox() repository.OutboxRepository { return t.outbox }

type slotRepo struct {
	locker sync.Locker
	data   func() *slotData
}

func (r *slotRepo) Create(_ context.Context, slot *model.Slot) error {
	r.locker.Lock()
	defer r.locker.Unlock()

	r.data().slots[slot.ID] = copySlot(slot)
	return nil
}

func (r *slotRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Slot, error) {
	r.locker.Lock()
	defer r.locker.Unlock()

	slot, ok := r.data().slots[id]
	if !ok {
		return nil, nil
	}
	return copySlot(slot), nil
}

func (r *slotRepo) Update(_ context.Context, slot *model.Slot) error {
	r.locker.Lock()
	defer r.locker.Unlock()

	existing, ok := r.data().slots[slot.ID]
	if !ok {
		return model.NotFoundf("slot %s not found", slot.ID)
	}
	updated := copySlot(slot)
	updated.OwnerID = existing.OwnerID
	updated.CreatedAt = existing.CreatedAt
	r.data().slots[slot.ID] = updated
	return nil
}

func (r *slotRepo) UpdateStatus(_ context.Context, id uuid.UUID, status model.SlotStatus) error {
	r.locker.Lock()
	defer r.locker.Unlock()

	slot, ok := r.data().slots[id]
	if !ok {
		return model.NotFoundf("slot %s not found", id)
	}
	slot.Status = status
	return nil
}

func (r *slotRepo) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	r.locker.Lock()
	defer r.locker.Unlock()

	if _, ok := r.data().slots[id]; !ok {
		return false, nil
	}
	delete(r.data().slots, id)
	return true, nil
}

func (r *slotRepo) ListByOwner(_ context.Context, ownerID string) ([]*model.Slot, error) {
	return r.collect(func(s *model.Slot) bool { return s.OwnerID == ownerID }, byWeekdayStart), nil
}

func (r *slotRepo) ListByOwnerWeekday(_ context.Context, ownerID string, weekday model.Weekday) ([]*model.Slot, error) {
	return r.collect(func(s *model.Slot) bool {
		return s.OwnerID == ownerID && s.Weekday == weekday
	}, byWeekdayStart), nil
}

func (r *slotRepo) ListActive(_ context.Context, filter model.SlotFilter) ([]*model.Slot, error) {
	return r.collect(func(s *model.Slot) bool {
		return s.IsActive() && filter.Match(s)
	}, byCatalogOrder), nil
}

// LockOwnerDay не нужен: транзакция и так держит мьютекс хранилища
func (r *slotRepo) LockOwnerDay(context.Context, string, model.Weekday) error {
	return nil
}

func (r *slotRepo) collect(match func(*model.Slot) bool, less func(a, b *model.Slot) bool) []*model.Slot {
	r.locker.Lock()
	defer r.locker.Unlock()

	var out []*model.Slot
	for _, s := range r.data().slots {
		if match(s) {
			out = append(out, copySlot(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func byWeekdayStart(a, b *model.Slot) bool {
	if a.Weekday != b.Weekday {
		return a.Weekday < b.Weekday
	}
	if a.StartTime != b.StartTime {
		return a.StartTime < b.StartTime
	}
	return a.ID.String() < b.ID.String()
}

func byCatalogOrder(a, b *model.Slot) bool {
	switch {
	case a.Subject != b.Subject:
		return a.Subject < b.Subject
	case a.Section != b.Section:
		return a.Section < b.Section
	case a.OwnerID != b.OwnerID:
		return a.OwnerID < b.OwnerID
	}
	return byWeekdayStart(a, b)
}

func copySlot(s *model.Slot) *model.Slot {
	c := *s
	return &c
}
