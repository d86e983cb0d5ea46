// Package memory хранилища в памяти процесса: для тестов и режима STORAGE=memory.
// Каждое хранилище держит один мьютекс; транзакция держит его целиком и при
// ошибке восстанавливает снимок данных.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Freeeeeet/tutoring_scheduler/internal/model"
	"github.com/google/uuid"
)

type noopLocker struct{}

func (noopLocker) Lock()   {}
func (noopLocker) Unlock() {}

type outboxData struct {
	events map[uuid.UUID]*model.OutboxEvent
}

func newOutboxData() *outboxData {
	return &outboxData{events: make(map[uuid.UUID]*model.OutboxEvent)}
}

func (d *outboxData) clone() *outboxData {
	c := newOutboxData()
	for id, e := range d.events {
		c.events[id] = copyEvent(e)
	}
	return c
}

type outboxRepo struct {
	locker sync.Locker
	data   func() *outboxData
}

func (r *outboxRepo) Insert(_ context.Context, event *model.OutboxEvent) error {
	r.locker.Lock()
	defer r.locker.Unlock()

	r.data().events[event.ID] = copyEvent(event)
	return nil
}

func (r *outboxRepo) ClaimDue(_ context.Context, now time.Time, lease time.Duration, limit int) ([]*model.OutboxEvent, error) {
	r.locker.Lock()
	defer r.locker.Unlock()

	var due []*model.OutboxEvent
	for _, e := range r.data().events {
		if e.Due(now) {
			due = append(due, e)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		return due[i].CreatedAt.Before(due[j].CreatedAt)
	})
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}

	claimed := make([]*model.OutboxEvent, 0, len(due))
	for _, e := range due {
		e.NextAttempt = now.Add(lease)
		claimed = append(claimed, copyEvent(e))
	}
	return claimed, nil
}

func (r *outboxRepo) Update(_ context.Context, event *model.OutboxEvent) error {
	r.locker.Lock()
	defer r.locker.Unlock()

	if _, ok := r.data().events[event.ID]; !ok {
		return model.NotFoundf("outbox event %s not found", event.ID)
	}
	r.data().events[event.ID] = copyEvent(event)
	return nil
}

func (r *outboxRepo) DeleteSentBefore(_ context.Context, before time.Time) (int64, error) {
	r.locker.Lock()
	defer r.locker.Unlock()

	var n int64
	for id, e := range r.data().events {
		if e.Status == model.OutboxStatusSent && e.ProcessedAt != nil && e.ProcessedAt.Before(before) {
			delete(r.data().events, id)
			n++
		}
	}
	return n, nil
}

func (r *outboxRepo) CountByStatus(_ context.Context) (map[model.OutboxStatus]int64, error) {
	r.locker.Lock()
	defer r.locker.Unlock()

	counts := make(map[model.OutboxStatus]int64)
	for _, e := range r.data().events {
		counts[e.Status]++
	}
	return counts, nil
}

// Events снимок всех событий, для тестов
func (r *outboxRepo) Events() []*model.OutboxEvent {
	r.locker.Lock()
	defer r.locker.Unlock()

	out := make([]*model.OutboxEvent, 0, len(r.data().events))
	for _, e := range r.data().events {
		out = append(out, copyEvent(e))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func copyEvent(e *model.OutboxEvent) *model.OutboxEvent {
	c := *e
	c.Payload = append([]byte(nil), e.Payload...)
	if e.ProcessedAt != nil {
		t := *e.ProcessedAt
		c.ProcessedAt = &t
	}
	return &c
}
