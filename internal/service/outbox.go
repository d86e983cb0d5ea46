package service

import (
	"context"
	"time"

	"github.com/Freeeeeet/tutoring_scheduler/internal/model"
	"github.com/Freeeeeet/tutoring_scheduler/internal/repository"
)

// Kicker будит релей после коммита, чтобы событие ушло без ожидания тика
type Kicker interface {
	Kick()
}

// OutboxPolicy параметры исходящих событий сервиса
type OutboxPolicy struct {
	MaxAttempts int
	Kicker      Kicker
}

func (p OutboxPolicy) kick() {
	if p.Kicker != nil {
		p.Kicker.Kick()
	}
}

func (p OutboxPolicy) enqueue(ctx context.Context, outbox repository.OutboxRepository, eventType string, payload any, now time.Time) error {
	event, err := model.NewOutboxEvent(eventType, payload, p.MaxAttempts, now)
	if err != nil {
		return err
	}
	return outbox.Insert(ctx, event)
}
