package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type OutboxStatus string

const (
	OutboxStatusPending OutboxStatus = "pending"
	OutboxStatusSent    OutboxStatus = "sent"
	OutboxStatusFailed  OutboxStatus = "failed"
	OutboxStatusDead    OutboxStatus = "dead"
)

// Типы событий между хранилищами
const (
	EventSlotWithdrawn      = "slot.withdrawn"
	EventReservationCreated = "reservation.created"
)

const (
	DefaultOutboxMaxAttempts = 8
	DefaultOutboxBaseBackoff = time.Second
	MaxOutboxBackoff         = time.Hour
	// MaxOutboxAttempts верхняя граница для настройки OUTBOX_MAX_ATTEMPTS
	MaxOutboxAttempts = 64
)

// OutboxEvent исходящее событие, записанное в одной транзакции с изменением
type OutboxEvent struct {
	ID          uuid.UUID       `json:"id"`
	EventType   string          `json:"event_type"`
	Payload     json.RawMessage `json:"payload"`
	Status      OutboxStatus    `json:"status"`
	Attempts    int             `json:"attempts"`
	MaxAttempts int             `json:"max_attempts"`
	LastError   string          `json:"last_error,omitempty"`
	NextAttempt time.Time       `json:"next_attempt_at"`
	CreatedAt   time.Time       `json:"created_at"`
	ProcessedAt *time.Time      `json:"processed_at,omitempty"`
}

// SlotWithdrawn слот удалён или деактивирован, зависимые брони надо отменить
type SlotWithdrawn struct {
	SlotID    uuid.UUID `json:"slot_id"`
	OwnerID   string    `json:"owner_id"`
	Weekday   Weekday   `json:"weekday"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	Reason    string    `json:"reason"` // deleted | deactivated
}

func (e SlotWithdrawn) Key() SlotKey {
	return SlotKey{OwnerID: e.OwnerID, Weekday: e.Weekday, StartTime: e.StartTime}
}

// NewOutboxEvent сериализует payload в новое pending событие
func NewOutboxEvent(eventType string, payload any, maxAttempts int, now time.Time) (*OutboxEvent, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultOutboxMaxAttempts
	}
	return &OutboxEvent{
		ID:          uuid.New(),
		EventType:   eventType,
		Payload:     raw,
		Status:      OutboxStatusPending,
		MaxAttempts: maxAttempts,
		NextAttempt: now,
		CreatedAt:   now,
	}, nil
}

// Decode разбирает payload в dst
func (e *OutboxEvent) Decode(dst any) error {
	if err := json.Unmarshal(e.Payload, dst); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.EventType, err)
	}
	return nil
}

func (e *OutboxEvent) MarkSent(now time.Time) {
	e.Status = OutboxStatusSent
	e.ProcessedAt = &now
	e.LastError = ""
}

// MarkFailed считает попытку и планирует следующую: 1s, 2s, 4s, ... но не реже раза в час
func (e *OutboxEvent) MarkFailed(errMsg string, now time.Time) {
	e.Attempts++
	e.LastError = errMsg
	if e.Attempts >= e.MaxAttempts {
		e.Status = OutboxStatusDead
		e.ProcessedAt = &now
		return
	}
	e.Status = OutboxStatusFailed
	e.NextAttempt = now.Add(OutboxBackoff(e.Attempts))
}

// OutboxBackoff задержка после attempt-й неудачной попытки
func OutboxBackoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := DefaultOutboxBaseBackoff
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= MaxOutboxBackoff {
			return MaxOutboxBackoff
		}
	}
	return delay
}

func (e *OutboxEvent) IsDead() bool {
	return e.Status == OutboxStatusDead
}

// Due готово ли событие к доставке
func (e *OutboxEvent) Due(now time.Time) bool {
	if e.Status != OutboxStatusPending && e.Status != OutboxStatusFailed {
		return false
	}
	return !e.NextAttempt.After(now)
}
