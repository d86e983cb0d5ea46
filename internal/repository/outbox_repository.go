package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/tutoring_scheduler/internal/model"
	"github.com/Freeeeeet/tutoring_scheduler/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

const outboxColumns = `id, event_type, payload, status, attempts, max_attempts,
	last_error, next_attempt_at, created_at, processed_at`

type OutboxPostgresRepository struct {
	db base.Querier
}

func NewOutboxPostgresRepository(db base.Querier) *OutboxPostgresRepository {
	return &OutboxPostgresRepository{db: db}
}

// Insert пишет событие; вызывается внутри транзакции основного изменения
func (r *OutboxPostgresRepository) Insert(ctx context.Context, event *model.OutboxEvent) error {
	query := `
		INSERT INTO outbox_events (id, event_type, payload, status, attempts, max_attempts,
			last_error, next_attempt_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.Exec(
		ctx, query,
		event.ID,
		event.EventType,
		[]byte(event.Payload),
		event.Status,
		event.Attempts,
		event.MaxAttempts,
		event.LastError,
		event.NextAttempt,
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}

	return nil
}

// ClaimDue одним запросом выбирает и арендует готовые события.
// SKIP LOCKED позволяет нескольким релеям работать параллельно.
func (r *OutboxPostgresRepository) ClaimDue(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]*model.OutboxEvent, error) {
	query := `
		UPDATE outbox_events
		SET next_attempt_at = $2
		WHERE id IN (
			SELECT id FROM outbox_events
			WHERE status IN ('pending', 'failed') AND next_attempt_at <= $1
			ORDER BY created_at
			LIMIT $3
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + outboxColumns

	rows, err := r.db.Query(ctx, query, now, now.Add(lease), limit)
	if err != nil {
		return nil, fmt.Errorf("claim outbox events: %w", err)
	}
	defer rows.Close()

	var events []*model.OutboxEvent
	for rows.Next() {
		event, err := scanOutboxEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan outbox event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("claim outbox events: %w", err)
	}

	return events, nil
}

// Update сохраняет результат попытки доставки
func (r *OutboxPostgresRepository) Update(ctx context.Context, event *model.OutboxEvent) error {
	query := `
		UPDATE outbox_events
		SET status = $2, attempts = $3, last_error = $4, next_attempt_at = $5, processed_at = $6
		WHERE id = $1
	`

	result, err := r.db.Exec(
		ctx, query,
		event.ID,
		event.Status,
		event.Attempts,
		event.LastError,
		event.NextAttempt,
		event.ProcessedAt,
	)
	if err != nil {
		return fmt.Errorf("update outbox event: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("update outbox event: %w", pgx.ErrNoRows)
	}

	return nil
}

// DeleteSentBefore чистит доставленные события старше before
func (r *OutboxPostgresRepository) DeleteSentBefore(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.Exec(ctx,
		`DELETE FROM outbox_events WHERE status = 'sent' AND processed_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("delete sent outbox events: %w", err)
	}
	return result.RowsAffected(), nil
}

// CountByStatus количество событий по статусам
func (r *OutboxPostgresRepository) CountByStatus(ctx context.Context) (map[model.OutboxStatus]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT status, count(*) FROM outbox_events GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count outbox events: %w", err)
	}
	defer rows.Close()

	counts := make(map[model.OutboxStatus]int64)
	for rows.Next() {
		var status model.OutboxStatus
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan outbox count: %w", err)
		}
		counts[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("count outbox events: %w", err)
	}

	return counts, nil
}

func scanOutboxEvent(row pgx.Row) (*model.OutboxEvent, error) {
	var event model.OutboxEvent
	var payload []byte
	err := row.Scan(
		&event.ID,
		&event.EventType,
		&payload,
		&event.Status,
		&event.Attempts,
		&event.MaxAttempts,
		&event.LastError,
		&event.NextAttempt,
		&event.CreatedAt,
		&event.ProcessedAt,
	)
	if err != nil {
		return nil, err
	}
	event.Payload = payload
	return &event, nil
}
