package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/tutoring_scheduler/internal/model"
	"github.com/Freeeeeet/tutoring_scheduler/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const slotColumns = `id, owner_id, owner_name, semester, subject, section, weekday,
	start_time, end_time, modality, location, capacity, notes, status, created_at`

type SlotPostgresRepository struct {
	db base.Querier
}

func NewSlotPostgresRepository(db base.Querier) *SlotPostgresRepository {
	return &SlotPostgresRepository{db: db}
}

// Create создаёт новый слот
func (r *SlotPostgresRepository) Create(ctx context.Context, slot *model.Slot) error {
	query := `
		INSERT INTO slots (id, owner_id, owner_name, semester, subject, section, weekday,
			start_time, end_time, modality, location, capacity, notes, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := r.db.Exec(
		ctx, query,
		slot.ID,
		slot.OwnerID,
		slot.OwnerName,
		slot.Semester,
		slot.Subject,
		slot.Section,
		int16(slot.Weekday),
		slot.StartTime,
		slot.EndTime,
		slot.Modality,
		slot.Location,
		slot.Capacity,
		slot.Notes,
		slot.Status,
		slot.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create slot: %w", err)
	}

	return nil
}

// GetByID получает слот по ID
func (r *SlotPostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM slots WHERE id = $1`

	slot, err := scanSlot(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get slot by id: %w", err)
	}

	return slot, nil
}

// Update полностью заменяет изменяемые поля слота
func (r *SlotPostgresRepository) Update(ctx context.Context, slot *model.Slot) error {
	query := `
		UPDATE slots
		SET owner_name = $2, semester = $3, subject = $4, section = $5, weekday = $6,
			start_time = $7, end_time = $8, modality = $9, location = $10,
			capacity = $11, notes = $12, status = $13
		WHERE id = $1
	`

	result, err := r.db.Exec(
		ctx, query,
		slot.ID,
		slot.OwnerName,
		slot.Semester,
		slot.Subject,
		slot.Section,
		int16(slot.Weekday),
		slot.StartTime,
		slot.EndTime,
		slot.Modality,
		slot.Location,
		slot.Capacity,
		slot.Notes,
		slot.Status,
	)
	if err != nil {
		return fmt.Errorf("update slot: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("update slot: %w", pgx.ErrNoRows)
	}

	return nil
}

// UpdateStatus обновляет статус слота
func (r *SlotPostgresRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.SlotStatus) error {
	result, err := r.db.Exec(ctx, `UPDATE slots SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("update slot status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("update slot status: %w", pgx.ErrNoRows)
	}

	return nil
}

// Delete удаляет слот; false если его не было
func (r *SlotPostgresRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM slots WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete slot: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// ListByOwner слоты преподавателя по дню и времени начала
func (r *SlotPostgresRepository) ListByOwner(ctx context.Context, ownerID string) ([]*model.Slot, error) {
	query := `SELECT ` + slotColumns + `
		FROM slots
		WHERE owner_id = $1
		ORDER BY weekday, start_time, id
	`
	return r.list(ctx, "list slots by owner", query, ownerID)
}

// ListByOwnerWeekday слоты преподавателя за один день
func (r *SlotPostgresRepository) ListByOwnerWeekday(ctx context.Context, ownerID string, weekday model.Weekday) ([]*model.Slot, error) {
	query := `SELECT ` + slotColumns + `
		FROM slots
		WHERE owner_id = $1 AND weekday = $2
		ORDER BY start_time, id
	`
	return r.list(ctx, "list slots by owner weekday", query, ownerID, int16(weekday))
}

// ListActive каталог активных слотов с необязательными фильтрами
func (r *SlotPostgresRepository) ListActive(ctx context.Context, filter model.SlotFilter) ([]*model.Slot, error) {
	query := `SELECT ` + slotColumns + `
		FROM slots
		WHERE status = 'active'
		  AND ($1 = '' OR subject = $1)
		  AND ($2 = '' OR section = $2)
		  AND ($3 = '' OR semester = $3)
		ORDER BY subject, section, owner_id, weekday, start_time
	`
	return r.list(ctx, "list active slots", query, filter.Subject, filter.Section, filter.Semester)
}

// LockOwnerDay берёт advisory lock транзакции на (владелец, день)
func (r *SlotPostgresRepository) LockOwnerDay(ctx context.Context, ownerID string, weekday model.Weekday) error {
	key := ownerID + ":" + weekday.String()
	_, err := r.db.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, key)
	if err != nil {
		return fmt.Errorf("lock owner weekday: %w", err)
	}
	return nil
}

func (r *SlotPostgresRepository) list(ctx context.Context, op, query string, args ...any) ([]*model.Slot, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var slots []*model.Slot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return slots, nil
}

func scanSlot(row pgx.Row) (*model.Slot, error) {
	var slot model.Slot
	err := row.Scan(
		&slot.ID,
		&slot.OwnerID,
		&slot.OwnerName,
		&slot.Semester,
		&slot.Subject,
		&slot.Section,
		&slot.Weekday,
		&slot.StartTime,
		&slot.EndTime,
		&slot.Modality,
		&slot.Location,
		&slot.Capacity,
		&slot.Notes,
		&slot.Status,
		&slot.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &slot, nil
}
