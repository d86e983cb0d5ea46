package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/tutoring_scheduler/internal/model"
	"github.com/Freeeeeet/tutoring_scheduler/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Частичный уникальный индекс из миграции reservations
const activeSlotIndex = "reservations_active_slot_key"

const reservationColumns = `id, student_id, student_name, owner_id, owner_name, semester,
	subject, section, weekday, start_time, end_time, modality, location, state,
	cancel_reason, cancelled_at, created_at, updated_at`

type ReservationPostgresRepository struct {
	db base.Querier
}

func NewReservationPostgresRepository(db base.Querier) *ReservationPostgresRepository {
	return &ReservationPostgresRepository{db: db}
}

// Insert создаёт бронь. Проверку дубликата делает сам индекс, отдельного
// SELECT перед вставкой нет.
func (r *ReservationPostgresRepository) Insert(ctx context.Context, res *model.Reservation) error {
	query := `
		INSERT INTO reservations (id, student_id, student_name, owner_id, owner_name, semester,
			subject, section, weekday, start_time, end_time, modality, location, state,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $15)
	`

	_, err := r.db.Exec(
		ctx, query,
		res.ID,
		res.StudentID,
		res.StudentName,
		res.OwnerID,
		res.OwnerName,
		res.Semester,
		res.Subject,
		res.Section,
		int16(res.Weekday),
		res.StartTime,
		res.EndTime,
		res.Modality,
		res.Location,
		res.State,
		res.CreatedAt,
	)
	if err != nil {
		if base.IsUniqueViolation(err, activeSlotIndex) {
			return ErrDuplicateActive
		}
		return fmt.Errorf("insert reservation: %w", err)
	}

	return nil
}

// GetByID получает бронь по ID, включая отменённые
func (r *ReservationPostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`

	res, err := scanReservation(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get reservation by id: %w", err)
	}

	return res, nil
}

// Cancel условный UPDATE: отменяется только активная бронь
func (r *ReservationPostgresRepository) Cancel(ctx context.Context, id uuid.UUID, reason string, at time.Time) (*model.Reservation, error) {
	query := `
		UPDATE reservations
		SET state = 'cancelled', cancel_reason = $2, cancelled_at = $3, updated_at = $3
		WHERE id = $1 AND state = 'active'
		RETURNING ` + reservationColumns

	res, err := scanReservation(r.db.QueryRow(ctx, query, id, reason, at))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("cancel reservation: %w", err)
	}

	return res, nil
}

// CancelActiveByKey отменяет активные брони слота одним UPDATE
func (r *ReservationPostgresRepository) CancelActiveByKey(ctx context.Context, key model.SlotKey, before time.Time, reason string, at time.Time) (int64, error) {
	query := `
		UPDATE reservations
		SET state = 'cancelled', cancel_reason = $4, cancelled_at = $5, updated_at = $5
		WHERE owner_id = $1 AND weekday = $2 AND start_time = $3 AND state = 'active'
		  AND ($6::timestamptz IS NULL OR created_at <= $6)
	`

	var cutoff *time.Time
	if !before.IsZero() {
		cutoff = &before
	}

	result, err := r.db.Exec(ctx, query, key.OwnerID, int16(key.Weekday), key.StartTime, reason, at, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cancel reservations by slot: %w", err)
	}

	return result.RowsAffected(), nil
}

// ListActiveByStudent активные брони студента в порядке вставки
func (r *ReservationPostgresRepository) ListActiveByStudent(ctx context.Context, studentID string) ([]*model.Reservation, error) {
	query := `SELECT ` + reservationColumns + `
		FROM reservations
		WHERE student_id = $1 AND state = 'active'
		ORDER BY seq
	`
	return r.list(ctx, "list reservations by student", query, studentID)
}

// ListActiveByOwner активные брони к преподавателю в порядке вставки
func (r *ReservationPostgresRepository) ListActiveByOwner(ctx context.Context, ownerID string) ([]*model.Reservation, error) {
	query := `SELECT ` + reservationColumns + `
		FROM reservations
		WHERE owner_id = $1 AND state = 'active'
		ORDER BY seq
	`
	return r.list(ctx, "list reservations by owner", query, ownerID)
}

// ExistsActive есть ли активная бронь на тройку
func (r *ReservationPostgresRepository) ExistsActive(ctx context.Context, key model.SlotKey) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM reservations
			WHERE owner_id = $1 AND weekday = $2 AND start_time = $3 AND state = 'active'
		)
	`

	var exists bool
	err := r.db.QueryRow(ctx, query, key.OwnerID, int16(key.Weekday), key.StartTime).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check active reservation: %w", err)
	}

	return exists, nil
}

func (r *ReservationPostgresRepository) list(ctx context.Context, op, query string, args ...any) ([]*model.Reservation, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var reservations []*model.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		reservations = append(reservations, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return reservations, nil
}

func scanReservation(row pgx.Row) (*model.Reservation, error) {
	var res model.Reservation
	err := row.Scan(
		&res.ID,
		&res.StudentID,
		&res.StudentName,
		&res.OwnerID,
		&res.OwnerName,
		&res.Semester,
		&res.Subject,
		&res.Section,
		&res.Weekday,
		&res.StartTime,
		&res.EndTime,
		&res.Modality,
		&res.Location,
		&res.State,
		&res.CancelReason,
		&res.CancelledAt,
		&res.CreatedAt,
		&res.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &res, nil
}
