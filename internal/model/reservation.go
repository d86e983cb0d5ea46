package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type ReservationState string

const (
	ReservationStateActive    ReservationState = "active"
	ReservationStateCancelled ReservationState = "cancelled"
)

// Причины отмены
const (
	CancelReasonByStudent     = "cancelled by student"
	CancelReasonSlotWithdrawn = "slot withdrawn by teacher"
)

// Значения по умолчанию для снимка слота
const (
	DefaultReservationLocation = "TBD"
	DefaultReservationModality = ModalityVirtual
)

// SlotKey идентифицирует слот с точки зрения брони: преподаватель, день, начало
type SlotKey struct {
	OwnerID   string  `json:"owner_id"`
	Weekday   Weekday `json:"weekday"`
	StartTime string  `json:"start_time"`
}

func (k SlotKey) Validate() error {
	if strings.TrimSpace(k.OwnerID) == "" {
		return Validationf("missing fields: owner_id")
	}
	if !k.Weekday.Valid() {
		return Validationf("weekday must be one of monday..friday")
	}
	if _, err := ParseClock(k.StartTime); err != nil {
		return err
	}
	return nil
}

// Reservation бронь студента. Поля слота скопированы на момент бронирования
// и не меняются при последующем редактировании слота.
type Reservation struct {
	ID           uuid.UUID        `json:"id"`
	StudentID    string           `json:"student_id"`
	StudentName  string           `json:"student_name"`
	OwnerID      string           `json:"owner_id"`
	OwnerName    string           `json:"owner_name"`
	Semester     string           `json:"semester"`
	Subject      string           `json:"subject"`
	Section      string           `json:"section"`
	Weekday      Weekday          `json:"weekday"`
	StartTime    string           `json:"start_time"`
	EndTime      string           `json:"end_time"`
	Modality     Modality         `json:"modality"`
	Location     string           `json:"location"`
	State        ReservationState `json:"state"`
	CancelReason string           `json:"cancel_reason,omitempty"`
	CancelledAt  *time.Time       `json:"cancelled_at,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

func (r *Reservation) IsActive() bool {
	return r.State == ReservationStateActive
}

func (r *Reservation) Key() SlotKey {
	return SlotKey{OwnerID: r.OwnerID, Weekday: r.Weekday, StartTime: r.StartTime}
}

// Cancel переводит бронь в Cancelled ровно один раз
func (r *Reservation) Cancel(reason string, at time.Time) error {
	if !r.IsActive() {
		return InvalidStatef("reservation %s is already cancelled", r.ID)
	}
	r.State = ReservationStateCancelled
	r.CancelReason = reason
	r.CancelledAt = &at
	r.UpdatedAt = at
	return nil
}

// ReservationRequest снимок слота, который передаёт вызывающий
type ReservationRequest struct {
	StudentID   string
	StudentName string
	OwnerID     string
	OwnerName   string
	Semester    string
	Subject     string
	Section     string
	Weekday     Weekday
	StartTime   string
	EndTime     string
	Modality    Modality
	Location    string
}

// Normalize заполняет значения по умолчанию и проверяет запрос
func (r *ReservationRequest) Normalize() error {
	var missing []string
	if strings.TrimSpace(r.StudentID) == "" {
		missing = append(missing, "student_id")
	}
	if strings.TrimSpace(r.OwnerID) == "" {
		missing = append(missing, "owner_id")
	}
	if len(missing) > 0 {
		return Validationf("missing fields: %s", strings.Join(missing, ", "))
	}
	if !r.Weekday.Valid() {
		return Validationf("weekday must be one of monday..friday")
	}
	if r.EndTime == "" {
		if _, err := ParseClock(r.StartTime); err != nil {
			return err
		}
	} else if _, err := ParseInterval(r.StartTime, r.EndTime); err != nil {
		return err
	}
	if r.Modality == "" {
		r.Modality = DefaultReservationModality
	}
	if !r.Modality.Valid() {
		return Validationf("modality %q must be one of in_person, virtual, hybrid", r.Modality)
	}
	if strings.TrimSpace(r.Location) == "" {
		r.Location = DefaultReservationLocation
	}
	return nil
}

// NewReservation собирает активную бронь из нормализованного запроса
func NewReservation(req ReservationRequest, now time.Time) *Reservation {
	return &Reservation{
		ID:          uuid.New(),
		StudentID:   req.StudentID,
		StudentName: req.StudentName,
		OwnerID:     req.OwnerID,
		OwnerName:   req.OwnerName,
		Semester:    req.Semester,
		Subject:     req.Subject,
		Section:     req.Section,
		Weekday:     req.Weekday,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Modality:    req.Modality,
		Location:    req.Location,
		State:       ReservationStateActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
