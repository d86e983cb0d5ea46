package dispatch

import (
	"github.com/Freeeeeet/tutoring_scheduler/internal/model"
	"github.com/google/uuid"
)

const (
	KindCreateSlot                Kind = "create_slot"
	KindUpdateSlot                Kind = "update_slot"
	KindDeleteSlot                Kind = "delete_slot"
	KindSetSlotStatus             Kind = "set_slot_status"
	KindGetSlot                   Kind = "get_slot"
	KindListSlotsByOwner          Kind = "list_slots_by_owner"
	KindListActiveSlots           Kind = "list_active_slots"
	KindCreateReservation         Kind = "create_reservation"
	KindCancelReservation         Kind = "cancel_reservation"
	KindGetReservation            Kind = "get_reservation"
	KindFindReservationsByStudent Kind = "find_reservations_by_student"
	KindFindReservationsByOwner   Kind = "find_reservations_by_owner"
	KindIsAvailable               Kind = "is_available"
)

// SlotBody поля слота, общие для создания и обновления
type SlotBody struct {
	OwnerName string         `json:"owner_name"`
	Semester  string         `json:"semester" validate:"required"`
	Subject   string         `json:"subject" validate:"required"`
	Section   string         `json:"section" validate:"required"`
	Weekday   model.Weekday  `json:"weekday" validate:"required,min=1,max=5"`
	StartTime string         `json:"start_time" validate:"required"`
	EndTime   string         `json:"end_time" validate:"required"`
	Modality  model.Modality `json:"modality" validate:"required,oneof=in_person virtual hybrid"`
	Location  string         `json:"location"`
	Capacity  int            `json:"capacity" validate:"required,gt=0"`
	Notes     string         `json:"notes"`
}

func (b SlotBody) Fields() model.SlotFields {
	return model.SlotFields{
		OwnerName: b.OwnerName,
		Semester:  b.Semester,
		Subject:   b.Subject,
		Section:   b.Section,
		Weekday:   b.Weekday,
		StartTime: b.StartTime,
		EndTime:   b.EndTime,
		Modality:  b.Modality,
		Location:  b.Location,
		Capacity:  b.Capacity,
		Notes:     b.Notes,
	}
}

type CreateSlot struct {
	OwnerID string `json:"owner_id" validate:"required"`
	SlotBody
}

type UpdateSlot struct {
	ID uuid.UUID `json:"-" validate:"required"`
	SlotBody
}

type DeleteSlot struct {
	ID uuid.UUID `json:"-" validate:"required"`
}

type SetSlotStatus struct {
	ID     uuid.UUID        `json:"-" validate:"required"`
	Status model.SlotStatus `json:"status" validate:"required,oneof=active inactive"`
}

type GetSlot struct {
	ID uuid.UUID `json:"id" validate:"required"`
}

type ListSlotsByOwner struct {
	OwnerID string `json:"owner_id" validate:"required"`
}

type ListActiveSlots struct {
	Subject  string `json:"subject"`
	Section  string `json:"section"`
	Semester string `json:"semester"`
}

// CreateReservation снимок слота на момент бронирования. Слот в базе слотов
// не проверяется, за соответствие снимка отвечает вызывающий.
type CreateReservation struct {
	StudentID   string         `json:"student_id" validate:"required"`
	StudentName string         `json:"student_name"`
	OwnerID     string         `json:"owner_id" validate:"required"`
	OwnerName   string         `json:"owner_name"`
	Semester    string         `json:"semester"`
	Subject     string         `json:"subject"`
	Section     string         `json:"section"`
	Weekday     model.Weekday  `json:"weekday" validate:"required,min=1,max=5"`
	StartTime   string         `json:"start_time" validate:"required"`
	EndTime     string         `json:"end_time"`
	Modality    model.Modality `json:"modality" validate:"omitempty,oneof=in_person virtual hybrid"`
	Location    string         `json:"location"`
}

func (r CreateReservation) Request() model.ReservationRequest {
	return model.ReservationRequest{
		StudentID:   r.StudentID,
		StudentName: r.StudentName,
		OwnerID:     r.OwnerID,
		OwnerName:   r.OwnerName,
		Semester:    r.Semester,
		Subject:     r.Subject,
		Section:     r.Section,
		Weekday:     r.Weekday,
		StartTime:   r.StartTime,
		EndTime:     r.EndTime,
		Modality:    r.Modality,
		Location:    r.Location,
	}
}

type CancelReservation struct {
	ID uuid.UUID `json:"id" validate:"required"`
}

type GetReservation struct {
	ID uuid.UUID `json:"id" validate:"required"`
}

type FindReservationsByStudent struct {
	StudentID string `json:"student_id" validate:"required"`
}

type FindReservationsByOwner struct {
	OwnerID string `json:"owner_id" validate:"required"`
}

type IsAvailable struct {
	OwnerID   string        `json:"owner_id" validate:"required"`
	Weekday   model.Weekday `json:"weekday" validate:"required,min=1,max=5"`
	StartTime string        `json:"start_time" validate:"required"`
}

func (r IsAvailable) Key() model.SlotKey {
	return model.SlotKey{OwnerID: r.OwnerID, Weekday: r.Weekday, StartTime: r.StartTime}
}

func (CreateSlot) Kind() Kind                { return KindCreateSlot }
func (UpdateSlot) Kind() Kind                { return KindUpdateSlot }
func (DeleteSlot) Kind() Kind                { return KindDeleteSlot }
func (SetSlotStatus) Kind() Kind             { return KindSetSlotStatus }
func (GetSlot) Kind() Kind                   { return KindGetSlot }
func (ListSlotsByOwner) Kind() Kind          { return KindListSlotsByOwner }
func (ListActiveSlots) Kind() Kind           { return KindListActiveSlots }
func (CreateReservation) Kind() Kind         { return KindCreateReservation }
func (CancelReservation) Kind() Kind         { return KindCancelReservation }
func (GetReservation) Kind() Kind            { return KindGetReservation }
func (FindReservationsByStudent) Kind() Kind { return KindFindReservationsByStudent }
func (FindReservationsByOwner) Kind() Kind   { return KindFindReservationsByOwner }
func (IsAvailable) Kind() Kind               { return KindIsAvailable }

func (CreateSlot) isRequest()                {}
func (UpdateSlot) isRequest()                {}
func (DeleteSlot) isRequest()                {}
func (SetSlotStatus) isRequest()             {}
func (GetSlot) isRequest()                   {}
func (ListSlotsByOwner) isRequest()          {}
func (ListActiveSlots) isRequest()           {}
func (CreateReservation) isRequest()         {}
func (CancelReservation) isRequest()         {}
func (GetReservation) isRequest()            {}
func (FindReservationsByStudent) isRequest() {}
func (FindReservationsByOwner) isRequest()   {}
func (IsAvailable) isRequest()               {}
