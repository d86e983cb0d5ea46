package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type SlotStatus string

const (
	SlotStatusActive   SlotStatus = "active"
	SlotStatusInactive SlotStatus = "inactive"
)

func (s SlotStatus) Valid() bool {
	return s == SlotStatusActive || s == SlotStatusInactive
}

type Modality string

const (
	ModalityInPerson Modality = "in_person"
	ModalityVirtual  Modality = "virtual"
	ModalityHybrid   Modality = "hybrid"
)

func (m Modality) Valid() bool {
	switch m {
	case ModalityInPerson, ModalityVirtual, ModalityHybrid:
		return true
	}
	return false
}

// Slot еженедельное окно консультаций преподавателя
type Slot struct {
	ID        uuid.UUID  `json:"id"`
	OwnerID   string     `json:"owner_id"`
	OwnerName string     `json:"owner_name"`
	Semester  string     `json:"semester"`
	Subject   string     `json:"subject"`
	Section   string     `json:"section"`
	Weekday   Weekday    `json:"weekday"`
	StartTime string     `json:"start_time"` // HH:MM
	EndTime   string     `json:"end_time"`   // HH:MM
	Modality  Modality   `json:"modality"`
	Location  string     `json:"location"`
	Capacity  int        `json:"capacity"` // только для отчётов, бронь на слот одна
	Notes     string     `json:"notes"`
	Status    SlotStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
}

func (s *Slot) IsActive() bool {
	return s.Status == SlotStatusActive
}

// Interval возвращает время слота в минутах; слот из хранилища всегда валиден
func (s *Slot) Interval() Interval {
	iv, _ := ParseInterval(s.StartTime, s.EndTime)
	return iv
}

// Key тройка, по которой студенты бронируют слот
func (s *Slot) Key() SlotKey {
	return SlotKey{OwnerID: s.OwnerID, Weekday: s.Weekday, StartTime: s.StartTime}
}

// SlotFields изменяемые поля слота; владелец задаётся только при создании
type SlotFields struct {
	OwnerName string
	Semester  string
	Subject   string
	Section   string
	Weekday   Weekday
	StartTime string
	EndTime   string
	Modality  Modality
	Location  string
	Capacity  int
	Notes     string
}

// Validate проверяет обязательные поля и формат времени
func (f SlotFields) Validate() error {
	var missing []string
	if strings.TrimSpace(f.Subject) == "" {
		missing = append(missing, "subject")
	}
	if strings.TrimSpace(f.Section) == "" {
		missing = append(missing, "section")
	}
	if strings.TrimSpace(f.Semester) == "" {
		missing = append(missing, "semester")
	}
	if len(missing) > 0 {
		return Validationf("missing fields: %s", strings.Join(missing, ", "))
	}
	if !f.Weekday.Valid() {
		return Validationf("weekday must be one of monday..friday")
	}
	if _, err := ParseInterval(f.StartTime, f.EndTime); err != nil {
		return err
	}
	if !f.Modality.Valid() {
		return Validationf("modality %q must be one of in_person, virtual, hybrid", f.Modality)
	}
	if f.Capacity <= 0 {
		return Validationf("capacity must be positive")
	}
	return nil
}

// Apply переносит поля в слот, не трогая идентичность и статус
func (f SlotFields) Apply(s *Slot) {
	s.OwnerName = f.OwnerName
	s.Semester = f.Semester
	s.Subject = f.Subject
	s.Section = f.Section
	s.Weekday = f.Weekday
	s.StartTime = f.StartTime
	s.EndTime = f.EndTime
	s.Modality = f.Modality
	s.Location = f.Location
	s.Capacity = f.Capacity
	s.Notes = f.Notes
}

// FindOverlap ищет среди активных слотов тот же день, пересекающийся с candidate.
// Слот с ID == exclude пропускается (используется при обновлении).
func FindOverlap(existing []*Slot, candidate *Slot, exclude uuid.UUID) *Slot {
	want := candidate.Interval()
	for _, other := range existing {
		if other.ID == exclude || !other.IsActive() {
			continue
		}
		if other.OwnerID != candidate.OwnerID || other.Weekday != candidate.Weekday {
			continue
		}
		if want.Overlaps(other.Interval()) {
			return other
		}
	}
	return nil
}

// SlotFilter фильтр каталога активных слотов; пустые поля не ограничивают выборку
type SlotFilter struct {
	Subject  string
	Section  string
	Semester string
}

func (f SlotFilter) Match(s *Slot) bool {
	if f.Subject != "" && s.Subject != f.Subject {
		return false
	}
	if f.Section != "" && s.Section != f.Section {
		return false
	}
	if f.Semester != "" && s.Semester != f.Semester {
		return false
	}
	return true
}
