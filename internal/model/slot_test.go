package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validFields() SlotFields {
	return SlotFields{
		Semester:  "2026-fall",
		Subject:   "MATH101",
		Section:   "A",
		Weekday:   Monday,
		StartTime: "10:00",
		EndTime:   "11:00",
		Modality:  ModalityInPerson,
		Location:  "Room 204",
		Capacity:  1,
	}
}

func TestSlotFields_Validate(t *testing.T) {
	require.NoError(t, validFields().Validate())

	tests := []struct {
		name   string
		mutate func(f *SlotFields)
	}{
		{"missing subject", func(f *SlotFields) { f.Subject = " " }},
		{"missing semester", func(f *SlotFields) { f.Semester = "" }},
		{"bad weekday", func(f *SlotFields) { f.Weekday = 6 }},
		{"end before start", func(f *SlotFields) { f.EndTime = "09:00" }},
		{"bad time format", func(f *SlotFields) { f.StartTime = "1000" }},
		{"bad modality", func(f *SlotFields) { f.Modality = "remote" }},
		{"zero capacity", func(f *SlotFields) { f.Capacity = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validFields()
			tt.mutate(&f)
			assert.ErrorIs(t, f.Validate(), ErrValidation)
		})
	}
}

func newSlot(owner string, day Weekday, start, end string, status SlotStatus) *Slot {
	return &Slot{
		ID:        uuid.New(),
		OwnerID:   owner,
		Weekday:   day,
		StartTime: start,
		EndTime:   end,
		Status:    status,
	}
}

func TestFindOverlap(t *testing.T) {
	existing := []*Slot{
		newSlot("t-1", Monday, "10:00", "11:00", SlotStatusActive),
		newSlot("t-1", Monday, "13:00", "14:00", SlotStatusInactive),
		newSlot("t-2", Monday, "11:00", "12:00", SlotStatusActive),
		newSlot("t-1", Tuesday, "11:00", "12:00", SlotStatusActive),
	}

	t.Run("back to back is legal", func(t *testing.T) {
		c := newSlot("t-1", Monday, "11:00", "12:00", SlotStatusActive)
		assert.Nil(t, FindOverlap(existing, c, c.ID))
	})

	t.Run("overlap with active slot", func(t *testing.T) {
		c := newSlot("t-1", Monday, "10:30", "11:30", SlotStatusActive)
		got := FindOverlap(existing, c, c.ID)
		require.NotNil(t, got)
		assert.Equal(t, existing[0].ID, got.ID)
	})

	t.Run("inactive slots are ignored", func(t *testing.T) {
		c := newSlot("t-1", Monday, "13:30", "14:30", SlotStatusActive)
		assert.Nil(t, FindOverlap(existing, c, c.ID))
	})

	t.Run("excluded slot is ignored", func(t *testing.T) {
		c := newSlot("t-1", Monday, "10:15", "10:45", SlotStatusActive)
		assert.Nil(t, FindOverlap(existing, c, existing[0].ID))
	})
}

func TestSlotFilter_Match(t *testing.T) {
	s := &Slot{Subject: "MATH101", Section: "A", Semester: "2026-fall"}

	assert.True(t, SlotFilter{}.Match(s))
	assert.True(t, SlotFilter{Subject: "MATH101", Section: "A"}.Match(s))
	assert.False(t, SlotFilter{Section: "B"}.Match(s))
	assert.False(t, SlotFilter{Semester: "2027-spring"}.Match(s))
}
