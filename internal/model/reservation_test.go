package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReservationRequest_Normalize(t *testing.T) {
	req := ReservationRequest{
		StudentID: "s-1",
		OwnerID:   "t-1",
		Weekday:   Monday,
		StartTime: "09:00",
	}
	require.NoError(t, req.Normalize())
	assert.Equal(t, ModalityVirtual, req.Modality)
	assert.Equal(t, DefaultReservationLocation, req.Location)

	missing := ReservationRequest{Weekday: Monday, StartTime: "09:00"}
	err := missing.Normalize()
	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "student_id")
	assert.Contains(t, err.Error(), "owner_id")

	badEnd := req
	badEnd.EndTime = "08:00"
	assert.ErrorIs(t, badEnd.Normalize(), ErrValidation)
}

func TestReservation_CancelOnce(t *testing.T) {
	now := time.Date(2026, 9, 7, 9, 0, 0, 0, time.UTC)
	r := NewReservation(ReservationRequest{StudentID: "s-1", OwnerID: "t-1", Weekday: Monday, StartTime: "09:00"}, now)
	require.True(t, r.IsActive())

	later := now.Add(time.Hour)
	require.NoError(t, r.Cancel(CancelReasonByStudent, later))
	assert.Equal(t, ReservationStateCancelled, r.State)
	assert.Equal(t, later, r.UpdatedAt)
	require.NotNil(t, r.CancelledAt)

	err := r.Cancel(CancelReasonByStudent, later)
	assert.ErrorIs(t, err, ErrInvalidState)
}
