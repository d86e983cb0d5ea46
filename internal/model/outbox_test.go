package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutboxEvent_Backoff(t *testing.T) {
	now := time.Date(2026, 9, 7, 9, 0, 0, 0, time.UTC)
	e, err := NewOutboxEvent(EventSlotWithdrawn, SlotWithdrawn{OwnerID: "t-1", Weekday: Monday, StartTime: "09:00"}, 3, now)
	require.NoError(t, err)
	assert.True(t, e.Due(now))

	e.MarkFailed("boom", now)
	assert.Equal(t, OutboxStatusFailed, e.Status)
	assert.Equal(t, now.Add(time.Second), e.NextAttempt)
	assert.False(t, e.Due(now))
	assert.True(t, e.Due(now.Add(time.Second)))

	e.MarkFailed("boom", now)
	assert.Equal(t, now.Add(2*time.Second), e.NextAttempt)

	e.MarkFailed("boom", now)
	assert.True(t, e.IsDead())
	assert.False(t, e.Due(now.Add(time.Hour)))
	assert.Equal(t, "boom", e.LastError)
}

func TestOutboxEvent_Decode(t *testing.T) {
	now := time.Now()
	in := SlotWithdrawn{OwnerID: "t-1", Weekday: Friday, StartTime: "14:00", EndTime: "15:00", Reason: "deleted"}
	e, err := NewOutboxEvent(EventSlotWithdrawn, in, 0, now)
	require.NoError(t, err)
	assert.Equal(t, DefaultOutboxMaxAttempts, e.MaxAttempts)

	var out SlotWithdrawn
	require.NoError(t, e.Decode(&out))
	assert.Equal(t, in, out)

	e.MarkSent(now)
	assert.Equal(t, OutboxStatusSent, e.Status)
	assert.False(t, e.Due(now))
}

func TestOutboxEvent_BackoffIsCapped(t *testing.T) {
	now := time.Date(2026, 9, 7, 9, 0, 0, 0, time.UTC)
	e, err := NewOutboxEvent(EventReservationCreated, map[string]string{"id": "r-1"}, MaxOutboxAttempts, now)
	require.NoError(t, err)

	for i := 0; i < 40; i++ {
		e.MarkFailed("reports down", now)
		require.False(t, e.IsDead())
		require.True(t, e.NextAttempt.After(now), "attempt %d scheduled in the past", e.Attempts)
		require.LessOrEqual(t, e.NextAttempt.Sub(now), MaxOutboxBackoff)
	}
	assert.Equal(t, now.Add(MaxOutboxBackoff), e.NextAttempt)
	assert.False(t, e.Due(now.Add(time.Minute)))
}

func TestOutboxBackoff(t *testing.T) {
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{0, time.Second},
		{1, time.Second},
		{2, 2 * time.Second},
		{5, 16 * time.Second},
		{12, 2048 * time.Second},
		{13, time.Hour},
		{100, time.Hour},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, OutboxBackoff(tc.attempt), "attempt %d", tc.attempt)
	}
}
