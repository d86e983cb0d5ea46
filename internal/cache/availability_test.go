package cache

import (
	"context"
	"testing"
	"time"

	"github.com/Freeeeeet/tutoring_scheduler/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryAvailabilityCache_MarkAndClear(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryAvailabilityCache(0)
	key := model.SlotKey{OwnerID: "t-1", Weekday: model.Monday, StartTime: "09:00"}

	taken, err := c.IsTaken(ctx, key)
	require.NoError(t, err)
	assert.False(t, taken)

	require.NoError(t, c.MarkTaken(ctx, key))
	taken, err = c.IsTaken(ctx, key)
	require.NoError(t, err)
	assert.True(t, taken)

	other := key
	other.StartTime = "10:00"
	taken, err = c.IsTaken(ctx, other)
	require.NoError(t, err)
	assert.False(t, taken)

	require.NoError(t, c.Clear(ctx, key))
	taken, err = c.IsTaken(ctx, key)
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestMemoryAvailabilityCache_Expires(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 9, 7, 9, 0, 0, 0, time.UTC)
	c := NewMemoryAvailabilityCache(time.Minute)
	c.clock = func() time.Time { return now }
	key := model.SlotKey{OwnerID: "t-1", Weekday: model.Friday, StartTime: "14:30"}

	require.NoError(t, c.MarkTaken(ctx, key))

	now = now.Add(30 * time.Second)
	taken, _ := c.IsTaken(ctx, key)
	assert.True(t, taken)

	now = now.Add(time.Minute)
	taken, _ = c.IsTaken(ctx, key)
	assert.False(t, taken)
	assert.Empty(t, c.entries, "expired marker is dropped on lookup")
}

func TestMemoryAvailabilityCache_ExpiredLookupKeepsFreshMarker(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 9, 7, 9, 0, 0, 0, time.UTC)
	c := NewMemoryAvailabilityCache(time.Minute)
	c.clock = func() time.Time { return now }
	key := model.SlotKey{OwnerID: "t-1", Weekday: model.Friday, StartTime: "14:30"}
	other := model.SlotKey{OwnerID: "t-1", Weekday: model.Friday, StartTime: "15:30"}

	require.NoError(t, c.MarkTaken(ctx, key))
	now = now.Add(2 * time.Minute)
	require.NoError(t, c.MarkTaken(ctx, other))

	taken, _ := c.IsTaken(ctx, key)
	assert.False(t, taken)
	taken, _ = c.IsTaken(ctx, other)
	assert.True(t, taken)
	assert.Len(t, c.entries, 1)
}
