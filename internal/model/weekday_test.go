package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWeekday(t *testing.T) {
	d, err := ParseWeekday(" Monday ")
	require.NoError(t, err)
	assert.Equal(t, Monday, d)

	d, err = ParseWeekday("friday")
	require.NoError(t, err)
	assert.Equal(t, Friday, d)

	_, err = ParseWeekday("saturday")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestWeekday_JSON(t *testing.T) {
	raw, err := json.Marshal(struct {
		Day Weekday `json:"day"`
	}{Day: Wednesday})
	require.NoError(t, err)
	assert.JSONEq(t, `{"day":"wednesday"}`, string(raw))

	var out struct {
		Day Weekday `json:"day"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"day":"Thursday"}`), &out))
	assert.Equal(t, Thursday, out.Day)

	err = json.Unmarshal([]byte(`{"day":3}`), &out)
	assert.Error(t, err)

	_, err = json.Marshal(Weekday(7))
	assert.Error(t, err)
}

func TestWeekday_JSONUnset(t *testing.T) {
	raw, err := json.Marshal(SlotWithdrawn{OwnerID: "t-1", StartTime: "09:00"})
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"weekday":null`)

	var out SlotWithdrawn
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, Weekday(0), out.Weekday)
	assert.False(t, out.Weekday.Valid())

	_, err = NewOutboxEvent(EventSlotWithdrawn, SlotWithdrawn{OwnerID: "t-1"}, 0, time.Now())
	assert.NoError(t, err)
}
