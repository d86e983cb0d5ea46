package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: "00:00", want: 0},
		{in: "09:30", want: 570},
		{in: "23:59", want: 1439},
		{in: "24:00", wantErr: true},
		{in: "9:30", wantErr: true},
		{in: "09:60", wantErr: true},
		{in: "", wantErr: true},
		{in: "09:30:00", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClock(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseInterval_EndMustFollowStart(t *testing.T) {
	_, err := ParseInterval("10:00", "10:00")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = ParseInterval("11:00", "10:00")
	assert.ErrorIs(t, err, ErrValidation)

	iv, err := ParseInterval("10:00", "11:30")
	require.NoError(t, err)
	assert.Equal(t, Interval{Start: 600, End: 690}, iv)
}

func TestInterval_Overlaps(t *testing.T) {
	base := Interval{Start: 600, End: 660} // 10:00-11:00

	tests := []struct {
		name  string
		other Interval
		want  bool
	}{
		{"back to back after", Interval{Start: 660, End: 720}, false},
		{"back to back before", Interval{Start: 540, End: 600}, false},
		{"inside", Interval{Start: 615, End: 645}, true},
		{"covering", Interval{Start: 540, End: 720}, true},
		{"tail overlap", Interval{Start: 630, End: 690}, true},
		{"head overlap", Interval{Start: 570, End: 601}, true},
		{"identical", base, true},
		{"disjoint", Interval{Start: 800, End: 900}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, base.Overlaps(tt.other))
			assert.Equal(t, tt.want, tt.other.Overlaps(base))
		})
	}
}
