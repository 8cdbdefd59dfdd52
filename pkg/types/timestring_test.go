package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTimeStringFromString(t *testing.T) {
	ts, err := NewTimeStringFromString("09:30")
	require.NoError(t, err)
	assert.Equal(t, "09:30", ts.String())

	// Single-digit hour is normalized
	ts, err = NewTimeStringFromString("9:05")
	require.NoError(t, err)
	assert.Equal(t, "09:05", ts.String())

	for _, bad := range []string{"", "25:00", "12:60", "12.30", "noon"} {
		_, err := NewTimeStringFromString(bad)
		assert.ErrorIs(t, err, ErrInvalidTimeString, "input %q", bad)
	}
}

func TestNewTimeString(t *testing.T) {
	ts := NewTimeString(time.Date(2026, 3, 16, 7, 5, 59, 0, time.UTC))
	assert.Equal(t, "07:05", ts.String())
}

func TestAddMinutes(t *testing.T) {
	ts := TimeString("22:30")

	got, err := ts.AddMinutes(60)
	require.NoError(t, err)
	assert.Equal(t, "23:30", got.String())

	// Crossing midnight is an error, not a wrap
	_, err = ts.AddMinutes(120)
	assert.Error(t, err)

	_, err = TimeString("00:30").AddMinutes(-60)
	assert.Error(t, err)
}

func TestComparisons(t *testing.T) {
	a := TimeString("09:00")
	b := TimeString("10:30")

	assert.True(t, a.IsBefore(b))
	assert.False(t, b.IsBefore(a))
	assert.True(t, b.IsAfter(a))
	assert.False(t, a.IsBefore(a))

	mins, err := a.MinutesUntil(b)
	require.NoError(t, err)
	assert.Equal(t, 90, mins)

	mins, err = b.MinutesUntil(a)
	require.NoError(t, err)
	assert.Equal(t, -90, mins)
}

func TestMinutesSinceMidnight(t *testing.T) {
	mins, err := TimeString("14:45").MinutesSinceMidnight()
	require.NoError(t, err)
	assert.Equal(t, 885, mins)

	_, err = TimeString("garbage").MinutesSinceMidnight()
	assert.ErrorIs(t, err, ErrInvalidTimeString)
}
